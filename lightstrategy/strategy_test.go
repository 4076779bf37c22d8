package lightstrategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quartzray/pathtrace/math32"
	"github.com/quartzray/pathtrace/sceneio"
)

type fakeLight struct {
	power float32
}

func (f *fakeLight) Illuminate(p math32.Vector3, u0, u1, u2 float32) (math32.Vector3, float32, float32, float32, float32, math32.Vector3, bool) {
	return math32.Vector3{Z: -1}, 1, 1, 1, 1, math32.Vector3{X: 1, Y: 1, Z: 1}, true
}

func (f *fakeLight) Emit(u0, u1, u2, u3, u4 float32) (math32.Vector3, math32.Vector3, float32, float32, float32, math32.Vector3, bool) {
	return math32.Vector3{}, math32.Vector3{Z: -1}, 1, 1, 1, math32.Vector3{}, true
}

func (f *fakeLight) Power(scene sceneio.SceneInfo) float32 { return f.power }

type fakeSceneInfo struct{}

func (fakeSceneInfo) WorldBound() math32.Box3 { return math32.Box3{} }

func TestStaticStrategyUniform(t *testing.T) {
	lights := []sceneio.LightSource{&fakeLight{power: 1}, &fakeLight{power: 100}}
	s := NewStaticStrategy(Uniform, lights, fakeSceneInfo{})

	_, pdf0 := s.SampleLights(0.1)
	_, pdf1 := s.SampleLights(0.9)
	assert.InDelta(t, 0.5, pdf0, 1e-6)
	assert.InDelta(t, 0.5, pdf1, 1e-6)
}

func TestStaticStrategyPowerWeighted(t *testing.T) {
	lights := []sceneio.LightSource{&fakeLight{power: 1}, &fakeLight{power: 99}}
	s := NewStaticStrategy(Power, lights, fakeSceneInfo{})

	light, pdf := s.SampleLights(0.999)
	require.NotNil(t, light)
	assert.Same(t, lights[1], light)
	assert.Greater(t, pdf, float32(0.9))
}

func TestStaticStrategySampleLightPdfMatchesSample(t *testing.T) {
	lights := []sceneio.LightSource{&fakeLight{power: 4}, &fakeLight{power: 1}}
	s := NewStaticStrategy(Power, lights, fakeSceneInfo{})

	pdf := s.SampleLightPdf(lights[0])
	assert.InDelta(t, 0.8, pdf, 1e-6)
}
