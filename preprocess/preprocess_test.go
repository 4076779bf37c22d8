package preprocess

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quartzray/pathtrace/envcache"
	"github.com/quartzray/pathtrace/lightstrategy"
	"github.com/quartzray/pathtrace/math32"
	"github.com/quartzray/pathtrace/sceneio"
	"github.com/quartzray/pathtrace/scenevis"
)

type fakeLight struct{ power float32 }

func (f *fakeLight) Illuminate(p math32.Vector3, u0, u1, u2 float32) (math32.Vector3, float32, float32, float32, float32, math32.Vector3, bool) {
	return math32.Vector3{Z: -1}, 1, 1, 1, 1, math32.Vector3{X: 1, Y: 1, Z: 1}, true
}
func (f *fakeLight) Emit(u0, u1, u2, u3, u4 float32) (math32.Vector3, math32.Vector3, float32, float32, float32, math32.Vector3, bool) {
	return math32.Vector3{}, math32.Vector3{Z: -1}, 1, 1, 1, math32.Vector3{}, true
}
func (f *fakeLight) Power(scene sceneio.SceneInfo) float32 { return f.power }

type neverOccludedRays struct{}

func (neverOccludedRays) Intersect(ray *math32.Ray) sceneio.RayHit {
	return sceneio.RayHit{T: 1, MeshIndex: 0, TriangleIndex: 0}
}
func (neverOccludedRays) IntersectAny(ray *math32.Ray) bool { return false }

type fakeCamera struct{}

func (fakeCamera) GenerateRay(filmX, filmY, time float32) math32.Ray {
	origin := math32.Vector3{X: filmX, Y: filmY, Z: 0}
	dir := math32.Vector3{Z: 1}
	ray := math32.NewRay(&origin, &dir)
	ray.SetRange(0, math32.Infinity)
	return *ray
}

type diffuseBSDF struct{}

func (diffuseBSDF) Evaluate(wi, wo math32.Vector3) (math32.Vector3, sceneio.BSDFEvent, float32, float32) {
	return math32.Vector3{X: 0.5, Y: 0.5, Z: 0.5}, sceneio.EventDiffuse, 1, 1
}
func (diffuseBSDF) Sample(fixed math32.Vector3, u0, u1 float32) (math32.Vector3, math32.Vector3, float32, float32, sceneio.BSDFEvent) {
	return math32.Vector3{Z: -1}, math32.Vector3{X: 1, Y: 1, Z: 1}, 1, 1, sceneio.EventDiffuse
}
func (diffuseBSDF) Pdf(wi, wo math32.Vector3) (float32, float32) { return 1, 1 }
func (diffuseBSDF) IsDelta() bool                                { return false }
func (diffuseBSDF) IsVolume() bool                               { return false }
func (diffuseBSDF) IsPhotonGIEnabled() bool                      { return true }
func (diffuseBSDF) Glossiness() float32                          { return 1 }

func resolver(hit sceneio.RayHit, ray math32.Ray) (math32.Vector3, math32.Vector3, sceneio.BSDF, bool) {
	p := ray.At(hit.T, nil)
	return *p, math32.Vector3{Z: 1}, diffuseBSDF{}, true
}

func testBounds() math32.Box3 {
	min := math32.Vector3{X: -10, Y: -10, Z: -10}
	max := math32.Vector3{X: 10, Y: 10, Z: 10}
	var b math32.Box3
	b.Set(&min, &max)
	return b
}

type roundRobinSampler struct {
	values []float32
	idx    int64
}

func (s *roundRobinSampler) Next() float32 {
	i := atomic.AddInt64(&s.idx, 1) - 1
	return s.values[int(i)%len(s.values)]
}

func TestBuildDLSCacheProducesQueryableEntries(t *testing.T) {
	params := scenevis.DefaultParams()
	params.WorkSize = 4
	params.MaxSampleCount = 4
	params.MaxPathDepth = 1
	params.FilmWidth = 10
	params.FilmHeight = 10
	params.LookUpRadius = 0.01

	driver := scenevis.NewDriver(params, testBounds(), 8, neverOccludedRays{}, fakeCamera{}, resolver, DLSHook{}, nil)
	sampler := &roundRobinSampler{values: []float32{0.01, 0.01, 0.5, 0.5, 0.9, 0.9}}
	particles := driver.Run([]sceneio.Sampler{sampler})

	require.Greater(t, particles.Len(), 0)

	lights := []sceneio.LightSource{&fakeLight{power: 1}}
	entryParams := lightstrategy.DefaultEntryParams()
	entryParams.MaxPasses = 16
	entryParams.WarmUpSamples = 2
	cacheParams := lightstrategy.DefaultParams()

	rng := &roundRobinSampler{values: []float32{0.1, 0.2, 0.3, 0.4, 0.5}}
	cache := BuildDLSCache(particles, lights, neverOccludedRays{}, entryParams, cacheParams, rng.Next, nil)

	entry, ok := cache.Lookup(math32.Vector3{X: 0.1, Y: 0.1, Z: 1}, math32.Vector3{Z: 1}, false)
	require.True(t, ok)
	assert.False(t, entry.IsDirectLightSamplingDisabled())
}

func TestBuildELVCProducesQueryableEntries(t *testing.T) {
	params := scenevis.DefaultParams()
	params.WorkSize = 4
	params.MaxSampleCount = 4
	params.MaxPathDepth = 1
	params.FilmWidth = 10
	params.FilmHeight = 10
	params.LookUpRadius = 0.01

	driver := scenevis.NewDriver(params, testBounds(), 8, neverOccludedRays{}, fakeCamera{}, resolver, ELVCHook{}, nil)
	sampler := &roundRobinSampler{values: []float32{0.01, 0.01}}
	particles := driver.Run([]sceneio.Sampler{sampler})
	require.Greater(t, particles.Len(), 0)

	mapParams := envcache.MapParams{Quality: 0}
	visParams := envcache.DefaultVisibilityParams()
	visParams.Radius = 1

	rng := &roundRobinSampler{values: []float32{0.25, 0.75}}
	cache := BuildELVC(particles, neverOccludedRays{}, mapParams, visParams, nil, rng.Next, nil)

	_, pdf, ok := cache.Sample(math32.Vector3{X: 0.1, Y: 0.1, Z: 1}, math32.Vector3{Z: 1}, false, 10, 0.3, 0.3)
	require.True(t, ok)
	assert.Greater(t, pdf, float32(0))
}
