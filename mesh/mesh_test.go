package mesh

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quartzray/pathtrace/math32"
	"github.com/quartzray/pathtrace/motion"
)

func unitQuad() *PlainMesh {
	verts := []math32.Vector3{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 1, Y: 1, Z: 0},
		{X: 0, Y: 1, Z: 0},
	}
	tris := []Triangle{
		{V0: 0, V1: 1, V2: 2},
		{V0: 0, V1: 2, V2: 3},
	}
	return NewPlainMesh(verts, tris)
}

func TestPlainMeshArea(t *testing.T) {
	m := unitQuad()
	assert.InDelta(t, 1.0, m.Area(), 1e-5)
}

func TestPlainMeshWorldBound(t *testing.T) {
	m := unitQuad()
	box := m.WorldBound()
	assert.InDelta(t, 0, box.Min.X, 1e-6)
	assert.InDelta(t, 1, box.Max.X, 1e-6)
	assert.InDelta(t, 1, box.Max.Y, 1e-6)
	assert.InDelta(t, 0, box.Max.Z, 1e-6)
}

func TestPlainMeshSampleAreaStaysOnSurface(t *testing.T) {
	m := unitQuad()
	for _, uv := range [][2]float32{{0, 0}, {0.2, 0.7}, {0.99, 0.01}, {0.5, 0.5}} {
		p, n, pdf := m.SampleArea(uv[0], uv[1])
		assert.InDelta(t, 0, p.Z, 1e-5)
		assert.GreaterOrEqual(t, p.X, float32(-1e-5))
		assert.GreaterOrEqual(t, p.Y, float32(-1e-5))
		assert.InDelta(t, 1, float64(n.Length()), 1e-4)
		assert.InDelta(t, 1.0, pdf, 1e-5)
	}
}

func TestInstancedMeshAppliesTransform(t *testing.T) {
	base := unitQuad()
	var xform math32.Matrix4
	xform.MakeTranslation(5, 0, 0)

	inst := NewInstancedMesh(base, xform)
	box := inst.WorldBound()
	assert.InDelta(t, 5, box.Min.X, 1e-5)
	assert.InDelta(t, 6, box.Max.X, 1e-5)

	p, _, _ := inst.SampleArea(0.25, 0.25)
	assert.GreaterOrEqual(t, p.X, float32(4.999))
}

func TestInstancedMeshScaledArea(t *testing.T) {
	base := unitQuad()
	var xform math32.Matrix4
	xform.MakeScale(2, 2, 2)

	inst := NewInstancedMesh(base, xform)
	assert.InDelta(t, 4.0, float64(inst.Area()), 1e-2)
}

func TestMotionMeshBoundCoversSweep(t *testing.T) {
	base := unitQuad()

	var start, end math32.Matrix4
	start.Identity()
	end.MakeTranslation(10, 0, 0)

	m, err := motion.NewMotion([]float32{0, 1}, []math32.Matrix4{start, end})
	require.NoError(t, err)

	mm := NewMotionMesh(base, m)
	box := mm.WorldBound()
	assert.InDelta(t, 0, box.Min.X, 1e-2)
	assert.GreaterOrEqual(t, box.Max.X, float32(10.9))
}

func TestMotionMeshTransformAtEndpoints(t *testing.T) {
	base := unitQuad()

	var start, end math32.Matrix4
	start.Identity()
	end.MakeTranslation(3, 0, 0)

	m, err := motion.NewMotion([]float32{0, 1}, []math32.Matrix4{start, end})
	require.NoError(t, err)

	mm := NewMotionMesh(base, m)
	at0 := mm.TransformAt(0)
	at1 := mm.TransformAt(1)
	assert.InDelta(t, 0, math.Abs(float64(at0[12])), 1e-5)
	assert.InDelta(t, 3, at1[12], 1e-5)
}

func TestExtensionDataOptional(t *testing.T) {
	m := unitQuad()
	assert.Nil(t, m.Extension())

	ext := &ExtensionData{Normals: make([]math32.Vector3, m.VertexCount())}
	m.SetExtension(ext)
	assert.True(t, m.Extension().HasNormals())
}
