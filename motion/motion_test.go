package motion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quartzray/pathtrace/math32"
)

func rotationAboutZ(angle float32) math32.Matrix4 {
	var m math32.Matrix4
	var q math32.Quaternion
	q.SetFromAxisAngle(&math32.Vector3{Z: 1}, angle)
	m.MakeRotationFromQuaternion(&q)
	return m
}

func TestDecomposeIdentity(t *testing.T) {
	var m math32.Matrix4
	m.Identity()
	d := Decompose(&m)
	require.True(t, d.Valid)
	assert.InDelta(t, 1, d.Sx, 1e-5)
	assert.InDelta(t, 1, d.Sy, 1e-5)
	assert.InDelta(t, 1, d.Sz, 1e-5)
	assert.InDelta(t, 0, d.Tx, 1e-5)
}

func TestDecomposeSingularIsInvalid(t *testing.T) {
	var m math32.Matrix4
	m.Identity()
	m[0] = 0 // collapse the X basis vector to zero: singular upper-left 3x3
	d := Decompose(&m)
	assert.False(t, d.Valid)
}

// TestTransformRoundTrip builds a T*R*S matrix, checks that it decomposes
// validly as a segment endpoint, and that InterpolatedTransform.Sample at the
// segment's end and start times returns that matrix and the identity. Sample
// returns the stored endpoint matrices there, so this does not exercise a
// recomposition from the decomposed parts.
func TestTransformRoundTrip(t *testing.T) {
	var scale, rotate, translate, composed math32.Matrix4
	scale.MakeScale(2, 3, 0.5)
	rotate = rotationAboutZ(0.7)
	translate.MakeTranslation(5, -2, 1)

	composed.MultiplyMatrices(&translate, &rotate)
	composed.Multiply(&scale)

	var identity math32.Matrix4
	identity.Identity()

	it, err := NewInterpolatedTransform(0, 1, identity, composed)
	require.NoError(t, err)

	sampled := it.Sample(1)
	for i := 0; i < 16; i++ {
		assert.InDelta(t, composed[i], sampled[i], 1e-3, "component %d", i)
	}

	sampledStart := it.Sample(0)
	for i := 0; i < 16; i++ {
		assert.InDelta(t, identity[i], sampledStart[i], 1e-3, "component %d", i)
	}
}

// TestMotionEndpoints checks that sampling at or before the first knot and
// at or after the last knot returns exactly the boundary transforms (the
// spec's "Motion endpoints" testable property).
func TestMotionEndpoints(t *testing.T) {
	var start, mid, end math32.Matrix4
	start.MakeTranslation(0, 0, 0)
	mid.MakeTranslation(5, 0, 0)
	end.MakeTranslation(10, 0, 0)

	m, err := NewMotion([]float32{0, 0.5, 1}, []math32.Matrix4{start, mid, end})
	require.NoError(t, err)

	before := m.Sample(-1)
	after := m.Sample(2)
	atStart := m.Sample(0)
	atEnd := m.Sample(1)

	assert.InDelta(t, 0, before[12], 1e-5)
	assert.InDelta(t, 10, after[12], 1e-5)
	assert.InDelta(t, 0, atStart[12], 1e-5)
	assert.InDelta(t, 10, atEnd[12], 1e-5)
}

func TestMotionStaticFastPath(t *testing.T) {
	var xform math32.Matrix4
	xform.MakeTranslation(3, 4, 5)
	m := NewStaticMotion(xform)
	assert.True(t, m.IsStatic())

	sampled := m.Sample(0.37)
	assert.InDelta(t, 3, sampled[12], 1e-6)
	assert.InDelta(t, 4, sampled[13], 1e-6)
	assert.InDelta(t, 5, sampled[14], 1e-6)
}

func TestMotionRejectsNonMonotoneKnots(t *testing.T) {
	var a, b math32.Matrix4
	a.Identity()
	b.Identity()
	_, err := NewMotion([]float32{1, 0}, []math32.Matrix4{a, b})
	require.Error(t, err)

	_, err = NewMotion([]float32{0, 0}, []math32.Matrix4{a, b})
	require.Error(t, err)
}

func TestMotionBoundCoversSweep(t *testing.T) {
	var start, end math32.Matrix4
	start.Identity()
	end.MakeTranslation(20, 0, 0)

	m, err := NewMotion([]float32{0, 1}, []math32.Matrix4{start, end})
	require.NoError(t, err)

	var box math32.Box3
	box.Set(&math32.Vector3{X: -1, Y: -1, Z: -1}, &math32.Vector3{X: 1, Y: 1, Z: 1})

	bound := m.Bound(box)
	assert.InDelta(t, -1, bound.Min.X, 1e-2)
	assert.GreaterOrEqual(t, bound.Max.X, float32(20.9))
}

func TestMotionConcatenate(t *testing.T) {
	var a0, a1, b0, b1 math32.Matrix4
	a0.Identity()
	a1.MakeTranslation(1, 0, 0)
	b0.MakeTranslation(0, 2, 0)
	b1.MakeTranslation(0, 2, 0)

	ma, err := NewMotion([]float32{0, 1}, []math32.Matrix4{a0, a1})
	require.NoError(t, err)
	mb, err := NewMotion([]float32{0, 1}, []math32.Matrix4{b0, b1})
	require.NoError(t, err)

	composed := ma.Concatenate(mb)
	at0 := composed.Sample(0)
	at1 := composed.Sample(1)

	assert.InDelta(t, 0, at0[12], 1e-4)
	assert.InDelta(t, 2, at0[13], 1e-4)
	assert.InDelta(t, 1, at1[12], 1e-4)
	assert.InDelta(t, 2, at1[13], 1e-4)
}

func TestInterpolatedTransformStaticFastPath(t *testing.T) {
	var xform math32.Matrix4
	xform.MakeTranslation(1, 1, 1)
	it, err := NewInterpolatedTransform(0, 1, xform, xform)
	require.NoError(t, err)
	assert.True(t, it.IsStatic())
}
