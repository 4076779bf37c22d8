package mesh

import (
	"github.com/quartzray/pathtrace/math32"
	"github.com/quartzray/pathtrace/motion"
)

// MaxChannels is the number of independent per-vertex/per-triangle extended
// data channels a mesh may carry (UVs, colors, alphas, vertex-AOVs,
// triangle-AOVs), matching the source's fixed channel count.
const MaxChannels = 8

// Triangle is an index triplet into a mesh's vertex buffer.
type Triangle struct {
	V0, V1, V2 uint32
}

// Mesh is the common contract over plain, instanced, and motion-blurred
// triangle meshes: vertex/triangle counts, triangle index lookup, per-vertex
// positions, and queries parameterized by a local-to-world transform sampled
// at a given ray time.
type Mesh interface {
	// VertexCount returns the total number of vertices in local space.
	VertexCount() int
	// TriangleCount returns the total number of triangles.
	TriangleCount() int
	// TriangleAt returns the index triplet of triangle i.
	TriangleAt(i int) Triangle
	// VertexAt returns the local-space position of vertex i.
	VertexAt(i int) math32.Vector3
	// TransformAt returns the local-to-world transform this mesh applies at
	// the given ray time (identity for a plain mesh, the instance's static
	// transform for an instanced mesh, or Motion.Sample(time) for a motion
	// mesh).
	TransformAt(time float32) math32.Matrix4
	// WorldBound returns the cached world-space bounding box, accounting for
	// the full range of transforms this mesh may apply (a swept bound for a
	// motion mesh).
	WorldBound() math32.Box3
	// Area returns the cached world-space surface area under the mesh's
	// nominal (time-independent, or start-time for a motion mesh) transform.
	Area() float32
	// SampleArea draws a uniform point on the mesh surface (area-weighted
	// across triangles) from two canonical random numbers, returning the
	// world-space point, geometric normal, and the pdf with respect to area.
	SampleArea(u0, u1 float32) (p, n math32.Vector3, pdf float32)
	// Extension returns the optional per-vertex/per-triangle extended data,
	// or nil if the mesh carries none.
	Extension() *ExtensionData
}

// ExtensionData holds a triangle mesh's optional per-vertex normals and up
// to MaxChannels independent channels each of UVs, colors, alphas,
// vertex-AOV floats, and triangle-AOV floats.
type ExtensionData struct {
	Normals []math32.Vector3 // per-vertex, len == VertexCount or 0

	UVs        [MaxChannels][]math32.Vector2
	Colors     [MaxChannels][]math32.Color
	Alphas     [MaxChannels][]float32
	VertexAOV  [MaxChannels][]float32
	TriangleAOV [MaxChannels][]float32
}

// HasNormals reports whether per-vertex normals are present.
func (e *ExtensionData) HasNormals() bool {
	return e != nil && len(e.Normals) > 0
}

// cachedBounds mirrors the teacher's cached-bbox-with-Valid-flag pattern:
// the box/area are computed lazily and invalidated whenever the owning
// mesh's geometry or transform changes.
type cachedBounds struct {
	box   math32.Box3
	area  float32
	valid bool
}

func (c *cachedBounds) invalidate() { c.valid = false }

// PlainMesh exclusively owns its vertex and triangle arrays: a leaf mesh
// with no further transform beyond the identity (any instancing wraps it).
type PlainMesh struct {
	vertices   *VertexBuffer
	triangles  []Triangle
	extension  *ExtensionData
	bounds     cachedBounds
}

// NewPlainMesh constructs a PlainMesh that exclusively owns vertices and
// triangles.
func NewPlainMesh(vertices []math32.Vector3, triangles []Triangle) *PlainMesh {
	return &PlainMesh{
		vertices:  NewOwnedVertexBuffer(vertices),
		triangles: triangles,
	}
}

// SetExtension attaches optional per-vertex/per-triangle extended data,
// invalidating nothing (extension data does not affect bounds/area).
func (m *PlainMesh) SetExtension(ext *ExtensionData) { m.extension = ext }

func (m *PlainMesh) VertexCount() int { return m.vertices.Len() }

func (m *PlainMesh) TriangleCount() int { return len(m.triangles) }

func (m *PlainMesh) TriangleAt(i int) Triangle { return m.triangles[i] }

func (m *PlainMesh) VertexAt(i int) math32.Vector3 { return m.vertices.At(i) }

func (m *PlainMesh) TransformAt(time float32) math32.Matrix4 {
	var identity math32.Matrix4
	identity.Identity()
	return identity
}

func (m *PlainMesh) Extension() *ExtensionData { return m.extension }

// Invalidate forces the cached bounds/area to be recomputed on next access;
// callers mutating the vertex buffer in place must call this.
func (m *PlainMesh) Invalidate() { m.bounds.invalidate() }

func (m *PlainMesh) ensureBounds() {
	if m.bounds.valid {
		return
	}
	var box math32.Box3
	box.MakeEmpty()
	for i := 0; i < m.vertices.Len(); i++ {
		v := m.vertices.At(i)
		box.ExpandByPoint(&v)
	}
	m.bounds.box = box
	m.bounds.area = computeArea(m.vertices, m.triangles)
	m.bounds.valid = true
}

func (m *PlainMesh) WorldBound() math32.Box3 {
	m.ensureBounds()
	return m.bounds.box
}

func (m *PlainMesh) Area() float32 {
	m.ensureBounds()
	return m.bounds.area
}

func (m *PlainMesh) SampleArea(u0, u1 float32) (p, n math32.Vector3, pdf float32) {
	return sampleAreaOf(m.vertices, m.triangles, m.Area(), u0, u1)
}

// InstancedMesh references a base mesh by shared ownership and applies a
// fixed local-to-world transform at query time. Several InstancedMesh
// values may reference the same base concurrently; lifetime of the base is
// the longest-lived holder (ordinary Go GC, no manual refcounting needed).
type InstancedMesh struct {
	base      Mesh
	transform math32.Matrix4
	bounds    cachedBounds
}

// NewInstancedMesh wraps base with a static local-to-world transform.
func NewInstancedMesh(base Mesh, transform math32.Matrix4) *InstancedMesh {
	return &InstancedMesh{base: base, transform: transform}
}

func (m *InstancedMesh) VertexCount() int          { return m.base.VertexCount() }
func (m *InstancedMesh) TriangleCount() int        { return m.base.TriangleCount() }
func (m *InstancedMesh) TriangleAt(i int) Triangle { return m.base.TriangleAt(i) }
func (m *InstancedMesh) VertexAt(i int) math32.Vector3 { return m.base.VertexAt(i) }
func (m *InstancedMesh) Extension() *ExtensionData { return m.base.Extension() }

func (m *InstancedMesh) TransformAt(time float32) math32.Matrix4 { return m.transform }

func (m *InstancedMesh) ensureBounds() {
	if m.bounds.valid {
		return
	}
	base := m.base.WorldBound()
	xform := m.transform
	box := base
	box.ApplyMatrix4(&xform)
	m.bounds.box = box
	m.bounds.area = m.base.Area() * areaScaleFactor(&xform)
	m.bounds.valid = true
}

func (m *InstancedMesh) WorldBound() math32.Box3 {
	m.ensureBounds()
	return m.bounds.box
}

func (m *InstancedMesh) Area() float32 {
	m.ensureBounds()
	return m.bounds.area
}

func (m *InstancedMesh) SampleArea(u0, u1 float32) (p, n math32.Vector3, pdf float32) {
	p, n, pdf = m.base.SampleArea(u0, u1)
	xform := m.transform
	p.ApplyMatrix4(&xform)
	var normalMatrix math32.Matrix4
	normalMatrix.GetInverse(&xform)
	normalMatrix.Transpose()
	n.ApplyMatrix4(&normalMatrix)
	n.Normalize()
	scale := areaScaleFactor(&xform)
	if scale > 0 {
		pdf /= scale
	}
	return p, n, pdf
}

// MotionMesh references a base mesh by shared ownership and applies a
// time-varying transform sampled from a motion.Motion at query time.
type MotionMesh struct {
	base   Mesh
	motion *motion.Motion
	bounds cachedBounds
}

// NewMotionMesh wraps base with a time-varying transform.
func NewMotionMesh(base Mesh, m *motion.Motion) *MotionMesh {
	return &MotionMesh{base: base, motion: m}
}

func (m *MotionMesh) VertexCount() int              { return m.base.VertexCount() }
func (m *MotionMesh) TriangleCount() int            { return m.base.TriangleCount() }
func (m *MotionMesh) TriangleAt(i int) Triangle     { return m.base.TriangleAt(i) }
func (m *MotionMesh) VertexAt(i int) math32.Vector3 { return m.base.VertexAt(i) }
func (m *MotionMesh) Extension() *ExtensionData     { return m.base.Extension() }

func (m *MotionMesh) TransformAt(time float32) math32.Matrix4 {
	return m.motion.Sample(time)
}

func (m *MotionMesh) ensureBounds() {
	if m.bounds.valid {
		return
	}
	m.bounds.box = m.motion.Bound(m.base.WorldBound())
	start := m.motion.Sample(m.motion.StartTime())
	m.bounds.area = m.base.Area() * areaScaleFactor(&start)
	m.bounds.valid = true
}

func (m *MotionMesh) WorldBound() math32.Box3 {
	m.ensureBounds()
	return m.bounds.box
}

func (m *MotionMesh) Area() float32 {
	m.ensureBounds()
	return m.bounds.area
}

func (m *MotionMesh) SampleArea(u0, u1 float32) (p, n math32.Vector3, pdf float32) {
	p, n, pdf = m.base.SampleArea(u0, u1)
	xform := m.motion.Sample(m.motion.StartTime())
	p.ApplyMatrix4(&xform)
	var normalMatrix math32.Matrix4
	normalMatrix.GetInverse(&xform)
	normalMatrix.Transpose()
	n.ApplyMatrix4(&normalMatrix)
	n.Normalize()
	scale := areaScaleFactor(&xform)
	if scale > 0 {
		pdf /= scale
	}
	return p, n, pdf
}

// areaScaleFactor approximates the surface-area scaling a transform induces,
// using the cube root of the absolute determinant as a uniform-scale proxy;
// exact for similarity transforms (pure T*S*R, no shear), which is the
// common case for scene instancing.
func areaScaleFactor(m *math32.Matrix4) float32 {
	det := m.Determinant()
	if det < 0 {
		det = -det
	}
	return math32.Pow(det, 2.0/3.0)
}

func computeArea(vertices *VertexBuffer, triangles []Triangle) float32 {
	var total float32
	for _, tri := range triangles {
		a := vertices.At(int(tri.V0))
		b := vertices.At(int(tri.V1))
		c := vertices.At(int(tri.V2))
		total += triangleArea(&a, &b, &c)
	}
	return total
}

func triangleArea(a, b, c *math32.Vector3) float32 {
	var e1, e2, cross math32.Vector3
	e1.SubVectors(b, a)
	e2.SubVectors(c, a)
	cross.CrossVectors(&e1, &e2)
	return 0.5 * cross.Length()
}

// sampleAreaOf draws a triangle proportional to its area (linear scan
// weighted by cumulative area, adequate for meshes without a dedicated
// per-triangle alias table) then a uniform point within it.
func sampleAreaOf(vertices *VertexBuffer, triangles []Triangle, totalArea float32, u0, u1 float32) (p, n math32.Vector3, pdf float32) {

	if len(triangles) == 0 || totalArea <= 0 {
		return math32.Vector3{}, math32.Vector3{Z: 1}, 0
	}

	target := u0 * totalArea
	var cumulative float32
	chosen := triangles[len(triangles)-1]
	remainderU := u0
	for _, tri := range triangles {
		a := vertices.At(int(tri.V0))
		b := vertices.At(int(tri.V1))
		c := vertices.At(int(tri.V2))
		area := triangleArea(&a, &b, &c)
		if area > 0 && cumulative+area >= target {
			chosen = tri
			if area > 0 {
				remainderU = (target - cumulative) / area
			}
			break
		}
		cumulative += area
	}

	a := vertices.At(int(chosen.V0))
	b := vertices.At(int(chosen.V1))
	c := vertices.At(int(chosen.V2))

	su0 := math32.Sqrt(clamp01(remainderU))
	b0 := 1 - su0
	b1 := u1 * su0
	b2 := 1 - b0 - b1

	p.X = b0*a.X + b1*b.X + b2*c.X
	p.Y = b0*a.Y + b1*b.Y + b2*c.Y
	p.Z = b0*a.Z + b1*b.Z + b2*c.Z

	var e1, e2 math32.Vector3
	e1.SubVectors(&b, &a)
	e2.SubVectors(&c, &a)
	n.CrossVectors(&e1, &e2)
	n.Normalize()

	return p, n, 1 / totalArea
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
