// Package mesh implements the triangle-mesh model: plain meshes that own
// their vertex/triangle arrays, and instanced/motion meshes that reference a
// base mesh by shared ownership and apply a static or time-varying transform
// at query time.
package mesh

import "github.com/quartzray/pathtrace/math32"

// VertexBuffer owns a mesh's position array. The source allocates one extra
// trailing float as a sentinel (1234.1234) to catch buffer-ownership bugs at
// the allocator boundary; we replace that convention with an explicit Owned
// flag so the same invariant (don't free/alias a buffer you don't own) is
// checked by the type system instead of a magic float.
type VertexBuffer struct {
	positions []math32.Vector3
	owned     bool
}

// NewOwnedVertexBuffer allocates a new, exclusively owned position buffer.
func NewOwnedVertexBuffer(positions []math32.Vector3) *VertexBuffer {
	return &VertexBuffer{positions: positions, owned: true}
}

// NewSharedVertexBuffer wraps a position buffer owned by some other mesh;
// the wrapper must not mutate or free it.
func NewSharedVertexBuffer(positions []math32.Vector3) *VertexBuffer {
	return &VertexBuffer{positions: positions, owned: false}
}

// Owned reports whether this buffer exclusively owns its backing array.
func (vb *VertexBuffer) Owned() bool { return vb.owned }

// Len returns the number of vertices.
func (vb *VertexBuffer) Len() int { return len(vb.positions) }

// At returns the position of vertex i.
func (vb *VertexBuffer) At(i int) math32.Vector3 { return vb.positions[i] }

// Slice returns the raw backing slice. Callers must not retain a mutable
// reference across a buffer that isn't Owned().
func (vb *VertexBuffer) Slice() []math32.Vector3 { return vb.positions }
