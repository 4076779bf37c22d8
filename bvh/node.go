// Package bvh implements the two-level triangle bounding volume hierarchy:
// a bottom-level tree per distinct base mesh over its triangles, and a
// top-level tree over scene objects (instances/motion meshes) referencing
// those bottom trees. Both levels share the same flattened BVHArrayNode
// layout and stackless DFS traversal.
package bvh

import "github.com/quartzray/pathtrace/math32"

// leafFlag marks bit 31 of a node's skip/leaf word. A node is a leaf iff
// this bit is set in SkipIndex; the remaining 31 bits of an inner node's
// word are the skip index (offset of the next sibling subtree).
const leafFlag uint32 = 1 << 31
const skipMask uint32 = leafFlag - 1

// leafPayload is the union of the two leaf shapes a BVHTreeNode/BVHArrayNode
// may carry: a triangle leaf (bottom-level) or a BVH-of-BVH leaf
// (top-level, referencing a scene object's bottom tree plus its static or
// motion transform). Exactly one of TransformIndex/MotionIndex is
// meaningful, selected by IsMotion.
type leafPayload struct {
	// Triangle leaf (bottom-level tree).
	MeshIndex     uint32
	TriangleIndex uint32

	// BVH-of-BVH leaf (top-level tree).
	LeafIndex       uint32
	TransformIndex  uint32
	MotionIndex     uint32
	MeshOffsetIndex uint32
	IsMotion        bool
}

// BVHTreeNode is an intermediate build-time tree node: a bounding box and
// either a leaf payload or a slice of children (N-ary per the configured
// tree type).
type BVHTreeNode struct {
	Bbox     math32.Box3
	IsLeaf   bool
	Leaf     leafPayload
	Children []*BVHTreeNode
}

// BVHArrayNode is the flattened, cache-friendly node used at query time.
type BVHArrayNode struct {
	BBoxMin, BBoxMax math32.Vector3

	// SkipIndex's bit 31 is the leaf flag; for inner nodes the remaining 31
	// bits are the index of the next sibling subtree in the flattened
	// array, enabling stack-free DFS traversal (on miss, jump here; on hit,
	// advance to the next sequential index).
	SkipIndex uint32

	Leaf leafPayload
}

// IsLeaf reports whether this is a leaf node.
func (n *BVHArrayNode) IsLeaf() bool {
	return n.SkipIndex&leafFlag != 0
}

// Skip returns the next-sibling offset for an inner node.
func (n *BVHArrayNode) Skip() uint32 {
	return n.SkipIndex & skipMask
}

func makeLeafWord() uint32 {
	return leafFlag
}

func makeInnerWord(skip uint32) uint32 {
	return skip & skipMask
}

// RayHit is the result of an intersect query. T == +Inf denotes a miss.
// Barycentrics satisfy b0 = 1 - B1 - B2, each in [0,1].
type RayHit struct {
	T             float32
	B1, B2        float32
	MeshIndex     uint32
	TriangleIndex uint32
}

// Miss returns a RayHit representing no intersection.
func Miss() RayHit {
	return RayHit{T: math32.Infinity}
}

// IsMiss reports whether this hit represents a miss.
func (h RayHit) IsMiss() bool {
	return h.T == math32.Infinity
}

// B0 returns the first barycentric coordinate.
func (h RayHit) B0() float32 {
	return 1 - h.B1 - h.B2
}

// better reports whether candidate should replace current under the tie
// break rule: smaller T wins; ties broken by smaller MeshIndex then smaller
// TriangleIndex.
func better(candidate, current RayHit) bool {
	if candidate.T != current.T {
		return candidate.T < current.T
	}
	if candidate.MeshIndex != current.MeshIndex {
		return candidate.MeshIndex < current.MeshIndex
	}
	return candidate.TriangleIndex < current.TriangleIndex
}
