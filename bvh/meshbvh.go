package bvh

import (
	"github.com/quartzray/pathtrace/math32"
	"github.com/quartzray/pathtrace/mesh"
)

// BuilderKind selects which backend builds a bottom-level tree.
type BuilderKind int

const (
	// SAHBuilder is the classical top-down surface-area-heuristic build.
	SAHBuilder BuilderKind = iota
	// MortonBuilder is the fast, lower-quality Morton-code build.
	MortonBuilder
)

// MeshBVH is a bottom-level tree over one base mesh's triangles.
type MeshBVH struct {
	mesh    mesh.Mesh
	nodes   []BVHArrayNode
	builder BuilderKind
}

// BuildMeshBVH constructs a bottom-level tree over m's triangles using the
// requested builder backend. Fails with ErrInvalidGeometry when m has zero
// triangles or vertices.
func BuildMeshBVH(m mesh.Mesh, kind BuilderKind, params Params) (*MeshBVH, error) {

	if m.TriangleCount() == 0 || m.VertexCount() == 0 {
		return nil, &ErrInvalidGeometry{Reason: "mesh has zero triangles or vertices"}
	}

	items := make([]buildItem, m.TriangleCount())
	for i := 0; i < m.TriangleCount(); i++ {
		tri := m.TriangleAt(i)
		a := m.VertexAt(int(tri.V0))
		b := m.VertexAt(int(tri.V1))
		c := m.VertexAt(int(tri.V2))

		var box math32.Box3
		box.MakeEmpty()
		box.ExpandByPoint(&a)
		box.ExpandByPoint(&b)
		box.ExpandByPoint(&c)

		items[i] = buildItem{
			bbox: box,
			payload: leafPayload{
				TriangleIndex: uint32(i),
			},
		}
	}

	var root *BVHTreeNode
	switch kind {
	case MortonBuilder:
		root = BuildMorton(params.TreeType, items)
	default:
		root = BuildSAH(params, items)
	}

	return &MeshBVH{mesh: m, nodes: Flatten(root), builder: kind}, nil
}

// ErrInvalidGeometry is returned when a mesh cannot be built (zero triangles
// or vertices).
type ErrInvalidGeometry struct {
	Reason string
}

func (e *ErrInvalidGeometry) Error() string {
	return "bvh: invalid geometry: " + e.Reason
}

// Intersect walks the stackless DFS array against ray (already in the
// mesh's local space), returning the closest hit (meshIndex left zero; the
// caller, the top-level accelerator, fills it in).
func (b *MeshBVH) Intersect(ray *math32.Ray) RayHit {
	return b.intersectImpl(ray, false)
}

// IntersectAny is the shadow-ray fast path: returns on the first hit found
// along the ray, without guaranteeing it is the closest.
func (b *MeshBVH) IntersectAny(ray *math32.Ray) bool {
	hit := b.intersectImpl(ray, true)
	return !hit.IsMiss()
}

func (b *MeshBVH) intersectImpl(ray *math32.Ray, anyHit bool) RayHit {

	best := Miss()
	if len(b.nodes) == 0 {
		return best
	}

	workRay := *ray
	cursor := uint32(0)
	for cursor < uint32(len(b.nodes)) {
		node := &b.nodes[cursor]

		if node.IsLeaf() {
			tri := b.mesh.TriangleAt(int(node.Leaf.TriangleIndex))
			a := b.mesh.VertexAt(int(tri.V0))
			bb := b.mesh.VertexAt(int(tri.V1))
			cc := b.mesh.VertexAt(int(tri.V2))

			if t, b1, b2, hit := workRay.IntersectTriangleBary(&a, &bb, &cc); hit {
				candidate := RayHit{T: t, B1: b1, B2: b2, TriangleIndex: node.Leaf.TriangleIndex}
				if better(candidate, best) {
					best = candidate
					workRay.TMax = t
				}
				if anyHit {
					return best
				}
			}
			cursor++
			continue
		}

		var box math32.Box3
		box.Min = node.BBoxMin
		box.Max = node.BBoxMax
		if workRay.IntersectBoxRange(&box) {
			cursor++
		} else {
			cursor = node.Skip()
		}
	}

	return best
}
