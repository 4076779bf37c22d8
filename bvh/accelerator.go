package bvh

import (
	"github.com/quartzray/pathtrace/math32"
	"github.com/quartzray/pathtrace/mesh"
	"github.com/quartzray/pathtrace/motion"
)

// VisibilityFlags marks which ray categories a scene object participates
// in, letting a host mark e.g. a shadow-catcher object "visible to camera
// rays only".
type VisibilityFlags uint32

const (
	VisibleToCamera VisibilityFlags = 1 << iota
	VisibleToIndirect
	VisibleToDiffuse
	VisibleToGlossy
	VisibleToSpecular

	VisibleToAll = VisibleToCamera | VisibleToIndirect | VisibleToDiffuse | VisibleToGlossy | VisibleToSpecular
)

// Entry is one top-level scene object: a base mesh plus how it is placed
// in the scene (static instance transform or time-varying motion).
type Entry struct {
	Mesh       mesh.Mesh
	Transform  *math32.Matrix4 // set for a static instance; nil if Motion is set
	Motion     *motion.Motion  // set for a motion-blurred instance; nil if Transform is set
	Visibility VisibilityFlags
}

func (e *Entry) transformAt(time float32) math32.Matrix4 {
	if e.Motion != nil {
		return e.Motion.Sample(time)
	}
	if e.Transform != nil {
		return *e.Transform
	}
	var identity math32.Matrix4
	identity.Identity()
	return identity
}

// Accelerator is the two-level BVH: one bottom-level MeshBVH per distinct
// base mesh, and a top-level tree over Entry bounds.
type Accelerator struct {
	params      Params
	builder     BuilderKind
	bottomTrees []*MeshBVH  // indexed by meshIndex used in per-entry meshOffsetIndex
	meshOf      map[mesh.Mesh]int
	entries     []Entry
	topNodes    []BVHArrayNode
}

// NewAccelerator constructs an Accelerator with the given build parameters
// and backend.
func NewAccelerator(params Params, builder BuilderKind) *Accelerator {
	return &Accelerator{params: params, builder: builder, meshOf: make(map[mesh.Mesh]int)}
}

// Build constructs the bottom-level tree for every distinct base mesh
// referenced by entries (deduplicated by identity so instances sharing a
// base mesh share one bottom tree), then builds the top-level tree over
// entries' world bounds. Fails with ErrInvalidGeometry if building any
// bottom-level mesh fails.
func (a *Accelerator) Build(entries []Entry) error {

	a.entries = entries
	a.bottomTrees = a.bottomTrees[:0]
	a.meshOf = make(map[mesh.Mesh]int)

	items := make([]buildItem, 0, len(entries))
	for i, e := range entries {
		meshIdx, ok := a.meshOf[e.Mesh]
		if !ok {
			bvh, err := BuildMeshBVH(e.Mesh, a.builder, a.params)
			if err != nil {
				return err
			}
			meshIdx = len(a.bottomTrees)
			a.bottomTrees = append(a.bottomTrees, bvh)
			a.meshOf[e.Mesh] = meshIdx
		}

		localBound := e.Mesh.WorldBound()
		var worldBound math32.Box3
		if e.Motion != nil {
			worldBound = e.Motion.Bound(localBound)
		} else {
			xform := e.transformAt(0)
			worldBound = localBound
			worldBound.ApplyMatrix4(&xform)
		}

		items = append(items, buildItem{
			bbox: worldBound,
			payload: leafPayload{
				LeafIndex:       uint32(i),
				MeshOffsetIndex: uint32(meshIdx),
				IsMotion:        e.Motion != nil,
			},
		})
	}

	var root *BVHTreeNode
	switch a.builder {
	case MortonBuilder:
		root = BuildMorton(a.params.TreeType, items)
	default:
		root = BuildSAH(a.params, items)
	}
	a.topNodes = Flatten(root)
	return nil
}

// Update rebuilds an SAH-built accelerator from its stored entries after
// vertex/transform motion. This is a full rebuild (the trees are re-split),
// not an in-place refit of node bounds. A Morton-built accelerator is not
// updated and returns ErrRefitUnsupported.
func (a *Accelerator) Update() error {
	if a.builder != SAHBuilder {
		return &ErrRefitUnsupported{}
	}
	return a.Build(a.entries)
}

// ErrRefitUnsupported is returned by Update when the accelerator's tree
// shape (a Morton build) doesn't support in-place refit.
type ErrRefitUnsupported struct{}

func (e *ErrRefitUnsupported) Error() string {
	return "bvh: Update is only supported after a SAH build; rebuild required"
}

// Intersect returns the closest hit along ray across the whole scene.
func (a *Accelerator) Intersect(ray *math32.Ray) RayHit {
	return a.traverse(ray, false)
}

// IntersectAny is the shadow-ray fast path: true as soon as any hit is
// found along the ray.
func (a *Accelerator) IntersectAny(ray *math32.Ray) bool {
	return !a.traverse(ray, true).IsMiss()
}

func (a *Accelerator) traverse(ray *math32.Ray, anyHit bool) RayHit {

	best := Miss()
	if len(a.topNodes) == 0 {
		return best
	}

	origin := ray.Origin()
	direction := ray.Direction()
	workOrigin, workDirection := origin, direction
	tMin, tMax := ray.TMin, ray.TMax
	time := ray.Time

	cursor := uint32(0)
	for cursor < uint32(len(a.topNodes)) {
		node := &a.topNodes[cursor]

		if node.IsLeaf() {
			entryIdx := node.Leaf.LeafIndex
			entry := &a.entries[entryIdx]

			xform := entry.transformAt(time)
			var inv math32.Matrix4
			if err := inv.GetInverse(&xform); err == nil {
				localOrigin := workOrigin
				localOrigin.ApplyMatrix4(&inv)

				// Transform the point (origin + direction) rather than the
				// direction vector itself, then subtract, so shear/scale in
				// the inverse transform is applied correctly (a vector
				// transform would ignore translation, which is fine, but
				// ApplyMatrix4 on Vector3 always treats its argument as a
				// point).
				farPoint := workOrigin
				farPoint.Add(&workDirection)
				farPoint.ApplyMatrix4(&inv)
				localDir := farPoint
				localDir.Sub(&localOrigin)

				scale := localDir.Length()
				if scale > 0 {
					localDirNorm := localDir
					localDirNorm.MultiplyScalar(1 / scale)

					localRay := math32.NewRay(&localOrigin, &localDirNorm)
					localRay.SetRange(tMin*scale, tMax*scale)
					localRay.Time = time

					bottom := a.bottomTrees[node.Leaf.MeshOffsetIndex]
					if anyHit {
						if bottom.IntersectAny(localRay) {
							return RayHit{T: 0, MeshIndex: entryIdx}
						}
					} else {
						hit := bottom.Intersect(localRay)
						if !hit.IsMiss() {
							hit.T /= scale
							hit.MeshIndex = entryIdx
							if better(hit, best) {
								best = hit
								tMax = hit.T
							}
						}
					}
				}
			}
			cursor++
			continue
		}

		var box math32.Box3
		box.Min = node.BBoxMin
		box.Max = node.BBoxMax
		testRay := math32.NewRay(&workOrigin, &workDirection)
		testRay.SetRange(tMin, tMax)
		if testRay.IntersectBoxRange(&box) {
			cursor++
		} else {
			cursor = node.Skip()
		}
	}

	return best
}
