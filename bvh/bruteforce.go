package bvh

import "github.com/quartzray/pathtrace/math32"

// BruteForce is a reference accelerator used only by tests to validate the
// BVH's traversal against an O(n) scan, grounded on the teacher's
// broadphase.go naive all-pairs test (the same "skip the tree, check
// everything" baseline, applied here to ray queries instead of AABB pairs).
type BruteForce struct {
	acc *Accelerator
}

// NewBruteForce wraps the same Entry set an Accelerator would, for
// differential testing.
func NewBruteForce(entries []Entry) *BruteForce {
	return &BruteForce{acc: &Accelerator{entries: entries}}
}

// Intersect scans every entry/triangle directly, with no acceleration
// structure, applying the same tie-break rule as Accelerator.Intersect.
func (bf *BruteForce) Intersect(ray *math32.Ray) RayHit {

	best := Miss()
	origin := ray.Origin()
	direction := ray.Direction()

	for entryIdx := range bf.acc.entries {
		entry := &bf.acc.entries[entryIdx]
		xform := entry.transformAt(ray.Time)
		var inv math32.Matrix4
		if err := inv.GetInverse(&xform); err != nil {
			continue
		}

		localOrigin := origin
		localOrigin.ApplyMatrix4(&inv)
		farPoint := origin
		farPoint.Add(&direction)
		farPoint.ApplyMatrix4(&inv)
		localDir := farPoint
		localDir.Sub(&localOrigin)
		scale := localDir.Length()
		if scale == 0 {
			continue
		}
		localDir.MultiplyScalar(1 / scale)

		m := entry.Mesh
		for i := 0; i < m.TriangleCount(); i++ {
			tri := m.TriangleAt(i)
			a := m.VertexAt(int(tri.V0))
			b := m.VertexAt(int(tri.V1))
			c := m.VertexAt(int(tri.V2))

			localRay := math32.NewRay(&localOrigin, &localDir)
			localRay.SetRange(ray.TMin*scale, ray.TMax*scale)
			if t, b1, b2, hit := localRay.IntersectTriangleBary(&a, &b, &c); hit {
				candidate := RayHit{T: t / scale, B1: b1, B2: b2, MeshIndex: uint32(entryIdx), TriangleIndex: uint32(i)}
				if better(candidate, best) {
					best = candidate
				}
			}
		}
	}

	return best
}
