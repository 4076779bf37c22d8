// Package spatialindex implements the generic point-set indices shared by
// the cache layers (lightstrategy's DLS cache, envcache's ELVC, photongi's
// photon maps): an immutable, morton-built BVH for query-time lookups, and
// an insertion-friendly octree for incremental cache construction.
package spatialindex

import "github.com/quartzray/pathtrace/math32"

// Entry is the minimum contract a cache entry must satisfy to be indexed:
// a position, a geometric normal (meaningful only for surface entries), and
// whether it represents a volume sample rather than a surface sample.
type Entry interface {
	Position() math32.Vector3
	Normal() math32.Vector3
	IsVolume() bool
}

// cosOf converts a normal-acceptance angle in degrees to its cosine, cached
// by callers that query repeatedly with the same angle.
func cosOf(angleDegrees float32) float32 {
	return math32.Cos(angleDegrees * math32.Pi / 180)
}

func acceptEntry(e Entry, queryP, queryN math32.Vector3, queryIsVolume bool, normalAngleCos float32) bool {
	if e.IsVolume() != queryIsVolume {
		return false
	}
	if !e.IsVolume() {
		n := e.Normal()
		if queryN.Dot(&n) <= normalAngleCos {
			return false
		}
	}
	return true
}

func distSq(a, b math32.Vector3) float32 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return dx*dx + dy*dy + dz*dz
}
