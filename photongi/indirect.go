package photongi

import (
	"github.com/quartzray/pathtrace/math32"
	"github.com/quartzray/pathtrace/spatialindex"
)

// IndirectCache is the pre-integrated radiance-photon cache: nearest-entry
// lookup returns the already-integrated outgoing radiance at a cached
// point, letting the integrator stop the path immediately rather than
// tracing a further indirect bounce.
type IndirectCache struct {
	index *spatialindex.BVHIndex[*RadiancePhoton]
}

// BuildIndirectCache indexes radiance photons for nearest-entry lookup.
func BuildIndirectCache(photons []*RadiancePhoton, radius float32) *IndirectCache {
	return &IndirectCache{index: spatialindex.BuildBVHIndex(photons, radius)}
}

// GetNearestEntry returns the nearest radiance photon to (p, n, isVolume)
// within radius whose normal (for surface entries) is within
// normalAngleDegrees of n, or ok=false if none qualifies.
func (c *IndirectCache) GetNearestEntry(p, n math32.Vector3, isVolume bool, radius, normalAngleDegrees float32) (*RadiancePhoton, bool) {
	entry, _, ok := c.index.NearestEntry(p, n, isVolume, radius, normalAngleDegrees)
	return entry, ok
}
