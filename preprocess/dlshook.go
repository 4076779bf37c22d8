package preprocess

import (
	"github.com/quartzray/pathtrace/corestat"
	"github.com/quartzray/pathtrace/lightstrategy"
	"github.com/quartzray/pathtrace/math32"
	"github.com/quartzray/pathtrace/sceneio"
	"github.com/quartzray/pathtrace/scenevis"
	"github.com/quartzray/pathtrace/spatialindex"
)

// dlsPayload retains exactly what DLS entry construction needs from the
// camera path that discovered this point: the BSDF to shade with and the
// outgoing direction back along the path (Evaluate's "local eye dir").
type dlsPayload struct {
	bsdf sceneio.BSDF
	wo   math32.Vector3
}

// DLSHook is the scenevis.Hook that feeds the DLS cache (spec §4.5): it
// stops a path at the first non-specular vertex, matching the spec's "a
// DLS hook stops at the first diffuse surface" example, since a specular
// bounce has no well-defined light-sampling distribution to cache.
type DLSHook struct{}

func (DLSHook) ProcessHitPoint(bsdf sceneio.BSDF, p, n, wo math32.Vector3, isVolume bool) (any, bool, bool) {
	if bsdf.IsDelta() {
		return nil, false, true
	}
	return dlsPayload{bsdf: bsdf, wo: wo}, true, false
}

// Merge keeps the first BSDF seen at a point; later paths landing within
// the merge radius just count as cache hits without changing the stored
// shading context.
func (DLSHook) Merge(existing, fresh any) any { return existing }

// BuildDLSCache turns the particles a scenevis.Driver deposited under a
// DLSHook into a frozen lightstrategy.Cache: for each particle, it
// constructs a lightstrategy.SurfaceResponder that evaluates the retained
// BSDF in its local shading frame, then runs the DLS entry-construction
// algorithm (spec §4.5) against it.
func BuildDLSCache(
	particles *spatialindex.Octree[*scenevis.Particle],
	lights []sceneio.LightSource,
	rays sceneio.RayQuerier,
	entryParams lightstrategy.EntryParams,
	cacheParams lightstrategy.Params,
	rng func() float32,
	stats *corestat.Counters,
) *lightstrategy.Cache {
	entries := make([]*lightstrategy.DLSCacheEntry, 0, particles.Len())
	for i := 0; i < particles.Len(); i++ {
		particle := particles.EntryAt(i)
		payload, ok := particle.Payload.(dlsPayload)
		if !ok {
			continue
		}
		tx, ty, tz := tangentBasis(particle.N)
		localWo := worldToLocal(tx, ty, tz, payload.wo)
		bsdf := payload.bsdf

		responder := func(wi math32.Vector3) (math32.Vector3, bool) {
			localWi := worldToLocal(tx, ty, tz, wi)
			spectrum, _, directPdfW, _ := bsdf.Evaluate(localWi, localWo)
			if directPdfW <= 0 {
				return math32.Vector3{}, false
			}
			return spectrum, true
		}

		entry := lightstrategy.BuildEntry(particle.P, particle.N, particle.Volume, lights, entryParams, rays, responder, rng)
		entries = append(entries, entry)
		if stats != nil {
			stats.AddDLSCacheEntries(1)
		}
	}
	return lightstrategy.Freeze(cacheParams, lights, entries)
}
