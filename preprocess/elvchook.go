package preprocess

import (
	"github.com/quartzray/pathtrace/corestat"
	"github.com/quartzray/pathtrace/envcache"
	"github.com/quartzray/pathtrace/envcache/distribution"
	"github.com/quartzray/pathtrace/math32"
	"github.com/quartzray/pathtrace/sceneio"
	"github.com/quartzray/pathtrace/scenevis"
	"github.com/quartzray/pathtrace/spatialindex"
)

// ELVCHook is the scenevis.Hook that feeds the environment-light
// visibility cache (spec §4.6). Unlike the DLS cache, entry construction
// doesn't need the BSDF found at a vertex — only that the vertex exists and
// is non-specular — so the payload carries nothing.
type ELVCHook struct{}

func (ELVCHook) ProcessHitPoint(bsdf sceneio.BSDF, p, n, wo math32.Vector3, isVolume bool) (any, bool, bool) {
	if bsdf.IsDelta() {
		return nil, false, true
	}
	return struct{}{}, true, true
}

func (ELVCHook) Merge(existing, fresh any) any { return existing }

// BuildELVC turns deposited particles into a frozen envcache.Cache. occluded
// traces visibility from a stored point; it is given a single opaque
// occlusion test rather than the spec's "pass through non-occluding
// materials" depth-walk, since that requires shading-system support this
// core's sceneio boundary deliberately excludes — hosts with alpha-cutout
// materials should wrap rays in their own pass-through OcclusionTester
// before calling this.
func BuildELVC(
	particles *spatialindex.Octree[*scenevis.Particle],
	rays sceneio.RayQuerier,
	mapParams envcache.MapParams,
	visParams envcache.VisibilityParams,
	luminance *distribution.Distribution2D,
	rng func() float32,
	stats *corestat.Counters,
) *envcache.Cache {
	occluded := func(p, dir math32.Vector3, maxDepth int) bool {
		ray := math32.NewRay(&p, &dir)
		ray.SetRange(1e-4, math32.Infinity)
		return rays.IntersectAny(ray)
	}

	entries := make([]*envcache.ELVCEntry, 0, particles.Len())
	for i := 0; i < particles.Len(); i++ {
		particle := particles.EntryAt(i)
		entry := envcache.BuildEntry(particle.P, particle.N, particle.Volume, mapParams, occluded, visParams, luminance, rng)
		entries = append(entries, entry)
		if stats != nil {
			stats.AddELVCEntries(1)
		}
	}

	resolved := envcache.ResolveMapParams(mapParams)
	return envcache.Freeze(visParams.Radius, luminance, resolved.TilesXCount, resolved.TilesYCount, entries)
}
