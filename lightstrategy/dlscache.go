package lightstrategy

import (
	"math"

	"github.com/quartzray/pathtrace/math32"
	"github.com/quartzray/pathtrace/sceneio"
	"github.com/quartzray/pathtrace/spatialindex"
)

// SurfaceResponder is the host's shading-point-local callback used during
// entry construction: it folds the BSDF evaluation and cosine term (and any
// tangent-frame bookkeeping) into a single f_r(p, n, wi) * cosTheta weight,
// keeping the cache itself decoupled from frame-transform details.
type SurfaceResponder func(wi math32.Vector3) (weight math32.Vector3, ok bool)

// EntryParams controls per-point distribution construction (spec "Entry
// construction" steps 1-5), default values matching the source's registry
// defaults.
type EntryParams struct {
	Radius               float32 // 0 = caller picks automatically
	NormalAngle          float32 // degrees
	MaxPasses            int
	ConvergenceThreshold float32
	WarmUpSamples        int
	MergePasses          int
	EnabledOnVolumes     bool
	LightThreshold       float32 // step 4: bins below LightThreshold*maxBin are zeroed
}

// DefaultEntryParams mirrors LightStrategyDLSCache's registry defaults.
func DefaultEntryParams() EntryParams {
	return EntryParams{
		Radius:               0,
		NormalAngle:          10,
		MaxPasses:            1024,
		ConvergenceThreshold: 0.01,
		WarmUpSamples:        12,
		MergePasses:          1,
		EnabledOnVolumes:     false,
		LightThreshold:       0.01,
	}
}

// Params bundles the entry builder parameters with the cache-wide tuning
// knobs from the lightstrategy.* configuration namespace.
type Params struct {
	Entry              EntryParams
	LightThreshold     float32
	TargetCacheHitRate float32
	MaxDepth           int
	MaxSampleCount     int
}

// DefaultParams mirrors LightStrategyDLSCache's GetDefaultProps().
func DefaultParams() Params {
	return Params{
		Entry:              DefaultEntryParams(),
		LightThreshold:     0.01,
		TargetCacheHitRate: 0.995,
		MaxDepth:           4,
		MaxSampleCount:     10000000,
	}
}

// DLSCacheEntry is the discrete light distribution cached at one visible
// point, plus the bookkeeping to map distribution bins back to scene light
// indices (only lights with non-negligible estimated contribution survive
// thresholding, so the mapping is rarely the identity).
type DLSCacheEntry struct {
	p, n                          math32.Vector3
	isVolume                      bool
	dist                          *Distribution1D
	distributionIndexToLightIndex []int
	disabled                      bool
}

func (e *DLSCacheEntry) Position() math32.Vector3 { return e.p }
func (e *DLSCacheEntry) Normal() math32.Vector3   { return e.n }
func (e *DLSCacheEntry) IsVolume() bool           { return e.isVolume }

// IsDirectLightSamplingDisabled reports whether this entry's estimator
// collapsed to all-zero bins (step 4), in which case direct light sampling
// should be skipped entirely rather than falling back to a degenerate
// distribution.
func (e *DLSCacheEntry) IsDirectLightSamplingDisabled() bool { return e.disabled }

// BuildEntry runs the iterative estimator described in the DLS cache's
// entry-construction algorithm: repeatedly picking a light (uniformly during
// the first WarmUpSamples passes, then proportional to its running
// estimate), tracing a shadow ray, and accumulating the
// unoccluded contribution, until the normalized estimate stabilizes or the
// pass budget is exhausted.
func BuildEntry(
	p, n math32.Vector3,
	isVolume bool,
	lights []sceneio.LightSource,
	params EntryParams,
	rays sceneio.RayQuerier,
	respond SurfaceResponder,
	rng func() float32,
) *DLSCacheEntry {

	entry := &DLSCacheEntry{p: p, n: n, isVolume: isVolume}
	numLights := len(lights)
	if numLights == 0 {
		entry.disabled = true
		return entry
	}

	estimator := make([]float64, numLights)
	previous := make([]float64, numLights)

	mergeEvery := params.MergePasses
	if mergeEvery < 1 {
		mergeEvery = 1
	}

	for pass := 0; pass < params.MaxPasses; pass++ {
		pickDist := NewDistribution1D(estimatorWeights(estimator))
		lightIdx, pickPdf := pickDist.SampleDiscrete(rng())
		if lightIdx < 0 || pass < params.WarmUpSamples {
			// Warm-up pass, or every light still has a zero running
			// estimate: pick uniformly so every light gets a chance to
			// contribute before picks follow the estimate.
			lightIdx = int(rng() * float32(numLights))
			if lightIdx >= numLights {
				lightIdx = numLights - 1
			}
			pickPdf = 1.0 / float32(numLights)
		}

		light := lights[lightIdx]
		wi, distance, directPdfW, _, cosThetaAtLight, le, ok := light.Illuminate(p, rng(), rng(), rng())
		if ok && directPdfW > 0 && pickPdf > 0 {
			weight, respOk := respond(wi)
			if respOk {
				shadowRay := math32.NewRay(&p, &wi)
				shadowRay.SetRange(1e-4, distance*(1-1e-3))
				if !rays.IntersectAny(shadowRay) {
					var contribution math32.Vector3
					contribution.MultiplyVectors(&le, &weight)
					contribution.MultiplyScalar(math32.Abs(cosThetaAtLight) / (directPdfW * pickPdf))
					estimator[lightIdx] += luminance(contribution)
				}
			}
		}

		if (pass+1)%mergeEvery == 0 || pass == params.MaxPasses-1 {
			if pass+1 >= params.WarmUpSamples {
				if relativeChange(estimator, previous) < float64(params.ConvergenceThreshold) {
					copy(previous, estimator)
					break
				}
			}
			copy(previous, estimator)
		}
	}

	finalizeEntry(entry, estimator, params.LightThreshold)
	return entry
}

func estimatorWeights(estimator []float64) []float32 {
	w := make([]float32, len(estimator))
	for i, v := range estimator {
		w[i] = float32(v)
	}
	return w
}

func relativeChange(current, previous []float64) float64 {
	var diff, total float64
	for i := range current {
		diff += math.Abs(current[i] - previous[i])
		total += current[i]
	}
	if total <= 0 {
		return 1
	}
	return diff / total
}

func luminance(c math32.Vector3) float64 {
	return float64(0.2126*c.X + 0.7152*c.Y + 0.0722*c.Z)
}

// finalizeEntry applies step 4 (zero any bin below lightThreshold*maxBin,
// disable the entry if everything is zeroed) and step 5 (store the
// normalized distribution plus the distribution-index -> light-index map,
// omitting lights that were thresholded away).
func finalizeEntry(entry *DLSCacheEntry, estimator []float64, lightThreshold float32) {

	maxBin := 0.0
	for _, v := range estimator {
		if v > maxBin {
			maxBin = v
		}
	}
	if maxBin <= 0 {
		entry.disabled = true
		return
	}

	cutoff := float64(lightThreshold) * maxBin
	var weights []float32
	var indexMap []int
	for i, v := range estimator {
		if v < cutoff {
			continue
		}
		weights = append(weights, float32(v))
		indexMap = append(indexMap, i)
	}
	if len(weights) == 0 {
		entry.disabled = true
		return
	}

	entry.dist = NewDistribution1D(weights)
	entry.distributionIndexToLightIndex = indexMap
}

// Cache is the frozen, query-ready DLS cache built from a set of visible
// points and their entries (populated by a scene-visibility driver, then
// frozen once via Freeze before being used at render time).
type Cache struct {
	params Params
	lights []sceneio.LightSource
	index  *spatialindex.BVHIndex[*DLSCacheEntry]
}

// Freeze builds the immutable query-time index from a completed entry set.
func Freeze(params Params, lights []sceneio.LightSource, entries []*DLSCacheEntry) *Cache {
	radius := params.Entry.Radius
	if radius <= 0 {
		radius = 1
	}
	return &Cache{
		params: params,
		lights: lights,
		index:  spatialindex.BuildBVHIndex(entries, radius),
	}
}

// Lookup returns the nearest entry to (p, n, isVolume) within the
// configured radius/normal angle, or ok=false if the cache has no coverage
// here (callers fall back to a StaticStrategy).
func (c *Cache) Lookup(p, n math32.Vector3, isVolume bool) (entry *DLSCacheEntry, ok bool) {
	if isVolume && !c.params.Entry.EnabledOnVolumes {
		return nil, false
	}
	radius := c.params.Entry.Radius
	if radius <= 0 {
		radius = 1
	}
	e, _, found := c.index.NearestEntry(p, n, isVolume, radius, c.params.Entry.NormalAngle)
	return e, found
}

// SampleLights mirrors LightStrategyDLSCache::SampleLights: looks up the
// nearest cache entry and samples its distribution, falling back to
// fallback (typically a StaticStrategy) when no entry covers this point.
// At an entry whose direct light sampling is disabled it returns (nil, 0).
func (c *Cache) SampleLights(u float32, p, n math32.Vector3, isVolume bool, fallback func(float32) (sceneio.LightSource, float32)) (sceneio.LightSource, float32) {
	entry, ok := c.Lookup(p, n, isVolume)
	if !ok {
		return fallback(u)
	}
	if entry.IsDirectLightSamplingDisabled() {
		return nil, 0
	}
	distIdx, pdf := entry.dist.SampleDiscrete(u)
	if distIdx < 0 || pdf <= 0 {
		return nil, 0
	}
	lightIdx := entry.distributionIndexToLightIndex[distIdx]
	return c.lights[lightIdx], pdf
}

// SampleLightPdf mirrors LightStrategyDLSCache::SampleLightPdf.
func (c *Cache) SampleLightPdf(light sceneio.LightSource, p, n math32.Vector3, isVolume bool, fallback func(sceneio.LightSource) float32) float32 {
	entry, ok := c.Lookup(p, n, isVolume)
	if !ok {
		return fallback(light)
	}
	if entry.IsDirectLightSamplingDisabled() {
		return 0
	}
	for distIdx, lightIdx := range entry.distributionIndexToLightIndex {
		if c.lights[lightIdx] == light {
			return entry.dist.Pdf(distIdx)
		}
	}
	return 0
}
