package scenevis

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/quartzray/pathtrace/corestat"
	"github.com/quartzray/pathtrace/math32"
	"github.com/quartzray/pathtrace/sceneio"
	"github.com/quartzray/pathtrace/spatialindex"
)

// Params configures the scene-visibility driver. Defaults follow the
// source renderer's own constants, not arbitrary round numbers.
type Params struct {
	WorkSize         int64
	MaxPathDepth     int
	RRDepth          int
	RRImportanceCap  float32
	TargetHitRate    float32
	LookUpRadius     float32
	MergeNormalAngle float32
	MaxSampleCount   int64
	WarmUpMultiplier int64
	MinLookups       int64
	TimeStart        float32
	TimeEnd          float32
	FilmWidth        float32
	FilmHeight       float32
}

// DefaultParams returns the driver defaults: 4096-sample work blocks,
// rrDepth=3/rrImportanceCap=0.5 Russian roulette, warm-up of 8*workSize
// samples before the hit-rate check engages, and a minimum of 64*64
// lookups before that check is trusted.
func DefaultParams() Params {
	return Params{
		WorkSize:         4096,
		MaxPathDepth:     8,
		RRDepth:          3,
		RRImportanceCap:  0.5,
		TargetHitRate:    0.95,
		LookUpRadius:     0.15,
		MergeNormalAngle: 90,
		MaxSampleCount:   8_000_000,
		WarmUpMultiplier: 8,
		MinLookups:       64 * 64,
		TimeStart:        0,
		TimeEnd:          1,
		FilmWidth:        1,
		FilmHeight:       1,
	}
}

// Driver runs worker paths over a scene, depositing visibility particles
// from eligible hit points into a shared octree until a Hook-specific
// target cache-hit rate is reached or the sample budget is exhausted.
type Driver struct {
	params   Params
	rays     sceneio.RayQuerier
	camera   sceneio.Camera
	resolve  HitPointResolver
	hook     Hook
	stats    *corestat.Counters
	octree   *spatialindex.Octree[*Particle]
	mu       sync.Mutex
	counter  int64
	lookups  int64
	hits     int64
	warmedUp int64
}

// NewDriver builds a driver over bounds (the world bound visibility
// particles are expected to fall within) with the given octree depth (see
// spatialindex.Octree; [1, spatialindex.MaxOctreeDepth]).
func NewDriver(params Params, bounds math32.Box3, octreeMaxDepth int, rays sceneio.RayQuerier, camera sceneio.Camera, resolve HitPointResolver, hook Hook, stats *corestat.Counters) *Driver {
	return &Driver{
		params:  params,
		rays:    rays,
		camera:  camera,
		resolve: resolve,
		hook:    hook,
		stats:   stats,
		octree:  spatialindex.NewOctree[*Particle](bounds, octreeMaxDepth),
	}
}

// Run launches one worker goroutine per element of samplers (typically
// runtime.NumCPU(), one independent RNG stream per worker — the same
// one-goroutine-per-processor, per-worker-RNG-seed shape a path tracer
// worker pool takes when splitting image rows across goroutines, adapted
// here to pull sample-count blocks instead of image rows since termination
// is sample-budget- and hit-rate-driven rather than fixed up front) and
// blocks until every worker has exited. Returns the populated octree.
func (d *Driver) Run(samplers []sceneio.Sampler) *spatialindex.Octree[*Particle] {
	var wg sync.WaitGroup
	wg.Add(len(samplers))
	for _, sampler := range samplers {
		sampler := sampler
		go func() {
			defer wg.Done()
			d.worker(sampler)
		}()
	}
	wg.Wait()
	return d.octree
}

// RunDefault launches runtime.NumCPU() workers, each seeded from
// newSampler().
func (d *Driver) RunDefault(newSampler func() sceneio.Sampler) *spatialindex.Octree[*Particle] {
	n := runtime.NumCPU()
	samplers := make([]sceneio.Sampler, n)
	for i := range samplers {
		samplers[i] = newSampler()
	}
	return d.Run(samplers)
}

func (d *Driver) worker(sampler sceneio.Sampler) {
	for {
		start := atomic.AddInt64(&d.counter, d.params.WorkSize) - d.params.WorkSize
		if start >= d.params.MaxSampleCount {
			return
		}
		end := start + d.params.WorkSize
		if end > d.params.MaxSampleCount {
			end = d.params.MaxSampleCount
		}
		for s := start; s < end; s++ {
			d.tracePath(sampler)
		}
		if atomic.LoadInt64(&d.counter) >= d.params.WarmUpMultiplier*d.params.WorkSize {
			d.maybeTerminate()
		}
	}
}

func (d *Driver) maybeTerminate() {
	lookups := atomic.LoadInt64(&d.lookups)
	if lookups < d.params.MinLookups {
		return
	}
	hits := atomic.LoadInt64(&d.hits)
	if float32(hits)/float32(lookups) < d.params.TargetHitRate {
		return
	}
	// Jump the shared counter past the sample budget so every worker exits
	// at its next block boundary, per the cooperative-termination contract.
	atomic.StoreInt64(&d.counter, d.params.MaxSampleCount+d.params.WorkSize)
}

func (d *Driver) tracePath(sampler sceneio.Sampler) {
	filmX := sampler.Next() * d.params.FilmWidth
	filmY := sampler.Next() * d.params.FilmHeight
	time := lerpF(d.params.TimeStart, d.params.TimeEnd, sampler.Next())

	ray := d.camera.GenerateRay(filmX, filmY, time)
	throughput := math32.Vector3{X: 1, Y: 1, Z: 1}

	for depth := 0; depth < d.params.MaxPathDepth; depth++ {
		hit := d.rays.Intersect(&ray)
		if hit.IsMiss() {
			return
		}
		p, n, bsdf, ok := d.resolve(hit, ray)
		if !ok {
			return
		}

		dir := ray.Direction()
		wo := dir
		wo.MultiplyScalar(-1)

		payload, store, cont := d.hook.ProcessHitPoint(bsdf, p, n, wo, bsdf.IsVolume())
		if store {
			d.deposit(p, n, bsdf.IsVolume(), payload)
		}
		if !cont {
			return
		}

		sampledDir, spectrum, pdfW, cosSampledDir, _ := bsdf.Sample(wo, sampler.Next(), sampler.Next())
		if pdfW <= 0 {
			return
		}
		var step math32.Vector3
		step.MultiplyVectors(&throughput, &spectrum)
		step.MultiplyScalar(cosSampledDir / pdfW)
		throughput = step

		if depth >= d.params.RRDepth {
			contProb := math32.Min(d.params.RRImportanceCap, maxComponent(throughput))
			if contProb <= 0 {
				return
			}
			if sampler.Next() > contProb {
				return
			}
			throughput.MultiplyScalar(1 / contProb)
		}

		newRay := math32.NewRay(&p, &sampledDir)
		newRay.SetRange(1e-4, math32.Infinity)
		newRay.Time = time
		ray = *newRay
	}
}

func (d *Driver) deposit(p, n math32.Vector3, isVolume bool, payload any) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// 10% radius overlap avoids pathological boundary misses right at the
	// merge/insert threshold.
	existing, _, found := d.octree.NearestEntry(p, n, isVolume, d.params.LookUpRadius*0.9, d.params.MergeNormalAngle)
	atomic.AddInt64(&d.lookups, 1)
	if found {
		existing.Payload = d.hook.Merge(existing.Payload, payload)
		atomic.AddInt64(&d.hits, 1)
		if d.stats != nil {
			d.stats.AddCacheHit()
		}
		return
	}
	d.octree.Insert(&Particle{P: p, N: n, Volume: isVolume, Payload: payload}, d.params.LookUpRadius*2)
	if d.stats != nil {
		d.stats.AddCacheMiss()
	}
}

func lerpF(a, b, t float32) float32 { return a + (b-a)*t }

func maxComponent(v math32.Vector3) float32 {
	m := v.X
	if v.Y > m {
		m = v.Y
	}
	if v.Z > m {
		m = v.Z
	}
	return m
}
