package scenevis

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quartzray/pathtrace/corestat"
	"github.com/quartzray/pathtrace/math32"
	"github.com/quartzray/pathtrace/sceneio"
)

// constSampler always returns the same value; useful for driving every
// worker toward the exact same hit point so merge logic is exercised.
type constSampler struct{ v float32 }

func (s *constSampler) Next() float32 { return s.v }

type fakeCamera struct{}

func (fakeCamera) GenerateRay(filmX, filmY, time float32) math32.Ray {
	origin := math32.Vector3{X: filmX, Y: filmY, Z: 0}
	dir := math32.Vector3{Z: 1}
	ray := math32.NewRay(&origin, &dir)
	ray.SetRange(0, math32.Infinity)
	ray.Time = time
	return *ray
}

type fakeRays struct{}

func (fakeRays) Intersect(ray *math32.Ray) sceneio.RayHit {
	return sceneio.RayHit{T: 1, MeshIndex: 0, TriangleIndex: 0}
}
func (fakeRays) IntersectAny(ray *math32.Ray) bool { return false }

type fakeBSDF struct{}

func (fakeBSDF) Evaluate(wi, wo math32.Vector3) (math32.Vector3, sceneio.BSDFEvent, float32, float32) {
	return math32.Vector3{X: 1, Y: 1, Z: 1}, sceneio.EventDiffuse, 1, 1
}
func (fakeBSDF) Sample(fixed math32.Vector3, u0, u1 float32) (math32.Vector3, math32.Vector3, float32, float32, sceneio.BSDFEvent) {
	return math32.Vector3{Z: -1}, math32.Vector3{X: 1, Y: 1, Z: 1}, 1, 1, sceneio.EventDiffuse
}
func (fakeBSDF) Pdf(wi, wo math32.Vector3) (float32, float32) { return 1, 1 }
func (fakeBSDF) IsDelta() bool                                { return false }
func (fakeBSDF) IsVolume() bool                               { return false }
func (fakeBSDF) IsPhotonGIEnabled() bool                      { return true }
func (fakeBSDF) Glossiness() float32                          { return 1 }

// stopAtFirstHitHook mimics the DLS cache's hook: store every hit point,
// never continue the path.
type stopAtFirstHitHook struct {
	processed int64
}

func (h *stopAtFirstHitHook) ProcessHitPoint(bsdf sceneio.BSDF, p, n, wo math32.Vector3, isVolume bool) (any, bool, bool) {
	atomic.AddInt64(&h.processed, 1)
	return nil, true, false
}
func (h *stopAtFirstHitHook) Merge(existing, fresh any) any { return existing }

func unitBounds() math32.Box3 {
	min := math32.Vector3{X: -10, Y: -10, Z: -10}
	max := math32.Vector3{X: 10, Y: 10, Z: 10}
	var b math32.Box3
	b.Set(&min, &max)
	return b
}

func fakeResolver(hit sceneio.RayHit, ray math32.Ray) (math32.Vector3, math32.Vector3, sceneio.BSDF, bool) {
	p := ray.At(hit.T, nil)
	return *p, math32.Vector3{Z: -1}, fakeBSDF{}, true
}

func TestDriverMergesRepeatedHitsIntoOneParticle(t *testing.T) {
	params := DefaultParams()
	params.WorkSize = 16
	params.MaxSampleCount = 64
	params.MaxPathDepth = 1
	params.FilmWidth = 1
	params.FilmHeight = 1
	params.LookUpRadius = 1

	hook := &stopAtFirstHitHook{}
	var stats corestat.Counters
	driver := NewDriver(params, unitBounds(), 8, fakeRays{}, fakeCamera{}, fakeResolver, hook, &stats)

	sampler := &constSampler{v: 0.5}
	octree := driver.Run([]sceneio.Sampler{sampler, sampler})

	assert.Equal(t, 1, octree.Len(), "every path lands on the same point so all but the first deposit should merge")
	assert.EqualValues(t, params.MaxSampleCount, hook.processed)

	snap := stats.Snap()
	assert.Equal(t, uint64(1), snap.CacheMisses)
	assert.Equal(t, uint64(params.MaxSampleCount-1), snap.CacheHits)
}

type roundRobinSampler struct {
	values []float32
	idx    int64
}

func (s *roundRobinSampler) Next() float32 {
	i := atomic.AddInt64(&s.idx, 1) - 1
	return s.values[int(i)%len(s.values)]
}

func TestDriverSpreadsDistinctPointsIntoSeparateParticles(t *testing.T) {
	params := DefaultParams()
	params.WorkSize = 4
	params.MaxSampleCount = 8
	params.MaxPathDepth = 1
	params.FilmWidth = 100
	params.FilmHeight = 100
	params.LookUpRadius = 0.01

	hook := &stopAtFirstHitHook{}
	driver := NewDriver(params, unitBounds(), 8, fakeRays{}, fakeCamera{}, fakeResolver, hook, nil)

	sampler := &roundRobinSampler{values: []float32{0.01, 0.5, 0.99, 0.5}}
	octree := driver.Run([]sceneio.Sampler{sampler})

	require.Greater(t, octree.Len(), 1, "film positions vary enough that distinct particles should be created")
}

func TestDriverTerminatesAtSampleBudget(t *testing.T) {
	params := DefaultParams()
	params.WorkSize = 4
	params.MaxSampleCount = 12
	params.MaxPathDepth = 1
	params.TargetHitRate = 2 // unreachable, forces budget-exhaustion exit

	hook := &stopAtFirstHitHook{}
	driver := NewDriver(params, unitBounds(), 8, fakeRays{}, fakeCamera{}, fakeResolver, hook, nil)

	sampler := &constSampler{v: 0.5}
	driver.Run([]sceneio.Sampler{sampler})

	assert.EqualValues(t, params.MaxSampleCount, hook.processed)
}
