package envcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quartzray/pathtrace/math32"
)

func sequentialRNG(values ...float32) func() float32 {
	i := 0
	return func() float32 {
		v := values[i%len(values)]
		i++
		return v
	}
}

func TestResolveMapParamsDerivesFromQuality(t *testing.T) {
	p := ResolveMapParams(MapParams{Quality: 0})
	assert.Equal(t, 4, p.TilesXCount)
	assert.Equal(t, 1, p.TileSampleCount)

	p = ResolveMapParams(MapParams{Quality: 1})
	assert.Equal(t, 64, p.TilesXCount)
	assert.Equal(t, 32, p.TileSampleCount)
}

func TestResolveMapParamsRespectsExplicitOverrides(t *testing.T) {
	p := ResolveMapParams(MapParams{Quality: 0.5, TilesXCount: 8, TilesYCount: 8, TileSampleCount: 2})
	assert.Equal(t, 8, p.TilesXCount)
	assert.Equal(t, 2, p.TileSampleCount)
}

func TestBuildEntryAllVisibleProducesUniformPositivePdf(t *testing.T) {
	mapParams := MapParams{TilesXCount: 4, TilesYCount: 4, TileSampleCount: 4}
	neverBlocked := func(p, dir math32.Vector3, maxDepth int) bool { return false }

	entry := BuildEntry(math32.Vector3{}, math32.Vector3{Z: 1}, false, mapParams, neverBlocked, DefaultVisibilityParams(), nil, sequentialRNG(0.1, 0.3, 0.5, 0.7, 0.9))

	u, v, pdf, ok := entry.dist.SampleContinuous(0.5, 0.5)
	require.True(t, ok)
	assert.GreaterOrEqual(t, u, float32(0))
	assert.GreaterOrEqual(t, v, float32(0))
	assert.Greater(t, pdf, float32(0))
}

func TestBuildEntryFullyOccludedProducesNoSamples(t *testing.T) {
	mapParams := MapParams{TilesXCount: 4, TilesYCount: 4, TileSampleCount: 4}
	alwaysBlocked := func(p, dir math32.Vector3, maxDepth int) bool { return true }

	entry := BuildEntry(math32.Vector3{}, math32.Vector3{Z: 1}, false, mapParams, alwaysBlocked, DefaultVisibilityParams(), nil, sequentialRNG(0.1, 0.3, 0.5))

	_, _, _, ok := entry.dist.SampleContinuous(0.5, 0.5)
	assert.False(t, ok)
}

func TestCacheSampleFallsBackOutsideRadius(t *testing.T) {
	mapParams := MapParams{TilesXCount: 4, TilesYCount: 4, TileSampleCount: 4}
	neverBlocked := func(p, dir math32.Vector3, maxDepth int) bool { return false }
	entry := BuildEntry(math32.Vector3{}, math32.Vector3{Z: 1}, false, mapParams, neverBlocked, DefaultVisibilityParams(), nil, sequentialRNG(0.1, 0.3, 0.5, 0.7))

	cache := Freeze(1, nil, 4, 4, []*ELVCEntry{entry})

	_, _, ok := cache.Sample(math32.Vector3{X: 100}, math32.Vector3{Z: 1}, false, 10, 0.5, 0.5)
	assert.False(t, ok)

	dir, pdf, ok := cache.Sample(math32.Vector3{X: 0.01}, math32.Vector3{Z: 1}, false, 10, 0.5, 0.5)
	require.True(t, ok)
	assert.InDelta(t, 1.0, dir.Length(), 1e-4)
	assert.Greater(t, pdf, float32(0))
}

// TestCacheSamplePdfMatchesEntryDistribution checks the cache-level analogue
// of spec's "joint pdf is the product of the two, times
// tilesXCount*tilesYCount" rule: the pdf Cache.Sample hands back for a given
// (u0, u1) draw must equal the entry's own tile-distribution pdf scaled by
// the tile count, not some other value introduced by the BVH lookup or the
// uv->direction mapping in between.
func TestCacheSamplePdfMatchesEntryDistribution(t *testing.T) {
	mapParams := MapParams{TilesXCount: 4, TilesYCount: 4, TileSampleCount: 4}
	neverBlocked := func(p, dir math32.Vector3, maxDepth int) bool { return false }
	entry := BuildEntry(math32.Vector3{}, math32.Vector3{Z: 1}, false, mapParams, neverBlocked, DefaultVisibilityParams(), nil, sequentialRNG(0.2, 0.4, 0.6, 0.8))

	cache := Freeze(1, nil, 4, 4, []*ELVCEntry{entry})

	const u0, u1 = 0.35, 0.65
	wantU, wantV, wantTilePdf, ok := entry.dist.SampleContinuous(u0, u1)
	require.True(t, ok)
	tx, ty, tz := tangentBasis(entry.n)
	wantDir := directionFromUV(wantU, wantV, false, tx, ty, tz)

	gotDir, gotPdf, ok := cache.Sample(entry.p, entry.n, false, 10, u0, u1)
	require.True(t, ok)
	assert.InDelta(t, wantTilePdf*16, gotPdf, 1e-5)
	assert.InDelta(t, wantDir.X, gotDir.X, 1e-5)
	assert.InDelta(t, wantDir.Y, gotDir.Y, 1e-5)
	assert.InDelta(t, wantDir.Z, gotDir.Z, 1e-5)
}
