// Package envcache implements the environment-light visibility cache
// (ELVC): per-point 2-D distributions over environment directions, biased
// by how much of the environment is actually visible from that point.
package envcache

import (
	"github.com/quartzray/pathtrace/envcache/distribution"
	"github.com/quartzray/pathtrace/math32"
	"github.com/quartzray/pathtrace/spatialindex"
)

// MapParams controls the per-entry tile/sample resolution, either given
// explicitly or derived from Quality per spec's "<prefix>.visibilitymapcache.
// map.quality" rule.
type MapParams struct {
	Quality                  float32
	TilesXCount              int
	TilesYCount              int
	TileSampleCount          int
	SampleUpperHemisphereOnly bool
}

// ResolveMapParams fills in TilesXCount/TilesYCount/TileSampleCount from
// Quality when they are unset (zero), interpolating quality in [0,1] to
// tile counts in [4,64] and samples/tile in [1,32] — coarser at quality 0,
// finer at quality 1.
func ResolveMapParams(p MapParams) MapParams {
	if p.TilesXCount <= 0 {
		p.TilesXCount = lerpInt(4, 64, p.Quality)
	}
	if p.TilesYCount <= 0 {
		p.TilesYCount = lerpInt(4, 64, p.Quality)
	}
	if p.TileSampleCount <= 0 {
		p.TileSampleCount = lerpInt(1, 32, p.Quality)
	}
	return p
}

func lerpInt(lo, hi int, t float32) int {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return lo + int(t*float32(hi-lo)+0.5)
}

// VisibilityParams controls entry construction tracing.
type VisibilityParams struct {
	MaxSampleCount int
	MaxDepth       int
	TargetHitRate  float32
	Radius         float32
	NormalAngle    float32
}

// DefaultVisibilityParams matches the source registry's ELVC defaults.
func DefaultVisibilityParams() VisibilityParams {
	return VisibilityParams{
		MaxSampleCount: 1000000,
		MaxDepth:       4,
		TargetHitRate:  0.995,
		Radius:         0,
		NormalAngle:    10,
	}
}

// ELVCEntry is the per-point 2-D visibility-weighted distribution, plus the
// point/normal/volume identity spatialindex.Entry requires.
type ELVCEntry struct {
	p, n     math32.Vector3
	isVolume bool
	dist     *distribution.Distribution2D
}

func (e *ELVCEntry) Position() math32.Vector3 { return e.p }
func (e *ELVCEntry) Normal() math32.Vector3   { return e.n }
func (e *ELVCEntry) IsVolume() bool           { return e.isVolume }

// OcclusionTester traces a ray from p towards dir up to maxDepth
// (non-occluding/alpha-cutout materials are expected to be passed through
// internally by the host) and reports whether anything opaque blocks it.
type OcclusionTester func(p, dir math32.Vector3, maxDepth int) (blocked bool)

// BuildEntry runs the tile-sampling construction described in spec §4.6: for
// each tile, cast tileSampleCount directions, bin successful (unoccluded)
// throughput, blur across tiles, optionally zero the lower hemisphere, and
// multiply by the luminance image if provided.
func BuildEntry(
	p, n math32.Vector3,
	isVolume bool,
	mapParams MapParams,
	occluded OcclusionTester,
	visParams VisibilityParams,
	luminance *distribution.Distribution2D,
	rng func() float32,
) *ELVCEntry {

	mapParams = ResolveMapParams(mapParams)
	tilesX, tilesY := mapParams.TilesXCount, mapParams.TilesYCount
	table := make([]float32, tilesX*tilesY)

	tx, ty, tz := tangentBasis(n)

	for row := 0; row < tilesY; row++ {
		for col := 0; col < tilesX; col++ {
			var accum float32
			for s := 0; s < mapParams.TileSampleCount; s++ {
				u := (float32(col) + rng()) / float32(tilesX)
				v := (float32(row) + rng()) / float32(tilesY)
				dir := directionFromUV(u, v, isVolume, tx, ty, tz)
				if !occluded(p, dir, visParams.MaxDepth) {
					accum += 1
				}
			}
			table[row*tilesX+col] = accum / float32(mapParams.TileSampleCount)
		}
	}

	blurred := gaussianBlur3x3(table, tilesX, tilesY)

	if mapParams.SampleUpperHemisphereOnly && !isVolume {
		zeroLowerHemisphere(blurred, tilesX, tilesY)
	}

	if luminance != nil {
		multiplyByLuminance(blurred, tilesX, tilesY, luminance)
	}

	return &ELVCEntry{p: p, n: n, isVolume: isVolume, dist: distribution.NewDistribution2D(blurred, tilesX, tilesY)}
}

func tangentBasis(n math32.Vector3) (tx, ty, tz math32.Vector3) {
	tz = n
	tz.Normalize()
	up := math32.Vector3{X: 0, Y: 1, Z: 0}
	if math32.Abs(tz.Y) > 0.99 {
		up = math32.Vector3{X: 1, Y: 0, Z: 0}
	}
	tx.CrossVectors(&up, &tz)
	tx.Normalize()
	ty.CrossVectors(&tz, &tx)
	return tx, ty, tz
}

// directionFromUV maps an equirectangular (u, v) in [0,1)^2 to a world-space
// unit direction in the local frame (tx, ty, tz=up), constrained to the
// upper hemisphere for surfaces unless sphere sampling (volumes) is
// requested.
func directionFromUV(u, v float32, isVolume bool, tx, ty, tz math32.Vector3) math32.Vector3 {
	phi := u * 2 * math32.Pi
	var cosTheta float32
	if isVolume {
		cosTheta = 1 - 2*v
	} else {
		cosTheta = v
	}
	sinTheta := math32.Sqrt(maxF(0, 1-cosTheta*cosTheta))
	localX := sinTheta * math32.Cos(phi)
	localY := sinTheta * math32.Sin(phi)
	localZ := cosTheta

	var d math32.Vector3
	d.X = tx.X*localX + ty.X*localY + tz.X*localZ
	d.Y = tx.Y*localX + ty.Y*localY + tz.Y*localZ
	d.Z = tx.Z*localX + ty.Z*localY + tz.Z*localZ
	d.Normalize()
	return d
}

func maxF(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func gaussianBlur3x3(table []float32, w, h int) []float32 {
	out := make([]float32, len(table))
	kernel := [3][3]float32{
		{1, 2, 1},
		{2, 4, 2},
		{1, 2, 1},
	}
	const kernelSum = 16
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			var sum float32
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					r := clampWrap(row+ky, h)
					c := clampWrap(col+kx, w)
					sum += table[r*w+c] * kernel[ky+1][kx+1]
				}
			}
			out[row*w+col] = sum / kernelSum
		}
	}
	return out
}

func clampWrap(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func zeroLowerHemisphere(table []float32, w, h int) {
	for row := 0; row < h; row++ {
		v := (float32(row) + 0.5) / float32(h)
		if v > 0.5 {
			for col := 0; col < w; col++ {
				table[row*w+col] = 0
			}
		}
	}
}

func multiplyByLuminance(table []float32, w, h int, luminance *distribution.Distribution2D) {
	for row := 0; row < h; row++ {
		v := (float32(row) + 0.5) / float32(h)
		for col := 0; col < w; col++ {
			u := (float32(col) + 0.5) / float32(w)
			table[row*w+col] *= luminance.Pdf(u, v)
		}
	}
}

// Cache is the frozen, query-ready ELVC built from completed entries.
type Cache struct {
	index     *spatialindex.BVHIndex[*ELVCEntry]
	luminance *distribution.Distribution2D
	radius    float32
	tilesX    int
	tilesY    int
}

// Freeze builds the immutable query-time BVH index over entries.
func Freeze(radius float32, luminance *distribution.Distribution2D, tilesX, tilesY int, entries []*ELVCEntry) *Cache {
	if radius <= 0 {
		radius = 1
	}
	return &Cache{
		index:     spatialindex.BuildBVHIndex(entries, radius),
		luminance: luminance,
		radius:    radius,
		tilesX:    tilesX,
		tilesY:    tilesY,
	}
}

// Sample looks up the nearest entry to (p, n, isVolume) and samples its
// distribution jointly with the luminance-weighted table, returning the
// direction and the joint pdf scaled by the tile count per spec's "Joint
// pdf is the product of the two, times tilesXCount*tilesYCount" rule. ok is
// false if no entry covers this point (caller falls back to luminance-only
// sampling).
func (c *Cache) Sample(p, n math32.Vector3, isVolume bool, normalAngleDegrees, u0, u1 float32) (dir math32.Vector3, pdf float32, ok bool) {
	entry, _, found := c.index.NearestEntry(p, n, isVolume, c.radius, normalAngleDegrees)
	if !found {
		return math32.Vector3{}, 0, false
	}
	u, v, tilePdf, sampleOk := entry.dist.SampleContinuous(u0, u1)
	if !sampleOk {
		return math32.Vector3{}, 0, false
	}
	tx, ty, tz := tangentBasis(n)
	dir = directionFromUV(u, v, isVolume, tx, ty, tz)
	pdf = tilePdf * float32(c.tilesX*c.tilesY)
	return dir, pdf, true
}
