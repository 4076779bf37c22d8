package photongi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quartzray/pathtrace/math32"
)

func unitResponder(weight float32) PhotonResponder {
	return func(wi math32.Vector3, isVolume bool) (math32.Vector3, float32, bool) {
		return math32.Vector3{X: weight, Y: weight, Z: weight}, 1, true
	}
}

func TestCausticCacheNormalizesByDiscArea(t *testing.T) {
	radius := float32(2)
	photons := []*Photon{
		{P: math32.Vector3{}, D: math32.Vector3{Z: -1}, LightID: 0, Alpha: math32.Vector3{X: 1, Y: 1, Z: 1}, LandingSurfaceNormal: math32.Vector3{Z: 1}},
	}
	cache := BuildCausticCache(photons, radius, 90, 1)

	result := cache.ConnectAllNearEntries(math32.Vector3{}, math32.Vector3{Z: 1}, false, unitResponder(1))

	expectedNorm := float32(1) / (math32.Pi * radius * radius)
	require.Contains(t, result, 0)
	assert.InDelta(t, float64(expectedNorm), float64(result[0].X), 1e-4)
}

func TestCausticCacheRejectsOutOfRadiusPhotons(t *testing.T) {
	photons := []*Photon{
		{P: math32.Vector3{X: 100}, D: math32.Vector3{Z: -1}, LightID: 0, Alpha: math32.Vector3{X: 1, Y: 1, Z: 1}, LandingSurfaceNormal: math32.Vector3{Z: 1}},
	}
	cache := BuildCausticCache(photons, 1, 90, 1)

	result := cache.ConnectAllNearEntries(math32.Vector3{}, math32.Vector3{Z: 1}, false, unitResponder(1))
	assert.Empty(t, result)
}

func TestCausticCacheRejectsWrongLandingNormalAngle(t *testing.T) {
	photons := []*Photon{
		// landing normal perpendicular to shading normal -> outside any
		// acceptance angle below 90 degrees
		{P: math32.Vector3{}, D: math32.Vector3{Z: -1}, LightID: 0, Alpha: math32.Vector3{X: 1, Y: 1, Z: 1}, LandingSurfaceNormal: math32.Vector3{X: 1}},
	}
	cache := BuildCausticCache(photons, 2, 10, 1)

	result := cache.ConnectAllNearEntries(math32.Vector3{}, math32.Vector3{Z: 1}, false, unitResponder(1))
	assert.Empty(t, result)
}

func TestCausticCacheVolumeUsesSphereKernel(t *testing.T) {
	radius := float32(2)
	photons := []*Photon{
		{P: math32.Vector3{}, D: math32.Vector3{Z: -1}, LightID: 0, Alpha: math32.Vector3{X: 1, Y: 1, Z: 1}, Volume: true},
	}
	cache := BuildCausticCache(photons, radius, 90, 1)

	result := cache.ConnectAllNearEntries(math32.Vector3{}, math32.Vector3{}, true, unitResponder(1))

	expectedNorm := float32(1) / (4.0 / 3.0 * math32.Pi * radius * radius * radius)
	require.Contains(t, result, 0)
	assert.InDelta(t, float64(expectedNorm), float64(result[0].X), 1e-4)
}

func TestIndirectCacheNearestEntry(t *testing.T) {
	photons := []*RadiancePhoton{
		{P: math32.Vector3{X: 5}, N: math32.Vector3{Z: 1}, OutgoingByGroup: map[int]math32.Vector3{0: {X: 1}}},
		{P: math32.Vector3{}, N: math32.Vector3{Z: 1}, OutgoingByGroup: map[int]math32.Vector3{0: {X: 2}}},
	}
	cache := BuildIndirectCache(photons, 1)

	entry, ok := cache.GetNearestEntry(math32.Vector3{X: 0.1}, math32.Vector3{Z: 1}, false, 1, 10)
	require.True(t, ok)
	assert.InDelta(t, 2, entry.OutgoingByGroup[0].X, 1e-6)
}

func TestParamsUsableForGlossiness(t *testing.T) {
	p := Params{GlossinessUsageThreshold: 0.5}
	assert.True(t, p.UsableFor(0.2))
	assert.False(t, p.UsableFor(0.9))
}

func TestSpectrumGroupAddAccumulates(t *testing.T) {
	g := SpectrumGroup{}
	g.Add(0, math32.Vector3{X: 1})
	g.Add(0, math32.Vector3{X: 2})
	assert.InDelta(t, 3, g[0].X, 1e-6)
}
