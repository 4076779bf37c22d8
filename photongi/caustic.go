package photongi

import (
	"github.com/quartzray/pathtrace/math32"
	"github.com/quartzray/pathtrace/spatialindex"
)

// PhotonResponder evaluates the host BSDF for the direction the photon
// arrived along (already negated to point away from the surface, i.e. the
// "light direction" argument a regular BSDF evaluate call would take) and
// reports whether the surface admits any response at all.
type PhotonResponder func(wi math32.Vector3, isVolume bool) (bsdfEval math32.Vector3, directPdfW float32, ok bool)

// CausticCache is the raw-photon density-estimation cache: a BVH over
// landed photons queried by summing all photons within causticLookUpRadius
// whose landing normal passes the acceptance angle.
type CausticCache struct {
	index             *spatialindex.BVHIndex[*Photon]
	radius            float32
	normalAngleCos    float32
	photonTracedCount int
}

// BuildCausticCache indexes photons for density-estimation queries.
// photonTracedCount is the total number of photons traced to produce this
// set (including photons that never landed), used for the kernel
// normalization denominator.
func BuildCausticCache(photons []*Photon, radius, normalAngleDegrees float32, photonTracedCount int) *CausticCache {
	return &CausticCache{
		index:             spatialindex.BuildBVHIndex(photons, radius),
		radius:            radius,
		normalAngleCos:    cosDegrees(normalAngleDegrees),
		photonTracedCount: photonTracedCount,
	}
}

// ConnectAllNearEntries sums the BSDF response of every cached photon
// within radius of p whose landing normal is within the acceptance angle of
// n, then normalizes by photonTracedCount times the 2-D disc kernel area
// (surfaces) or 3-D sphere kernel volume (volumes), per spec §4.7.
func (c *CausticCache) ConnectAllNearEntries(p, n math32.Vector3, isVolume bool, respond PhotonResponder) SpectrumGroup {
	result := SpectrumGroup{}
	radius2 := c.radius * c.radius

	c.index.AllNear(p, func(idx int) {
		photon := c.index.EntryAt(idx)
		dist2 := distSq(p, photon.P)
		if dist2 >= radius2 || photon.Volume != isVolume {
			return
		}
		wi := photon.D.Clone()
		wi.MultiplyScalar(-1)

		if !isVolume {
			if n.Dot(wi) <= defaultCosEpsilon {
				return
			}
			if n.Dot(&photon.LandingSurfaceNormal) <= c.normalAngleCos {
				return
			}
		}

		bsdfEval, directPdfW, ok := respond(*wi, isVolume)
		if !ok {
			return
		}

		if !isVolume {
			cosTerm := math32.Abs(n.Dot(wi))
			if cosTerm > 0 {
				bsdfEval.MultiplyScalar(1 / cosTerm)
			}
		} else if directPdfW > 0 {
			bsdfEval.MultiplyScalar(1 / directPdfW)
		}

		var contribution math32.Vector3
		contribution.MultiplyVectors(&photon.Alpha, &bsdfEval)
		result.Add(photon.LightID, contribution)
	})

	if c.photonTracedCount > 0 {
		var norm float32
		if isVolume {
			norm = float32(c.photonTracedCount) * (4.0 / 3.0 * math32.Pi * radius2 * c.radius)
		} else {
			norm = float32(c.photonTracedCount) * (math32.Pi * radius2)
		}
		if norm > 0 {
			result.Scale(1 / norm)
		}
	}

	return result
}

const defaultCosEpsilon = 1e-4

func cosDegrees(angle float32) float32 {
	return math32.Cos(angle * math32.Pi / 180)
}

func distSq(a, b math32.Vector3) float32 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return dx*dx + dy*dy + dz*dz
}
