package scenevis

import "github.com/quartzray/pathtrace/math32"

// DefaultFallbackRadius is used when EstimateBestRadius's sample set can't
// produce a stable estimate (too few hits, or a degenerate image plane).
const DefaultFallbackRadius = 0.15

// targetImageFraction is the fraction of the image plane a point sphere of
// the estimated radius should project to at the average path-tracing hit
// depth.
const targetImageFraction = 0.075

// EstimateBestRadius derives a world-space cache radius from a sample of
// primary-ray hit distances and the camera's vertical field of view, such
// that a sphere of that radius at the average hit depth subtends roughly
// targetImageFraction of the image's vertical extent. Falls back to
// DefaultFallbackRadius when no hit distances are supplied or the average
// depth is non-positive.
func EstimateBestRadius(hitDistances []float32, verticalFOVRadians float32) float32 {
	if len(hitDistances) == 0 || verticalFOVRadians <= 0 {
		return DefaultFallbackRadius
	}
	var sum float32
	n := 0
	for _, d := range hitDistances {
		if d > 0 && d < math32.Infinity {
			sum += d
			n++
		}
	}
	if n == 0 {
		return DefaultFallbackRadius
	}
	avgDepth := sum / float32(n)

	// Half the image height subtends verticalFOVRadians/2 at avgDepth;
	// a sphere projecting to targetImageFraction of the image height has
	// world radius = avgDepth * tan(fov/2) * targetImageFraction.
	halfHeightAtDepth := avgDepth * math32.Sin(verticalFOVRadians/2) / math32.Cos(verticalFOVRadians/2)
	radius := halfHeightAtDepth * targetImageFraction
	if radius <= 0 {
		return DefaultFallbackRadius
	}
	return radius
}
