package lightstrategy

import (
	"math"

	"github.com/quartzray/pathtrace/sceneio"
)

// StrategyType selects among the closed set of light-selection strategies
// recognized by the lightstrategy.type configuration key.
type StrategyType int

const (
	Uniform StrategyType = iota
	Power
	LogPower
	DLSCache
)

// StaticStrategy is a scene-wide light distribution computed once from the
// lights' emitted power, used directly (Uniform/Power/LogPower) or as the
// fallback a DLS cache delegates to when no entry is available.
type StaticStrategy struct {
	kind   StrategyType
	dist   *Distribution1D
	lights []sceneio.LightSource
}

// NewStaticStrategy computes the per-light weight vector for kind from each
// light's Power(scene) and builds the resulting Distribution1D.
func NewStaticStrategy(kind StrategyType, lights []sceneio.LightSource, scene sceneio.SceneInfo) *StaticStrategy {
	weights := make([]float32, len(lights))
	for i, l := range lights {
		switch kind {
		case Uniform:
			weights[i] = 1
		case Power:
			weights[i] = l.Power(scene)
		case LogPower:
			p := l.Power(scene)
			weights[i] = float32(math.Log(1 + float64(p)))
		default:
			weights[i] = 1
		}
	}
	return &StaticStrategy{
		kind:   kind,
		dist:   NewDistribution1D(weights),
		lights: lights,
	}
}

// SampleLights picks a light proportional to this strategy's weighting,
// returning nil with pdf 0 if the scene has no lights.
func (s *StaticStrategy) SampleLights(u float32) (light sceneio.LightSource, pdf float32) {
	i, p := s.dist.SampleDiscrete(u)
	if i < 0 {
		return nil, 0
	}
	return s.lights[i], p
}

// SampleLightPdf returns the probability this strategy would have picked
// light, found by linear scan (the light count this runs over is the scene
// light count, not a per-query hot path).
func (s *StaticStrategy) SampleLightPdf(light sceneio.LightSource) float32 {
	for i, l := range s.lights {
		if l == light {
			return s.dist.Pdf(i)
		}
	}
	return 0
}
