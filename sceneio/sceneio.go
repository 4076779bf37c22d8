// Package sceneio defines the minimal host-facing interfaces the core
// depends on, keeping ray intersection, material evaluation, light sampling,
// cameras, samplers and the film outside the core's own module boundary.
package sceneio

import "github.com/quartzray/pathtrace/math32"

// RayHit is the result of a ray query against host scene geometry.
type RayHit struct {
	T             float32
	MeshIndex     int
	TriangleIndex int
	B1, B2        float32
}

// IsMiss reports whether the hit represents "no intersection".
func (h RayHit) IsMiss() bool { return h.MeshIndex < 0 }

// MissHit is the RayHit value representing no intersection.
var MissHit = RayHit{MeshIndex: -1}

// RayQuerier answers intersection queries against the host's scene
// acceleration structure. bvh.Accelerator answers the same two queries but
// returns its own bvh.RayHit, so it does not satisfy this interface directly.
type RayQuerier interface {
	Intersect(ray *math32.Ray) RayHit
	IntersectAny(ray *math32.Ray) bool
}

// BSDFEvent classifies a BSDF sample/evaluation by transport type.
type BSDFEvent int

const (
	EventDiffuse BSDFEvent = 1 << iota
	EventGlossy
	EventSpecular
	EventReflect
	EventTransmit
)

// BSDF is the host-provided material evaluator at a shading point.
type BSDF interface {
	Evaluate(localLightDir, localEyeDir math32.Vector3) (spectrum math32.Vector3, event BSDFEvent, directPdfW, reversePdfW float32)
	Sample(fixedDir math32.Vector3, u0, u1 float32) (sampledDir math32.Vector3, spectrum math32.Vector3, pdfW, cosSampledDir float32, event BSDFEvent)
	Pdf(localLightDir, localEyeDir math32.Vector3) (directPdfW, reversePdfW float32)
	IsDelta() bool
	IsVolume() bool
	IsPhotonGIEnabled() bool
	Glossiness() float32
}

// LightSource is a single emitter in the scene, queried by the caches for
// direct-lighting estimates.
type LightSource interface {
	Illuminate(p math32.Vector3, u0, u1, u2 float32) (wi math32.Vector3, distance, directPdfW, emissionPdfW, cosThetaAtLight float32, le math32.Vector3, ok bool)
	Emit(u0, u1, u2, u3, u4 float32) (origin, dir math32.Vector3, emissionPdfW, directPdfW, cosThetaAtLight float32, le math32.Vector3, ok bool)
	Power(scene SceneInfo) float32
}

// EnvironmentLight is an infinite light queryable by direction, used by
// ELVC as the optional luminance source.
type EnvironmentLight interface {
	LightSource
	GetRadiance(dir math32.Vector3) (le math32.Vector3, directPdfA, emissionPdfW float32)
}

// SceneInfo exposes whatever a light needs to compute its total power
// (bounding sphere radius, etc).
type SceneInfo interface {
	WorldBound() math32.Box3
}

// Sampler hands out successive pseudo-random floats to the caller.
type Sampler interface {
	Next() float32
}

// Camera generates primary rays for film-space samples.
type Camera interface {
	GenerateRay(filmX, filmY, time float32) math32.Ray
}

// Film is the target of accumulated radiance samples.
type Film interface {
	AddSample(filmX, filmY float32, radiance math32.Vector3)
}
