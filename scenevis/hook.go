package scenevis

import (
	"github.com/quartzray/pathtrace/math32"
	"github.com/quartzray/pathtrace/sceneio"
)

// HitPointResolver turns a ray hit into a shading point: the world-space
// position/normal and the BSDF to shade with. ok is false for a miss or
// for geometry the host wants the driver to pass straight through.
type HitPointResolver func(hit sceneio.RayHit, ray math32.Ray) (p, n math32.Vector3, bsdf sceneio.BSDF, ok bool)

// Hook is implemented once per consuming cache (DLS cache, ELVC,
// photon-GI). ProcessHitPoint is called at every eligible path vertex; it
// decides whether this vertex is worth storing as a visibility particle
// and whether the path should keep bouncing. Merge combines a freshly
// produced payload into an already-stored particle's payload found within
// lookUpRadius·0.9 of the new one — semantics are cache-specific (e.g. ELVC
// appends the new BSDF sample to the existing entry's list; the DLS cache,
// which only cares that some point was seen here, can just keep the old
// payload unchanged).
type Hook interface {
	// ProcessHitPoint is called at an eligible path vertex. wo is the
	// outgoing direction back toward the path's previous vertex (the
	// negated incoming ray direction), in world space — a cache that needs
	// the local shading frame (e.g. to freeze a BSDF evaluator) derives it
	// from n and wo here, since the driver does not carry frame state.
	ProcessHitPoint(bsdf sceneio.BSDF, p, n, wo math32.Vector3, isVolume bool) (payload any, store bool, continuePath bool)
	Merge(existing, fresh any) any
}
