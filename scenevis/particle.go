// Package scenevis implements the multi-threaded scene-visibility driver:
// worker paths that deposit "hit points of interest" into a shared
// accumulator until a target cache-hit rate is reached. Each of
// lightstrategy/envcache/photongi turns the resulting particles into its
// own specialized cache via a host-supplied Hook.
package scenevis

import "github.com/quartzray/pathtrace/math32"

// Particle is a generic visibility sample deposited by a worker path.
// Payload carries whatever cache-specific state the Hook that produced it
// wants merged (e.g. an accumulating BSDF sample list for ELVC, or nothing
// at all for the DLS cache, which only needs the position/normal/isVolume
// to exist).
type Particle struct {
	P       math32.Vector3
	N       math32.Vector3
	Volume  bool
	Payload any
}

// Position implements spatialindex.Entry.
func (p *Particle) Position() math32.Vector3 { return p.P }

// Normal implements spatialindex.Entry.
func (p *Particle) Normal() math32.Vector3 { return p.N }

// IsVolume implements spatialindex.Entry.
func (p *Particle) IsVolume() bool { return p.Volume }
