// Package photongi implements the two photon-mapping caches accelerating
// indirect diffuse and caustic transport: a radiance-photon cache queried
// by nearest-entry lookup, and a raw-photon cache queried by density
// estimation over all photons within a fixed radius.
package photongi

import "github.com/quartzray/pathtrace/math32"

// Photon is a single raw caustic photon: the point it landed at, the
// direction it arrived along, which light emitted it, its carried power
// (alpha), the landing surface normal, and whether it landed in a volume.
type Photon struct {
	P                    math32.Vector3
	D                    math32.Vector3 // direction of travel when the photon landed
	LightID              int
	Alpha                math32.Vector3
	LandingSurfaceNormal math32.Vector3
	Volume               bool
}

func (p *Photon) Position() math32.Vector3 { return p.P }
func (p *Photon) Normal() math32.Vector3   { return p.LandingSurfaceNormal }
func (p *Photon) IsVolume() bool           { return p.Volume }

// RadiancePhoton is a pre-integrated indirect-lighting cache entry: the
// outgoing radiance already accumulated from nearby photons during the
// cache-build pass, grouped by light-group id so the integrator can add
// per-group contributions directly without any further bounce.
type RadiancePhoton struct {
	P               math32.Vector3
	N               math32.Vector3
	OutgoingByGroup map[int]math32.Vector3
	Volume          bool
}

func (r *RadiancePhoton) Position() math32.Vector3 { return r.P }
func (r *RadiancePhoton) Normal() math32.Vector3   { return r.N }
func (r *RadiancePhoton) IsVolume() bool           { return r.Volume }

// SpectrumGroup accumulates per-light-group spectra, mirroring the source's
// SpectrumGroup accumulator used by caustic-photon connection.
type SpectrumGroup map[int]math32.Vector3

// Add accumulates value into group lightID.
func (g SpectrumGroup) Add(lightID int, value math32.Vector3) {
	cur := g[lightID]
	cur.Add(&value)
	g[lightID] = cur
}

// Scale multiplies every group's spectrum by s, used to apply the
// density-estimation kernel normalization after accumulation.
func (g SpectrumGroup) Scale(s float32) {
	for k, v := range g {
		v.MultiplyScalar(s)
		g[k] = v
	}
}
