package photongi

// DebugMode selects which cache contribution (if any) is shown directly in
// place of full shading, per spec §4.7's debug-mode list.
type DebugMode int

const (
	DebugNone DebugMode = iota
	DebugShowIndirectOnly
	DebugShowCausticOnly
	DebugShowIndirectPathMix
)

// Params bundles the switches spec §6's photongi.* configuration namespace
// exposes.
type Params struct {
	IndirectEnabled          bool
	CausticEnabled           bool
	Debug                    DebugMode
	GlossinessUsageThreshold float32
}

// UsableFor reports whether the cache should be consulted for a BSDF with
// the given glossiness; delta/near-specular surfaces (glossiness above the
// threshold) are too directionally sharp for the cache's radius to
// represent, so they're sampled directly instead.
func (p Params) UsableFor(glossiness float32) bool {
	return glossiness <= p.GlossinessUsageThreshold
}
