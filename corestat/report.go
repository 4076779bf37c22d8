package corestat

import "github.com/quartzray/pathtrace/tracerlog"

// LogSummary writes a summary of snap to log: a WARN line with the warning
// count when it is non-zero, then two INFO lines (cache/photon entry counts,
// then visibility rays and cache hits/misses). This is the
// "may be surfaced in a post-render log" half of spec §7's propagation
// rule — the core itself never logs warnings inline, only counts them.
func LogSummary(log *tracerlog.Logger, snap Snapshot) {
	if snap.Warnings > 0 {
		log.Warn("core: %d numerical warning(s) during build/render", snap.Warnings)
	}
	log.Info("core: dlscache entries=%d elvc entries=%d caustic photons=%d indirect photons=%d",
		snap.DLSCacheEntries, snap.ELVCEntries, snap.CausticPhotons, snap.IndirectPhotons)
	log.Info("core: visibility rays=%d cache hits=%d misses=%d",
		snap.VisibilityRays, snap.CacheHits, snap.CacheMisses)
}
