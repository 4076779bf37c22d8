// Package corestat collects render/build statistics as a set of atomic
// counters, following spec §7's rule that numerical edge cases increment a
// warning counter and are otherwise silent. Counters are exported as a
// read-only Snapshot for a host UI or log to poll, rather than pushed
// anywhere — the core never blocks on a stats consumer.
package corestat

import "sync/atomic"

// Counters is a set of atomically-updated build/render statistics. The zero
// value is ready to use.
type Counters struct {
	warnings        uint64
	dlsCacheEntries uint64
	elvcEntries     uint64
	causticPhotons  uint64
	indirectPhotons uint64
	visibilityRays  uint64
	cacheHits       uint64
	cacheMisses     uint64
}

// Snapshot is a point-in-time, non-atomic copy of Counters safe to read
// without further synchronization.
type Snapshot struct {
	Warnings        uint64
	DLSCacheEntries uint64
	ELVCEntries     uint64
	CausticPhotons  uint64
	IndirectPhotons uint64
	VisibilityRays  uint64
	CacheHits       uint64
	CacheMisses     uint64
}

// IncWarnings increments the warning counter by n, per spec §7's
// "numerical edge cases increment a warning counter and are otherwise
// silent" propagation rule.
func (c *Counters) IncWarnings(n uint64) { atomic.AddUint64(&c.warnings, n) }

// AddDLSCacheEntries records n newly-built direct-light-sampling cache
// entries.
func (c *Counters) AddDLSCacheEntries(n uint64) { atomic.AddUint64(&c.dlsCacheEntries, n) }

// AddELVCEntries records n newly-built environment-light visibility cache
// entries.
func (c *Counters) AddELVCEntries(n uint64) { atomic.AddUint64(&c.elvcEntries, n) }

// AddCausticPhotons records n photons stored into the caustic cache.
func (c *Counters) AddCausticPhotons(n uint64) { atomic.AddUint64(&c.causticPhotons, n) }

// AddIndirectPhotons records n radiance photons stored into the indirect
// cache.
func (c *Counters) AddIndirectPhotons(n uint64) { atomic.AddUint64(&c.indirectPhotons, n) }

// AddVisibilityRays records n rays traced by the scene-visibility driver
// (spec §4.8's work-stealing sample counter).
func (c *Counters) AddVisibilityRays(n uint64) { atomic.AddUint64(&c.visibilityRays, n) }

// AddCacheHit/AddCacheMiss track the §4.8 hit-rate convergence check.
func (c *Counters) AddCacheHit()  { atomic.AddUint64(&c.cacheHits, 1) }
func (c *Counters) AddCacheMiss() { atomic.AddUint64(&c.cacheMisses, 1) }

// HitRate returns CacheHits / (CacheHits + CacheMisses), or 0 if no samples
// have been recorded yet.
func (c *Counters) HitRate() float64 {
	hits := atomic.LoadUint64(&c.cacheHits)
	misses := atomic.LoadUint64(&c.cacheMisses)
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Snap takes a consistent-enough point-in-time copy of the counters. Reads
// are independent atomic loads, so under concurrent writers the snapshot
// may not be perfectly consistent across fields — acceptable for a
// diagnostic poll, per this package's doc.
func (c *Counters) Snap() Snapshot {
	return Snapshot{
		Warnings:        atomic.LoadUint64(&c.warnings),
		DLSCacheEntries: atomic.LoadUint64(&c.dlsCacheEntries),
		ELVCEntries:     atomic.LoadUint64(&c.elvcEntries),
		CausticPhotons:  atomic.LoadUint64(&c.causticPhotons),
		IndirectPhotons: atomic.LoadUint64(&c.indirectPhotons),
		VisibilityRays:  atomic.LoadUint64(&c.visibilityRays),
		CacheHits:       atomic.LoadUint64(&c.cacheHits),
		CacheMisses:     atomic.LoadUint64(&c.cacheMisses),
	}
}
