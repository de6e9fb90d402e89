package cache

import "github.com/IvanBrykalov/segcache/internal/util"

// Stats is a point-in-time snapshot of the monotonic operation counters.
// Evictions counts capacity- and expiry-driven removals only; explicit
// invalidations and replacements are not evictions.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// counters are cache-line padded so concurrent readers hammering different
// counters do not false-share.
type counters struct {
	hits      util.PaddedAtomicUint64
	misses    util.PaddedAtomicUint64
	evictions util.PaddedAtomicUint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
