package cache

import (
	"sync"

	"github.com/IvanBrykalov/segcache/internal/flight"
)

// slot is what a segment's table maps a key to: either a resident entry or
// an in-flight load, never both. Fields are guarded by the segment lock.
//
// Pinning the load promise into the table (instead of a side map) is what
// gives Put/Invalidate a consistent view: replacing or deleting the slot
// orphans the load, and the loader's finalize step detects that and skips
// installation.
type slot[K comparable, V any] struct {
	entry *entry[K, V]
	load  *flight.Promise[V]
}

// segment is an independently locked partition of the keyspace. It owns only
// the table; recency order and the weight/count ledger are cache-wide.
//
// Lock order: the recency lock may acquire a segment lock (evicting a victim
// deletes its slot); a segment lock never acquires the recency lock.
type segment[K comparable, V any] struct {
	mu    sync.RWMutex
	table map[K]*slot[K, V]
}

func newSegment[K comparable, V any]() *segment[K, V] {
	return &segment[K, V]{table: make(map[K]*slot[K, V])}
}

// lookupEntry returns the resident entry for k, or nil if the key is absent
// or still loading. Liveness/expiry are the caller's problem.
func (s *segment[K, V]) lookupEntry(k K) *entry[K, V] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sl := s.table[k]; sl != nil {
		return sl.entry
	}
	return nil
}

// drop deletes k's slot iff it still holds e. Used by eviction and iterator
// removal, where the table may have moved on since e was observed.
func (s *segment[K, V]) drop(k K, e *entry[K, V]) {
	s.mu.Lock()
	if sl := s.table[k]; sl != nil && sl.entry == e {
		delete(s.table, k)
	}
	s.mu.Unlock()
}
