package cache

import (
	"context"
	"iter"
)

// Loader fetches the value for a key on a cache miss. It runs with no cache
// locks held, so it may call back into the cache for other keys.
type Loader[K comparable, V any] func(ctx context.Context, k K) (V, error)

// Cache is a weight-bounded, segmented, self-expiring key/value store.
// All methods are safe for concurrent use by multiple goroutines.
//
// Typical complexity for per-key operations is amortized O(1): a map lookup
// under a segment lock plus constant-time recency-list adjustments.
type Cache[K comparable, V any] interface {
	// Put inserts or updates k→v. The entry is weighed once, becomes the
	// most recently used, and the insert may synchronously evict entries
	// from the least recently used end until the weight bound is satisfied.
	// Replacing an existing entry emits a Replaced notification; the
	// notification fires even when the old and new values compare equal.
	Put(k K, v V)

	// Get returns the value for k and a presence flag. A hit refreshes the
	// entry's access time and promotes it to most recently used. Entries
	// past their expiry window are invisible (reported as a miss); their
	// weight is reclaimed by the next Refresh sweep.
	Get(k K) (V, bool)

	// Peek returns the value for k without promoting the entry or touching
	// the hit/miss counters. Expired entries are invisible to Peek too.
	Peek(k K) (V, bool)

	// Has reports whether k is present and unexpired, without promotion.
	Has(k K) bool

	// ComputeIfAbsent returns the cached value for k, loading it via load
	// on a miss. Concurrent callers for the same key coalesce: the loader
	// runs at most once and every caller observes the same result. A loader
	// error (or a nil result) is returned to each caller wrapped in a
	// *LoadError sharing the same root cause, and leaves no entry behind.
	// ctx bounds only this caller's wait; an in-flight load keeps running.
	ComputeIfAbsent(ctx context.Context, k K, load Loader[K, V]) (V, error)

	// Invalidate removes k if present, emitting an Invalidated notification.
	Invalidate(k K)

	// InvalidateIfEqual removes k only if its current value equals expected
	// (Options.ValueEquals, reflect.DeepEqual by default). Reports whether
	// the entry was removed; a mismatch is a silent no-op.
	InvalidateIfEqual(k K, expected V) bool

	// InvalidateAll removes every entry, emitting one Invalidated
	// notification per entry. Each segment clears atomically; the cache as
	// a whole clears segment by segment. Stats counters are not reset.
	InvalidateAll()

	// Refresh sweeps the whole cache against the current clock, evicting
	// every entry past its expiry window with reason Evicted.
	Refresh()

	// Keys yields the live keys in recency order, most recent first.
	Keys() iter.Seq[K]

	// Values yields the live values in recency order, most recent first.
	Values() iter.Seq[V]

	// Iter returns a cursor over a recency-ordered snapshot. The cursor's
	// Remove deletes the current entry through the same path as Invalidate.
	Iter() *Iterator[K, V]

	// Count returns the number of live entries.
	Count() int64

	// Weight returns the total weight of live entries.
	Weight() int64

	// Stats returns a snapshot of the hit/miss/eviction counters.
	Stats() Stats

	// Close stops the background sweeper (if configured) and marks the
	// cache closed. Further operations are ignored.
	Close() error
}
