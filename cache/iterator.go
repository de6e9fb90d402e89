package cache

import "iter"

// Iterator is a cursor over a recency-ordered snapshot of the cache, most
// recently used first. The snapshot is taken once, so entries added after
// Iter are not yielded; entries removed after Iter are skipped when the
// cursor reaches them. Concurrent mutation never corrupts iteration.
type Iterator[K comparable, V any] struct {
	c       *cache[K, V]
	entries []*entry[K, V]
	pos     int
	cur     *entry[K, V]
}

// Iter returns a cursor positioned before the first entry.
func (c *cache[K, V]) Iter() *Iterator[K, V] {
	c.lru.mu.Lock()
	entries := make([]*entry[K, V], 0, c.lru.count.Load())
	for e := c.lru.head; e != nil; e = e.next {
		entries = append(entries, e)
	}
	c.lru.mu.Unlock()
	return &Iterator[K, V]{c: c, entries: entries, pos: -1}
}

// Next advances to the next entry that is still live and unexpired.
// Key, Value and Remove are valid only after Next returns true.
func (it *Iterator[K, V]) Next() bool {
	now := it.c.nowNanos()
	for it.pos+1 < len(it.entries) {
		it.pos++
		e := it.entries[it.pos]
		it.c.lru.mu.Lock()
		ok := e.state == stateLive && !it.c.isExpired(e, now)
		it.c.lru.mu.Unlock()
		if ok {
			it.cur = e
			return true
		}
	}
	it.cur = nil
	return false
}

// Key returns the current entry's key.
func (it *Iterator[K, V]) Key() K { return it.cur.key }

// Value returns the current entry's value.
func (it *Iterator[K, V]) Value() V { return it.cur.val }

// Remove invalidates the current entry through the same path as Invalidate,
// including the Invalidated notification. Removing an entry that a
// concurrent writer already replaced is a no-op.
func (it *Iterator[K, V]) Remove() {
	e := it.cur
	if e == nil {
		return
	}
	it.c.segmentFor(e.key).drop(e.key, e)
	it.c.finishRemoval(e, Invalidated)
}

// Keys yields live keys in recency order, most recent first.
func (c *cache[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		it := c.Iter()
		for it.Next() {
			if !yield(it.Key()) {
				return
			}
		}
	}
}

// Values yields live values in recency order, most recent first.
func (c *cache[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		it := c.Iter()
		for it.Next() {
			if !yield(it.Value()) {
				return
			}
		}
	}
}
