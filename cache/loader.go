package cache

import (
	"context"
	"fmt"
	"reflect"
	"runtime"

	"github.com/IvanBrykalov/segcache/internal/flight"
)

// ComputeIfAbsent returns the cached value for k, loading it on a miss with
// single-flight coalescing: the first caller to claim the key becomes the
// leader and runs load with no cache locks held; everyone else waits on the
// promise pinned into the segment table and observes the same outcome.
//
// A failed load (error return, nil result, or panic) leaves nothing behind:
// the marker is removed, the weight ledger is untouched, and the next call
// for k runs the loader again. Each caller gets its own *LoadError wrapping
// the shared root cause.
func (c *cache[K, V]) ComputeIfAbsent(ctx context.Context, k K, load Loader[K, V]) (V, error) {
	var zero V
	if load == nil {
		return zero, ErrNilLoader
	}
	if c.closed.Load() {
		return zero, ErrClosed
	}

	// Fast path: a plain read settles the common warm case and records the
	// hit or miss for this call.
	if v, ok := c.Get(k); ok {
		return v, nil
	}

	for {
		seg := c.segmentFor(k)
		seg.mu.Lock()
		s := seg.table[k]

		// Another caller's load is in flight: join it.
		if s != nil && s.load != nil {
			p := s.load
			seg.mu.Unlock()
			v, err := p.Wait(ctx)
			if err == nil {
				return v, nil
			}
			if ctx.Err() != nil {
				return zero, ctx.Err()
			}
			return zero, &LoadError{cause: err}
		}

		// A resident entry appeared (or was expired all along): check its
		// visibility outside the segment lock, then either return the hit
		// or come back and claim the key over the stale entry.
		if s != nil && s.entry != nil {
			e := s.entry
			seg.mu.Unlock()
			v, ok, pendingPut := c.touchForLoad(e)
			if ok {
				return v, nil
			}
			if pendingPut {
				// A concurrent Put has published the entry to the table but
				// not yet linked it. It goes live in a moment; claiming its
				// slot now would strand it in the recency ledger.
				runtime.Gosched()
				continue
			}
			seg.mu.Lock()
			if seg.table[k] != s {
				seg.mu.Unlock()
				continue // the slot moved under us, re-evaluate
			}
		}

		// Leader: pin the in-flight marker under the segment lock.
		p := flight.New[V]()
		mine := &slot[K, V]{load: p}
		var stale *entry[K, V]
		if s != nil {
			stale = s.entry
		}
		seg.table[k] = mine
		seg.mu.Unlock()

		// An expired entry displaced by the reload is evicted eagerly so
		// its weight does not linger under the marker (evictEntryLocked
		// drops the table slot only when it still holds the entry; ours
		// already holds the marker). An entry that is somehow still
		// unlinked belongs to a racing Put: flipping its state turns the
		// Put's pending link into a no-op instead of a ledger leak.
		// Notifications are queued and delivered only after the promise
		// resolves, so a listener panic cannot leave waiters wedged.
		var ns []Notification[K, V]
		if stale != nil {
			c.lru.mu.Lock()
			switch stale.state {
			case stateLive:
				c.evictEntryLocked(stale, &ns)
			case stateNew:
				stale.state = stateRemoved
			}
			c.lru.mu.Unlock()
			c.reportSize()
		}

		v, err := runLoader(ctx, k, load)
		if err != nil {
			seg.mu.Lock()
			if seg.table[k] == mine {
				delete(seg.table, k)
			}
			seg.mu.Unlock()
			p.Fail(err)
			c.dispatch(ns)
			return zero, &LoadError{cause: err}
		}

		now := c.nowNanos()
		e := &entry[K, V]{key: k, val: v, weight: c.weigh(k, v), writeTime: now, accessTime: now}
		installed := false
		seg.mu.Lock()
		if seg.table[k] == mine {
			mine.load = nil
			mine.entry = e
			installed = true
		}
		seg.mu.Unlock()

		// Not installed means the key was invalidated (or overwritten)
		// while we loaded; the callers still get the value, the cache
		// honors the removal.
		if installed {
			c.lru.mu.Lock()
			c.linkLocked(e)
			c.evictLocked(&ns)
			c.lru.mu.Unlock()
			c.reportSize()
		}

		// Resolve waiters first; listeners run last.
		p.Complete(v)
		c.dispatch(ns)
		return v, nil
	}
}

// touchForLoad is touch with the pending case split out: an entry a Put has
// published to the table but not yet linked reads as pending rather than as
// absent. Get may report such an entry as a plain miss; the load path must
// not, because it would claim the slot and orphan the entry once the Put
// links it.
func (c *cache[K, V]) touchForLoad(e *entry[K, V]) (v V, ok, pendingPut bool) {
	now := c.nowNanos()
	c.lru.mu.Lock()
	defer c.lru.mu.Unlock()
	switch {
	case e.state == stateNew:
		return v, false, true
	case e.state != stateLive || c.isExpired(e, now):
		return v, false, false
	}
	e.accessTime = now
	c.lru.moveToFront(e)
	return e.val, true, false
}

// runLoader invokes load and normalizes its failure modes: a panic becomes
// an error, a nil result becomes ErrNilValue.
func runLoader[K comparable, V any](ctx context.Context, k K, load Loader[K, V]) (v V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("loader panicked: %v", r)
		}
	}()
	v, err = load(ctx, k)
	if err == nil && isNilValue(any(v)) {
		err = ErrNilValue
	}
	return v, err
}

// isNilValue reports whether a loader result is a typed or untyped nil.
// Non-nilable kinds are always values.
func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
