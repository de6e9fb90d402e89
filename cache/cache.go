package cache

import (
	"reflect"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/IvanBrykalov/segcache/internal/util"
)

// cache is the segmented implementation behind the Cache interface.
//
// Layout: per-key state lives in power-of-two many segments (map[K]*slot
// under a per-segment RWMutex); the recency order and the weight/count
// ledger are cache-wide, under their own mutex. Per-key operations take one
// segment lock and the recency lock in sequence, never nested in that
// direction; eviction, which runs under the recency lock, may take a
// segment lock to drop the victim's slot.
type cache[K comparable, V any] struct {
	opt      Options[K, V]
	segments []*segment[K, V]
	lru      recencyList[K, V]
	stats    counters
	metrics  Metrics
	clk      clock.Clock
	log      zerolog.Logger
	closed   atomic.Bool

	sweepStop chan struct{}
	sweepDone chan struct{}
}

// New constructs a cache from opt. Invalid configuration yields an error
// wrapping ErrInvalidConfig.
func New[K comparable, V any](opt Options[K, V]) (Cache[K, V], error) {
	if err := opt.validate(); err != nil {
		return nil, err
	}
	opt.withDefaults()

	c := &cache[K, V]{
		opt:      opt,
		segments: make([]*segment[K, V], opt.Segments),
		metrics:  opt.Metrics,
		clk:      opt.Clock,
		log:      *opt.Logger,
	}
	for i := range c.segments {
		c.segments[i] = newSegment[K, V]()
	}

	if opt.SweepInterval > 0 {
		c.sweepStop = make(chan struct{})
		c.sweepDone = make(chan struct{})
		go c.sweepLoop()
	}

	c.log.Debug().
		Int64("maximum_weight", opt.MaximumWeight).
		Int("segments", opt.Segments).
		Dur("expire_after_access", opt.ExpireAfterAccess).
		Dur("expire_after_write", opt.ExpireAfterWrite).
		Msg("cache configured")
	return c, nil
}

// ---- Cache[K, V] implementation ----

// Put inserts or updates k→v and enforces the weight bound.
func (c *cache[K, V]) Put(k K, v V) {
	if c.closed.Load() {
		return
	}
	now := c.nowNanos()
	e := &entry[K, V]{key: k, val: v, weight: c.weigh(k, v), writeTime: now, accessTime: now}

	seg := c.segmentFor(k)
	seg.mu.Lock()
	var old *entry[K, V]
	if s := seg.table[k]; s != nil {
		// Replacing the slot also orphans any in-flight load for k; its
		// loader will skip installation when it finds the slot gone.
		old = s.entry
	}
	seg.table[k] = &slot[K, V]{entry: e}
	seg.mu.Unlock()

	var ns []Notification[K, V]
	c.lru.mu.Lock()
	if old != nil && c.retireLocked(old) {
		ns = append(ns, Notification[K, V]{Key: old.key, Value: old.val, Reason: Replaced})
	}
	c.linkLocked(e)
	c.evictLocked(&ns)
	c.lru.mu.Unlock()

	c.reportSize()
	c.dispatch(ns)
}

// Get returns the value for k, promoting the entry on a hit.
func (c *cache[K, V]) Get(k K) (V, bool) {
	var zero V
	if c.closed.Load() {
		return zero, false
	}
	if e := c.segmentFor(k).lookupEntry(k); e != nil {
		if v, ok := c.touch(e); ok {
			c.stats.hits.Add(1)
			c.metrics.Hit()
			return v, true
		}
	}
	c.stats.misses.Add(1)
	c.metrics.Miss()
	return zero, false
}

// Peek reads without promotion and without touching the counters.
func (c *cache[K, V]) Peek(k K) (V, bool) {
	var zero V
	if c.closed.Load() {
		return zero, false
	}
	e := c.segmentFor(k).lookupEntry(k)
	if e == nil {
		return zero, false
	}
	now := c.nowNanos()
	c.lru.mu.Lock()
	ok := e.state == stateLive && !c.isExpired(e, now)
	c.lru.mu.Unlock()
	if !ok {
		return zero, false
	}
	return e.val, true
}

// Has reports presence without promotion.
func (c *cache[K, V]) Has(k K) bool {
	_, ok := c.Peek(k)
	return ok
}

// Invalidate removes k unconditionally if present.
func (c *cache[K, V]) Invalidate(k K) {
	if c.closed.Load() {
		return
	}
	seg := c.segmentFor(k)
	seg.mu.Lock()
	s := seg.table[k]
	if s == nil {
		seg.mu.Unlock()
		return
	}
	e := s.entry
	delete(seg.table, k) // an in-flight load marker is dropped silently
	seg.mu.Unlock()

	if e != nil {
		c.finishRemoval(e, Invalidated)
	}
}

// InvalidateIfEqual removes k only when its current value equals expected.
func (c *cache[K, V]) InvalidateIfEqual(k K, expected V) bool {
	if c.closed.Load() {
		return false
	}
	seg := c.segmentFor(k)
	seg.mu.Lock()
	s := seg.table[k]
	if s == nil || s.entry == nil {
		seg.mu.Unlock()
		return false
	}
	e := s.entry
	if !c.valueEquals(e.val, expected) {
		seg.mu.Unlock()
		return false
	}
	delete(seg.table, k)
	seg.mu.Unlock()

	c.finishRemoval(e, Invalidated)
	return true
}

// InvalidateAll clears every segment. Atomic per segment, segment by
// segment across the cache.
func (c *cache[K, V]) InvalidateAll() {
	if c.closed.Load() {
		return
	}
	var removed []*entry[K, V]
	for _, seg := range c.segments {
		seg.mu.Lock()
		for _, s := range seg.table {
			if s.entry != nil {
				removed = append(removed, s.entry)
			}
		}
		seg.table = make(map[K]*slot[K, V])
		seg.mu.Unlock()
	}

	var ns []Notification[K, V]
	c.lru.mu.Lock()
	for _, e := range removed {
		if c.retireLocked(e) {
			ns = append(ns, Notification[K, V]{Key: e.key, Value: e.val, Reason: Invalidated})
		}
	}
	c.lru.mu.Unlock()

	c.log.Debug().Int("invalidated", len(ns)).Msg("cache cleared")
	c.reportSize()
	c.dispatch(ns)
}

// Refresh sweeps every entry against the current clock and evicts the
// expired ones. This is the point where entries Get has already hidden give
// their weight back and emit their Evicted notification.
func (c *cache[K, V]) Refresh() {
	if c.closed.Load() {
		return
	}
	now := c.nowNanos()
	var ns []Notification[K, V]
	c.lru.mu.Lock()
	for e := c.lru.tail; e != nil; {
		prev := e.prev
		if c.isExpired(e, now) {
			c.evictEntryLocked(e, &ns)
		}
		e = prev
	}
	// Weight pressure is enforced eagerly on insert; sweeping it again here
	// settles the bound after the expiry pass as well.
	c.evictLocked(&ns)
	c.lru.mu.Unlock()

	if len(ns) > 0 {
		c.log.Debug().Int("expired", len(ns)).Msg("refresh sweep")
	}
	c.reportSize()
	c.dispatch(ns)
}

// Count returns the number of live entries.
func (c *cache[K, V]) Count() int64 { return c.lru.count.Load() }

// Weight returns the total weight of live entries.
func (c *cache[K, V]) Weight() int64 { return c.lru.weight.Load() }

// Stats returns a counter snapshot.
func (c *cache[K, V]) Stats() Stats { return c.stats.snapshot() }

// Close stops the sweeper and marks the cache closed.
func (c *cache[K, V]) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if c.sweepStop != nil {
		close(c.sweepStop)
		<-c.sweepDone
	}
	return nil
}

// ---- internals ----

func (c *cache[K, V]) segmentFor(k K) *segment[K, V] {
	return c.segments[util.SegmentIndex(util.Hash64(k), len(c.segments))]
}

func (c *cache[K, V]) nowNanos() int64 {
	return c.clk.Now().UnixNano()
}

func (c *cache[K, V]) weigh(k K, v V) int64 {
	if c.opt.Weigher == nil {
		return 1
	}
	if w := c.opt.Weigher(k, v); w > 0 {
		return w
	}
	return 0
}

func (c *cache[K, V]) valueEquals(a, b V) bool {
	if c.opt.ValueEquals != nil {
		return c.opt.ValueEquals(a, b)
	}
	return reflect.DeepEqual(a, b)
}

// isExpired applies both windows; the first to elapse wins. Strict
// comparison: an entry accessed exactly one window ago is still visible.
// Called under the recency lock (timestamps are guarded by it).
func (c *cache[K, V]) isExpired(e *entry[K, V], now int64) bool {
	if d := c.opt.ExpireAfterAccess; d > 0 && now-e.accessTime > int64(d) {
		return true
	}
	if d := c.opt.ExpireAfterWrite; d > 0 && now-e.writeTime > int64(d) {
		return true
	}
	return false
}

// touch promotes e and returns its value if it is still live and unexpired.
func (c *cache[K, V]) touch(e *entry[K, V]) (V, bool) {
	v, ok, _ := c.touchForLoad(e)
	return v, ok
}

// linkLocked links a freshly inserted entry, unless a concurrent removal won
// the race between the table insert and this call. Recency lock held.
func (c *cache[K, V]) linkLocked(e *entry[K, V]) {
	if e.state != stateNew {
		return // removed while being inserted
	}
	c.lru.pushFront(e)
	e.state = stateLive
}

// retireLocked takes e out of the recency order. Reports whether e was live,
// i.e. whether its weight was released and a notification is due. An entry
// removed before it was ever linked just flips to stateRemoved so the
// pending linkLocked becomes a no-op. Recency lock held.
func (c *cache[K, V]) retireLocked(e *entry[K, V]) bool {
	switch e.state {
	case stateLive:
		c.lru.unlink(e)
		e.state = stateRemoved
		return true
	case stateNew:
		e.state = stateRemoved
		return false
	default:
		return false
	}
}

// evictEntryLocked evicts one live entry: unlink, drop the table slot, count
// it, queue the notification. Recency lock held.
func (c *cache[K, V]) evictEntryLocked(e *entry[K, V], ns *[]Notification[K, V]) {
	c.lru.unlink(e)
	e.state = stateRemoved
	c.segmentFor(e.key).drop(e.key, e)
	c.stats.evictions.Add(1)
	*ns = append(*ns, Notification[K, V]{Key: e.key, Value: e.val, Reason: Evicted})
}

// evictLocked evicts from the LRU end until the weight bound is satisfied or
// the cache is empty. A single insert may evict many victims when weights
// are uneven. Recency lock held.
func (c *cache[K, V]) evictLocked(ns *[]Notification[K, V]) {
	max := c.opt.MaximumWeight
	if max <= 0 {
		return
	}
	for c.lru.weight.Load() > max {
		victim := c.lru.tail
		if victim == nil {
			break
		}
		c.evictEntryLocked(victim, ns)
	}
}

// finishRemoval completes an explicit removal whose table slot is already
// gone: release the ledger charge and notify.
func (c *cache[K, V]) finishRemoval(e *entry[K, V], reason RemovalReason) {
	var ns []Notification[K, V]
	c.lru.mu.Lock()
	if c.retireLocked(e) {
		ns = append(ns, Notification[K, V]{Key: e.key, Value: e.val, Reason: reason})
	}
	c.lru.mu.Unlock()
	c.reportSize()
	c.dispatch(ns)
}

// dispatch delivers queued notifications with no locks held, in the order
// the removals happened.
func (c *cache[K, V]) dispatch(ns []Notification[K, V]) {
	for _, n := range ns {
		c.metrics.Removal(n.Reason)
		if c.opt.RemovalListener != nil {
			c.opt.RemovalListener(n)
		}
	}
}

func (c *cache[K, V]) reportSize() {
	c.metrics.Size(int(c.lru.count.Load()), c.lru.weight.Load())
}

// sweepLoop drives Refresh on a ticker until Close.
func (c *cache[K, V]) sweepLoop() {
	defer close(c.sweepDone)
	t := c.clk.Ticker(c.opt.SweepInterval)
	defer t.Stop()
	c.log.Debug().Dur("interval", c.opt.SweepInterval).Msg("sweeper started")
	for {
		select {
		case <-t.C:
			c.Refresh()
		case <-c.sweepStop:
			c.log.Debug().Msg("sweeper stopped")
			return
		}
	}
}
