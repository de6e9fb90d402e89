package cache

import (
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// recorder collects removal notifications; safe for concurrent delivery.
type recorder[K comparable, V any] struct {
	mu sync.Mutex
	ns []Notification[K, V]
}

func (r *recorder[K, V]) listen(n Notification[K, V]) {
	r.mu.Lock()
	r.ns = append(r.ns, n)
	r.mu.Unlock()
}

func (r *recorder[K, V]) all() []Notification[K, V] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification[K, V](nil), r.ns...)
}

func (r *recorder[K, V]) byReason(reason RemovalReason) []Notification[K, V] {
	var out []Notification[K, V]
	for _, n := range r.all() {
		if n.Reason == reason {
			out = append(out, n)
		}
	}
	return out
}

func TestCache_PutGetInvalidate(t *testing.T) {
	t.Parallel()

	c, err := New[string, int](Options[string, int]{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	c.Put("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, v)

	c.Put("a", 11)
	v, ok = c.Get("a")
	require.True(t, ok)
	require.Equal(t, 11, v)

	c.Invalidate("a")
	_, ok = c.Get("a")
	require.False(t, ok)

	// Invalidating a missing key is a silent no-op.
	c.Invalidate("nope")
}

func TestCache_CountAndWeight_DefaultWeigher(t *testing.T) {
	t.Parallel()

	c, err := New[int, string](Options[int, string]{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	for i := 0; i < 10; i++ {
		c.Put(i, "v")
	}
	require.EqualValues(t, 10, c.Count())
	require.EqualValues(t, 10, c.Weight()) // default weigher: weight == count

	c.Invalidate(3)
	require.EqualValues(t, 9, c.Count())
	require.EqualValues(t, 9, c.Weight())
}

// The weight ledger must equal the sum of live entry weights after every
// operation, including replacements that change an entry's weight.
func TestCache_WeightInvariant_CustomWeigher(t *testing.T) {
	t.Parallel()

	c, err := New[string, int64](Options[string, int64]{
		Weigher: func(_ string, v int64) int64 { return v },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	c.Put("a", 5)
	c.Put("b", 7)
	require.EqualValues(t, 12, c.Weight())

	c.Put("a", 2) // replacement re-weighs
	require.EqualValues(t, 9, c.Weight())

	c.Invalidate("b")
	require.EqualValues(t, 2, c.Weight())

	c.InvalidateAll()
	require.EqualValues(t, 0, c.Weight())
	require.EqualValues(t, 0, c.Count())
}

// Deterministic global LRU eviction: the victim is the least recently used
// entry of the whole cache, however keys hash across segments.
func TestCache_EvictionPromotedSurvives(t *testing.T) {
	t.Parallel()

	c, err := New[string, int](Options[string, int]{MaximumWeight: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	c.Put("a", 1) // LRU = a
	c.Put("b", 2) // MRU = b

	_, ok := c.Get("a") // promote a -> MRU
	require.True(t, ok)

	c.Put("c", 3) // overflow -> evict LRU (b)

	_, ok = c.Peek("b")
	require.False(t, ok, "b must be evicted")
	_, ok = c.Peek("a")
	require.True(t, ok, "a must survive (promoted)")
	_, ok = c.Peek("c")
	require.True(t, ok)
}

// Inserting 1000 unit-weight entries under a bound of 500 must leave exactly
// the 500 most recently inserted keys, with 500 evictions reported in LRU
// order.
func TestCache_EvictionOrder_Bulk(t *testing.T) {
	t.Parallel()

	rec := &recorder[int, string]{}
	c, err := New[int, string](Options[int, string]{
		MaximumWeight:   500,
		RemovalListener: rec.listen,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	for i := 0; i < 1000; i++ {
		c.Put(i, strconv.Itoa(i))
	}

	require.EqualValues(t, 500, c.Count())
	require.EqualValues(t, 500, c.Weight())
	require.EqualValues(t, 500, c.Stats().Evictions)

	for i := 0; i < 500; i++ {
		require.False(t, c.Has(i), "key %d must be evicted", i)
	}
	for i := 500; i < 1000; i++ {
		require.True(t, c.Has(i), "key %d must be present", i)
	}

	evicted := rec.byReason(Evicted)
	require.Len(t, evicted, 500)
	for i, n := range evicted {
		require.Equal(t, i, n.Key, "evictions must come out in insertion order")
	}
}

// A single heavy insert may evict several light victims.
func TestCache_HeavyEntryEvictsMany(t *testing.T) {
	t.Parallel()

	rec := &recorder[string, int64]{}
	c, err := New[string, int64](Options[string, int64]{
		MaximumWeight:   10,
		Weigher:         func(_ string, v int64) int64 { return v },
		RemovalListener: rec.listen,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	for i := 0; i < 5; i++ {
		c.Put(fmt.Sprintf("light%d", i), 2) // total weight 10
	}
	c.Put("heavy", 8) // must push out 4 light entries

	require.EqualValues(t, 10, c.Weight())
	require.EqualValues(t, 2, c.Count())
	require.Len(t, rec.byReason(Evicted), 4)
	require.True(t, c.Has("heavy"))
	require.True(t, c.Has("light4"))
}

// An entry heavier than the whole bound empties the cache and then evicts
// itself: the sweep stops only when the bound holds or nothing is left.
func TestCache_OversizedEntry(t *testing.T) {
	t.Parallel()

	c, err := New[string, int64](Options[string, int64]{
		MaximumWeight: 5,
		Weigher:       func(_ string, v int64) int64 { return v },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	c.Put("big", 100)
	require.EqualValues(t, 0, c.Count())
	require.EqualValues(t, 0, c.Weight())
	require.EqualValues(t, 1, c.Stats().Evictions)
}

func TestCache_ReplaceNotification(t *testing.T) {
	t.Parallel()

	rec := &recorder[string, string]{}
	c, err := New[string, string](Options[string, string]{RemovalListener: rec.listen})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	c.Put("k", "v1")
	c.Put("k", "v2")

	replaced := rec.byReason(Replaced)
	require.Len(t, replaced, 1)
	require.Equal(t, "k", replaced[0].Key)
	require.Equal(t, "v1", replaced[0].Value, "notification carries the displaced value")

	// Replacing with an equal value still notifies.
	c.Put("k", "v2")
	require.Len(t, rec.byReason(Replaced), 2)
}

func TestCache_NotificationTaxonomy(t *testing.T) {
	t.Parallel()

	rec := &recorder[int, int]{}
	c, err := New[int, int](Options[int, int]{
		MaximumWeight:   2,
		RemovalListener: rec.listen,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	c.Put(1, 10)
	c.Put(2, 20)
	c.Put(1, 11) // REPLACED
	c.Put(3, 30) // EVICTED (victim: 2)
	c.Invalidate(3)

	ns := rec.all()
	require.Len(t, ns, 3)
	require.Equal(t, Replaced, ns[0].Reason)
	require.Equal(t, 10, ns[0].Value)
	require.Equal(t, Evicted, ns[1].Reason)
	require.Equal(t, 2, ns[1].Key)
	require.Equal(t, Invalidated, ns[2].Reason)
	require.Equal(t, 3, ns[2].Key)
}

// A removal listener that reenters the cache must not deadlock:
// notifications are delivered with no cache locks held.
func TestCache_ListenerReentrancy(t *testing.T) {
	t.Parallel()

	var c Cache[int, int]
	var err error
	c, err = New[int, int](Options[int, int]{
		MaximumWeight: 2,
		RemovalListener: func(n Notification[int, int]) {
			c.Get(n.Key) // reentrant read during eviction
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	for i := 0; i < 10; i++ {
		c.Put(i, i)
	}
	require.EqualValues(t, 2, c.Count())
}

func TestCache_InvalidateIfEqual(t *testing.T) {
	t.Parallel()

	rec := &recorder[string, string]{}
	c, err := New[string, string](Options[string, string]{RemovalListener: rec.listen})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	c.Put("k", "v")

	// Value mismatch: no-op, no notification.
	require.False(t, c.InvalidateIfEqual("k", "other"))
	require.True(t, c.Has("k"))
	require.Empty(t, rec.all())

	// Missing key: no-op.
	require.False(t, c.InvalidateIfEqual("missing", "v"))

	// Match: removed with an Invalidated notification.
	require.True(t, c.InvalidateIfEqual("k", "v"))
	require.False(t, c.Has("k"))
	inv := rec.byReason(Invalidated)
	require.Len(t, inv, 1)
	require.Equal(t, "k", inv[0].Key)
}

func TestCache_InvalidateAll(t *testing.T) {
	t.Parallel()

	rec := &recorder[int, int]{}
	c, err := New[int, int](Options[int, int]{RemovalListener: rec.listen})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	for i := 0; i < 20; i++ {
		c.Put(i, i)
	}
	c.Get(0)  // a hit
	c.Get(99) // a miss

	c.InvalidateAll()

	require.EqualValues(t, 0, c.Count())
	require.EqualValues(t, 0, c.Weight())
	require.Len(t, rec.byReason(Invalidated), 20)

	// Stats survive a clear.
	st := c.Stats()
	require.EqualValues(t, 1, st.Hits)
	require.EqualValues(t, 1, st.Misses)
}

func TestCache_Stats(t *testing.T) {
	t.Parallel()

	c, err := New[string, int](Options[string, int]{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	c.Put("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("missing")

	st := c.Stats()
	require.EqualValues(t, 2, st.Hits)
	require.EqualValues(t, 1, st.Misses)
	require.EqualValues(t, 0, st.Evictions)
}

func TestCache_PeekDoesNotPromote(t *testing.T) {
	t.Parallel()

	c, err := New[string, int](Options[string, int]{MaximumWeight: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	c.Put("a", 1)
	c.Put("b", 2)

	v, ok := c.Peek("a") // no promotion: a stays LRU
	require.True(t, ok)
	require.Equal(t, 1, v)

	c.Put("c", 3) // evicts a, not b

	require.False(t, c.Has("a"))
	require.True(t, c.Has("b"))

	// Peek touched no counters.
	require.EqualValues(t, 0, c.Stats().Hits)
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	for name, opt := range map[string]Options[string, int]{
		"negative weight": {MaximumWeight: -1},
		"negative access": {ExpireAfterAccess: -1},
		"negative write":  {ExpireAfterWrite: -1},
		"negative sweep":  {SweepInterval: -1},
		"negative shards": {Segments: -4},
	} {
		_, err := New[string, int](opt)
		require.ErrorIs(t, err, ErrInvalidConfig, name)
	}
}

func TestCache_ClosedIsInert(t *testing.T) {
	t.Parallel()

	c, err := New[string, int](Options[string, int]{})
	require.NoError(t, err)

	c.Put("a", 1)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close()) // idempotent

	c.Put("b", 2)
	_, ok := c.Get("a")
	require.False(t, ok)
}
