// Package cache provides a generic, segmented in-memory cache with a weight
// bound, LRU eviction over a single cache-wide recency order, optional
// expiry after access and after write, removal notifications, single-flight
// loading, and snapshot iterators.
//
// # Design
//
//   - Concurrency: per-key state is split into power-of-two many segments,
//     each a map guarded by its own RWMutex. The recency order and the
//     weight/count ledger are cache-wide, under a dedicated mutex, so
//     eviction always picks the globally least recently used entry while
//     per-key operations contend only on one segment plus one short
//     critical section on the recency lock.
//
//   - Weighing: Options.Weigher assigns each entry a weight at insertion
//     time. With the default weigher (constant 1) MaximumWeight acts as a
//     maximum entry count. Inserting past the bound evicts from the LRU end
//     until the bound holds again; one insert may evict many victims.
//
//   - Expiry: ExpireAfterAccess and ExpireAfterWrite are independent
//     windows; whichever elapses first hides the entry. Reads treat expired
//     entries as misses immediately but leave them in place; Refresh (or
//     the optional background sweeper) finalizes removal, releases the
//     weight, and emits the Evicted notification.
//
//   - Loading: ComputeIfAbsent pins a load promise into the key's table
//     slot, so concurrent callers for the same key coalesce onto one loader
//     invocation. The loader runs with no locks held and may reenter the
//     cache for other keys. Failures (including nil results and panics)
//     resolve every waiter with a *LoadError over the same root cause and
//     leave no entry behind.
//
//   - Notifications: Options.RemovalListener observes every removal with a
//     reason (Evicted, Invalidated, Replaced), synchronously before the
//     removing call returns, with no cache locks held.
//
//   - Time: Options.Clock injects the time source; tests pass
//     clock.NewMock() and advance it deterministically.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Removal/Size signals.
//     NoopMetrics is the default; metrics/prom exports to Prometheus.
//
// # Basic usage
//
//	c, err := cache.New[string, string](cache.Options[string, string]{
//	    MaximumWeight: 10_000, // default weigher: 10k entries
//	})
//	if err != nil {
//	    // configuration error
//	}
//	defer c.Close()
//
//	c.Put("a", "1")
//	if v, ok := c.Get("a"); ok {
//	    _ = v
//	}
//	c.Invalidate("a")
//
// # Loading through the cache
//
//	v, err := c.ComputeIfAbsent(ctx, "user:42", func(ctx context.Context, k string) (string, error) {
//	    return fetch(ctx, k) // runs at most once per miss, however many callers race
//	})
//	var le *cache.LoadError
//	if errors.As(err, &le) {
//	    // loader failed; the cache holds nothing for the key and will retry
//	}
//
// # Expiry with a deterministic clock
//
//	mock := clock.NewMock()
//	c, _ := cache.New[string, int](cache.Options[string, int]{
//	    ExpireAfterAccess: time.Minute,
//	    Clock:             mock,
//	})
//	c.Put("k", 1)
//	mock.Add(2 * time.Minute)
//	_, ok := c.Get("k") // ok == false
//	c.Refresh()         // releases the weight, emits Evicted
package cache
