package cache

// RemovalReason explains why an entry left the cache.
type RemovalReason uint8

const (
	// Evicted — removed by the cache itself: weight pressure or expiry.
	Evicted RemovalReason = iota + 1
	// Invalidated — removed explicitly by the caller.
	Invalidated
	// Replaced — displaced by a Put over the same key.
	Replaced
)

// String returns a stable lower-case label, suitable for metric values.
func (r RemovalReason) String() string {
	switch r {
	case Evicted:
		return "evicted"
	case Invalidated:
		return "invalidated"
	case Replaced:
		return "replaced"
	default:
		return "unknown"
	}
}

// Notification describes a single removal. It is delivered to the removal
// listener synchronously, before the removing call returns, with no cache
// locks held — the listener may reenter the cache.
type Notification[K comparable, V any] struct {
	Key    K
	Value  V
	Reason RemovalReason
}

// RemovalListener receives removal notifications. It must not panic; a
// panicking listener propagates to whichever caller triggered the removal
// (cache state stays consistent either way). It may run on any goroutine
// that mutates the cache, so keep it cheap or hand off to a channel.
type RemovalListener[K comparable, V any] func(Notification[K, V])
