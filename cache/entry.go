package cache

// entryState tracks where an entry stands between the segment table and the
// recency list. Guarded by the recency lock.
//
// An entry is inserted into its segment's table first and linked into the
// recency list second; removal can interleave between those two steps, so
// the state field is what keeps the two structures consistent: the weight
// and count ledgers include an entry iff it is stateLive.
type entryState uint8

const (
	stateNew     entryState = iota // in the table, not yet linked
	stateLive                      // linked, counted in weight/count
	stateRemoved                   // unlinked (or removed before linking)
)

// entry is an intrusive recency-list element owning one live key.
// key, val and weight are immutable after construction; a Put over the same
// key builds a fresh entry rather than mutating in place, so values read
// outside the locks are stable. Timestamps and state are guarded by the
// recency lock.
type entry[K comparable, V any] struct {
	key    K
	val    V
	weight int64

	// Intrusive links: head is MRU, tail is LRU.
	prev *entry[K, V]
	next *entry[K, V]

	// Clock readings in nanoseconds. writeTime is set on insertion and
	// replacement only; accessTime additionally on every visible read.
	writeTime  int64
	accessTime int64

	state entryState
}
