package util

import "runtime"

// IsPowerOfTwo reports whether x is a power of two (> 0).
func IsPowerOfTwo(x uint64) bool {
	return x != 0 && (x&(x-1)) == 0
}

// NextPow2 returns the smallest power of two >= x.
// x == 0 yields 1; results that would overflow are clamped to 1<<63.
func NextPow2(x uint64) uint64 {
	if x <= 1 {
		return 1
	}
	x--
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	x |= x >> 32
	x++
	if x == 0 {
		return 1 << 63
	}
	return x
}

// ReasonableSegmentCount picks a practical default segment count from CPU
// parallelism: nextPow2(2*GOMAXPROCS), clamped to [1..256]. Enough to keep
// lock contention down without bloating per-segment memory overhead.
func ReasonableSegmentCount() int {
	p := runtime.GOMAXPROCS(0)
	if p < 1 {
		p = 1
	}
	n := int(NextPow2(uint64(p * 2)))
	if n > 256 {
		n = 256
	}
	return n
}

// SegmentIndex maps a 64-bit hash to a segment index. Uses the fast mask
// path when the count is a power of two (the cache guarantees it is).
func SegmentIndex(hash uint64, segments int) int {
	if segments <= 1 {
		return 0
	}
	if IsPowerOfTwo(uint64(segments)) {
		return int(hash & uint64(segments-1))
	}
	return int(hash % uint64(segments))
}
