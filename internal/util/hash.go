// Package util contains internal helpers (hashing, segment sizing, padding).
package util

import (
	"encoding/binary"
	"fmt"

	"github.com/zeebo/xxh3"
)

// Hash64 hashes common key types with XXH3 for segment selection.
// Supported: string, fixed-size byte arrays, all int/uint widths, uintptr,
// and fmt.Stringer as a last resort. Panicking on unsupported types is
// deliberate: silently poor hashing would funnel every key into one segment.
func Hash64[K comparable](k K) uint64 {
	switch v := any(k).(type) {
	case string:
		return xxh3.HashString(v)
	case [16]byte:
		return xxh3.Hash(v[:])
	case [32]byte:
		return xxh3.Hash(v[:])
	case [64]byte:
		return xxh3.Hash(v[:])

	// Integer-like keys: hash the 8 little-endian bytes of the value.
	case uint8:
		return hashUint64(uint64(v))
	case uint16:
		return hashUint64(uint64(v))
	case uint32:
		return hashUint64(uint64(v))
	case uint64:
		return hashUint64(v)
	case uint:
		return hashUint64(uint64(v))
	case uintptr:
		return hashUint64(uint64(v))
	case int8:
		return hashUint64(uint64(uint8(v)))
	case int16:
		return hashUint64(uint64(uint16(v)))
	case int32:
		return hashUint64(uint64(uint32(v)))
	case int64:
		return hashUint64(uint64(v))
	case int:
		return hashUint64(uint64(v))

	// Fallback for pseudo-keys via String() (avoid if you can).
	case fmt.Stringer:
		return xxh3.HashString(v.String())
	default:
		panic(fmt.Sprintf("util.Hash64: unsupported key type %T; convert the key to string or wrap it in a Stringer", k))
	}
}

func hashUint64(u uint64) uint64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], u)
	return xxh3.Hash(b[:])
}
