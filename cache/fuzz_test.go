package cache

import (
	"strings"
	"testing"
)

// Fuzz basic Put/Get/Invalidate semantics under arbitrary string inputs.
// Guards against panics and checks the core invariants hold.
// NOTE: key/value lengths are capped to avoid pathological memory usage
// during fuzzing (this does not weaken the invariants we check).
func FuzzCache_PutGetInvalidate(f *testing.F) {
	// Seed corpus: empty, ASCII, Unicode, long strings.
	f.Add("", "")
	f.Add("a", "1")
	f.Add("b", "2")
	f.Add("αβγ", "δ")
	f.Add("emoji🙂", "🙂🙂")
	f.Add("long", strings.Repeat("x", 1024))

	f.Fuzz(func(t *testing.T, k, v string) {
		const limit = 1 << 12 // 4096
		if len(k) > limit {
			k = k[:limit]
		}
		if len(v) > limit {
			v = v[:limit]
		}

		c, err := New[string, string](Options[string, string]{MaximumWeight: 16})
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = c.Close() })

		// Put -> Get must return the same value.
		c.Put(k, v)
		got, ok := c.Get(k)
		if !ok || got != v {
			t.Fatalf("after Put/Get: want %q, got %q ok=%v", v, got, ok)
		}

		// Conditional removal with the wrong value must keep the entry.
		if removed := c.InvalidateIfEqual(k, v+"x"); removed {
			t.Fatal("InvalidateIfEqual removed on mismatched value")
		}
		if got2, ok := c.Get(k); !ok || got2 != v {
			t.Fatalf("after mismatched InvalidateIfEqual: want %q, got %q ok=%v", v, got2, ok)
		}

		// Conditional removal with the right value must remove exactly once.
		if removed := c.InvalidateIfEqual(k, v); !removed {
			t.Fatal("InvalidateIfEqual missed a matching entry")
		}
		if _, ok := c.Get(k); ok {
			t.Fatal("entry survived InvalidateIfEqual")
		}

		// Unconditional removal of an absent key is a no-op.
		c.Invalidate(k)

		// Ledger must be empty again.
		if c.Count() != 0 || c.Weight() != 0 {
			t.Fatalf("ledger not empty: count=%d weight=%d", c.Count(), c.Weight())
		}
	})
}
