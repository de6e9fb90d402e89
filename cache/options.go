package cache

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/IvanBrykalov/segcache/internal/util"
)

// Weigher computes an entry's cost unit for the weight budget. It is called
// once per insertion/replacement; negative results are treated as zero.
type Weigher[K comparable, V any] func(k K, v V) int64

// Options configures the cache. The configuration is fixed at construction.
// Zero values are safe; defaults are applied in New:
//   - nil Weigher  => every entry weighs 1 (MaximumWeight acts as an entry
//     count limit)
//   - Segments <= 0 => auto (≈ 2*GOMAXPROCS, rounded to a power of two)
//   - nil Clock    => wall clock
//   - nil Metrics  => NoopMetrics
//   - nil Logger   => zerolog.Nop()
type Options[K comparable, V any] struct {
	// MaximumWeight bounds the total weight of live entries. Exceeding it
	// evicts from the least recently used end. 0 disables the bound.
	MaximumWeight int64

	// Weigher assigns each entry its weight at insertion time.
	Weigher Weigher[K, V]

	// ExpireAfterAccess makes an entry invisible once the configured window
	// has passed since it was last read or written. 0 disables the window.
	ExpireAfterAccess time.Duration

	// ExpireAfterWrite makes an entry invisible once the configured window
	// has passed since it was written. 0 disables the window. When both
	// windows are set, the first one to elapse wins.
	ExpireAfterWrite time.Duration

	// RemovalListener is called once per removal with the key, the value,
	// and the reason. See RemovalListener for the delivery contract.
	RemovalListener RemovalListener[K, V]

	// ValueEquals is the equality used by InvalidateIfEqual.
	// Nil => reflect.DeepEqual.
	ValueEquals func(a, b V) bool

	// Segments is the number of independently locked partitions, rounded up
	// to a power of two. 0 => auto.
	Segments int

	// SweepInterval, when positive, starts a background goroutine that runs
	// Refresh on a ticker. Close stops it. 0 leaves sweeping to explicit
	// Refresh calls.
	SweepInterval time.Duration

	// Clock is the time source for expiry decisions. Tests inject
	// clock.NewMock() here. Nil => clock.New().
	Clock clock.Clock

	// Logger receives debug events for sweeps and bulk operations. The
	// per-key hot path never logs.
	Logger *zerolog.Logger

	// Metrics receives hit/miss/removal/size signals.
	Metrics Metrics
}

// validate checks the configuration. Every error wraps ErrInvalidConfig.
func (o *Options[K, V]) validate() error {
	if o.MaximumWeight < 0 {
		return fmt.Errorf("%w: MaximumWeight must be >= 0 (0 disables the bound), got %d", ErrInvalidConfig, o.MaximumWeight)
	}
	if o.ExpireAfterAccess < 0 {
		return fmt.Errorf("%w: ExpireAfterAccess must be >= 0, got %v", ErrInvalidConfig, o.ExpireAfterAccess)
	}
	if o.ExpireAfterWrite < 0 {
		return fmt.Errorf("%w: ExpireAfterWrite must be >= 0, got %v", ErrInvalidConfig, o.ExpireAfterWrite)
	}
	if o.SweepInterval < 0 {
		return fmt.Errorf("%w: SweepInterval must be >= 0, got %v", ErrInvalidConfig, o.SweepInterval)
	}
	if o.Segments < 0 {
		return fmt.Errorf("%w: Segments must be >= 0, got %d", ErrInvalidConfig, o.Segments)
	}
	return nil
}

// withDefaults fills nil/zero fields. Called on New's private copy.
func (o *Options[K, V]) withDefaults() {
	if o.Segments <= 0 {
		o.Segments = util.ReasonableSegmentCount()
	} else {
		o.Segments = int(util.NextPow2(uint64(o.Segments)))
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	if o.Metrics == nil {
		o.Metrics = NoopMetrics{}
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
}
