package cache

import "errors"

// ErrInvalidConfig is wrapped by every configuration error New returns.
var ErrInvalidConfig = errors.New("cache: invalid configuration")

// ErrNilLoader is returned by ComputeIfAbsent when load is nil.
var ErrNilLoader = errors.New("cache: nil loader")

// ErrClosed is returned by ComputeIfAbsent after Close.
var ErrClosed = errors.New("cache: closed")

// ErrNilValue is the root cause recorded when a loader returns a nil value.
// A nil result is a load failure: the cache stores only present values.
var ErrNilValue = errors.New("loader returned a nil value")

// LoadError wraps whatever a loader failed with — an error return, a nil
// result (ErrNilValue), or a recovered panic. Every caller coalesced onto
// the same load receives its own LoadError sharing the same root cause.
type LoadError struct {
	cause error
}

func (e *LoadError) Error() string { return "cache: load failed: " + e.cause.Error() }

// Unwrap exposes the root cause to errors.Is/errors.As.
func (e *LoadError) Unwrap() error { return e.cause }
