// Package flight provides the per-key load promise used to coalesce
// concurrent loads for the same key.
package flight

import "context"

// Promise is a write-once future for a single in-flight load. The cache pins
// one Promise into a segment's table while the load runs; concurrent callers
// for the same key wait on it instead of invoking the loader again.
//
// Concurrency notes:
//   - Exactly one goroutine (the leader) calls Complete or Fail, once.
//   - Publishing val/err happens-before close(done), so waiters that return
//     from Wait observe the final values.
//   - Cancelling ctx in a waiter unblocks only that waiter; the leader's
//     load keeps running.
type Promise[V any] struct {
	done chan struct{} // closed when val/err are published
	val  V
	err  error
}

// New returns an unresolved promise.
func New[V any]() *Promise[V] {
	return &Promise[V]{done: make(chan struct{})}
}

// Complete publishes a successful result and wakes all waiters.
func (p *Promise[V]) Complete(v V) {
	p.val = v
	close(p.done)
}

// Fail publishes a load failure and wakes all waiters.
func (p *Promise[V]) Fail(err error) {
	p.err = err
	close(p.done)
}

// Wait blocks until the promise resolves or ctx is done. On cancellation it
// returns ctx.Err(); the load itself is unaffected.
func (p *Promise[V]) Wait(ctx context.Context) (V, error) {
	select {
	case <-p.done:
		return p.val, p.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}
