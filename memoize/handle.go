package memoize

import "context"

// Handle is a single-resolution future returned by the async wrap variants.
// It settles exactly once with the wrapped call's result.
type Handle[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func newHandle[T any]() *Handle[T] {
	return &Handle[T]{done: make(chan struct{})}
}

// complete settles the handle. It must be called exactly once.
func (h *Handle[T]) complete(value T, err error) {
	h.value = value
	h.err = err
	close(h.done)
}

// Wait blocks until the handle settles or ctx is done. Abandoning a wait
// does not stop the underlying call.
func (h *Handle[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-h.done:
		return h.value, h.err
	}
}

// Done returns a channel closed when the handle has settled, for use in
// select statements.
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}
