package channel

import (
	"context"
	"sync"
)

// Future holds the eventual result of one asynchronous channel call.
// Callbacks registered after completion run synchronously on the
// registering goroutine; callbacks registered before completion run on
// the completing goroutine.
type Future[T any] struct {
	mu        sync.Mutex
	completed bool
	value     T
	err       error
	callbacks []func(T, error)
	done      chan struct{}
}

// NewFuture returns an incomplete future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a future already completed with v.
func Resolved[T any](v T) *Future[T] {
	f := NewFuture[T]()
	f.Complete(v, nil)
	return f
}

// Failed returns a future already completed with err.
func Failed[T any](err error) *Future[T] {
	f := NewFuture[T]()
	var zero T
	f.Complete(zero, err)
	return f
}

// Go runs fn on a new goroutine and completes the future with its result.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := NewFuture[T]()
	go func() {
		v, err := fn(ctx)
		f.Complete(v, err)
	}()
	return f
}

// Complete settles the future. Only the first call has any effect; it
// reports whether this call settled the future.
func (f *Future[T]) Complete(v T, err error) bool {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return false
	}
	f.completed = true
	f.value = v
	f.err = err
	cbs := f.callbacks
	f.callbacks = nil
	f.mu.Unlock()

	for _, cb := range cbs {
		cb(v, err)
	}
	close(f.done)
	return true
}

// Then registers success and failure callbacks. Either may be nil.
func (f *Future[T]) Then(onSuccess func(T), onFailure func(error)) {
	cb := func(v T, err error) {
		if err != nil {
			if onFailure != nil {
				onFailure(err)
			}
			return
		}
		if onSuccess != nil {
			onSuccess(v)
		}
	}

	f.mu.Lock()
	if !f.completed {
		f.callbacks = append(f.callbacks, cb)
		f.mu.Unlock()
		return
	}
	v, err := f.value, f.err
	f.mu.Unlock()
	cb(v, err)
}

// Done is closed once the future has completed and its callbacks have run.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the future completes or ctx ends.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
