package user

import (
	"context"
	"fmt"
)

// Future is the result of an operation that is still running. It completes exactly once.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go runs fn on a new goroutine and returns its Future.
func Go[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("future panicked: %v", r)
				f.err = &Error{Kind: KindInternal, Op: "future", Err: fmt.Errorf("panic: %v", r)}
			}
		}()
		f.val, f.err = fn()
	}()
	return f
}

// Ready returns an already completed Future.
func Ready[T any](val T, err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), val: val, err: err}
	close(f.done)
	return f
}

// Done is closed when the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await waits for the result. If ctx ends first Await returns ctx.Err() while the operation
// keeps running; a later Await still observes its result.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then derives a Future that applies fn to f's value. Errors pass through unchanged.
func Then[T, U any](f *Future[T], fn func(T) (U, error)) *Future[U] {
	return Go(func() (U, error) {
		<-f.done
		if f.err != nil {
			var zero U
			return zero, f.err
		}
		return fn(f.val)
	})
}
