// Package task runs a single unit of work in the background and hands back a
// Future that the caller awaits synchronously.
package task

import (
	"context"

	"github.com/sourcegraph/conc"
)

// Future holds the eventual result of a Go call.
type Future[T any] struct {
	wg  conc.WaitGroup
	val T
	err error
}

// Go starts fn on its own goroutine. A panic inside fn surfaces as the error from Await.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := &Future[T]{}
	f.wg.Go(func() {
		f.val, f.err = fn(ctx)
	})
	return f
}

// Await blocks until fn returns.
func (f *Future[T]) Await() (T, error) {
	if r := f.wg.WaitAndRecover(); r != nil {
		var zero T
		return zero, r.AsError()
	}
	return f.val, f.err
}
