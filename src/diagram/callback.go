package diagram

import (
	"context"
	"sync"
	"sync/atomic"
)

// Callback receives the outcome of one orchestrator operation.
type Callback[T any] interface {
	OnSuccess(value T)
	OnError(err error)
}

// CallbackFuncs adapts a pair of functions to Callback. Nil fields are
// ignored.
type CallbackFuncs[T any] struct {
	Success func(T)
	Error   func(error)
}

func (c CallbackFuncs[T]) OnSuccess(value T) {
	if c.Success != nil {
		c.Success(value)
	}
}

func (c CallbackFuncs[T]) OnError(err error) {
	if c.Error != nil {
		c.Error(err)
	}
}

// onceCallback delivers at most one outcome to the wrapped callback.
type onceCallback[T any] struct {
	once sync.Once
	cb   Callback[T]
}

func newOnceCallback[T any](cb Callback[T]) *onceCallback[T] {
	return &onceCallback[T]{cb: cb}
}

func (o *onceCallback[T]) success(value T) {
	o.once.Do(func() {
		if o.cb != nil {
			o.cb.OnSuccess(value)
		}
	})
}

func (o *onceCallback[T]) failure(err error) {
	o.once.Do(func() {
		if o.cb != nil {
			o.cb.OnError(err)
		}
	})
}

// Call tracks one running pipeline. Done is closed after the pipeline has
// finished and any callback has returned.
type Call struct {
	done      chan struct{}
	delivered atomic.Bool
}

func newCall() *Call {
	return &Call{done: make(chan struct{})}
}

func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the pipeline finishes or ctx is done.
func (c *Call) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Delivered reports whether a callback fired. Only meaningful after Done.
func (c *Call) Delivered() bool {
	return c.delivered.Load()
}

func (c *Call) finish() {
	close(c.done)
}
