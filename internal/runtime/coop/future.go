package coop

import (
	"context"
	"sync"
)

// Future carries the eventual result of a submitted task.
type Future struct {
	done  chan struct{}
	once  sync.Once
	value any
	err   error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// complete resolves the future exactly once.
func (f *Future) complete(value any, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}

// Wait blocks until the task resolves or the context is cancelled.
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result blocks until the task resolves.
func (f *Future) Result() (any, error) {
	<-f.done
	return f.value, f.err
}

// Done returns a channel that closes when the task resolves.
func (f *Future) Done() <-chan struct{} {
	return f.done
}
