package keeper

import (
	"context"
	"time"
)

// Future is the pending result of an operation started by one of the *Async
// methods. It resolves exactly once.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) resolve(v T, err error) {
	f.value, f.err = v, err
	close(f.done)
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Wait blocks until the result is available or ctx ends.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Ready reports whether the result is available, in which case Wait returns
// it without blocking.
func (f *Future[T]) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Void is the value type of futures for operations that return nothing.
type Void struct{}

func (k *Keeper) GetAsync(key string) *Future[[]byte] {
	f := newFuture[[]byte]()
	k.GetFunc(key, f.resolve)
	return f
}

func (k *Keeper) SetAsync(key string, value []byte, ttl time.Duration) *Future[Void] {
	f := newFuture[Void]()
	k.SetFunc(key, value, ttl, voidResolver(f))
	return f
}

func (k *Keeper) RemoveAsync(key string) *Future[Void] {
	f := newFuture[Void]()
	k.RemoveFunc(key, voidResolver(f))
	return f
}

func (k *Keeper) ClearAsync() *Future[Void] {
	f := newFuture[Void]()
	k.ClearFunc(voidResolver(f))
	return f
}

func (k *Keeper) CleanupAsync() *Future[Void] {
	f := newFuture[Void]()
	k.CleanupFunc(voidResolver(f))
	return f
}

func voidResolver(f *Future[Void]) func(error) {
	return func(err error) { f.resolve(Void{}, err) }
}
