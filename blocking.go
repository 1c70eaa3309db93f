package keeper

import (
	"context"
	"time"
)

// The blocking calls wait for the operation's result. Cancelling ctx stops
// the wait, not the operation: it still runs to completion in the
// background.

func (k *Keeper) Get(ctx context.Context, key string) ([]byte, error) {
	ch := make(chan valueResult, 1)
	k.GetFunc(key, func(v []byte, err error) { ch <- valueResult{v, err} })

	select {
	case r := <-ch:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (k *Keeper) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ch := make(chan error, 1)
	k.SetFunc(key, value, ttl, func(err error) { ch <- err })
	return waitErr(ctx, ch)
}

func (k *Keeper) Remove(ctx context.Context, key string) error {
	ch := make(chan error, 1)
	k.RemoveFunc(key, func(err error) { ch <- err })
	return waitErr(ctx, ch)
}

func (k *Keeper) Clear(ctx context.Context) error {
	ch := make(chan error, 1)
	k.ClearFunc(func(err error) { ch <- err })
	return waitErr(ctx, ch)
}

// Cleanup runs a janitor sweep and waits for it.
func (k *Keeper) Cleanup(ctx context.Context) error {
	ch := make(chan error, 1)
	k.CleanupFunc(func(err error) { ch <- err })
	return waitErr(ctx, ch)
}

type valueResult struct {
	value []byte
	err   error
}

func waitErr(ctx context.Context, ch <-chan error) error {
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
