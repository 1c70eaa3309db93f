package keeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsyncRoundTrip(t *testing.T) {
	ctx := context.Background()
	k := newTestKeeper(t)

	_, err := k.SetAsync("alpha", []byte("hello"), time.Minute).Wait(ctx)
	require.NoError(t, err)

	f := k.GetAsync("alpha")
	<-f.Done()
	assert.True(t, f.Ready())
	got, err := f.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	_, err = k.RemoveAsync("alpha").Wait(ctx)
	require.NoError(t, err)
	_, err = k.GetAsync("alpha").Wait(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = k.CleanupAsync().Wait(ctx)
	require.NoError(t, err)
	_, err = k.ClearAsync().Wait(ctx)
	require.NoError(t, err)
}

func TestFutureWaitContext(t *testing.T) {
	f := newFuture[int]()
	assert.False(t, f.Ready())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	boom := errors.New("boom")
	f.resolve(7, boom)
	v, err := f.Wait(context.Background())
	assert.Equal(t, 7, v)
	assert.ErrorIs(t, err, boom)
}
