package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeDrainsQueue(t *testing.T) {
	s, _ := newTestStore(t)

	queue := make(chan Request, 8)
	var (
		mu      sync.Mutex
		results = map[string]error{}
		got     []byte
	)
	reply := func(name string) func([]byte, error) {
		return func(v []byte, err error) {
			mu.Lock()
			defer mu.Unlock()
			_, dup := results[name]
			assert.False(t, dup, "reply for %s called twice", name)
			results[name] = err
			if name == "get" {
				got = v
			}
		}
	}

	queue <- Request{Op: OpSet, Key: "k", Value: []byte("v"), TTL: time.Hour, Reply: reply("set")}
	queue <- Request{Op: OpGet, Key: "k", Reply: reply("get")}
	queue <- Request{Op: OpRemove, Key: "k", Reply: reply("remove")}
	queue <- Request{Op: OpGet, Key: "k", Reply: reply("get-after-remove")}
	queue <- Request{Op: OpClear, Reply: reply("clear")}
	queue <- Request{Op: Op(99), Reply: reply("bogus")}
	close(queue)

	Serve(s, queue)

	require.Len(t, results, 6)
	assert.NoError(t, results["set"])
	assert.NoError(t, results["get"])
	assert.Equal(t, []byte("v"), got)
	assert.NoError(t, results["remove"])
	assert.ErrorIs(t, results["get-after-remove"], ErrNotFound)
	assert.NoError(t, results["clear"])
	assert.Error(t, results["bogus"])
}

func TestServeParallelWorkers(t *testing.T) {
	s, _ := newTestStore(t)

	queue := make(chan Request)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Serve(s, queue)
		}()
	}

	var replies sync.WaitGroup
	for i := 0; i < 100; i++ {
		replies.Add(1)
		queue <- Request{
			Op:    OpSet,
			Key:   string(rune('a' + i%26)),
			Value: []byte{byte(i)},
			Reply: func(_ []byte, err error) {
				defer replies.Done()
				assert.NoError(t, err)
			},
		}
	}
	replies.Wait()
	close(queue)
	wg.Wait()
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "get", OpGet.String())
	assert.Equal(t, "clear", OpClear.String())
	assert.Equal(t, "op(7)", Op(7).String())
}
