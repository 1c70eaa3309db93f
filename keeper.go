package keeper

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"

	"github.com/aweris/keeper/internal/compression"
	"github.com/aweris/keeper/internal/janitor"
	"github.com/aweris/keeper/internal/pidlock"
	"github.com/aweris/keeper/internal/shard"
	"github.com/aweris/keeper/internal/store"
)

// State is a Keeper lifecycle phase.
type State int32

const (
	StateStarting State = iota
	StateRunning
	StateShuttingDown
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting down"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

const janitorQueueSize = 16

// Keeper owns a cache root: its process lock, the store workers and the
// janitor. All methods are safe for concurrent use.
type Keeper struct {
	root       string
	log        logrus.FieldLogger
	lock       *pidlock.Lock
	compressor *compression.Compressor

	storeQ   chan store.Request
	janitorQ chan janitor.Request
	workers  conc.WaitGroup

	// mu orders the closed flag against senders registering in inflight.
	mu       sync.RWMutex
	closed   bool
	inflight sync.WaitGroup
	done     chan struct{}

	state     atomic.Int32
	closeOnce sync.Once
	closeErr  error
}

// Open takes ownership of the cache root at root, creating it if needed, and
// starts the store workers and the janitor. It fails with ErrLockAcquisition
// if another keeper, in this or another process, owns the root.
func Open(root string, opts ...OpenOption) (*Keeper, error) {
	if root == "" {
		return nil, errors.New("keeper: cache root required")
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	abs, err := filepath.Abs(expandPath(root))
	if err != nil {
		return nil, fmt.Errorf("resolve cache root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create cache root: %w", err)
	}

	lock, err := pidlock.Acquire(filepath.Join(abs, store.LockFileName))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLockAcquisition, err)
	}

	compressor, err := compression.NewCompressor(options.CompressionLevel, options.Compression)
	if err != nil {
		_ = lock.Release()
		return nil, fmt.Errorf("create compressor: %w", err)
	}

	log := options.Logger.WithField("root", abs)

	k := &Keeper{
		root:       abs,
		log:        log,
		lock:       lock,
		compressor: compressor,
		storeQ:     make(chan store.Request, options.QueueSize),
		janitorQ:   make(chan janitor.Request, janitorQueueSize),
		done:       make(chan struct{}),
	}
	k.state.Store(int32(StateStarting))

	shards := shard.New()
	st := store.NewLocalStore(abs, shards,
		store.WithCompressor(compressor),
		store.WithClock(options.Clock),
		store.WithLogger(log),
	)
	jan := janitor.New(abs, shards, options.CleanupInterval,
		janitor.WithClock(options.Clock),
		janitor.WithLogger(log),
	)

	for i := 0; i < options.StoreWorkers; i++ {
		i := i
		k.workers.Go(func() {
			store.Serve(st, k.storeQ)
			log.WithFields(logrus.Fields{"action": "worker_exit", "worker": i}).Debug("store worker stopped")
		})
	}
	k.workers.Go(func() {
		jan.Run(k.janitorQ)
		log.WithField("action", "worker_exit").Debug("janitor stopped")
	})

	k.state.Store(int32(StateRunning))
	log.WithFields(logrus.Fields{
		"action":           "open",
		"workers":          options.StoreWorkers,
		"cleanup_interval": options.CleanupInterval,
		"compression":      options.Compression,
	}).Info("keeper opened")

	return k, nil
}

// Root returns the absolute cache root.
func (k *Keeper) Root() string { return k.root }

func (k *Keeper) State() State { return State(k.state.Load()) }

// Close stops accepting operations, lets the workers finish everything
// already queued, waits for them and the janitor to exit, then releases the
// process lock. Operations dispatched once Close has started fail with
// ErrWorkerClosed. Only the first call does any work; later calls return its
// result.
//
// Called from an operation callback, Close starts the shutdown and returns
// nil without waiting, since the worker running the callback is one of the
// goroutines the shutdown joins. State reports when it has finished.
func (k *Keeper) Close() error {
	if inCallback() {
		go k.shutdown()
		return nil
	}
	k.shutdown()
	return k.closeErr
}

func (k *Keeper) shutdown() {
	k.closeOnce.Do(func() {
		k.state.Store(int32(StateShuttingDown))

		k.mu.Lock()
		k.closed = true
		k.mu.Unlock()

		close(k.done)
		k.inflight.Wait()

		close(k.storeQ)
		close(k.janitorQ)
		k.workers.Wait()

		k.compressor.Close()
		k.closeErr = k.lock.Release()

		k.state.Store(int32(StateStopped))
		k.log.WithField("action", "close").Info("keeper closed")
	})
}

// runCallback runs every user callback; inCallback looks for it on the stack.
func runCallback(fn func()) { fn() }

var callbackFrame = runtime.FuncForPC(reflect.ValueOf(runCallback).Pointer()).Name()

func inCallback() bool {
	pcs := make([]uintptr, 256)
	frames := runtime.CallersFrames(pcs[:runtime.Callers(2, pcs)])
	for {
		f, more := frames.Next()
		if f.Function == callbackFrame {
			return true
		}
		if !more {
			return false
		}
	}
}

// enter registers a sender. It reports false once Close has started.
func (k *Keeper) enter() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.closed {
		return false
	}
	k.inflight.Add(1)
	return true
}

func (k *Keeper) sendStore(req store.Request) {
	if !k.enter() {
		req.Reply(nil, ErrWorkerClosed)
		return
	}
	defer k.inflight.Done()

	select {
	case k.storeQ <- req:
	case <-k.done:
		req.Reply(nil, ErrWorkerClosed)
	}
}

func (k *Keeper) sendJanitor(req janitor.Request) {
	if !k.enter() {
		req.Reply(janitor.Stats{}, ErrWorkerClosed)
		return
	}
	defer k.inflight.Done()

	select {
	case k.janitorQ <- req:
	case <-k.done:
		req.Reply(janitor.Stats{}, ErrWorkerClosed)
	}
}

// GetFunc looks up key and calls fn with the value or an error. fn is called
// exactly once, on a worker goroutine, or synchronously with ErrWorkerClosed
// when the keeper is closing. The same holds for every *Func method.
//
// fn may dispatch further operations but must not wait for their results:
// a worker blocked in fn serves nothing else.
func (k *Keeper) GetFunc(key string, fn func([]byte, error)) {
	k.sendStore(store.Request{
		Op:  store.OpGet,
		Key: key,
		Reply: func(v []byte, err error) {
			if fn != nil {
				runCallback(func() { fn(v, err) })
			}
		},
	})
}

// SetFunc stores a copy of value under key. A ttl <= 0 never expires.
func (k *Keeper) SetFunc(key string, value []byte, ttl time.Duration, fn func(error)) {
	k.sendStore(store.Request{
		Op:    store.OpSet,
		Key:   key,
		Value: bytes.Clone(value),
		TTL:   ttl,
		Reply: errReply(fn),
	})
}

// RemoveFunc deletes key. Removing a missing key succeeds.
func (k *Keeper) RemoveFunc(key string, fn func(error)) {
	k.sendStore(store.Request{Op: store.OpRemove, Key: key, Reply: errReply(fn)})
}

// ClearFunc deletes every entry.
func (k *Keeper) ClearFunc(fn func(error)) {
	k.sendStore(store.Request{Op: store.OpClear, Reply: errReply(fn)})
}

// CleanupFunc runs a janitor sweep now instead of waiting for the interval.
func (k *Keeper) CleanupFunc(fn func(error)) {
	k.sendJanitor(janitor.Request{
		Reply: func(_ janitor.Stats, err error) {
			if fn != nil {
				runCallback(func() { fn(err) })
			}
		},
	})
}

func errReply(fn func(error)) func([]byte, error) {
	return func(_ []byte, err error) {
		if fn != nil {
			runCallback(func() { fn(err) })
		}
	}
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
