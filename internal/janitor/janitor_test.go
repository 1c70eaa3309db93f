package janitor

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aweris/keeper/internal/addr"
	"github.com/aweris/keeper/internal/shard"
	"github.com/aweris/keeper/internal/store"
)

var epoch = time.Unix(1_700_000_000, 0)

type fixture struct {
	root   string
	shards *shard.Table
	store  *store.LocalStore
	now    time.Time
	mu     sync.Mutex
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{root: filepath.Join(t.TempDir(), "cache"), shards: shard.New(), now: epoch}
	f.store = store.NewLocalStore(f.root, f.shards, store.WithClock(f.clock))
	return f
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func (f *fixture) janitor(opts ...Option) *Janitor {
	opts = append([]Option{WithClock(f.clock)}, opts...)
	return New(f.root, f.shards, time.Hour, opts...)
}

func (f *fixture) path(key string) string {
	loc := addr.Sum(key).Locate()
	return filepath.Join(f.root, loc.Dir, loc.File)
}

func TestSweepRemovesExpired(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Set("short", []byte("v"), time.Minute))
	require.NoError(t, f.store.Set("long", []byte("v"), time.Hour))
	require.NoError(t, f.store.Set("never", []byte("v"), 0))

	f.advance(2 * time.Minute)
	stats, err := f.janitor().Sweep()
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Scanned)
	assert.Equal(t, 1, stats.Removed)
	assert.Zero(t, stats.Busy)
	assert.NoFileExists(t, f.path("short"))
	assert.FileExists(t, f.path("long"))
	assert.FileExists(t, f.path("never"))
}

func TestSweepRemovesCorrupt(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Set("k", []byte("value"), 0))
	require.NoError(t, os.Truncate(f.path("k"), 4))

	stats, err := f.janitor().Sweep()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Removed)
	assert.NoFileExists(t, f.path("k"))
}

func TestSweepSkipsBusyShard(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Set("busy", []byte("v"), time.Second))

	other := "other"
	for i := 0; addr.Sum(other).Locate().Shard == addr.Sum("busy").Locate().Shard; i++ {
		other = other + "x"
	}
	require.NoError(t, f.store.Set(other, []byte("v"), time.Second))
	f.advance(time.Minute)

	release := f.shards.Lock(addr.Sum("busy").Locate().Shard)

	done := make(chan Stats)
	go func() {
		stats, err := f.janitor().Sweep()
		assert.NoError(t, err)
		done <- stats
	}()

	var stats Stats
	select {
	case stats = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sweep blocked on a held shard lock")
	}
	release()

	assert.Equal(t, 1, stats.Busy)
	assert.Equal(t, 1, stats.Removed)
	assert.FileExists(t, f.path("busy"))
	assert.NoFileExists(t, f.path(other))

	stats, err := f.janitor().Sweep()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Removed)
	assert.NoFileExists(t, f.path("busy"))
}

func TestSweepIgnoresForeignFiles(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(filepath.Join(f.root, "not-a-shard"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.root, "not-a-shard", "x"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(f.root, store.LockFileName), []byte("1"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(f.root, "abc", "nested"), 0o755))

	stats, err := f.janitor().Sweep()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Shards)
	assert.Zero(t, stats.Scanned)
	assert.FileExists(t, filepath.Join(f.root, "not-a-shard", "x"))
	assert.FileExists(t, filepath.Join(f.root, store.LockFileName))
	assert.DirExists(t, filepath.Join(f.root, "abc", "nested"))
}

func TestSweepMissingRoot(t *testing.T) {
	f := newFixture(t)
	stats, err := f.janitor().Sweep()
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}

func TestRunServesRequestsAndStops(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Set("k", []byte("v"), time.Second))
	f.advance(time.Minute)

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	cmds := make(chan Request)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		f.janitor(WithLogger(logger)).Run(cmds)
	}()

	reply := make(chan Stats, 1)
	cmds <- Request{Reply: func(s Stats, err error) {
		assert.NoError(t, err)
		reply <- s
	}}
	assert.Equal(t, 1, (<-reply).Removed)

	close(cmds)
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("janitor did not stop")
	}

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "sweep", entry.Data["action"])
}

func TestRunSweepsOnInterval(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Set("k", []byte("v"), time.Second))
	f.advance(time.Minute)

	cmds := make(chan Request)
	defer close(cmds)
	go New(f.root, f.shards, 10*time.Millisecond, WithClock(f.clock)).Run(cmds)

	assert.Eventually(t, func() bool {
		_, err := os.Stat(f.path("k"))
		return os.IsNotExist(err)
	}, 5*time.Second, 10*time.Millisecond)
}

func TestNewDefaultsInterval(t *testing.T) {
	j := New(t.TempDir(), shard.New(), 0)
	assert.Equal(t, DefaultInterval, j.interval)
}
