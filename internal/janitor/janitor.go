// Package janitor reclaims expired entries in the background.
//
// A sweep walks every shard directory under the cache root. Shards whose
// write lock is held by a foreground operation are skipped for the cycle
// instead of waited on, so a sweep never blocks Get/Set/Remove for longer
// than one shard's scan.
package janitor

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aweris/keeper/internal/addr"
	"github.com/aweris/keeper/internal/shard"
	"github.com/aweris/keeper/internal/store"
)

// DefaultInterval is the time between background sweeps.
const DefaultInterval = time.Hour

// Request asks the janitor for an immediate sweep.
type Request struct {
	Reply func(Stats, error)
}

// Stats describes one sweep.
type Stats struct {
	Shards  int // shard directories scanned
	Busy    int // shard directories skipped because their lock was held
	Scanned int // entry files inspected
	Removed int // entry files deleted
}

type Janitor struct {
	root     string
	shards   *shard.Table
	interval time.Duration
	now      func() time.Time
	log      logrus.FieldLogger
}

// Option configures a Janitor.
type Option func(*Janitor)

// WithClock overrides time.Now for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(j *Janitor) {
		if now != nil {
			j.now = now
		}
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(j *Janitor) {
		if log != nil {
			j.log = log
		}
	}
}

// New returns a janitor for root. A non-positive interval uses
// DefaultInterval.
func New(root string, shards *shard.Table, interval time.Duration, opts ...Option) *Janitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	j := &Janitor{
		root:     root,
		shards:   shards,
		interval: interval,
		now:      time.Now,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Run sweeps every interval and on every request until cmds is closed.
// The interval restarts after each sweep.
func (j *Janitor) Run(cmds <-chan Request) {
	timer := time.NewTimer(j.interval)
	defer timer.Stop()

	for {
		select {
		case req, ok := <-cmds:
			if !ok {
				return
			}
			stats, err := j.sweep()
			if req.Reply != nil {
				req.Reply(stats, err)
			}
		case <-timer.C:
			j.sweep()
		}
		timer.Reset(j.interval)
	}
}

func (j *Janitor) sweep() (Stats, error) {
	start := time.Now()
	stats, err := j.Sweep()

	log := j.log.WithFields(logrus.Fields{
		"action":   "sweep",
		"shards":   stats.Shards,
		"busy":     stats.Busy,
		"scanned":  stats.Scanned,
		"removed":  stats.Removed,
		"duration": time.Since(start),
	})
	if err != nil {
		log.WithError(err).Warn("sweep failed")
	} else {
		log.Debug("sweep done")
	}
	return stats, err
}

// Sweep deletes expired and corrupt entries from every shard it can lock
// without waiting.
func (j *Janitor) Sweep() (Stats, error) {
	var stats Stats

	entries, err := os.ReadDir(j.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return stats, nil
		}
		return stats, fmt.Errorf("read cache root: %w", err)
	}

	now := j.now()
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id, ok := addr.ParseShard(e.Name())
		if !ok {
			continue
		}

		release, ok := j.shards.TryLock(id)
		if !ok {
			stats.Busy++
			continue
		}
		stats.Shards++
		j.sweepShard(filepath.Join(j.root, e.Name()), now, &stats)
		release()
	}
	return stats, nil
}

func (j *Janitor) sweepShard(dir string, now time.Time, stats *Stats) {
	files, err := os.ReadDir(dir)
	if err != nil {
		j.log.WithError(err).WithField("dir", dir).Debug("skip unreadable shard")
		return
	}

	for _, f := range files {
		if !f.Type().IsRegular() {
			continue
		}
		stats.Scanned++

		path := filepath.Join(dir, f.Name())
		if !expired(path, now) {
			continue
		}
		if err := os.Remove(path); err == nil {
			stats.Removed++
		}
	}
}

// expired reads only the entry header. An entry whose header cannot be read
// in full counts as expired.
func expired(path string, now time.Time) bool {
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()

	var buf [store.HeaderSize]byte
	if _, err := io.ReadFull(f, buf[:]); err != nil {
		return true
	}
	h, _ := store.DecodeHeader(buf[:])
	return h.Expired(now)
}
