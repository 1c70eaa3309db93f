package keeper

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aweris/keeper/internal/janitor"
)

const (
	DefaultCleanupInterval = janitor.DefaultInterval
	DefaultStoreWorkers    = 1
	DefaultQueueSize       = 1024
)

// OpenOptions configures a Keeper.
type OpenOptions struct {
	CleanupInterval  time.Duration
	StoreWorkers     int
	QueueSize        int
	Compression      bool
	CompressionLevel int
	Logger           logrus.FieldLogger
	Clock            func() time.Time
}

// OpenOption is a functional option for configuring Open.
type OpenOption func(*OpenOptions)

func defaultOptions() *OpenOptions {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	return &OpenOptions{
		CleanupInterval: DefaultCleanupInterval,
		StoreWorkers:    DefaultStoreWorkers,
		QueueSize:       DefaultQueueSize,
		Logger:          logger,
		Clock:           time.Now,
	}
}

// WithCleanupInterval sets the time between background sweeps.
func WithCleanupInterval(d time.Duration) OpenOption {
	return func(o *OpenOptions) {
		if d > 0 {
			o.CleanupInterval = d
		}
	}
}

// WithStoreWorkers sets the number of goroutines serving store operations.
// Values below one are raised to one.
func WithStoreWorkers(n int) OpenOption {
	return func(o *OpenOptions) { o.StoreWorkers = max(n, 1) }
}

// WithQueueSize sets how many store operations may wait for a worker before
// callers block.
func WithQueueSize(n int) OpenOption {
	return func(o *OpenOptions) {
		if n >= 0 {
			o.QueueSize = n
		}
	}
}

// WithCompression stores payloads of 128 bytes or more zstd compressed when
// that makes them smaller. Level 1 is fastest, 3 compresses best. Entries
// written this way are only readable by a keeper; entries written without it
// keep the plain format.
func WithCompression(level int) OpenOption {
	return func(o *OpenOptions) {
		o.Compression = true
		o.CompressionLevel = level
	}
}

// WithLogger sets the logger. The default logs warnings to stderr.
func WithLogger(l logrus.FieldLogger) OpenOption {
	return func(o *OpenOptions) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithClock replaces time.Now for expiry decisions.
func WithClock(now func() time.Time) OpenOption {
	return func(o *OpenOptions) {
		if now != nil {
			o.Clock = now
		}
	}
}
