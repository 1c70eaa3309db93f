package store

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aweris/keeper/internal/addr"
	"github.com/aweris/keeper/internal/compression"
	"github.com/aweris/keeper/internal/shard"
)

// LocalStore implements Store on the local filesystem.
type LocalStore struct {
	root       string
	shards     *shard.Table
	compressor *compression.Compressor
	now        func() time.Time
	log        logrus.FieldLogger
}

// Option configures a LocalStore.
type Option func(*LocalStore)

// WithCompressor compresses payloads written by Set and enables reading
// compressed entries.
func WithCompressor(c *compression.Compressor) Option {
	return func(s *LocalStore) { s.compressor = c }
}

// WithClock overrides time.Now for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(s *LocalStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger used for eviction messages.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *LocalStore) {
		if log != nil {
			s.log = log
		}
	}
}

// NewLocalStore returns a store rooted at root. The root is created lazily
// by the first Set or Clear.
func NewLocalStore(root string, shards *shard.Table, opts ...Option) *LocalStore {
	s := &LocalStore{
		root:   root,
		shards: shards,
		now:    time.Now,
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the cache root directory.
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) Get(key string) ([]byte, error) {
	loc := addr.Sum(key).Locate()
	path := s.entryPath(loc)

	data, err := s.read(loc.Shard, path)
	if err != nil {
		return nil, err
	}

	h, ok := DecodeHeader(data)
	if !ok {
		s.evict(loc, path, data, "short entry")
		return nil, ErrInvalidData
	}
	if h.Expired(s.now()) {
		s.evict(loc, path, data, "expired")
		return nil, ErrNotFound
	}
	if !h.Valid() {
		s.evict(loc, path, data, "unknown flags")
		return nil, ErrInvalidData
	}

	payload := data[HeaderSize:]
	if h.Flags&FlagCompressed != 0 {
		payload, err = s.compressor.Decompress(payload)
		if err != nil {
			s.evict(loc, path, data, "undecodable payload")
			return nil, ErrInvalidData
		}
	}
	return payload, nil
}

// read loads the whole entry file under the shard read lock.
func (s *LocalStore) read(id int, path string) ([]byte, error) {
	release := s.shards.RLock(id)
	defer release()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open entry: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat entry: %w", err)
	}
	if info.IsDir() {
		return nil, ErrNotFound
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read entry: %w", err)
	}
	return data, nil
}

// evict deletes an entry Get found stale. It runs after the read lock is
// released, so under the write lock it re-reads the file and deletes it only
// if it still holds the bytes Get judged. Errors are dropped.
func (s *LocalStore) evict(loc addr.Location, path string, seen []byte, reason string) {
	release := s.shards.Lock(loc.Shard)
	defer release()

	cur, err := os.ReadFile(path)
	if err != nil || !bytes.Equal(cur, seen) {
		return
	}

	log := s.log.WithFields(logrus.Fields{
		"action": "evict",
		"shard":  loc.Dir,
		"reason": reason,
	})
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.WithError(err).Debug("evict failed")
		return
	}
	log.Debug("entry evicted")
}

func (s *LocalStore) Set(key string, value []byte, ttl time.Duration) error {
	loc := addr.Sum(key).Locate()
	dir := filepath.Join(s.root, loc.Dir)
	path := filepath.Join(dir, loc.File)

	h := Header{ExpiresAt: ExpiresAt(s.now(), ttl)}
	payload := value
	if s.compressor.Enabled() {
		var compressed bool
		if payload, compressed = s.compressor.Compress(value); compressed {
			h.Flags |= FlagCompressed
		}
	}

	buf := make([]byte, 0, HeaderSize+len(payload))
	buf = AppendHeader(buf, h)
	buf = append(buf, payload...)

	release := s.shards.Lock(loc.Shard)
	defer release()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create shard dir: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("write entry: %w", err)
	}
	return nil
}

func (s *LocalStore) Remove(key string) error {
	loc := addr.Sum(key).Locate()
	path := s.entryPath(loc)

	release := s.shards.Lock(loc.Shard)
	defer release()

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove entry: %w", err)
	}
	return nil
}

// Clear removes everything under the root except the process lock file and
// leaves the root in place.
func (s *LocalStore) Clear() error {
	release := s.shards.LockAll()
	defer release()

	entries, err := os.ReadDir(s.root)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read cache root: %w", err)
	}
	for _, e := range entries {
		if e.Name() == LockFileName {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.root, e.Name())); err != nil {
			return fmt.Errorf("clear %s: %w", e.Name(), err)
		}
	}

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("create cache root: %w", err)
	}
	return nil
}

func (s *LocalStore) entryPath(loc addr.Location) string {
	return filepath.Join(s.root, loc.Dir, loc.File)
}
