// Package store implements the on-disk entry store.
//
// Entries live in a two level tree under the cache root:
//
//	root/
//	  .lock                 (process lock, never touched by the store)
//	  3fa/
//	    9c0e4d5b1a27f6e...  (10 byte header + payload)
//
// Each shard directory is guarded by one lock of a shared shard.Table:
// - Get holds the read lock
// - Set and Remove hold the write lock
// - Clear holds every write lock
//
// Expired and corrupt entries are evicted lazily when Get touches them.
package store

import (
	"errors"
	"time"
)

// LockFileName is the process lock file kept at the cache root.
const LockFileName = ".lock"

var (
	ErrNotFound    = errors.New("keeper: not found")
	ErrInvalidData = errors.New("keeper: invalid or corrupted entry")
)

// Store handles entry storage.
type Store interface {
	// Get returns the payload stored for key. Missing and expired entries
	// report ErrNotFound, corrupt ones ErrInvalidData.
	Get(key string) ([]byte, error)

	// Set writes value for key, replacing any previous entry. A ttl <= 0
	// never expires.
	Set(key string, value []byte, ttl time.Duration) error

	// Remove deletes the entry for key. Removing a missing key succeeds.
	Remove(key string) error

	// Clear deletes every entry.
	Clear() error
}
