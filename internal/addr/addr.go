// Package addr maps cache keys to their location on disk.
//
// A key is hashed with XXH3-128 and rendered as 32 lowercase hex characters.
// The first PrefixLen characters name the shard directory and select the
// shard lock; the rest is the entry filename:
//
//	<root>/3fa/9c0e4d5b1a27f6e8c3d2b1a09f8e7
//
// The layout is part of the on-disk format and must not change.
package addr

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/zeebo/xxh3"
)

const (
	// HexLen is the length of a hex encoded hash.
	HexLen = 32
	// PrefixLen is the number of hex characters naming a shard.
	PrefixLen = 3
	// ShardCount is the number of distinct shard prefixes (16^PrefixLen).
	ShardCount = 1 << (4 * PrefixLen)
)

// Hash is the hex encoded XXH3-128 digest of a key.
type Hash string

// Location is where an entry lives relative to the cache root.
type Location struct {
	Dir   string // shard prefix, also the directory name
	File  string // hash remainder
	Shard int
}

// Sum hashes key.
func Sum(key string) Hash {
	h := xxh3.HashString128(key)

	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], h.Hi)
	binary.BigEndian.PutUint64(buf[8:], h.Lo)
	return Hash(hex.EncodeToString(buf[:]))
}

// Locate splits h into its shard directory and filename.
func (h Hash) Locate() Location {
	s := string(h)
	if len(s) < PrefixLen {
		return Location{Dir: s, Shard: 0}
	}
	shard, ok := ParseShard(s[:PrefixLen])
	if !ok {
		shard = 0
	}
	return Location{Dir: s[:PrefixLen], File: s[PrefixLen:], Shard: shard}
}

// ParseShard reports the shard id named by a shard directory. Only names of
// exactly PrefixLen lowercase hex digits are accepted.
func ParseShard(name string) (int, bool) {
	if len(name) != PrefixLen {
		return 0, false
	}
	id := 0
	for i := 0; i < len(name); i++ {
		c := name[i]
		var v byte
		switch {
		case c >= '0' && c <= '9':
			v = c - '0'
		case c >= 'a' && c <= 'f':
			v = c - 'a' + 10
		default:
			return 0, false
		}
		id = id<<4 | int(v)
	}
	return id, true
}
