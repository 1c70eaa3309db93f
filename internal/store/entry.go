package store

import (
	"encoding/binary"
	"time"
)

// HeaderSize is the fixed entry header length:
//
//	[0,2)  flags, big-endian
//	[2,10) expiry in Unix seconds, big-endian, 0 = never
const HeaderSize = 10

// FlagCompressed marks a zstd compressed payload.
const FlagCompressed uint16 = 1 << 0

const knownFlags = FlagCompressed

// Header is the decoded entry header.
type Header struct {
	Flags     uint16
	ExpiresAt uint64
}

// ExpiresAt returns the header expiry for a ttl measured from now.
func ExpiresAt(now time.Time, ttl time.Duration) uint64 {
	if ttl <= 0 {
		return 0
	}
	return uint64(now.Unix()) + uint64(ttl/time.Second)
}

// Expired reports whether the entry is logically gone at now.
func (h Header) Expired(now time.Time) bool {
	return h.ExpiresAt != 0 && h.ExpiresAt < uint64(now.Unix())
}

// Valid reports whether only known flags are set.
func (h Header) Valid() bool {
	return h.Flags&^knownFlags == 0
}

// AppendHeader appends the encoded header to b.
func AppendHeader(b []byte, h Header) []byte {
	b = binary.BigEndian.AppendUint16(b, h.Flags)
	return binary.BigEndian.AppendUint64(b, h.ExpiresAt)
}

// DecodeHeader parses the first HeaderSize bytes of b. It reports false when
// b is too short.
func DecodeHeader(b []byte) (Header, bool) {
	if len(b) < HeaderSize {
		return Header{}, false
	}
	return Header{
		Flags:     binary.BigEndian.Uint16(b[0:2]),
		ExpiresAt: binary.BigEndian.Uint64(b[2:HeaderSize]),
	}, true
}
