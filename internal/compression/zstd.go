// Package compression wraps zstd for entry payloads.
package compression

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// MinSize is the smallest payload worth compressing.
const MinSize = 128

type Compressor struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	enabled bool
}

// NewCompressor builds a compressor. Levels 1-3 map to fastest, default and
// better compression; anything else uses the default. A disabled compressor
// never compresses but can still decompress.
func NewCompressor(level int, enabled bool) (*Compressor, error) {
	var encoderLevel zstd.EncoderLevel
	switch level {
	case 1:
		encoderLevel = zstd.SpeedFastest
	case 2:
		encoderLevel = zstd.SpeedDefault
	case 3:
		encoderLevel = zstd.SpeedBetterCompression
	default:
		encoderLevel = zstd.SpeedDefault
	}

	c := &Compressor{enabled: enabled}
	if enabled {
		encoder, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(encoderLevel),
			zstd.WithEncoderConcurrency(1),
		)
		if err != nil {
			return nil, err
		}
		c.encoder = encoder
	}

	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		c.Close()
		return nil, err
	}
	c.decoder = decoder
	return c, nil
}

func (c *Compressor) Enabled() bool { return c != nil && c.enabled }

// Compress returns the zstd frame for data and true, or data itself and
// false when compression is disabled, data is small, or it did not shrink.
func (c *Compressor) Compress(data []byte) ([]byte, bool) {
	if !c.Enabled() || len(data) < MinSize {
		return data, false
	}

	compressed := c.encoder.EncodeAll(data, make([]byte, 0, len(data)))
	if len(compressed) >= len(data) {
		return data, false
	}
	return compressed, true
}

func (c *Compressor) Decompress(data []byte) ([]byte, error) {
	if c == nil || c.decoder == nil {
		return nil, fmt.Errorf("zstd decoder unavailable")
	}
	out, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return out, nil
}

func (c *Compressor) Close() error {
	if c == nil {
		return nil
	}
	if c.encoder != nil {
		c.encoder.Close()
	}
	if c.decoder != nil {
		c.decoder.Close()
	}
	return nil
}
