package audio

import (
	"context"
	"fmt"

	"github.com/kbukum/hybridstt/errors"
)

// Chunker splits assets into segments no larger than a byte limit.
type Chunker struct {
	decoder Decoder
}

// ChunkerOption configures a Chunker.
type ChunkerOption func(*Chunker)

// WithDecoder lets the chunker split oversized formats it cannot parse by
// decoding them to WAV first.
func WithDecoder(d Decoder) ChunkerOption {
	return func(c *Chunker) { c.decoder = d }
}

// NewChunker creates a Chunker.
func NewChunker(opts ...ChunkerOption) *Chunker {
	c := &Chunker{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chunk returns the asset's segments in index order. An asset within the
// limit yields one segment covering it without any decoding. Oversized
// M4A, OGG and FLAC assets are decoded to WAV when a decoder is set; their
// segments then reference the decoded asset.
func (c *Chunker) Chunk(ctx context.Context, a *Asset, maxSegmentBytes int64) ([]Segment, error) {
	if maxSegmentBytes <= 0 {
		return nil, errors.InvalidInput("max_segment_size", "must be positive")
	}
	if a == nil || a.Size == 0 {
		return nil, errors.InvalidInput("audio", "empty audio payload")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Canceled(err)
	}
	if a.Size <= maxSegmentBytes {
		return []Segment{{
			Index:    0,
			Offset:   0,
			Length:   a.Size,
			Duration: a.Duration,
			Payload:  a.Data,
			Asset:    a,
		}}, nil
	}

	switch a.Format {
	case FormatWAV:
		return splitWAV(a, maxSegmentBytes)
	case FormatMP3:
		return splitMP3(a, maxSegmentBytes)
	}
	if c.decoder == nil {
		return nil, errors.ChunkingError(string(a.Format),
			fmt.Sprintf("%s audio of %d bytes exceeds the %d byte segment limit and no decoder is configured", a.Format, a.Size, maxSegmentBytes))
	}
	decoded, err := c.decoder.DecodeWAV(ctx, a)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Canceled(ctx.Err())
		}
		return nil, errors.ChunkingError(string(a.Format), "decode to wav: "+err.Error())
	}
	if decoded == nil || decoded.Format != FormatWAV {
		return nil, errors.ChunkingError(string(a.Format), "decoder did not produce wav")
	}
	return c.Chunk(ctx, decoded, maxSegmentBytes)
}
