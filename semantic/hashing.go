package semantic

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/kbukum/hybridstt/vector"
)

// HashingEmbedder is a deterministic bag-of-words embedder that needs no
// network. Each token and each adjacent token pair is hashed into one of
// Dimensions buckets with a signed count; the result is L2-normalized.
type HashingEmbedder struct {
	dims int
}

// NewHashingEmbedder creates a hashing embedder with dims buckets
// (256 when dims <= 0).
func NewHashingEmbedder(dims int) *HashingEmbedder {
	if dims <= 0 {
		dims = 256
	}
	return &HashingEmbedder{dims: dims}
}

func (h *HashingEmbedder) Name() string                     { return "hashing-embedder" }
func (h *HashingEmbedder) IsAvailable(context.Context) bool { return true }

func (h *HashingEmbedder) Execute(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = h.embed(t)
	}
	return out, nil
}

func (h *HashingEmbedder) embed(text string) []float64 {
	v := make([]float64, h.dims)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for i, tok := range tokens {
		h.add(v, tok, 1)
		if i > 0 {
			h.add(v, tokens[i-1]+" "+tok, 0.5)
		}
	}
	return vector.Normalize(v)
}

func (h *HashingEmbedder) add(v []float64, feature string, weight float64) {
	f := fnv.New64a()
	_, _ = f.Write([]byte(feature))
	sum := f.Sum64()
	idx := int(sum % uint64(h.dims))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	v[idx] += weight
}
