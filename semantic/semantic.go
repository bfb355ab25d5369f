// Package semantic scores how close two transcripts are in meaning.
package semantic

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/kbukum/hybridstt/errors"
	"github.com/kbukum/hybridstt/observability"
	"github.com/kbukum/hybridstt/provider"
	"github.com/kbukum/hybridstt/vector"
)

// Embedder maps texts to vectors, one per input, in input order.
type Embedder = provider.RequestResponse[[]string, [][]float64]

// Validator compares transcripts through an Embedder.
type Validator struct {
	embedder Embedder
	metrics  *observability.Metrics
}

// NewValidator creates a validator. metrics may be nil.
func NewValidator(embedder Embedder, metrics *observability.Metrics) *Validator {
	return &Validator{embedder: embedder, metrics: metrics}
}

// Embedder returns the underlying embedder.
func (v *Validator) Embedder() Embedder { return v.embedder }

// Similarity returns the cosine similarity of a and b clamped to [0,1].
// Texts equal up to case and whitespace score 1 without embedding; an empty
// text against a non-empty one scores 0. The pair is embedded in sorted
// order so Similarity(a, b) == Similarity(b, a) exactly.
func (v *Validator) Similarity(ctx context.Context, a, b string) (float64, error) {
	na, nb := normalize(a), normalize(b)
	if na == nb {
		return 1, nil
	}
	if na == "" || nb == "" {
		return 0, nil
	}
	if nb < na {
		na, nb = nb, na
	}

	vecs, err := v.embedder.Execute(ctx, []string{na, nb})
	if err != nil {
		return 0, apperrors.ExternalServiceError("semantic embedder", err)
	}
	if len(vecs) != 2 {
		return 0, apperrors.ExternalServiceError("semantic embedder",
			fmt.Errorf("got %d embeddings for 2 texts", len(vecs)))
	}
	cos, err := vector.Cosine(vecs[0], vecs[1])
	if err != nil {
		// A zero vector has no direction to compare.
		cos = 0
	}
	score := vector.Clamp01(cos)
	v.metrics.RecordSimilarity(ctx, "semantic", score)
	return score, nil
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
