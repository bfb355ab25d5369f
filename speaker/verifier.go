package speaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/kbukum/hybridstt/errors"
	"github.com/kbukum/hybridstt/logger"
	"github.com/kbukum/hybridstt/observability"
	"github.com/kbukum/hybridstt/validation"
	"github.com/kbukum/hybridstt/vector"
)

// Verifier enrolls owners and scores probe audio against their voiceprint.
type Verifier struct {
	extractor Extractor
	vault     *Vault
	log       *logger.Logger
	metrics   *observability.Metrics
	now       func() time.Time
}

// NewVerifier creates a verifier. metrics may be nil.
func NewVerifier(extractor Extractor, vault *Vault, log *logger.Logger, metrics *observability.Metrics) *Verifier {
	if log == nil {
		log = logger.NewNop()
	}
	return &Verifier{
		extractor: extractor,
		vault:     vault,
		log:       log.WithComponent("speaker"),
		metrics:   metrics,
		now:       time.Now,
	}
}

func checkOwner(owner string) error {
	v := validation.New().Required("user_id", owner)
	v.Check(owner == "" || validation.IsSubject(owner), "user_id", "must be a user identifier")
	return v.Validate()
}

func (v *Verifier) embed(ctx context.Context, audio []byte, name string) ([]float64, error) {
	if len(audio) == 0 {
		return nil, apperrors.InvalidInput("audio", "empty voice sample")
	}
	emb, err := v.extractor.Execute(ctx, Sample{Audio: audio, FileName: name})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, apperrors.Canceled(err)
		}
		return nil, apperrors.ExternalServiceError("speaker extractor", err)
	}
	return emb, nil
}

// Enroll averages the embeddings of samples, in order, and stores the
// result as owner's voiceprint.
func (v *Verifier) Enroll(ctx context.Context, owner string, samples [][]byte) (*VoicePrint, error) {
	if err := checkOwner(owner); err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, apperrors.InvalidInput("samples", "at least one voice sample is required")
	}

	embeddings := make([][]float64, 0, len(samples))
	defer func() {
		for _, e := range embeddings {
			vector.Zero(e)
		}
	}()
	for i, s := range samples {
		emb, err := v.embed(ctx, s, fmt.Sprintf("sample-%d.wav", i))
		if err != nil {
			return nil, err
		}
		embeddings = append(embeddings, emb)
	}

	mean, err := vector.Mean(embeddings)
	if errors.Is(err, vector.ErrDimensionMismatch) {
		return nil, apperrors.InvalidInput("samples", "voice samples produced embeddings of different dimensions")
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	defer vector.Zero(mean)

	vp := &VoicePrint{OwnerID: owner, Embedding: mean, SampleCount: len(samples), CreatedAt: v.now().UTC()}
	if err := v.vault.Put(ctx, vp); err != nil {
		return nil, apperrors.Internal(err)
	}
	v.log.WithContext(ctx).Info("voiceprint enrolled", logger.Fields(
		"user_id", owner, "samples", len(samples), "dimensions", len(mean)))

	info := *vp
	info.Embedding = nil
	return &info, nil
}

// Verify returns the cosine similarity, clamped to [0,1], between audio and
// owner's voiceprint. The same inputs always give the same score.
func (v *Verifier) Verify(ctx context.Context, owner string, audio []byte) (float64, error) {
	if err := checkOwner(owner); err != nil {
		return 0, err
	}
	sv, err := v.vault.Get(ctx, owner)
	if err != nil {
		return 0, apperrors.Internal(err)
	}
	if sv == nil {
		return 0, apperrors.NoVoicePrint(owner)
	}

	probe, err := v.embed(ctx, audio, "probe.wav")
	if err != nil {
		return 0, err
	}
	defer vector.Zero(probe)

	var score float64
	found, err := v.vault.With(ctx, owner, func(stored []float64) error {
		cos, err := vector.Cosine(probe, stored)
		if err != nil {
			return err
		}
		score = vector.Clamp01(cos)
		return nil
	})
	switch {
	case !found && err == nil:
		return 0, apperrors.NoVoicePrint(owner)
	case errors.Is(err, vector.ErrZeroMagnitude):
		score = 0
	case err != nil:
		return 0, apperrors.Internal(err)
	}

	v.metrics.RecordSimilarity(ctx, "speaker", score)
	v.log.WithContext(ctx).Debug("speaker verified", logger.Fields("user_id", owner, "score", score))
	return score, nil
}

// Exists reports whether owner is enrolled.
func (v *Verifier) Exists(ctx context.Context, owner string) (bool, error) {
	if err := checkOwner(owner); err != nil {
		return false, err
	}
	sv, err := v.vault.Get(ctx, owner)
	if err != nil {
		return false, apperrors.Internal(err)
	}
	return sv != nil, nil
}

// Info returns owner's enrollment metadata without the embedding.
func (v *Verifier) Info(ctx context.Context, owner string) (*VoicePrint, error) {
	if err := checkOwner(owner); err != nil {
		return nil, err
	}
	sv, err := v.vault.Get(ctx, owner)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if sv == nil {
		return nil, apperrors.NoVoicePrint(owner)
	}
	info := sv.Info()
	return &info, nil
}

// Delete removes owner's voiceprint.
func (v *Verifier) Delete(ctx context.Context, owner string) error {
	if err := checkOwner(owner); err != nil {
		return err
	}
	if err := v.vault.Delete(ctx, owner); err != nil {
		return apperrors.Internal(err)
	}
	v.log.WithContext(ctx).Info("voiceprint deleted", logger.Fields("user_id", owner))
	return nil
}
