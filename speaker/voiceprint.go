package speaker

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/kbukum/hybridstt/encryption"
	"github.com/kbukum/hybridstt/vector"
)

// VoicePrint is a decrypted enrollment. It is never persisted as is.
type VoicePrint struct {
	OwnerID     string    `json:"owner_id"`
	Embedding   []float64 `json:"-"`
	SampleCount int       `json:"sample_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// SealedVoicePrint is the stored form of a VoicePrint.
type SealedVoicePrint struct {
	OwnerID     string               `json:"owner_id"`
	Ciphertext  []byte               `json:"ciphertext"`
	Algorithm   encryption.Algorithm `json:"algorithm"`
	Dimensions  int                  `json:"dimensions"`
	SampleCount int                  `json:"sample_count"`
	CreatedAt   time.Time            `json:"created_at"`
}

// Info is what may be shown about an enrollment.
func (s *SealedVoicePrint) Info() VoicePrint {
	return VoicePrint{OwnerID: s.OwnerID, SampleCount: s.SampleCount, CreatedAt: s.CreatedAt}
}

// seal encrypts vp with the owner id as associated data, so a ciphertext
// copied under another owner's key fails to open.
func seal(s encryption.Sealer, vp *VoicePrint) (*SealedVoicePrint, error) {
	plain := encodeEmbedding(vp.Embedding)
	defer encryption.Wipe(plain)
	ct, err := s.Seal(plain, []byte(vp.OwnerID))
	if err != nil {
		return nil, fmt.Errorf("speaker: seal voiceprint: %w", err)
	}
	return &SealedVoicePrint{
		OwnerID:     vp.OwnerID,
		Ciphertext:  ct,
		Algorithm:   s.Algorithm(),
		Dimensions:  len(vp.Embedding),
		SampleCount: vp.SampleCount,
		CreatedAt:   vp.CreatedAt,
	}, nil
}

// open decrypts sv. The caller must zero the returned embedding.
func open(s encryption.Sealer, sv *SealedVoicePrint) ([]float64, error) {
	if sv.Algorithm != s.Algorithm() {
		return nil, fmt.Errorf("speaker: voiceprint sealed with %s, vault uses %s", sv.Algorithm, s.Algorithm())
	}
	plain, err := s.Open(sv.Ciphertext, []byte(sv.OwnerID))
	if err != nil {
		return nil, fmt.Errorf("speaker: open voiceprint: %w", err)
	}
	defer encryption.Wipe(plain)
	emb, err := decodeEmbedding(plain)
	if err != nil {
		return nil, err
	}
	if len(emb) != sv.Dimensions {
		vector.Zero(emb)
		return nil, fmt.Errorf("speaker: voiceprint has %d dimensions, header says %d", len(emb), sv.Dimensions)
	}
	return emb, nil
}

func encodeEmbedding(v []float64) []byte {
	b := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint64(b[8*i:], math.Float64bits(x))
	}
	return b
}

func decodeEmbedding(b []byte) ([]float64, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("speaker: corrupt voiceprint payload")
	}
	v := make([]float64, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[8*i:]))
	}
	return v, nil
}
