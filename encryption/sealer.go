package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// Algorithm represents supported encryption algorithms.
type Algorithm string

const (
	// AlgorithmAESGCM is AES-256-GCM (default).
	AlgorithmAESGCM Algorithm = "aes-256-gcm"
	// AlgorithmChaCha20 is ChaCha20-Poly1305, fast on CPUs without AES-NI.
	AlgorithmChaCha20 Algorithm = "chacha20-poly1305"
)

// ErrOpen is returned when sealed data fails authentication.
var ErrOpen = errors.New("encryption: message authentication failed")

// Sealer encrypts binary payloads with authenticated associated data. Data
// sealed under one aad only opens under the same aad.
type Sealer interface {
	Seal(plaintext, aad []byte) ([]byte, error)
	Open(sealed, aad []byte) ([]byte, error)
	Algorithm() Algorithm
}

// Option configures New.
type Option func(*options)

type options struct {
	algorithm Algorithm
	context   string
}

// WithAlgorithm selects the encryption algorithm (default: AES-256-GCM).
func WithAlgorithm(alg Algorithm) Option {
	return func(o *options) { o.algorithm = alg }
}

// WithKeyContext binds the derived key to a purpose label, so one secret
// yields unrelated keys for unrelated uses.
func WithKeyContext(label string) Option {
	return func(o *options) { o.context = label }
}

// New creates a Sealer. A 256-bit key is derived from secret with
// HKDF-SHA256; the secret itself is not retained.
func New(secret string, opts ...Option) (Sealer, error) {
	if secret == "" {
		return nil, errors.New("encryption: empty key")
	}
	o := &options{algorithm: AlgorithmAESGCM, context: "hybridstt"}
	for _, opt := range opts {
		opt(o)
	}

	key, err := deriveKey([]byte(secret), o.context+"/"+string(o.algorithm))
	if err != nil {
		return nil, err
	}
	defer Wipe(key)

	var aead cipher.AEAD
	switch o.algorithm {
	case AlgorithmAESGCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("create cipher: %w", err)
		}
		if aead, err = cipher.NewGCM(block); err != nil {
			return nil, fmt.Errorf("create GCM: %w", err)
		}
	case AlgorithmChaCha20:
		if aead, err = chacha20poly1305.New(key); err != nil {
			return nil, fmt.Errorf("create chacha20: %w", err)
		}
	default:
		return nil, fmt.Errorf("encryption: unsupported algorithm %q", o.algorithm)
	}
	return &aeadSealer{aead: aead, alg: o.algorithm}, nil
}

func deriveKey(secret []byte, info string) ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}

type aeadSealer struct {
	aead cipher.AEAD
	alg  Algorithm
}

func (s *aeadSealer) Algorithm() Algorithm { return s.alg }

// Seal returns nonce || ciphertext.
func (s *aeadSealer) Seal(plaintext, aad []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plaintext, aad), nil
}

func (s *aeadSealer) Open(sealed, aad []byte) ([]byte, error) {
	n := s.aead.NonceSize()
	if len(sealed) < n+s.aead.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrOpen)
	}
	plaintext, err := s.aead.Open(nil, sealed[:n], sealed[n:], aad)
	if err != nil {
		return nil, ErrOpen
	}
	return plaintext, nil
}

// Wipe zeroes b in place.
func Wipe(b []byte) {
	clear(b)
}
