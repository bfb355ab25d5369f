package auth

import (
	"crypto/sha256"
	"crypto/subtle"
)

// NewAPIKeyValidator accepts any of keys. Keys are hashed up front so the
// comparison is constant time regardless of key length.
func NewAPIKeyValidator(keys []string) TokenValidator {
	digests := make([][32]byte, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			digests = append(digests, sha256.Sum256([]byte(k)))
		}
	}
	return TokenValidatorFunc(func(token string) (*Principal, error) {
		if token == "" {
			return nil, ErrInvalidCredentials
		}
		sum := sha256.Sum256([]byte(token))
		match := 0
		for i := range digests {
			match |= subtle.ConstantTimeCompare(sum[:], digests[i][:])
		}
		if match != 1 {
			return nil, ErrInvalidCredentials
		}
		return &Principal{Scheme: SchemeAPIKey}, nil
	})
}
