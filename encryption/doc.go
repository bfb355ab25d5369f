// Package encryption seals binary payloads at rest with AES-256-GCM or
// ChaCha20-Poly1305. Keys are derived once from a configured secret.
//
//	s, err := encryption.New(secret, encryption.WithAlgorithm(encryption.AlgorithmChaCha20))
//	sealed, err := s.Seal(plaintext, []byte(ownerID))
//	plain, err := s.Open(sealed, []byte(ownerID))
//	defer encryption.Wipe(plain)
package encryption
