// Package speaker enrolls and verifies voiceprints.
//
// A voiceprint is the element-wise mean of the voice embeddings of one or
// more enrollment samples. It is only ever persisted sealed (see Vault);
// decrypted vectors live for the duration of one comparison and are zeroed
// afterwards.
package speaker
