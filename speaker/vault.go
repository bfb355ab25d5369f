package speaker

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/hybridstt/encryption"
	"github.com/kbukum/hybridstt/provider"
	"github.com/kbukum/hybridstt/redis"
	"github.com/kbukum/hybridstt/vector"
)

// Store persists sealed voiceprints by owner id.
type Store = provider.ContextStore[SealedVoicePrint]

// NewMemoryStore keeps voiceprints in process memory.
func NewMemoryStore() Store {
	return provider.NewMemoryStore[SealedVoicePrint]()
}

// NewRedisStore keeps voiceprints under "<prefix>:voiceprint:<owner>".
func NewRedisStore(client *redis.Client) Store {
	return redis.NewTypedStore[SealedVoicePrint](client, "voiceprint")
}

// Vault seals voiceprints into a Store. Writers are serialized; readers
// run concurrently.
type Vault struct {
	mu     sync.RWMutex
	store  Store
	sealer encryption.Sealer
}

// NewVault creates a vault.
func NewVault(store Store, sealer encryption.Sealer) *Vault {
	return &Vault{store: store, sealer: sealer}
}

// Algorithm returns the sealing algorithm.
func (v *Vault) Algorithm() encryption.Algorithm { return v.sealer.Algorithm() }

// Put seals and stores vp, replacing any earlier enrollment.
func (v *Vault) Put(ctx context.Context, vp *VoicePrint) error {
	sealed, err := seal(v.sealer, vp)
	if err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.store.Save(ctx, vp.OwnerID, sealed, 0); err != nil {
		return fmt.Errorf("speaker: store voiceprint: %w", err)
	}
	return nil
}

// Get returns the sealed record, or nil when owner is not enrolled.
func (v *Vault) Get(ctx context.Context, owner string) (*SealedVoicePrint, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	sv, err := v.store.Load(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("speaker: load voiceprint: %w", err)
	}
	return sv, nil
}

// With decrypts owner's embedding, passes it to fn and zeroes it when fn
// returns. found is false when owner is not enrolled.
func (v *Vault) With(ctx context.Context, owner string, fn func(embedding []float64) error) (found bool, err error) {
	sv, err := v.Get(ctx, owner)
	if err != nil || sv == nil {
		return false, err
	}
	emb, err := open(v.sealer, sv)
	if err != nil {
		return true, err
	}
	defer vector.Zero(emb)
	return true, fn(emb)
}

// Delete removes owner's enrollment. Deleting a missing owner is not an error.
func (v *Vault) Delete(ctx context.Context, owner string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.store.Delete(ctx, owner); err != nil {
		return fmt.Errorf("speaker: delete voiceprint: %w", err)
	}
	return nil
}
