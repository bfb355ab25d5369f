package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/hybridstt/provider"
)

// TypedStore stores JSON-encoded values of type C under a namespace.
type TypedStore[C any] struct {
	client    *Client
	namespace string
}

var _ provider.ContextStore[any] = (*TypedStore[any])(nil)

// NewTypedStore keys values as "<prefix>:<namespace>:<key>".
func NewTypedStore[C any](client *Client, namespace string) *TypedStore[C] {
	return &TypedStore[C]{client: client, namespace: namespace}
}

func (s *TypedStore[C]) key(k string) string {
	return s.client.Key(s.namespace, k)
}

// Load returns (nil, nil) for a missing key.
func (s *TypedStore[C]) Load(ctx context.Context, key string) (*C, error) {
	raw, err := s.client.Get(ctx, s.key(key))
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("typed store load %q: %w", key, err)
	}
	var val C
	if err := json.Unmarshal(raw, &val); err != nil {
		return nil, fmt.Errorf("typed store unmarshal %q: %w", key, err)
	}
	return &val, nil
}

// Save uses no expiration when ttl is 0.
func (s *TypedStore[C]) Save(ctx context.Context, key string, val *C, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("typed store marshal %q: %w", key, err)
	}
	if err := s.client.Set(ctx, s.key(key), data, ttl); err != nil {
		return fmt.Errorf("typed store save %q: %w", key, err)
	}
	return nil
}

func (s *TypedStore[C]) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)); err != nil {
		return fmt.Errorf("typed store delete %q: %w", key, err)
	}
	return nil
}
