package auth

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kbukum/hybridstt/auth/jwt"
)

// Registry is a thread-safe set of TokenValidators keyed by scheme.
type Registry struct {
	mu         sync.RWMutex
	validators map[string]TokenValidator
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{validators: make(map[string]TokenValidator)}
}

// FromConfig builds a registry holding the validators cfg enables.
func FromConfig(cfg Config) (*Registry, error) {
	reg := NewRegistry()
	if len(cfg.APIKeys) > 0 {
		reg.Register(SchemeAPIKey, NewAPIKeyValidator(cfg.APIKeys))
	}
	if cfg.JWT != nil {
		svc, err := jwt.NewService(cfg.JWT, jwt.NewClaims)
		if err != nil {
			return nil, err
		}
		reg.Register(SchemeJWT, TokenValidatorFunc(func(token string) (*Principal, error) {
			claims, err := svc.Parse(token)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
			}
			return &Principal{Subject: claims.Subject, Scheme: SchemeJWT}, nil
		}))
	}
	return reg, nil
}

// Register adds or replaces the validator for scheme.
func (r *Registry) Register(scheme string, v TokenValidator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validators[scheme] = v
}

// Get returns the validator registered for scheme.
func (r *Registry) Get(scheme string) (TokenValidator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.validators[scheme]
	return v, ok
}

// Schemes returns the registered scheme names, sorted.
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.validators))
	for name := range r.validators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
