package storage

import (
	"fmt"
	"sync"

	"github.com/kbukum/hybridstt/logger"
)

// Factory builds a Storage for a provider.
type Factory func(cfg Config, log *logger.Logger) (Storage, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[string]Factory{
		ProviderMemory: func(Config, *logger.Logger) (Storage, error) { return NewMemory(), nil },
	}
)

// RegisterFactory makes a provider available to New. Provider packages call
// it from init.
func RegisterFactory(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// New builds the configured provider. The local provider requires a blank
// import of storage/local.
func New(cfg Config, log *logger.Logger) (Storage, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	factoriesMu.RLock()
	f, ok := factories[cfg.Provider]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: provider %q not registered", cfg.Provider)
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	log.Debug("initializing storage", logger.Fields("provider", cfg.Provider))
	return f(cfg, log.WithComponent("storage"))
}
