package transcription

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/kbukum/hybridstt/provider"
)

// Registered factory names.
const (
	FactoryRemote = "openai"
	FactoryLocal  = "whisper-local"
)

// Registry is the registered-capability table of backend factories.
type Registry struct {
	*provider.Registry[Backend]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{Registry: provider.NewRegistry[Backend]()}
}

// Pair is the one remote and one local backend a service runs with.
type Pair struct {
	Remote Backend
	Local  Backend
}

// Build creates both backends and checks that each factory produced the
// expected kind.
func (r *Registry) Build(remoteFactory string, remoteCfg map[string]any, localFactory string, localCfg map[string]any) (*Pair, error) {
	remote, err := r.Create(remoteFactory, remoteCfg)
	if err != nil {
		return nil, err
	}
	if remote.Kind() != KindRemote {
		return nil, fmt.Errorf("transcription: factory %q built a %s backend, want remote", remoteFactory, remote.Kind())
	}
	local, err := r.Create(localFactory, localCfg)
	if err != nil {
		return nil, err
	}
	if local.Kind() != KindLocal {
		return nil, fmt.Errorf("transcription: factory %q built a %s backend, want local", localFactory, local.Kind())
	}
	return &Pair{Remote: remote, Local: local}, nil
}

// ConfigMap flattens a typed backend config into the map form factories take.
func ConfigMap(cfg any) (map[string]any, error) {
	out := make(map[string]any)
	if err := mapstructure.Decode(cfg, &out); err != nil {
		return nil, fmt.Errorf("transcription: encode config: %w", err)
	}
	return out, nil
}

// DecodeConfig fills out from a factory config map. Durations may be given
// as strings ("30s") and numbers may arrive as strings from env overrides.
func DecodeConfig(cfg map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("transcription: decode config: %w", err)
	}
	return nil
}
