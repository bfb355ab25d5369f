package app

import (
	"fmt"

	"github.com/kbukum/hybridstt/api"
	"github.com/kbukum/hybridstt/audio"
	"github.com/kbukum/hybridstt/authz"
	"github.com/kbukum/hybridstt/command"
	"github.com/kbukum/hybridstt/hybrid"
	"github.com/kbukum/hybridstt/logger"
	"github.com/kbukum/hybridstt/observability"
	"github.com/kbukum/hybridstt/semantic"
	"github.com/kbukum/hybridstt/speaker"
	"github.com/kbukum/hybridstt/storage"
	"github.com/kbukum/hybridstt/transcription"
	"github.com/kbukum/hybridstt/transcription/local"
	"github.com/kbukum/hybridstt/transcription/remote"
	"github.com/kbukum/hybridstt/util"
)

// Infra is the started infrastructure the services are built on. Metrics
// may be nil.
type Infra struct {
	Fragments   storage.Storage
	VoicePrints speaker.Store
	Model       *local.Model
	Logger      *logger.Logger
	Metrics     *observability.Metrics
}

// Services are the business objects of one running instance.
type Services struct {
	Orchestrator *hybrid.Orchestrator
	// Verifier is nil when speaker verification is disabled.
	Verifier  *speaker.Verifier
	Forwarder *command.Forwarder
	Handler   *api.Handler
}

// BuildServices creates the backends through the factory registry and
// assembles the orchestrator and HTTP handler around them.
func BuildServices(cfg *Config, infra Infra) (*Services, error) {
	log := infra.Logger
	if log == nil {
		log = logger.NewNop()
	}

	reg := transcription.NewRegistry()
	reg.RegisterFactory(transcription.FactoryRemote, remote.Factory(log, infra.Metrics))
	reg.RegisterFactory(transcription.FactoryLocal, local.Factory(infra.Model, log, infra.Metrics))
	remoteCfg, err := transcription.ConfigMap(cfg.Remote)
	if err != nil {
		return nil, err
	}
	localCfg, err := transcription.ConfigMap(cfg.Local)
	if err != nil {
		return nil, err
	}
	pair, err := reg.Build(transcription.FactoryRemote, remoteCfg, transcription.FactoryLocal, localCfg)
	if err != nil {
		return nil, err
	}

	verifier, err := buildVerifier(cfg.Speaker, infra.VoicePrints, log, infra.Metrics)
	if err != nil {
		return nil, err
	}

	embedder, err := semantic.NewEmbedder(cfg.Semantic, log, infra.Metrics)
	if err != nil {
		return nil, fmt.Errorf("semantic: %w", err)
	}

	deps := hybrid.Deps{
		Remote:           pair.Remote,
		Local:            pair.Local,
		Chunker:          newChunker(cfg.Audio),
		Fragments:        infra.Fragments,
		Verifier:         verifier,
		SpeakerMandatory: cfg.Speaker.Mandatory,
		Semantic:         semantic.NewValidator(embedder, infra.Metrics),
		Logger:           log,
		Metrics:          infra.Metrics,
	}
	if cfg.Audio.FFProbe != "" {
		deps.Prober = audio.NewFFProbe(cfg.Audio.FFProbe, cfg.Audio.ProbeTimeout())
	}
	orch, err := hybrid.New(cfg.Hybrid, deps)
	if err != nil {
		return nil, err
	}

	fwd, err := command.New(cfg.Command, log)
	if err != nil {
		return nil, err
	}

	var voiceprints api.VoicePrints
	if verifier != nil {
		voiceprints = verifier
	}
	return &Services{
		Orchestrator: orch,
		Verifier:     verifier,
		Forwarder:    fwd,
		Handler:      api.NewHandler(orch, voiceprints, fwd, log).WithChecker(authz.NewMapChecker(cfg.Auth.Permissions)),
	}, nil
}

func buildVerifier(cfg speaker.Config, store speaker.Store, log *logger.Logger, metrics *observability.Metrics) (*speaker.Verifier, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	sealer, err := cfg.NewSealer()
	if err != nil {
		return nil, fmt.Errorf("speaker: %w", err)
	}
	httpExtractor, err := speaker.NewHTTPExtractor(cfg)
	if err != nil {
		return nil, fmt.Errorf("speaker: %w", err)
	}
	if store == nil {
		store = speaker.NewMemoryStore()
	}
	extractor := speaker.NewExtractor(httpExtractor, log, metrics)
	return speaker.NewVerifier(extractor, speaker.NewVault(store, sealer), log, metrics), nil
}

// describeSpeaker summarizes speaker settings without exposing the key.
func describeSpeaker(cfg speaker.Config) string {
	if !cfg.Enabled {
		return "disabled"
	}
	mode := "advisory"
	if cfg.Mandatory {
		mode = "mandatory"
	}
	return fmt.Sprintf("%s %s key=%s", mode, cfg.Algorithm, util.MaskSecret(cfg.EncryptionKey, 2))
}

func newChunker(cfg AudioConfig) *audio.Chunker {
	if cfg.FFmpeg == "" {
		return audio.NewChunker()
	}
	return audio.NewChunker(audio.WithDecoder(audio.NewFFmpeg(cfg.FFmpeg, cfg.DecodeTimeout())))
}
