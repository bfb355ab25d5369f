package speaker

import (
	"context"
	"fmt"

	"github.com/kbukum/hybridstt/httpclient"
	"github.com/kbukum/hybridstt/logger"
	"github.com/kbukum/hybridstt/observability"
	"github.com/kbukum/hybridstt/provider"
	"github.com/kbukum/hybridstt/resilience"
	"github.com/kbukum/hybridstt/version"
)

// Sample is one audio clip to embed.
type Sample struct {
	Audio       []byte
	FileName    string
	ContentType string
}

// Extractor turns a voice sample into an embedding.
type Extractor = provider.RequestResponse[Sample, []float64]

// HTTPExtractor calls an embedding sidecar: POST /embed with a multipart
// "audio" part, answered by {"embedding": [...]}.
type HTTPExtractor struct {
	client *httpclient.Client
}

var _ Extractor = (*HTTPExtractor)(nil)

// NewHTTPExtractor creates an extractor for baseURL.
func NewHTTPExtractor(cfg Config) (*HTTPExtractor, error) {
	cfg.ApplyDefaults()
	client, err := httpclient.New(httpclient.Config{
		BaseURL: cfg.ExtractorURL,
		Timeout: cfg.Timeout(),
		Headers: map[string]string{"User-Agent": version.UserAgent()},
	})
	if err != nil {
		return nil, fmt.Errorf("speaker: %w", err)
	}
	return &HTTPExtractor{client: client}, nil
}

func (e *HTTPExtractor) Name() string { return "speaker-extractor" }

func (e *HTTPExtractor) IsAvailable(ctx context.Context) bool {
	_, err := e.client.Do(ctx, httpclient.Request{Path: "/health"})
	return err == nil
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

func (e *HTTPExtractor) Execute(ctx context.Context, s Sample) ([]float64, error) {
	name := s.FileName
	if name == "" {
		name = "sample.wav"
	}
	body := &httpclient.MultipartBody{Files: []httpclient.FileField{{
		FieldName: "audio", FileName: name, ContentType: s.ContentType, Data: s.Audio,
	}}}
	resp, err := httpclient.Post[embedResponse](ctx, e.client, "/embed", body)
	if err != nil {
		return nil, err
	}
	if len(resp.Data.Embedding) == 0 {
		return nil, fmt.Errorf("speaker: extractor returned an empty embedding")
	}
	return resp.Data.Embedding, nil
}

// NewExtractor wraps inner with logging, metrics, tracing and a circuit
// breaker. metrics may be nil.
func NewExtractor(inner Extractor, log *logger.Logger, metrics *observability.Metrics) Extractor {
	if log == nil {
		log = logger.NewNop()
	}
	cb := resilience.DefaultCircuitBreakerConfig(inner.Name())
	wrapped := provider.WithResilience(inner, provider.ResilienceConfig{CircuitBreaker: &cb})
	return provider.Chain(
		provider.WithLogging[Sample, []float64](log),
		provider.WithMetrics[Sample, []float64](metrics),
		provider.WithTracing[Sample, []float64](),
	)(wrapped)
}
