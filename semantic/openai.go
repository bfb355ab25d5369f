package semantic

import (
	"context"
	"fmt"
	"sort"

	"github.com/kbukum/hybridstt/httpclient"
	"github.com/kbukum/hybridstt/version"
)

// OpenAIEmbedder calls an OpenAI-compatible POST /embeddings endpoint.
type OpenAIEmbedder struct {
	client     *httpclient.Client
	model      string
	dimensions int
}

// NewOpenAIEmbedder creates an embedder from cfg.
func NewOpenAIEmbedder(cfg Config) (*OpenAIEmbedder, error) {
	cfg.ApplyDefaults()
	hc := httpclient.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout(),
		Headers: map[string]string{"User-Agent": version.UserAgent()},
		Retry:   httpclient.DefaultRetryConfig(),
	}
	if cfg.APIKey != "" {
		hc.Auth = httpclient.BearerAuth(cfg.APIKey)
	}
	client, err := httpclient.New(hc)
	if err != nil {
		return nil, fmt.Errorf("semantic: %w", err)
	}
	return &OpenAIEmbedder{client: client, model: cfg.Model, dimensions: cfg.Dimensions}, nil
}

func (e *OpenAIEmbedder) Name() string                     { return "openai-embedder" }
func (e *OpenAIEmbedder) IsAvailable(context.Context) bool { return true }

type embeddingsRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func (e *OpenAIEmbedder) Execute(ctx context.Context, texts []string) ([][]float64, error) {
	resp, err := httpclient.Post[embeddingsResponse](ctx, e.client, "/embeddings",
		embeddingsRequest{Model: e.model, Input: texts, Dimensions: e.dimensions})
	if err != nil {
		return nil, err
	}
	data := resp.Data.Data
	if len(data) != len(texts) {
		return nil, fmt.Errorf("semantic: %d embeddings for %d inputs", len(data), len(texts))
	}
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })
	out := make([][]float64, len(data))
	for i, d := range data {
		out[i] = d.Embedding
	}
	return out, nil
}
