package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// cohereMaxBatch is the per-request text limit of the /v1/embed API.
const cohereMaxBatch = 96

// CohereProvider calls Cohere's /v1/embed endpoint.
type CohereProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type cohereEmbedRequest struct {
	Texts          []string `json:"texts"`
	Model          string   `json:"model"`
	InputType      string   `json:"input_type,omitempty"`
	EmbeddingTypes []string `json:"embedding_types"`
	Truncate       string   `json:"truncate,omitempty"`
}

type cohereEmbedResponse struct {
	ID         string          `json:"id"`
	Embeddings json.RawMessage `json:"embeddings"`
}

// NewCohereProvider builds a provider from cfg. An empty endpoint means
// the public Cohere API.
func NewCohereProvider(cfg Config) *CohereProvider {
	base := cfg.Endpoint
	if base == "" {
		base = DefaultCohereURL
	}
	return &CohereProvider{
		baseURL:    strings.TrimRight(base, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.httpTimeout()},
	}
}

func (p *CohereProvider) MaxBatchSize() int { return cohereMaxBatch }

// CreateEmbeddings embeds texts in a single request.
func (p *CohereProvider) CreateEmbeddings(ctx context.Context, texts []string, strategy EmbeddingStrategy) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := cohereEmbedRequest{
		Texts:          texts,
		Model:          strategy.Model,
		InputType:      string(strategy.InputType),
		EmbeddingTypes: []string{"float"},
		Truncate:       strategy.Truncate,
	}

	var resp cohereEmbedResponse
	if err := postJSON(ctx, p.httpClient, p.baseURL+"/v1/embed", p.apiKey, req, &resp); err != nil {
		return nil, fmt.Errorf("[Cohere] embed: %w", err)
	}

	vectors, err := decodeCohereEmbeddings(resp.Embeddings)
	if err != nil {
		return nil, fmt.Errorf("[Cohere] decode embeddings: %w", err)
	}
	return vectors, nil
}

// Close releases idle keep-alive connections.
func (p *CohereProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

// decodeCohereEmbeddings accepts both the typed response shape
// ({"float": [[...]]}) and the legacy bare array ([[...]]).
func decodeCohereEmbeddings(raw json.RawMessage) ([][]float32, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("response has no embeddings")
	}

	if raw[0] == '[' {
		var legacy [][]float32
		if err := json.Unmarshal(raw, &legacy); err != nil {
			return nil, err
		}
		return legacy, nil
	}

	var typed struct {
		Float [][]float32 `json:"float"`
	}
	if err := json.Unmarshal(raw, &typed); err != nil {
		return nil, err
	}
	if typed.Float == nil {
		return nil, fmt.Errorf("response has no float embeddings")
	}
	return typed.Float, nil
}
