package embedding

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// openAIMaxBatch is the input limit of the OpenAI /embeddings API.
const openAIMaxBatch = 2048

// OpenAIProvider serves any OpenAI-compatible /embeddings API through
// langchaingo. The model is fixed at construction time.
type OpenAIProvider struct {
	embedder embeddings.Embedder
	model    string
}

// NewOpenAIProvider builds a provider from cfg. An empty endpoint means the
// public OpenAI API.
func NewOpenAIProvider(cfg Config) (*OpenAIProvider, error) {
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, openai.WithBaseURL(cfg.Endpoint))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("[OpenAI] create client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(false))
	if err != nil {
		return nil, fmt.Errorf("[OpenAI] create embedder: %w", err)
	}
	return &OpenAIProvider{embedder: embedder, model: cfg.Model}, nil
}

func (p *OpenAIProvider) MaxBatchSize() int { return openAIMaxBatch }

// CreateEmbeddings embeds texts with the configured model. The input type
// has no equivalent in the OpenAI API and is ignored.
func (p *OpenAIProvider) CreateEmbeddings(ctx context.Context, texts []string, strategy EmbeddingStrategy) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if strategy.Model != "" && strategy.Model != p.model {
		return nil, fmt.Errorf("[OpenAI] provider is bound to model %q, got %q", p.model, strategy.Model)
	}

	vectors, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("[OpenAI] embed: %w", err)
	}
	return vectors, nil
}
