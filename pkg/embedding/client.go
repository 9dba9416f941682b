package embedding

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ErrCountMismatch is returned when a provider answers with a different
// number of vectors than texts were sent.
var ErrCountMismatch = errors.New("embedding count does not match input count")

// Logger defines the logging operations used by the embedding package.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Client splits requests into provider-sized batches, runs them with
// bounded concurrency and checks that every text got a vector.
type Client struct {
	provider    Provider
	model       string
	truncate    string
	concurrency int
	logger      Logger
}

// NewClient selects the provider named by cfg.Provider.
func NewClient(cfg Config, logger Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var provider Provider
	switch cfg.Provider {
	case ProviderOpenAI:
		p, err := NewOpenAIProvider(cfg)
		if err != nil {
			return nil, err
		}
		provider = p
	default:
		provider = NewCohereProvider(cfg)
	}

	return NewClientWithProvider(provider, cfg, logger), nil
}

// NewClientWithProvider builds a Client around an existing Provider.
func NewClientWithProvider(p Provider, cfg Config, logger Logger) *Client {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Client{
		provider:    p,
		model:       cfg.Model,
		truncate:    cfg.Truncate,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Model returns the configured embedding model name.
func (c *Client) Model() string {
	return c.model
}

// CreateEmbeddings returns one vector per text, in input order.
// Inputs larger than the provider batch limit are split and embedded
// concurrently; the first failing batch cancels the rest.
func (c *Client) CreateEmbeddings(ctx context.Context, texts []string, inputType InputType) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	strategy := EmbeddingStrategy{Model: c.model, InputType: inputType, Truncate: c.truncate}
	size := c.provider.MaxBatchSize()
	if size <= 0 {
		size = len(texts)
	}

	out := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		g.Go(func() error {
			vectors, err := c.provider.CreateEmbeddings(gctx, texts[start:end], strategy)
			if err != nil {
				return fmt.Errorf("batch [%d:%d]: %w", start, end, err)
			}
			if len(vectors) != end-start {
				return fmt.Errorf("batch [%d:%d]: got %d vectors: %w", start, end, len(vectors), ErrCountMismatch)
			}
			copy(out[start:end], vectors)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.logger.Debug("embeddings created", nil, map[string]interface{}{
		"count":      len(texts),
		"input_type": string(inputType),
	})
	return out, nil
}

// CreateEmbedding embeds a single text.
func (c *Client) CreateEmbedding(ctx context.Context, text string, inputType InputType) ([]float32, error) {
	vectors, err := c.CreateEmbeddings(ctx, []string{text}, inputType)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Close releases provider resources such as idle HTTP connections.
func (c *Client) Close() error {
	if closer, ok := c.provider.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
