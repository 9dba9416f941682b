// Package rag answers questions about the book: it embeds the question,
// retrieves the closest chunks and asks the language model to answer from
// them.
package rag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Aleph-Alpha/bookrag/internal/vectorstore"
	"github.com/Aleph-Alpha/bookrag/pkg/embedding"
	"github.com/Aleph-Alpha/bookrag/pkg/metrics"
	"github.com/Aleph-Alpha/bookrag/pkg/tracer"
)

//go:generate mockgen -source=service.go -destination=mock_ports_test.go -package=rag

const DefaultTopK = 7

var (
	ErrEmbedding  = errors.New("failed to generate query embedding")
	ErrGeneration = errors.New("failed to generate a response from the language model")
)

type Config struct {
	TopK int `yaml:"top_k" envconfig:"TOP_K_RESULTS"`
}

// Embedder embeds a single query.
type Embedder interface {
	CreateEmbedding(ctx context.Context, text string, inputType embedding.InputType) ([]float32, error)
}

// Searcher returns the nearest chunks for a vector.
type Searcher interface {
	Search(ctx context.Context, vector []float32, limit int) ([]vectorstore.Hit, error)
}

// Generator produces the answer from a system and a user prompt.
type Generator interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type Service struct {
	embedder  Embedder
	searcher  Searcher
	generator Generator
	topK      int
	metrics   *metrics.Metrics
	tracer    *tracer.Tracer
	logger    Logger
}

func NewService(cfg Config, embedder Embedder, searcher Searcher, generator Generator,
	m *metrics.Metrics, tr *tracer.Tracer, logger Logger) *Service {
	topK := cfg.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Service{
		embedder:  embedder,
		searcher:  searcher,
		generator: generator,
		topK:      topK,
		metrics:   m,
		tracer:    tr,
		logger:    logger,
	}
}

// Answer runs the three chat stages. A failed search is not fatal: the
// model is asked to answer without context instead.
func (s *Service) Answer(ctx context.Context, question, selectedText string) (string, error) {
	ctx, span := s.tracer.StartSpan(ctx, "chat")
	defer span.End()

	s.logger.InfoWithContext(ctx, "received question", nil, map[string]interface{}{
		"question":      question,
		"selected_text": selectedText != "",
	})

	vector, err := stage(ctx, s, "embed", func(ctx context.Context) ([]float32, error) {
		return s.embedder.CreateEmbedding(ctx, question, embedding.InputSearchQuery)
	})
	if err != nil {
		s.tracer.RecordErrorOnSpan(span, err)
		s.logger.ErrorWithContext(ctx, "error generating query embedding", err)
		return "", fmt.Errorf("%w: %w", ErrEmbedding, err)
	}

	hits, err := stage(ctx, s, "search", func(ctx context.Context) ([]vectorstore.Hit, error) {
		return s.searcher.Search(ctx, vector, s.topK)
	})
	if err != nil {
		s.logger.ErrorWithContext(ctx, "error retrieving context, answering without it", err)
		hits = nil
	}

	chunks := make([]string, 0, len(hits))
	for _, h := range hits {
		chunks = append(chunks, h.Payload.Content)
	}
	s.logger.InfoWithContext(ctx, "retrieved context chunks", nil, map[string]interface{}{"count": len(chunks)})
	s.tracer.SetAttributes(span, map[string]interface{}{"context_chunks": len(chunks)})

	prompt := userPrompt(question, buildContext(selectedText, chunks))
	answer, err := stage(ctx, s, "generate", func(ctx context.Context) (string, error) {
		return s.generator.Complete(ctx, systemPrompt, prompt)
	})
	if err != nil {
		s.tracer.RecordErrorOnSpan(span, err)
		s.logger.ErrorWithContext(ctx, "error generating LLM response", err)
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	return answer, nil
}

// stage runs fn in a child span and records its latency.
func stage[T any](ctx context.Context, s *Service, name string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := s.tracer.StartSpan(ctx, "chat."+name)
	defer span.End()

	start := time.Now()
	out, err := fn(ctx)
	s.metrics.ObserveStage(name, time.Since(start), err)
	s.tracer.RecordErrorOnSpan(span, err)
	return out, err
}
