// Package ingest turns the markdown book into vectors: it lists documents
// from a source, chunks them, embeds the chunks and upserts the points. Each
// pass is recorded as a run in a Tracker.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Aleph-Alpha/bookrag/internal/chunker"
	"github.com/Aleph-Alpha/bookrag/internal/source"
	"github.com/Aleph-Alpha/bookrag/internal/vectorstore"
	"github.com/Aleph-Alpha/bookrag/pkg/embedding"
	"github.com/Aleph-Alpha/bookrag/pkg/metrics"
	"github.com/Aleph-Alpha/bookrag/pkg/tracer"
)

//go:generate mockgen -source=service.go -destination=mock_embedder_test.go -package=ingest

const (
	LedgerMemory   = "memory"
	LedgerPostgres = "postgres"

	DefaultBatchSize = 100
)

// ErrVectorMismatch aborts a run before anything is written when the
// embedder returned a different number of vectors than chunks were sent.
var ErrVectorMismatch = errors.New("number of embeddings does not match number of chunks")

// Config tunes chunking and selects the run ledger.
type Config struct {
	ChunkSize    int `yaml:"chunk_size" envconfig:"CHUNK_SIZE"`
	ChunkOverlap int `yaml:"chunk_overlap" envconfig:"CHUNK_OVERLAP"`

	// BatchSize bounds the points handed to the store per upsert call.
	BatchSize int `yaml:"batch_size" envconfig:"INGEST_BATCH_SIZE"`

	// Ledger is "memory" or "postgres".
	Ledger string `yaml:"ledger" envconfig:"INGEST_LEDGER"`
}

func DefaultConfig() Config {
	return Config{
		ChunkSize:    chunker.DefaultSize,
		ChunkOverlap: chunker.DefaultOverlap,
		BatchSize:    DefaultBatchSize,
		Ledger:       LedgerMemory,
	}
}

// Embedder embeds a batch of document texts.
type Embedder interface {
	CreateEmbeddings(ctx context.Context, texts []string, inputType embedding.InputType) ([][]float32, error)
}

type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Params groups the collaborators of a Service.
type Params struct {
	Source   source.Source
	Embedder Embedder
	Store    vectorstore.Store
	Tracker  Tracker
	Metrics  *metrics.Metrics
	Tracer   *tracer.Tracer
	Logger   Logger
}

type Service struct {
	source    source.Source
	chunker   *chunker.Chunker
	embedder  Embedder
	store     vectorstore.Store
	tracker   Tracker
	metrics   *metrics.Metrics
	tracer    *tracer.Tracer
	logger    Logger
	batchSize int
}

func NewService(cfg Config, p Params) (*Service, error) {
	ch, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	return &Service{
		source:    p.Source,
		chunker:   ch,
		embedder:  p.Embedder,
		store:     p.Store,
		tracker:   p.Tracker,
		metrics:   p.Metrics,
		tracer:    p.Tracer,
		logger:    p.Logger,
		batchSize: batch,
	}, nil
}

// Tracker returns the run ledger the service reports to.
func (s *Service) Tracker() Tracker {
	return s.tracker
}

// Run executes one ingestion pass and records its outcome under runID. A
// run unknown to the tracker is registered first, which happens when a
// worker picks up a job scheduled by another process.
func (s *Service) Run(ctx context.Context, runID string) (Report, error) {
	ctx, span := s.tracer.StartSpan(ctx, "ingest.run")
	defer span.End()
	s.tracer.SetAttributes(span, map[string]interface{}{"run_id": runID})

	fields := map[string]interface{}{"run_id": runID}
	s.markStarted(ctx, runID, fields)
	s.logger.Info("content ingestion started", nil, fields)

	started := time.Now()
	report, err := s.ingest(ctx)

	s.tracer.SetAttributes(span, map[string]interface{}{
		"files":    report.Files,
		"chunks":   report.Chunks,
		"upserted": report.Upserted,
		"skipped":  report.Skipped,
	})
	s.tracer.RecordErrorOnSpan(span, err)
	s.metrics.IncIngestRun(finishedStatus(err))

	if ferr := s.tracker.Finish(context.WithoutCancel(ctx), runID, report, err); ferr != nil {
		s.logger.Error("failed to record ingest run result", ferr, fields)
	}

	done := map[string]interface{}{
		"run_id":      runID,
		"files":       report.Files,
		"chunks":      report.Chunks,
		"upserted":    report.Upserted,
		"skipped":     report.Skipped,
		"duration_ms": time.Since(started).Milliseconds(),
	}
	if err != nil {
		s.logger.Error("content ingestion failed", err, done)
		return report, err
	}
	s.logger.Info("content ingestion finished", nil, done)
	return report, nil
}

func (s *Service) markStarted(ctx context.Context, runID string, fields map[string]interface{}) {
	err := s.tracker.Start(ctx, runID)
	if errors.Is(err, ErrRunNotFound) {
		if _, err = s.tracker.Create(ctx, runID); err == nil {
			err = s.tracker.Start(ctx, runID)
		}
	}
	if err != nil {
		s.logger.Warn("failed to record ingest run start", err, fields)
	}
}

func (s *Service) ingest(ctx context.Context) (Report, error) {
	var report Report

	if err := s.store.EnsureCollection(ctx); err != nil {
		return report, fmt.Errorf("ensure collection: %w", err)
	}

	names, err := s.source.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list documents: %w", err)
	}
	if len(names) == 0 {
		s.logger.Warn("no markdown files found", nil, nil)
		return report, nil
	}

	var chunks []chunker.Chunk
	for _, name := range names {
		body, err := s.source.Read(ctx, name)
		if err != nil {
			s.logger.Error("failed to read document, skipping", err, map[string]interface{}{"file": name})
			report.Skipped++
			continue
		}
		report.Files++
		chunks = append(chunks, s.chunker.Split(string(body), name)...)
	}
	report.Chunks = len(chunks)

	if len(chunks) == 0 {
		s.logger.Warn("no chunks produced from documents", nil, map[string]interface{}{"files": report.Files})
		return report, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := s.embedder.CreateEmbeddings(ctx, texts, embedding.InputSearchDocument)
	if err != nil {
		return report, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return report, fmt.Errorf("%w: %d embeddings for %d chunks", ErrVectorMismatch, len(vectors), len(chunks))
	}

	points := make([]vectorstore.Point, len(chunks))
	for i, c := range chunks {
		points[i] = vectorstore.NewPoint(c, vectors[i])
	}

	for start := 0; start < len(points); start += s.batchSize {
		end := min(start+s.batchSize, len(points))
		if err := s.store.Upsert(ctx, points[start:end]); err != nil {
			return report, fmt.Errorf("upsert points [%d:%d]: %w", start, end, err)
		}
		report.Upserted += end - start
		s.metrics.AddIngestedChunks(end - start)
		s.logger.Debug("upserted batch", nil, map[string]interface{}{"from": start, "to": end, "total": len(points)})
	}
	return report, nil
}
