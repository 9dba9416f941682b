package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/philippgille/chromem-go"
)

var errNoEmbeddingFunc = errors.New("chromem store only accepts precomputed embeddings")

// ChromemStore keeps points in an embedded chromem-go collection. It is
// meant for local runs and tests without a Qdrant server.
type ChromemStore struct {
	db   *chromem.DB
	name string

	mu         sync.Mutex
	collection *chromem.Collection
}

// NewChromemStore opens a persistent DB when cfg.ChromemDir is set and an
// in-memory one otherwise.
func NewChromemStore(cfg Config, collection string) (*ChromemStore, error) {
	db := chromem.NewDB()
	if cfg.ChromemDir != "" {
		var err error
		db, err = chromem.NewPersistentDB(cfg.ChromemDir, cfg.ChromemCompress)
		if err != nil {
			return nil, fmt.Errorf("open chromem db: %w", err)
		}
	}
	return &ChromemStore{db: db, name: collection}, nil
}

func (s *ChromemStore) EnsureCollection(_ context.Context) error {
	_, err := s.getCollection()
	return err
}

func (s *ChromemStore) getCollection() (*chromem.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collection != nil {
		return s.collection, nil
	}
	col, err := s.db.GetOrCreateCollection(s.name, nil, rejectEmbedding)
	if err != nil {
		return nil, fmt.Errorf("get or create collection %q: %w", s.name, err)
	}
	s.collection = col
	return col, nil
}

// Upsert adds the points; a document with an existing ID is replaced.
func (s *ChromemStore) Upsert(ctx context.Context, points []Point) error {
	col, err := s.getCollection()
	if err != nil {
		return err
	}
	docs := make([]chromem.Document, len(points))
	for i, p := range points {
		docs[i] = chromem.Document{
			ID:        p.ID,
			Content:   p.Payload.Content,
			Embedding: p.Vector,
			Metadata: map[string]string{
				keySourceFile:   p.Payload.SourceFile,
				keyBookPart:     p.Payload.BookPart,
				keyChapterTitle: p.Payload.ChapterTitle,
			},
		}
	}
	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

// Search returns at most limit hits. chromem rejects a result count larger
// than the collection, so the limit is clamped.
func (s *ChromemStore) Search(ctx context.Context, vector []float32, limit int) ([]Hit, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("search limit must be positive, got %d", limit)
	}
	col, err := s.getCollection()
	if err != nil {
		return nil, err
	}
	n := min(limit, col.Count())
	if n == 0 {
		return nil, nil
	}

	results, err := col.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}
	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = Hit{
			ID:    r.ID,
			Score: r.Similarity,
			Payload: Payload{
				Content:      r.Content,
				SourceFile:   r.Metadata[keySourceFile],
				BookPart:     r.Metadata[keyBookPart],
				ChapterTitle: r.Metadata[keyChapterTitle],
			},
		}
	}
	return hits, nil
}

func (s *ChromemStore) Count(_ context.Context) (uint64, error) {
	col, err := s.getCollection()
	if err != nil {
		return 0, err
	}
	return uint64(col.Count()), nil
}

func rejectEmbedding(context.Context, string) ([]float32, error) {
	return nil, errNoEmbeddingFunc
}
