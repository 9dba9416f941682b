package vectorstore

import (
	"context"

	"github.com/Aleph-Alpha/bookrag/pkg/qdrant"
)

// QdrantStore keeps points in a single Qdrant collection.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	size       uint64
}

func NewQdrantStore(client *qdrant.Client) *QdrantStore {
	cfg := client.Config()
	return &QdrantStore{client: client, collection: cfg.Collection, size: cfg.VectorSize}
}

func (s *QdrantStore) EnsureCollection(ctx context.Context) error {
	return s.client.EnsureCollection(ctx, s.collection, s.size)
}

func (s *QdrantStore) Upsert(ctx context.Context, points []Point) error {
	qp := make([]qdrant.Point, len(points))
	for i, p := range points {
		qp[i] = qdrant.Point{ID: p.ID, Vector: p.Vector, Payload: p.Payload.toMap()}
	}
	return s.client.Upsert(ctx, s.collection, qp)
}

func (s *QdrantStore) Search(ctx context.Context, vector []float32, limit int) ([]Hit, error) {
	results, err := s.client.Search(ctx, s.collection, vector, limit)
	if err != nil {
		return nil, err
	}
	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = Hit{ID: r.ID, Score: r.Score, Payload: payloadFromMap(r.Payload)}
	}
	return hits, nil
}

func (s *QdrantStore) Count(ctx context.Context) (uint64, error) {
	return s.client.Count(ctx, s.collection)
}
