package qdrant

import (
	"context"
	"fmt"
	"slices"

	"github.com/qdrant/go-client/qdrant"
)

// Point is a single vector with its payload.
// ID must be a UUID string or an unsigned integer in decimal form.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// SearchResult is one scored hit of a nearest-neighbour query.
type SearchResult struct {
	ID      string
	Score   float32
	Payload map[string]any
}

// EnsureCollection creates the collection with cosine distance and the
// given vector size unless a collection with that name already exists.
// An existing collection is left untouched even if its size differs.
func (c *Client) EnsureCollection(ctx context.Context, name string, size uint64) error {
	if name == "" {
		return fmt.Errorf("[Qdrant] collection name cannot be empty")
	}
	if size == 0 {
		return fmt.Errorf("[Qdrant] vector size must be positive")
	}

	collections, err := c.api.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("[Qdrant] failed to list collections: %w", err)
	}

	if slices.Contains(collections, name) {
		c.logger.Info("[Qdrant] collection already exists, skipping creation", nil, map[string]interface{}{"collection": name})
		return nil
	}

	err = c.api.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     size,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("[Qdrant] failed to create collection '%s': %w", name, err)
	}

	c.logger.Info("[Qdrant] collection created", nil, map[string]interface{}{"collection": name, "size": size})
	return nil
}

// Upsert writes points in batches of Config.BatchSize, waiting for each
// batch to be applied before sending the next one. It stops at the first
// failing batch; earlier batches stay written.
func (c *Client) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	for start := 0; start < len(points); start += c.cfg.BatchSize {
		end := min(start+c.cfg.BatchSize, len(points))

		if err := c.upsertBatch(ctx, collection, points[start:end]); err != nil {
			return fmt.Errorf("[Qdrant] batch upsert failed at [%d:%d]: %w", start, end, err)
		}
		c.logger.Info("[Qdrant] upserted points", nil, map[string]interface{}{
			"collection": collection,
			"count":      end - start,
		})
	}
	return nil
}

func (c *Client) upsertBatch(ctx context.Context, collection string, batch []Point) error {
	points := make([]*qdrant.PointStruct, 0, len(batch))
	for _, p := range batch {
		payload, err := qdrant.TryValueMap(p.Payload)
		if err != nil {
			return fmt.Errorf("invalid payload for point %s: %w", p.ID, err)
		}
		id, err := toPointID(p.ID)
		if err != nil {
			return err
		}
		points = append(points, &qdrant.PointStruct{
			Id:      id,
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: payload,
		})
	}

	wait := true
	_, err := c.api.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         points,
		Wait:           &wait,
	})
	return err
}

// Search returns up to limit points nearest to vector, payload included,
// ordered by descending score.
func (c *Client) Search(ctx context.Context, collection string, vector []float32, limit int) ([]SearchResult, error) {
	if err := validateSearchInput(vector, limit); err != nil {
		return nil, err
	}

	l := uint64(limit)
	resp, err := c.api.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &l,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] search failed: %w", err)
	}

	results := make([]SearchResult, 0, len(resp))
	for _, r := range resp {
		id, err := pointIDString(r.GetId())
		if err != nil {
			return nil, err
		}
		results = append(results, SearchResult{
			ID:      id,
			Score:   r.GetScore(),
			Payload: payloadToMap(r.GetPayload()),
		})
	}

	c.logger.Debug("[Qdrant] search completed", nil, map[string]interface{}{
		"collection": collection,
		"results":    len(results),
	})
	return results, nil
}

// Count returns the exact number of points stored in collection.
func (c *Client) Count(ctx context.Context, collection string) (uint64, error) {
	exact := true
	n, err := c.api.Count(ctx, &qdrant.CountPoints{
		CollectionName: collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("[Qdrant] count failed: %w", err)
	}
	return n, nil
}

// DeleteCollection drops the collection and all of its points.
func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	if err := c.api.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("[Qdrant] failed to delete collection '%s': %w", name, err)
	}
	c.logger.Info("[Qdrant] collection deleted", nil, map[string]interface{}{"collection": name})
	return nil
}
