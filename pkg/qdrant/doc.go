// Package qdrant is a thin wrapper around the official Qdrant Go client
// (github.com/qdrant/go-client) used as the remote vector index for book
// chunks.
//
// # Core Features
//
//   - EnsureCollection: create a cosine-distance collection if missing
//   - Upsert: batched point writes that wait for each batch to be applied
//   - Search: nearest-neighbour query returning payloads
//   - Count and DeleteCollection for maintenance
//   - Health check on client creation, bounded by Config.Timeout
//
// # Basic Usage
//
//	client, err := qdrant.NewClient(qdrant.Config{
//		Endpoint: "localhost",
//		Port:     6334,
//	}, log)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	if err := client.EnsureCollection(ctx, "book_content", 1024); err != nil {
//		return err
//	}
//
// # Writing Points
//
// Point IDs must be UUID strings or unsigned integers in decimal form.
// Upsert splits the slice into Config.BatchSize batches and waits until each
// batch is applied, so a following Search sees the new points.
//
//	points := []qdrant.Point{
//		{
//			ID:     "5b0e8f0a-6a39-5b8e-9d36-3b1f1f8f2c11",
//			Vector: vector,
//			Payload: map[string]any{
//				"content":       "ROS 2 nodes communicate over topics.",
//				"source_file":   "docs/Part-I-Foundations/week-3-ros-2-nodes.md",
//				"book_part":     "Part I: Foundations",
//				"chapter_title": "Week 3: ROS 2 Nodes",
//			},
//		},
//	}
//	if err := client.Upsert(ctx, "book_content", points); err != nil {
//		return err
//	}
//
// A nil payload value is stored as a Qdrant null and comes back as nil.
//
// # Searching
//
//	hits, err := client.Search(ctx, "book_content", queryVector, 7)
//	if err != nil {
//		return err
//	}
//	for _, h := range hits {
//		fmt.Printf("%s %.3f %v\n", h.ID, h.Score, h.Payload["chapter_title"])
//	}
//
// Search rejects an empty vector and a non-positive limit before any call
// is made.
//
// # Endpoints
//
// Endpoint accepts a bare host ("qdrant"), a host with a port
// ("xyz.cloud.qdrant.io:6333") or a URL ("https://xyz.cloud.qdrant.io").
// Any port in the endpoint is dropped because it usually names the REST
// port; the gRPC port always comes from Config.Port (6334 by default).
// A https scheme or Config.UseTLS enables TLS.
//
// # Configuration
//
// Config fields load from YAML or from the environment:
//
//	QDRANT_URL=https://xyz.cloud.qdrant.io
//	QDRANT_PORT=6334
//	QDRANT_API_KEY=...
//	QDRANT_COLLECTION=book_content
//	EMBEDDING_DIMENSION=1024
//	QDRANT_BATCH_SIZE=100
//
// # FX Module Integration
//
//	app := fx.New(
//		fx.Supply(cfg.Qdrant),
//		fx.Provide(func(l *logger.Logger) qdrant.Logger { return l }),
//		qdrant.FXModule,
//	)
//
// The module closes the gRPC connection when the application stops.
//
// # Thread Safety
//
// Client is safe for concurrent use; the underlying gRPC connection is shared.
package qdrant
