// Package embedding turns text into dense vectors through hosted embedding
// APIs.
//
// Two providers are available:
//
//   - cohere: Cohere's /v1/embed endpoint, called directly over HTTP. The
//     input type (search_document or search_query) is forwarded so the
//     asymmetric embed-english-v3.0 model places queries and documents in
//     the same space.
//   - openai: any OpenAI-compatible /embeddings endpoint, through langchaingo.
//
// Client sits in front of the provider. It splits large inputs into batches
// the provider accepts, embeds them concurrently with a bounded errgroup and
// checks that the number of vectors matches the number of texts.
//
// Basic Usage:
//
//	client, err := embedding.NewClient(embedding.Config{
//		Provider: embedding.ProviderCohere,
//		APIKey:   os.Getenv("COHERE_API_KEY"),
//		Model:    embedding.DefaultModel,
//	}, log)
//	vectors, err := client.CreateEmbeddings(ctx, chunks, embedding.InputSearchDocument)
//
// FX Module Integration:
//
//	app := fx.New(
//		fx.Supply(cfg.Embedding),
//		embedding.FXModule,
//	)
package embedding
