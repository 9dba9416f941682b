package embedding

import "context"

// InputType tells asymmetric embedding models which side of a retrieval
// pair a text belongs to.
type InputType string

const (
	// InputSearchDocument is used for chunks written to the index.
	InputSearchDocument InputType = "search_document"
	// InputSearchQuery is used for user questions at query time.
	InputSearchQuery InputType = "search_query"
)

// EmbeddingStrategy is the per-request description handed to a Provider.
type EmbeddingStrategy struct {
	Model     string
	InputType InputType
	// Truncate controls server-side truncation of over-long inputs
	// ("NONE", "START" or "END"). Ignored by providers without the option.
	Truncate string
}

// Provider is a single embedding backend. Implementations must return one
// vector per input text, in input order.
type Provider interface {
	CreateEmbeddings(ctx context.Context, texts []string, strategy EmbeddingStrategy) ([][]float32, error)

	// MaxBatchSize is the largest number of texts accepted by one call.
	MaxBatchSize() int
}
