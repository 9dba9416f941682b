package qdrant

import "time"

const (
	DefaultPort       = 6334
	DefaultCollection = "book_content"
	DefaultVectorSize = 1024
	DefaultBatchSize  = 100
)

// Config holds connection and collection settings for the Qdrant gRPC client.
type Config struct {
	// Endpoint is either a bare host ("localhost") or a URL such as
	// "https://xyz.cloud.qdrant.io". A https scheme enables TLS.
	Endpoint string `yaml:"endpoint" envconfig:"QDRANT_URL"`

	// Port is the gRPC port. Defaults to 6334.
	Port int `yaml:"port" envconfig:"QDRANT_PORT"`

	ApiKey string `yaml:"api_key" envconfig:"QDRANT_API_KEY"`

	// UseTLS forces TLS even when Endpoint carries no scheme.
	UseTLS bool `yaml:"use_tls" envconfig:"QDRANT_USE_TLS"`

	// Collection is the collection holding book chunks.
	Collection string `yaml:"collection" envconfig:"QDRANT_COLLECTION"`

	// VectorSize must match the embedding model dimension
	// (1024 for Cohere embed-english-v3.0).
	VectorSize uint64 `yaml:"vector_size" envconfig:"EMBEDDING_DIMENSION"`

	// BatchSize bounds the number of points sent in one upsert call.
	BatchSize int `yaml:"batch_size" envconfig:"QDRANT_BATCH_SIZE"`

	// Timeout bounds the initial health check.
	Timeout time.Duration `yaml:"timeout" envconfig:"QDRANT_TIMEOUT"`

	CheckCompatibility bool `yaml:"check_compatibility" envconfig:"QDRANT_CHECK_COMPATIBILITY"`
}

// DefaultConfig returns a Config pointing at a local Qdrant instance.
func DefaultConfig() Config {
	return Config{
		Endpoint:   "localhost",
		Port:       DefaultPort,
		Collection: DefaultCollection,
		VectorSize: DefaultVectorSize,
		BatchSize:  DefaultBatchSize,
		Timeout:    3 * time.Second,
	}
}
