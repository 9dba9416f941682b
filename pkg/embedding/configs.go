package embedding

import (
	"fmt"
	"time"
)

const (
	ProviderCohere = "cohere"
	ProviderOpenAI = "openai"

	DefaultModel       = "embed-english-v3.0"
	DefaultCohereURL   = "https://api.cohere.com"
	DefaultConcurrency = 4
	DefaultHTTPTimeout = 30 * time.Second
)

type Config struct {
	// Provider selects the backend: "cohere" or "openai" (any
	// OpenAI-compatible /embeddings API).
	Provider string `yaml:"provider" envconfig:"EMBEDDING_PROVIDER"`

	APIKey string `yaml:"api_key" envconfig:"EMBEDDING_API_KEY"`

	// Endpoint is the API base URL. Empty means the provider default.
	Endpoint string `yaml:"endpoint" envconfig:"EMBEDDING_ENDPOINT"`

	Model string `yaml:"model" envconfig:"EMBEDDING_MODEL"`

	// Truncate is forwarded to providers that support it.
	Truncate string `yaml:"truncate" envconfig:"EMBEDDING_TRUNCATE"`

	// HTTPTimeoutS is the per-request timeout in seconds.
	HTTPTimeoutS int `yaml:"http_timeout_seconds" envconfig:"EMBEDDING_HTTP_TIMEOUT_SECONDS"`

	// Concurrency bounds the number of batches in flight.
	Concurrency int `yaml:"concurrency" envconfig:"EMBEDDING_CONCURRENCY"`
}

// DefaultConfig returns the Cohere configuration used by the book index.
func DefaultConfig() Config {
	return Config{
		Provider:     ProviderCohere,
		Model:        DefaultModel,
		Truncate:     "END",
		HTTPTimeoutS: int(DefaultHTTPTimeout / time.Second),
		Concurrency:  DefaultConcurrency,
	}
}

func (c Config) Validate() error {
	switch c.Provider {
	case ProviderCohere, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Provider)
	}
	if c.APIKey == "" {
		return fmt.Errorf("%s embedding provider requires EMBEDDING_API_KEY", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("embedding model must be set")
	}
	return nil
}

func (c Config) httpTimeout() time.Duration {
	if c.HTTPTimeoutS <= 0 {
		return DefaultHTTPTimeout
	}
	return time.Duration(c.HTTPTimeoutS) * time.Second
}
