// Package config assembles the settings of every component from code
// defaults, an optional dotenv file, an optional yaml file and the
// environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/Aleph-Alpha/bookrag/internal/book"
	"github.com/Aleph-Alpha/bookrag/internal/embedcache"
	"github.com/Aleph-Alpha/bookrag/internal/ingest"
	"github.com/Aleph-Alpha/bookrag/internal/jobs"
	"github.com/Aleph-Alpha/bookrag/internal/llm"
	"github.com/Aleph-Alpha/bookrag/internal/rag"
	"github.com/Aleph-Alpha/bookrag/internal/server"
	"github.com/Aleph-Alpha/bookrag/internal/source"
	"github.com/Aleph-Alpha/bookrag/internal/vectorstore"
	"github.com/Aleph-Alpha/bookrag/pkg/embedding"
	"github.com/Aleph-Alpha/bookrag/pkg/logger"
	"github.com/Aleph-Alpha/bookrag/pkg/metrics"
	"github.com/Aleph-Alpha/bookrag/pkg/minio"
	"github.com/Aleph-Alpha/bookrag/pkg/postgres"
	"github.com/Aleph-Alpha/bookrag/pkg/qdrant"
	"github.com/Aleph-Alpha/bookrag/pkg/rabbit"
	"github.com/Aleph-Alpha/bookrag/pkg/tracer"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDocsDir = "my-robotics-book/docs"
	DefaultEnvFile = ".env"

	// legacyEmbeddingKey is read when EMBEDDING_API_KEY is unset.
	legacyEmbeddingKey = "COHERE_API_KEY"
)

type Config struct {
	Logger      logger.Config      `yaml:"logger"`
	Metrics     metrics.Config     `yaml:"metrics"`
	Tracer      tracer.Config      `yaml:"tracer"`
	Embedding   embedding.Config   `yaml:"embedding"`
	Cache       embedcache.Config  `yaml:"embedding_cache"`
	Qdrant      qdrant.Config      `yaml:"qdrant"`
	VectorStore vectorstore.Config `yaml:"vector_store"`
	Minio       minio.Config       `yaml:"minio"`
	Rabbit      rabbit.Config      `yaml:"rabbit"`
	Postgres    postgres.Config    `yaml:"postgres"`
	Source      source.Config      `yaml:"source"`
	Ingest      ingest.Config      `yaml:"ingest"`
	Jobs        jobs.Config        `yaml:"jobs"`
	RAG         rag.Config         `yaml:"rag"`
	LLM         llm.Config         `yaml:"llm"`
	Server      server.Config      `yaml:"server"`
	Book        book.Config        `yaml:"book"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Logger:      logger.Config{Level: logger.Info, ServiceName: logger.DefaultServiceName},
		Metrics:     metrics.Config{Address: metrics.DefaultMetricsAddress, Namespace: "bookrag", ServiceName: logger.DefaultServiceName},
		Tracer:      tracer.Config{ServiceName: logger.DefaultServiceName},
		Embedding:   embedding.DefaultConfig(),
		Qdrant:      qdrant.DefaultConfig(),
		VectorStore: vectorstore.Config{Backend: vectorstore.BackendQdrant},
		Minio: minio.Config{
			Connection: minio.ConnectionConfig{Endpoint: "localhost:9000", BucketName: "bookrag-docs"},
		},
		Rabbit:   rabbit.DefaultConfig(),
		Postgres: postgres.DefaultConfig(),
		Source:   source.Config{Kind: source.KindDir, Dir: DefaultDocsDir},
		Ingest:   ingest.DefaultConfig(),
		Jobs:     jobs.DefaultConfig(),
		RAG:      rag.Config{TopK: rag.DefaultTopK},
		LLM:      llm.DefaultConfig(),
		Server:   server.DefaultConfig(),
		Book:     book.DefaultConfig(),
	}
}

// Load reads envFile and yamlFile when present and applies environment
// overrides on top. Variables already set in the environment win over the
// dotenv file. A missing envFile is ignored; a missing yamlFile is an error
// only when it was named explicitly.
func Load(yamlFile, envFile string) (Config, error) {
	cfg := Default()

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	if yamlFile != "" {
		raw, err := os.ReadFile(yamlFile)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", yamlFile, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", yamlFile, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv processes each leaf struct on its own so that variable names are
// exactly the envconfig tags, without a parent field prefix.
func applyEnv(cfg *Config) error {
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = os.Getenv(legacyEmbeddingKey)
	}

	sections := []struct {
		name string
		target interface{}
	}{
		{"logger", &cfg.Logger},
		{"metrics", &cfg.Metrics},
		{"tracer", &cfg.Tracer},
		{"embedding", &cfg.Embedding},
		{"embedding_cache", &cfg.Cache},
		{"qdrant", &cfg.Qdrant},
		{"vector_store", &cfg.VectorStore},
		{"minio.connection", &cfg.Minio.Connection},
		{"minio.download", &cfg.Minio.DownloadConfig},
		{"rabbit.connection", &cfg.Rabbit.Connection},
		{"rabbit.channel", &cfg.Rabbit.Channel},
		{"rabbit.dead_letter", &cfg.Rabbit.DeadLetter},
		{"postgres.connection", &cfg.Postgres.Connection},
		{"postgres.connection_details", &cfg.Postgres.ConnectionDetails},
		{"source", &cfg.Source},
		{"ingest", &cfg.Ingest},
		{"jobs", &cfg.Jobs},
		{"rag", &cfg.RAG},
		{"llm", &cfg.LLM},
		{"server", &cfg.Server},
		{"book", &cfg.Book},
	}
	for _, s := range sections {
		if err := envconfig.Process("", s.target); err != nil {
			return fmt.Errorf("failed to read %s settings from environment: %w", s.name, err)
		}
	}
	return nil
}
