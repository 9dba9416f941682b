package config

import (
	"errors"
	"fmt"

	"github.com/Aleph-Alpha/bookrag/internal/ingest"
	"github.com/Aleph-Alpha/bookrag/internal/jobs"
	"github.com/Aleph-Alpha/bookrag/internal/source"
	"github.com/Aleph-Alpha/bookrag/internal/vectorstore"
)

// ValidateServe checks what the chat and ingest API needs to start.
func (c Config) ValidateServe() error {
	return errors.Join(
		c.LLM.Validate(),
		c.validateIngest(),
		c.validateJobs(),
	)
}

// ValidateIngest checks what a one-shot ingestion run needs.
func (c Config) ValidateIngest() error {
	return c.validateIngest()
}

// ValidateWorker checks what the queue consumer needs.
func (c Config) ValidateWorker() error {
	var errs []error
	errs = append(errs, c.validateIngest())
	if c.Rabbit.Connection.Host == "" {
		errs = append(errs, errors.New("RABBIT_HOST must be set"))
	}
	return errors.Join(errs...)
}

// ValidateUpload checks the bucket settings used to publish a docs directory.
func (c Config) ValidateUpload() error {
	var errs []error
	if c.Minio.Connection.Endpoint == "" {
		errs = append(errs, errors.New("MINIO_ENDPOINT must be set"))
	}
	if c.Minio.Connection.BucketName == "" {
		errs = append(errs, errors.New("MINIO_BUCKET must be set"))
	}
	return errors.Join(errs...)
}

func (c Config) validateIngest() error {
	errs := []error{c.Embedding.Validate(), c.validateStore()}

	switch c.Source.Kind {
	case source.KindDir:
		if c.Source.Dir == "" {
			errs = append(errs, errors.New("DOCS_DIR must be set"))
		}
	case source.KindMinio:
		errs = append(errs, c.ValidateUpload())
	default:
		errs = append(errs, fmt.Errorf("unknown ingest source %q", c.Source.Kind))
	}

	switch c.Ingest.Ledger {
	case ingest.LedgerMemory, ingest.LedgerPostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown ingest ledger %q", c.Ingest.Ledger))
	}
	if c.Ingest.ChunkSize > 0 && c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		errs = append(errs, fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)",
			c.Ingest.ChunkOverlap, c.Ingest.ChunkSize))
	}
	return errors.Join(errs...)
}

func (c Config) validateStore() error {
	switch c.VectorStore.Backend {
	case vectorstore.BackendQdrant:
		if c.Qdrant.Endpoint == "" {
			return errors.New("QDRANT_URL must be set")
		}
		if c.Qdrant.VectorSize == 0 {
			return errors.New("EMBEDDING_DIMENSION must be positive")
		}
	case vectorstore.BackendChromem:
	default:
		return fmt.Errorf("unknown vector store %q", c.VectorStore.Backend)
	}
	return nil
}

func (c Config) validateJobs() error {
	switch c.Jobs.Dispatcher {
	case jobs.DispatcherPool:
		if c.Jobs.PoolSize < 0 || c.Jobs.QueueSize < 0 {
			return errors.New("JOB_POOL_SIZE and JOB_QUEUE_SIZE must not be negative")
		}
	case jobs.DispatcherRabbit:
		if c.Rabbit.Connection.Host == "" {
			return errors.New("RABBIT_HOST must be set when JOB_DISPATCHER is rabbit")
		}
	default:
		return fmt.Errorf("unknown job dispatcher %q", c.Jobs.Dispatcher)
	}
	return nil
}
