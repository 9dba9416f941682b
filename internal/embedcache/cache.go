// Package embedcache stores embedding vectors in badger so that re-running
// ingestion over unchanged content does not call the embedding API again.
package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/Aleph-Alpha/bookrag/pkg/embedding"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// Config enables the cache. With neither Dir nor InMemory set the cache is off.
type Config struct {
	Dir      string `yaml:"dir" envconfig:"EMBEDDING_CACHE_DIR"`
	InMemory bool   `yaml:"in_memory" envconfig:"EMBEDDING_CACHE_IN_MEMORY"`
}

func (c Config) Enabled() bool {
	return c.Dir != "" || c.InMemory
}

// Logger defines the logging operations used by the cache.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Embedder is the upstream the cache forwards misses to.
type Embedder interface {
	CreateEmbeddings(ctx context.Context, texts []string, inputType embedding.InputType) ([][]float32, error)
}

// Cache decorates an Embedder. Vectors are keyed by model, input type and
// text, so switching models never serves stale vectors.
type Cache struct {
	db     *badger.DB
	next   Embedder
	model  string
	logger Logger
}

// New opens the badger store described by cfg.
func New(cfg Config, next Embedder, model string, logger Logger) (*Cache, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
		opts = badger.DefaultOptions(cfg.Dir)
	}
	opts.Logger = &badgerLogger{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open embedding cache: %w", err)
	}

	logger.Info("embedding cache opened", nil, map[string]interface{}{
		"dir":       cfg.Dir,
		"in_memory": cfg.InMemory,
	})
	return &Cache{db: db, next: next, model: model, logger: logger}, nil
}

// CreateEmbeddings serves cached vectors and forwards all misses to the
// upstream embedder in one call.
func (c *Cache) CreateEmbeddings(ctx context.Context, texts []string, inputType embedding.InputType) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	keys := make([][]byte, len(texts))
	for i, t := range texts {
		keys[i] = c.key(inputType, t)
	}

	var missing []int
	err := c.db.View(func(txn *badger.Txn) error {
		for i, k := range keys {
			item, err := txn.Get(k)
			if errors.Is(err, badger.ErrKeyNotFound) {
				missing = append(missing, i)
				continue
			}
			if err != nil {
				return err
			}
			if err := item.Value(func(v []byte) error {
				vec, err := decodeVector(v)
				out[i] = vec
				return err
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read embedding cache: %w", err)
	}

	c.logger.Debug("embedding cache lookup", nil, map[string]interface{}{
		"hits":   len(texts) - len(missing),
		"misses": len(missing),
	})
	if len(missing) == 0 {
		return out, nil
	}

	missTexts := make([]string, len(missing))
	for j, i := range missing {
		missTexts[j] = texts[i]
	}
	vectors, err := c.next.CreateEmbeddings(ctx, missTexts, inputType)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missing) {
		return nil, fmt.Errorf("got %d vectors for %d texts: %w", len(vectors), len(missing), embedding.ErrCountMismatch)
	}

	wb := c.db.NewWriteBatch()
	defer wb.Cancel()
	for j, i := range missing {
		out[i] = vectors[j]
		if err := wb.Set(keys[i], encodeVector(vectors[j])); err != nil {
			c.logger.Warn("failed to stage embedding for cache", err, nil)
			return out, nil
		}
	}
	if err := wb.Flush(); err != nil {
		c.logger.Warn("failed to write embeddings to cache", err, nil)
	}
	return out, nil
}

// CreateEmbedding embeds a single text through the cache.
func (c *Cache) CreateEmbedding(ctx context.Context, text string, inputType embedding.InputType) ([]float32, error) {
	vectors, err := c.CreateEmbeddings(ctx, []string{text}, inputType)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Close flushes and closes the badger store.
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) key(inputType embedding.InputType, text string) []byte {
	h := sha256.New()
	h.Write([]byte(c.model))
	h.Write([]byte{'|'})
	h.Write([]byte(inputType))
	h.Write([]byte{'|'})
	h.Write([]byte(text))
	return h.Sum(nil)
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("corrupt cached vector of %d bytes", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}

type badgerLogger struct {
	logger Logger
}

var _ badger.Logger = (*badgerLogger)(nil)

func (b *badgerLogger) Errorf(msg string, items ...interface{}) {
	b.logger.Error(fmt.Sprintf(msg, items...), nil)
}

func (b *badgerLogger) Warningf(msg string, items ...interface{}) {
	b.logger.Warn(fmt.Sprintf(msg, items...), nil)
}

// Infof is demoted to debug; badger reports every compaction at info.
func (b *badgerLogger) Infof(msg string, items ...interface{}) {
	b.logger.Debug(fmt.Sprintf(msg, items...), nil)
}

func (b *badgerLogger) Debugf(msg string, items ...interface{}) {
	b.logger.Debug(fmt.Sprintf(msg, items...), nil)
}
