// Package vectorstore adapts the vector backends to the point and hit shapes
// used by ingestion and chat.
package vectorstore

import (
	"context"

	"github.com/Aleph-Alpha/bookrag/internal/chunker"
	"github.com/google/uuid"
)

//go:generate mockgen -source=store.go -destination=mock_store.go -package=vectorstore

const (
	BackendQdrant  = "qdrant"
	BackendChromem = "chromem"
)

// Payload keys as stored alongside every vector.
const (
	keyContent      = "content"
	keySourceFile   = "source_file"
	keyBookPart     = "book_part"
	keyChapterTitle = "chapter_title"
)

// pointNamespace seeds the deterministic point IDs. Changing it orphans
// every point already in the collection.
var pointNamespace = uuid.MustParse("f2b4e2c8-4235-4a53-9a74-419b334a9b70")

// Store is the subset of vector database operations the service needs.
type Store interface {
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, points []Point) error
	Search(ctx context.Context, vector []float32, limit int) ([]Hit, error)
	Count(ctx context.Context) (uint64, error)
}

type Payload struct {
	Content      string
	SourceFile   string
	BookPart     string
	ChapterTitle string
}

type Point struct {
	ID      string
	Vector  []float32
	Payload Payload
}

type Hit struct {
	ID      string
	Score   float32
	Payload Payload
}

// PointID derives a stable UUIDv5 from the chunk content and its source,
// so re-ingesting unchanged content overwrites instead of duplicating.
func PointID(content, sourceFile string) string {
	return uuid.NewSHA1(pointNamespace, []byte(content+sourceFile)).String()
}

// NewPoint builds the point for a chunk and its vector.
func NewPoint(c chunker.Chunk, vector []float32) Point {
	return Point{
		ID:     PointID(c.Content, c.SourceFile),
		Vector: vector,
		Payload: Payload{
			Content:      c.Content,
			SourceFile:   c.SourceFile,
			BookPart:     c.BookPart,
			ChapterTitle: c.ChapterTitle,
		},
	}
}

// Config selects the backend.
type Config struct {
	// Backend is "qdrant" or "chromem".
	Backend string `yaml:"backend" envconfig:"VECTOR_STORE"`

	// ChromemDir persists the chromem collection as gob files. Empty keeps
	// it in memory only.
	ChromemDir string `yaml:"chromem_dir" envconfig:"CHROMEM_PERSIST_DIR"`

	ChromemCompress bool `yaml:"chromem_compress" envconfig:"CHROMEM_COMPRESS"`
}

// toMap stores an empty book part as null, so the key is always present.
func (p Payload) toMap() map[string]any {
	var bookPart any
	if p.BookPart != "" {
		bookPart = p.BookPart
	}
	return map[string]any{
		keyContent:      p.Content,
		keySourceFile:   p.SourceFile,
		keyBookPart:     bookPart,
		keyChapterTitle: p.ChapterTitle,
	}
}

// payloadFromMap reads missing and null values as empty strings.
func payloadFromMap(m map[string]any) Payload {
	str := func(k string) string {
		s, _ := m[k].(string)
		return s
	}
	return Payload{
		Content:      str(keyContent),
		SourceFile:   str(keySourceFile),
		BookPart:     str(keyBookPart),
		ChapterTitle: str(keyChapterTitle),
	}
}
