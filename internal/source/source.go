// Package source lists and reads the markdown documents that make up the
// book, either from a local directory or from an object storage bucket.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Aleph-Alpha/bookrag/pkg/minio"
)

const (
	KindDir   = "dir"
	KindMinio = "minio"
)

// Extensions lists the suffixes treated as markdown documents.
var Extensions = []string{".md", ".mdx"}

// Config selects where documents come from.
type Config struct {
	Kind string `yaml:"kind" envconfig:"INGEST_SOURCE"`

	// Dir is the local documentation root.
	Dir string `yaml:"dir" envconfig:"DOCS_DIR"`

	// Prefix limits a bucket listing to keys below it.
	Prefix string `yaml:"prefix" envconfig:"INGEST_MINIO_PREFIX"`
}

// Source enumerates documents and reads them by the name List returned.
type Source interface {
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, name string) ([]byte, error)
}

// DirSource walks a directory tree.
type DirSource struct {
	root string
}

func NewDirSource(root string) *DirSource {
	return &DirSource{root: root}
}

// List returns every markdown file below the root in lexical order, with
// forward slashes so that path metadata extraction is platform neutral.
func (d *DirSource) List(ctx context.Context) ([]string, error) {
	info, err := os.Stat(d.root)
	if err != nil {
		return nil, fmt.Errorf("docs dir %q: %w", d.root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("docs dir %q is not a directory", d.root)
	}

	var names []string
	err = filepath.WalkDir(d.root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() || !isMarkdown(p) {
			return nil
		}
		names = append(names, filepath.ToSlash(p))
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(names)
	return names, nil
}

func (d *DirSource) Read(_ context.Context, name string) ([]byte, error) {
	return os.ReadFile(filepath.FromSlash(name))
}

// Root returns the directory being walked.
func (d *DirSource) Root() string {
	return d.root
}

// MinioSource reads documents from a bucket prefix.
type MinioSource struct {
	client *minio.Minio
	prefix string
}

func NewMinioSource(client *minio.Minio, prefix string) *MinioSource {
	return &MinioSource{client: client, prefix: prefix}
}

func (m *MinioSource) List(ctx context.Context) ([]string, error) {
	objects, err := m.client.List(ctx, m.prefix, Extensions...)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(objects))
	for i, o := range objects {
		names[i] = o.Key
	}
	slices.Sort(names)
	return names, nil
}

func (m *MinioSource) Read(ctx context.Context, name string) ([]byte, error) {
	return m.client.Get(ctx, name)
}

// Upload copies every document of from into the bucket below prefix,
// keeping paths relative to the directory root. It returns the number of
// objects written.
func Upload(ctx context.Context, from *DirSource, to *minio.Minio, prefix string) (int, error) {
	names, err := from.List(ctx)
	if err != nil {
		return 0, err
	}

	root := filepath.ToSlash(from.Root())
	uploaded := 0
	for _, name := range names {
		body, err := from.Read(ctx, name)
		if err != nil {
			return uploaded, fmt.Errorf("read %s: %w", name, err)
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(name, root), "/")
		key := path.Join(prefix, rel)
		if _, err := to.Put(ctx, key, bytes.NewReader(body), int64(len(body)), "text/markdown"); err != nil {
			return uploaded, fmt.Errorf("upload %s: %w", key, err)
		}
		uploaded++
	}
	return uploaded, nil
}

// New builds the source described by cfg. client may be nil unless
// cfg.Kind is "minio".
func New(cfg Config, client *minio.Minio) (Source, error) {
	switch cfg.Kind {
	case "", KindDir:
		if cfg.Dir == "" {
			return nil, errors.New("DOCS_DIR must be set for a directory source")
		}
		return NewDirSource(cfg.Dir), nil
	case KindMinio:
		if client == nil {
			return nil, errors.New("minio source requires a minio client")
		}
		return NewMinioSource(client, cfg.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown ingest source %q", cfg.Kind)
	}
}

func isMarkdown(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return slices.Contains(Extensions, ext)
}
