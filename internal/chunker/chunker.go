// Package chunker splits markdown documents into overlapping, paragraph
// aligned chunks and derives book metadata from file paths.
package chunker

import (
	"fmt"
	"strings"
)

const (
	DefaultSize    = 700
	DefaultOverlap = 100

	paragraphSep = "\n\n"
)

// Chunk is one piece of a source document ready for embedding.
type Chunk struct {
	Content      string
	SourceFile   string
	BookPart     string
	ChapterTitle string
}

// Chunker splits text into chunks of about Size characters. A chunk opened
// by an overflowing paragraph starts with the last Overlap characters of the
// previous chunk's buffer, a blank line, then the paragraph.
// Lengths are counted in Unicode code points.
type Chunker struct {
	size    int
	overlap int
}

// New validates the bounds and returns a Chunker.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Size returns the configured chunk size.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Split breaks text into chunks. Paragraphs (separated by a blank line) are
// packed greedily; a chunk is closed when the next paragraph would push it
// past the size limit, and the new chunk starts with the tail of the closed
// one. Paragraphs longer than the limit are cut into fixed windows.
//
// Every chunk carries the metadata derived from path.
func (c *Chunker) Split(text, path string) []Chunk {
	bookPart, chapterTitle := ExtractMetadata(path)

	var (
		chunks []Chunk
		buf    []rune
	)
	emit := func(content []rune) {
		s := strings.TrimSpace(string(content))
		if s == "" {
			return
		}
		chunks = append(chunks, Chunk{
			Content:      s,
			SourceFile:   path,
			BookPart:     bookPart,
			ChapterTitle: chapterTitle,
		})
	}

	for _, paragraph := range strings.Split(text, paragraphSep) {
		if strings.TrimSpace(paragraph) == "" {
			continue
		}
		p := []rune(paragraph)

		if len(buf)+len(p)+len(paragraphSep) <= c.size {
			buf = append(buf, p...)
			buf = append(buf, []rune(paragraphSep)...)
			continue
		}

		if len(buf) > 0 {
			emit(buf)
			if len(p) <= c.size {
				next := append([]rune{}, tail(buf, c.overlap)...)
				next = append(next, []rune(paragraphSep)...)
				next = append(next, p...)
				buf = append(next, []rune(paragraphSep)...)
				continue
			}
		}

		for _, window := range c.windows(p) {
			emit(window)
		}
		buf = append(append([]rune{}, tail(p, c.overlap)...), []rune(paragraphSep)...)
	}

	if len(buf) > 0 {
		emit(buf)
	}
	return chunks
}

// windows cuts p into slices of at most size runes, each starting
// size-overlap runes after the previous one.
func (c *Chunker) windows(p []rune) [][]rune {
	step := c.size - c.overlap
	var out [][]rune
	for i := 0; i < len(p); i += step {
		out = append(out, p[i:min(i+c.size, len(p))])
	}
	return out
}

func tail(r []rune, n int) []rune {
	if n <= 0 {
		return nil
	}
	if len(r) <= n {
		return r
	}
	return r[len(r)-n:]
}
