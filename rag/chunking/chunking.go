package chunking

import (
	"context"
	"maps"
	"strings"

	"github.com/sweetpotato0/docqa/rag/document"
)

// Chunker splits a document into passages for the index.
type Chunker interface {
	Chunk(ctx context.Context, doc document.Document) ([]document.Chunk, error)
}

// Func adapts a plain function to Chunker.
type Func func(ctx context.Context, doc document.Document) ([]document.Chunk, error)

func (f Func) Chunk(ctx context.Context, doc document.Document) ([]document.Chunk, error) {
	return f(ctx, doc)
}

// SimpleChunker cuts at paragraph separators and windows any paragraph
// longer than size runes. Lengths are in runes, never bytes.
type SimpleChunker struct {
	size     int
	overlap  int
	sep      string
	copyMeta bool
}

type Option func(*SimpleChunker)

func WithChunkSize(size int) Option {
	return func(c *SimpleChunker) {
		if size > 0 {
			c.size = size
		}
	}
}

// WithOverlap sets how many runes consecutive windows of one paragraph share.
func WithOverlap(overlap int) Option {
	return func(c *SimpleChunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

func WithSeparator(sep string) Option {
	return func(c *SimpleChunker) {
		if sep != "" {
			c.sep = sep
		}
	}
}

// WithMetadataCopy controls whether chunks carry the document metadata.
func WithMetadataCopy(enabled bool) Option {
	return func(c *SimpleChunker) { c.copyMeta = enabled }
}

// NewSimpleChunker defaults to 600 rune passages with 80 runes of overlap,
// split on blank lines.
func NewSimpleChunker(opts ...Option) *SimpleChunker {
	c := &SimpleChunker{size: 600, overlap: 80, sep: "\n\n", copyMeta: true}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.size {
		c.overlap = c.size / 4
	}
	return c
}

func (c *SimpleChunker) Chunk(ctx context.Context, doc document.Document) ([]document.Chunk, error) {
	doc.EnsureID()
	var out []document.Chunk
	for _, para := range strings.Split(doc.Content, c.sep) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, w := range windows([]rune(strings.TrimSpace(para)), c.size, c.overlap) {
			var meta map[string]any
			if c.copyMeta {
				meta = maps.Clone(doc.Metadata)
			}
			out = append(out, doc.NewChunk(len(out), w, meta))
		}
	}
	return out, nil
}

// windows slices text into pieces of at most size runes, each starting
// overlap runes before the previous one ended.
func windows(text []rune, size, overlap int) []string {
	var out []string
	for len(text) > size {
		out = append(out, string(text[:size]))
		text = text[size-overlap:]
	}
	if len(text) > 0 {
		out = append(out, string(text))
	}
	return out
}
