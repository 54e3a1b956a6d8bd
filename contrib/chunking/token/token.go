package token

import (
	"context"

	"github.com/sweetpotato0/docqa/rag/document"
	"github.com/sweetpotato0/docqa/rag/tokenizer"
)

// Chunker windows a document by token count. Windows are cut on token
// boundaries and keep the original whitespace between tokens, so no
// passage ends mid-word.
type Chunker struct {
	maxTokens     int
	overlapTokens int
}

// Option customises the token chunker.
type Option func(*Chunker)

// WithMaxTokens sets the maximum tokens per chunk (default 128).
func WithMaxTokens(tokens int) Option {
	return func(c *Chunker) {
		if tokens > 0 {
			c.maxTokens = tokens
		}
	}
}

// WithOverlapTokens sets how many tokens consecutive chunks share.
func WithOverlapTokens(tokens int) Option {
	return func(c *Chunker) {
		if tokens >= 0 {
			c.overlapTokens = tokens
		}
	}
}

// New creates a new token-aware chunker.
func New(opts ...Option) *Chunker {
	ch := &Chunker{maxTokens: 128, overlapTokens: 16}
	for _, opt := range opts {
		opt(ch)
	}
	if ch.overlapTokens >= ch.maxTokens {
		ch.overlapTokens = 0
	}
	return ch
}

// Chunk implements chunking.Chunker.
func (c *Chunker) Chunk(ctx context.Context, doc document.Document) ([]document.Chunk, error) {
	doc.EnsureID()
	spans := tokenizer.Spans(doc.Content)

	var chunks []document.Chunk
	for start := 0; start < len(spans); {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+c.maxTokens, len(spans))
		text := doc.Content[spans[start].Start:spans[end-1].End]
		chunks = append(chunks, doc.NewChunk(len(chunks), text, nil))
		if end == len(spans) {
			break
		}
		start = end - c.overlapTokens
	}
	return chunks, nil
}
