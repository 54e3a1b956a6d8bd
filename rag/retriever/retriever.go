package retriever

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/sweetpotato0/docqa/pkg/logging"
	"github.com/sweetpotato0/docqa/rag/chunking"
	"github.com/sweetpotato0/docqa/rag/document"
	"github.com/sweetpotato0/docqa/vector"
)

// Retriever is the retrieval service used by the dispatcher: it indexes
// documents as passages and answers nearest-neighbour queries over them.
type Retriever struct {
	store    vector.VectorStore
	embedder vector.Embedder
	chunker  chunking.Chunker
	logger   *slog.Logger

	mu        sync.RWMutex
	documents map[string]document.Document
}

// Option customizes a Retriever.
type Option func(*Retriever)

// WithLogger overrides the retriever logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Retriever) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a retriever. A nil chunker defaults to chunking.NewSimpleChunker.
func New(store vector.VectorStore, emb vector.Embedder, chunker chunking.Chunker, opts ...Option) *Retriever {
	if chunker == nil {
		chunker = chunking.NewSimpleChunker()
	}
	r := &Retriever{
		store:     store,
		embedder:  emb,
		chunker:   chunker,
		logger:    logging.WithComponent("retriever"),
		documents: make(map[string]document.Document),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// IndexDocuments chunks, embeds and stores every document.
func (r *Retriever) IndexDocuments(ctx context.Context, docs ...document.Document) error {
	if r.store == nil || r.embedder == nil {
		return errors.New("retriever not fully configured")
	}

	for _, doc := range docs {
		doc.EnsureID()
		chunks, err := r.chunker.Chunk(ctx, doc)
		if err != nil {
			return fmt.Errorf("chunk document %s: %w", doc.ID, err)
		}
		if len(chunks) == 0 {
			continue
		}

		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Content
		}
		vecs, err := r.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed document %s: %w", doc.ID, err)
		}
		if len(vecs) != len(chunks) {
			return fmt.Errorf("embed document %s: expected %d vectors, got %d", doc.ID, len(chunks), len(vecs))
		}

		for i, chunk := range chunks {
			if err := r.store.AddEmbedding(ctx, &vector.Embedding{
				ID:     chunk.ID,
				Vector: vecs[i],
				Text:   chunk.Content,
			}); err != nil {
				return fmt.Errorf("store chunk %s: %w", chunk.ID, err)
			}
		}

		r.mu.Lock()
		r.documents[doc.ID] = doc.Clone()
		r.mu.Unlock()
		r.logger.Debug("document indexed", "document_id", doc.ID, "chunks", len(chunks))
	}
	return nil
}

// Search returns up to k passages nearest to query, closest first.
// Negative or NaN distances from the store are clamped to zero.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]document.Passage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("query cannot be empty")
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if r.store == nil || r.embedder == nil {
		return nil, errors.New("retriever not fully configured")
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := r.store.Search(ctx, queryVec, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	out := make([]document.Passage, 0, len(hits))
	for _, hit := range hits {
		d := hit.Distance
		if d < 0 || math.IsNaN(d) {
			d = 0
		}
		out = append(out, document.Passage{Text: hit.Text, Distance: d})
	}
	return out, nil
}

// Document fetches an indexed document by ID.
func (r *Retriever) Document(id string) (document.Document, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.documents[id]
	return doc.Clone(), ok
}

// Clear drops all indexed state.
func (r *Retriever) Clear(ctx context.Context) error {
	if r.store != nil {
		if err := r.store.Clear(ctx); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents = make(map[string]document.Document)
	return nil
}

// Count returns the number of indexed passages.
func (r *Retriever) Count(ctx context.Context) (int, error) {
	if r.store == nil {
		return 0, nil
	}
	return r.store.Count(ctx)
}
