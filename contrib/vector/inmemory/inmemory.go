package inmemory

import (
	"context"
	"slices"
	"sync"

	"github.com/sweetpotato0/docqa/vector"
)

// InMemoryVectorStore keeps embeddings in insertion order and scans them
// exhaustively on Search.
type InMemoryVectorStore struct {
	mu         sync.RWMutex
	embeddings []*vector.Embedding
	index      map[string]int
}

// NewInMemoryVectorStore creates a new in-memory vector store
func NewInMemoryVectorStore() *InMemoryVectorStore {
	return &InMemoryVectorStore{index: make(map[string]int)}
}

// AddEmbedding inserts or replaces an embedding by ID.
func (s *InMemoryVectorStore) AddEmbedding(ctx context.Context, embedding *vector.Embedding) error {
	if err := vector.Check(embedding, 0); err != nil {
		return err
	}

	stored := &vector.Embedding{
		ID:     embedding.ID,
		Text:   embedding.Text,
		Vector: slices.Clone(embedding.Vector),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[stored.ID]; ok {
		s.embeddings[i] = stored
		return nil
	}
	s.index[stored.ID] = len(s.embeddings)
	s.embeddings = append(s.embeddings, stored)
	return nil
}

// Search returns up to topK embeddings by ascending L2 distance. Ties keep
// insertion order.
func (s *InMemoryVectorStore) Search(ctx context.Context, queryVector []float32, topK int) ([]*vector.Embedding, error) {
	if err := vector.CheckQuery(queryVector, 0); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 10
	}

	s.mu.RLock()
	hits := make([]*vector.Embedding, 0, len(s.embeddings))
	for _, emb := range s.embeddings {
		if len(emb.Vector) != len(queryVector) {
			continue
		}
		hits = append(hits, &vector.Embedding{
			ID:       emb.ID,
			Text:     emb.Text,
			Vector:   emb.Vector,
			Distance: vector.L2Distance(queryVector, emb.Vector),
		})
	}
	s.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(hits, vector.ByDistance)
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Clear removes all embeddings
func (s *InMemoryVectorStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.embeddings = nil
	s.index = make(map[string]int)
	return nil
}

// Count returns the number of embeddings
func (s *InMemoryVectorStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.embeddings), nil
}
