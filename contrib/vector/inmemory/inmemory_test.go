package inmemory

import (
	"context"
	"testing"

	"github.com/sweetpotato0/docqa/vector"
)

func TestInMemoryVectorStore(t *testing.T) {
	store := NewInMemoryVectorStore()
	ctx := context.Background()

	t.Run("rejects invalid embeddings", func(t *testing.T) {
		if err := store.AddEmbedding(ctx, nil); err == nil {
			t.Error("expected error for nil embedding")
		}
		if err := store.AddEmbedding(ctx, &vector.Embedding{Vector: []float32{1}}); err == nil {
			t.Error("expected error for empty ID")
		}
		if err := store.AddEmbedding(ctx, &vector.Embedding{ID: "x"}); err == nil {
			t.Error("expected error for empty vector")
		}
	})

	t.Run("search orders by ascending distance", func(t *testing.T) {
		_ = store.Clear(ctx)
		for _, emb := range []*vector.Embedding{
			{ID: "far", Text: "orange", Vector: []float32{0, 0, 3}},
			{ID: "near", Text: "apple", Vector: []float32{1, 0, 0}},
			{ID: "mid", Text: "banana", Vector: []float32{0, 1, 0}},
		} {
			if err := store.AddEmbedding(ctx, emb); err != nil {
				t.Fatalf("AddEmbedding failed: %v", err)
			}
		}

		hits, err := store.Search(ctx, []float32{1, 0, 0}, 2)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(hits) != 2 {
			t.Fatalf("expected 2 hits, got %d", len(hits))
		}
		if hits[0].ID != "near" || hits[0].Distance != 0 {
			t.Fatalf("expected exact match first, got %s (%v)", hits[0].ID, hits[0].Distance)
		}
		if hits[1].ID != "mid" || hits[1].Distance <= hits[0].Distance {
			t.Fatalf("expected mid second with larger distance, got %s (%v)", hits[1].ID, hits[1].Distance)
		}
	})

	t.Run("ties keep insertion order", func(t *testing.T) {
		_ = store.Clear(ctx)
		_ = store.AddEmbedding(ctx, &vector.Embedding{ID: "a", Vector: []float32{0, 1}})
		_ = store.AddEmbedding(ctx, &vector.Embedding{ID: "b", Vector: []float32{1, 0}})

		hits, err := store.Search(ctx, []float32{0, 0}, 5)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(hits) != 2 || hits[0].ID != "a" || hits[1].ID != "b" {
			t.Fatalf("unexpected tie order: %+v", hits)
		}
	})

	t.Run("replace keeps count", func(t *testing.T) {
		_ = store.Clear(ctx)
		_ = store.AddEmbedding(ctx, &vector.Embedding{ID: "a", Text: "v1", Vector: []float32{1}})
		_ = store.AddEmbedding(ctx, &vector.Embedding{ID: "a", Text: "v2", Vector: []float32{1}})
		n, _ := store.Count(ctx)
		if n != 1 {
			t.Fatalf("expected 1 embedding, got %d", n)
		}
		hits, _ := store.Search(ctx, []float32{1}, 1)
		if hits[0].Text != "v2" {
			t.Fatalf("expected replaced text, got %q", hits[0].Text)
		}
	})

	t.Run("empty query vector", func(t *testing.T) {
		if _, err := store.Search(ctx, nil, 3); err == nil {
			t.Fatal("expected error for empty query")
		}
	})
}
