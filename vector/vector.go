package vector

import (
	"context"
	"fmt"
	"math"

	docerrors "github.com/sweetpotato0/docqa/errors"
)

// Embedding is an indexed passage and its vector. Distance is populated by
// Search and is zero otherwise.
type Embedding struct {
	ID       string
	Vector   []float32
	Text     string
	Distance float64
}

// VectorStore stores embeddings and answers nearest-neighbour queries.
// Search returns hits ordered by ascending L2 distance.
type VectorStore interface {
	AddEmbedding(ctx context.Context, embedding *Embedding) error
	Search(ctx context.Context, queryVector []float32, topK int) ([]*Embedding, error)
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

// Embedder defines the interface for creating embeddings from text
type Embedder interface {
	// Embed converts text to a vector embedding
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts multiple texts to embeddings
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension return number of embedding dimensions
	Dimension() int
}

// Check rejects an embedding a store cannot index. dim 0 accepts any
// non-empty vector.
func Check(e *Embedding, dim int) error {
	switch {
	case e == nil:
		return fmt.Errorf("%w: nil embedding", docerrors.ErrInvalidInput)
	case e.ID == "":
		return fmt.Errorf("%w: embedding without id", docerrors.ErrInvalidInput)
	}
	if err := CheckQuery(e.Vector, dim); err != nil {
		return fmt.Errorf("embedding %s: %w", e.ID, err)
	}
	return nil
}

// CheckQuery applies the same vector rules to a search query.
func CheckQuery(vec []float32, dim int) error {
	switch {
	case len(vec) == 0:
		return fmt.Errorf("%w: empty vector", docerrors.ErrInvalidInput)
	case dim > 0 && len(vec) != dim:
		return fmt.Errorf("%w: vector has %d dimensions, index has %d", docerrors.ErrInvalidInput, len(vec), dim)
	}
	return nil
}

// ByDistance orders hits nearest first.
func ByDistance(a, b *Embedding) int {
	switch {
	case a.Distance < b.Distance:
		return -1
	case a.Distance > b.Distance:
		return 1
	}
	return 0
}

// L2DistanceOperator returns the pgvector operator for Euclidean distance.
func L2DistanceOperator() string {
	return "<->"
}

// L2Distance returns the Euclidean distance between two vectors of equal
// length. Mismatched lengths yield +Inf.
func L2Distance(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Normalize scales the vector to unit length (L2 norm).
func Normalize(vec []float32) []float32 {
	if len(vec) == 0 {
		return vec
	}
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}
