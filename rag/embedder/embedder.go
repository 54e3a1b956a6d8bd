package embedder

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/sweetpotato0/docqa/rag/tokenizer"
	"github.com/sweetpotato0/docqa/vector"
)

// HashingEmbedder is an offline bag-of-words embedder. Each lowercased token
// is hashed into one of Dimension buckets and the result is L2-normalized,
// so texts sharing vocabulary land close together. Used when no embedding
// provider is configured.
type HashingEmbedder struct {
	dim int
}

var _ vector.Embedder = (*HashingEmbedder)(nil)

// NewHashingEmbedder creates an embedder with dim buckets (default 256).
func NewHashingEmbedder(dim int) *HashingEmbedder {
	if dim <= 0 {
		dim = 256
	}
	return &HashingEmbedder{dim: dim}
}

// Dimension return number of embedding dimensions
func (e *HashingEmbedder) Dimension() int {
	return e.dim
}

// Embed converts text to a vector embedding
func (e *HashingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float32, e.dim)
	for _, sp := range tokenizer.Spans(text) {
		tok := strings.ToLower(text[sp.Start:sp.End])
		if len(tok) == 1 && !isWordByte(tok[0]) {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[h.Sum32()%uint32(e.dim)]++
	}
	return vector.Normalize(vec), nil
}

// EmbedBatch converts multiple texts to embeddings
func (e *HashingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}
