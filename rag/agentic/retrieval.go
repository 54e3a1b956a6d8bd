package agentic

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"

	docerrors "github.com/sweetpotato0/docqa/errors"
	"github.com/sweetpotato0/docqa/rag/document"
	"github.com/sweetpotato0/docqa/runner"
)

// Retriever is the nearest-neighbour search capability. Search returns at
// most k passages ordered by ascending distance.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]document.Passage, error)
}

// RetrieverFunc adapts a plain function into a Retriever.
type RetrieverFunc func(ctx context.Context, query string, k int) ([]document.Passage, error)

// Search calls f(ctx, query, k).
func (f RetrieverFunc) Search(ctx context.Context, query string, k int) ([]document.Passage, error) {
	return f(ctx, query, k)
}

// Dispatcher runs one retrieval per retrieval subtask, in parallel, and
// returns the contexts in subtask order.
type Dispatcher struct {
	retriever Retriever
	runner    *runner.ParallelRunner
	topK      int
	weakAbove float64
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher requesting topK passages per subtask.
func NewDispatcher(r Retriever, topK, maxParallel int, weakAbove float64, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		retriever: r,
		runner:    runner.NewParallelRunner(maxParallel),
		topK:      topK,
		weakAbove: weakAbove,
		logger:    logger,
	}
}

// RetrieveFor returns one Context per retrieval subtask ordered by subtask
// index. Failed or empty retrievals produce a degraded Context; they never
// abort the turn.
func (d *Dispatcher) RetrieveFor(ctx context.Context, subtasks []Subtask) []Context {
	var targets []Subtask
	for _, st := range subtasks {
		if st.Kind == KindRetrieval {
			targets = append(targets, st)
		}
	}
	slices.SortStableFunc(targets, func(a, b Subtask) int { return cmp.Compare(a.Index, b.Index) })

	tasks := make([]runner.Task[[]document.Passage], len(targets))
	for i, st := range targets {
		query := st.Text
		tasks[i] = runner.Task[[]document.Passage]{
			ID: strconv.Itoa(st.Index),
			Run: func(ctx context.Context) ([]document.Passage, error) {
				return d.retriever.Search(ctx, query, d.topK)
			},
		}
	}
	results := runner.RunParallel(ctx, d.runner, tasks)

	contexts := make([]Context, len(targets))
	for i, st := range targets {
		c := Context{SubtaskIndex: st.Index}
		res := results[i]
		switch {
		case res.Err != nil:
			c.Degraded = true
			c.Error = fmt.Errorf("%w: %w", docerrors.ErrRetrieval, res.Err).Error()
		case len(res.Value) == 0:
			c.Degraded = true
			c.Error = "no passages retrieved"
		default:
			c.Chunks = d.rank(res.Value)
		}
		if c.Degraded {
			d.logger.Warn("retrieval degraded", "subtask", st.Index, "reason", c.Error)
		} else {
			d.logger.Debug("retrieval completed", "subtask", st.Index, "hits", len(c.Chunks))
		}
		contexts[i] = c
	}
	return contexts
}

// rank orders passages by ascending distance, keeps at most topK and
// assigns 1-based ranks.
func (d *Dispatcher) rank(passages []document.Passage) []RetrievedChunk {
	sorted := slices.Clone(passages)
	slices.SortStableFunc(sorted, func(a, b document.Passage) int {
		return cmp.Compare(sanitizeDistance(a.Distance), sanitizeDistance(b.Distance))
	})
	if d.topK > 0 && len(sorted) > d.topK {
		sorted = sorted[:d.topK]
	}
	chunks := make([]RetrievedChunk, len(sorted))
	for i, p := range sorted {
		dist := sanitizeDistance(p.Distance)
		chunks[i] = RetrievedChunk{
			Text:     p.Text,
			Distance: dist,
			Rank:     i + 1,
			Weak:     d.weakAbove > 0 && dist > d.weakAbove,
		}
	}
	return chunks
}

// sanitizeDistance keeps distances finite and non-negative so turns stay
// JSON encodable. Undefined distances sort last.
func sanitizeDistance(d float64) float64 {
	if math.IsNaN(d) || math.IsInf(d, 1) {
		return math.MaxFloat64
	}
	if d < 0 {
		return 0
	}
	return d
}
