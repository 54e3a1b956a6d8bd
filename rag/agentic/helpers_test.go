package agentic

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sweetpotato0/docqa/rag/document"
)

type reply struct {
	text string
	err  error
}

// scriptedGenerator replays a fixed queue of replies and records prompts.
type scriptedGenerator struct {
	mu      sync.Mutex
	replies []reply
	prompts []string
}

func script(replies ...reply) *scriptedGenerator {
	return &scriptedGenerator{replies: replies}
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if len(g.replies) == 0 {
		return "", errors.New("script exhausted")
	}
	r := g.replies[0]
	g.replies = g.replies[1:]
	return r.text, r.err
}

func (g *scriptedGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

func (g *scriptedGenerator) prompt(i int) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.prompts[i]
}

// staticRetriever answers from a fixed query -> passages table.
type staticRetriever struct {
	passages map[string][]document.Passage
	errs     map[string]error
	delays   map[string]time.Duration
	calls    atomic.Int32
}

func (r *staticRetriever) Search(ctx context.Context, query string, k int) ([]document.Passage, error) {
	r.calls.Add(1)
	if d := r.delays[query]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := r.errs[query]; err != nil {
		return nil, err
	}
	return r.passages[query], nil
}

const (
	methodologyPassage = "The methodology uses a transformer trained on news articles."
	limitationPassage  = "A limitation is the small evaluation set of two hundred samples."
	datasetPassage     = "The authors use the SQuAD dataset for evaluation."

	// Scores 6: misses both key terms and disclaims the context.
	weakDraft = "The transformer trained on news articles is not mentioned."
	// Scores 7: covers the question but is barely grounded.
	fairRevision = "The methodology and limitations involve zebras, volcanoes, pianos, glaciers, and comets."
)

func paperRetriever() *staticRetriever {
	return &staticRetriever{
		passages: map[string][]document.Passage{
			"Explain the methodology":    {{Text: methodologyPassage, Distance: 0.2}},
			"Limitations":                {{Text: limitationPassage, Distance: 0.4}},
			"What dataset did they use?": {{Text: datasetPassage, Distance: 0.1}},
		},
	}
}
