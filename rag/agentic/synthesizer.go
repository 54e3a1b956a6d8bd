package agentic

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/sweetpotato0/docqa/agent"
	docerrors "github.com/sweetpotato0/docqa/errors"
	"github.com/sweetpotato0/docqa/prompt"
	"github.com/sweetpotato0/docqa/rag/tokenizer"
)

// SynthesisInput is everything one synthesis call reads. Revision calls set
// Previous and Feedback.
type SynthesisInput struct {
	Question   string
	Complexity Complexity
	Subtasks   []Subtask
	Chunks     []RetrievedChunk
	History    []prompt.Exchange
	Round      int
	Previous   *Answer
	Feedback   *CritiqueResult
}

// Synthesizer builds answer prompts and makes one generation call per answer.
type Synthesizer struct {
	draft     agent.Generator
	revise    agent.Generator
	prompts   *prompt.Manager
	tokenizer tokenizer.Tokenizer
	budget    int
	clock     atomic.Uint64
}

// NewSynthesizer creates a synthesizer. draft serves round 0 and revise
// serves every later round.
func NewSynthesizer(draft, revise agent.Generator, prompts *prompt.Manager, tok tokenizer.Tokenizer, budget int) *Synthesizer {
	if prompts == nil {
		prompts = prompt.NewDefaultManager()
	}
	if tok == nil {
		tok = tokenizer.NewSimpleTokenizer()
	}
	return &Synthesizer{
		draft:     draft,
		revise:    agent.Pick(revise, draft),
		prompts:   prompts,
		tokenizer: tok,
		budget:    budget,
	}
}

// Prepare merges contexts in subtask order, drops repeated passages and
// keeps the best-ranked chunks that fit the token budget. A chunk is never
// cut; selection stops at the first chunk that does not fit. Kept chunks
// come back in merge order.
func (s *Synthesizer) Prepare(contexts []Context) []RetrievedChunk {
	ordered := slices.Clone(contexts)
	slices.SortStableFunc(ordered, func(a, b Context) int { return cmp.Compare(a.SubtaskIndex, b.SubtaskIndex) })

	var union []RetrievedChunk
	seen := make(map[string]struct{})
	for _, c := range ordered {
		for _, ch := range c.Chunks {
			if _, dup := seen[ch.Text]; dup {
				continue
			}
			seen[ch.Text] = struct{}{}
			union = append(union, ch)
		}
	}

	priority := make([]int, len(union))
	for i := range priority {
		priority[i] = i
	}
	slices.SortStableFunc(priority, func(a, b int) int { return cmp.Compare(union[a].Rank, union[b].Rank) })

	keep := make([]bool, len(union))
	used := 0
	for _, i := range priority {
		n := s.tokenizer.CountTokens(union[i].Text)
		if s.budget > 0 && used+n > s.budget {
			break
		}
		used += n
		keep[i] = true
	}

	out := make([]RetrievedChunk, 0, len(union))
	for i, ch := range union {
		if keep[i] {
			out = append(out, ch)
		}
	}
	return out
}

// Synthesize renders the answer (or revise) prompt and calls the generator
// once. It does not modify its input.
func (s *Synthesizer) Synthesize(ctx context.Context, in SynthesisInput) (Answer, error) {
	data := prompt.AnswerData{
		Question: in.Question,
		Contexts: chunkTexts(in.Chunks),
		History:  in.History,
	}
	if in.Complexity.Label == Complex {
		for _, st := range in.Subtasks {
			switch st.Kind {
			case KindRetrieval:
				data.SubQuestions = append(data.SubQuestions, st.Text)
			case KindSynthesis:
				data.Instruction = st.Text
			}
		}
	}

	name, gen := prompt.AnswerTemplate, s.draft
	if in.Round > 0 {
		name, gen = prompt.ReviseTemplate, s.revise
		if in.Previous != nil {
			data.PreviousAnswer = in.Previous.Text
		}
		data.Feedback = feedbackLines(in.Feedback)
	}

	text, err := s.prompts.Render(name, data)
	if err != nil {
		return Answer{}, fmt.Errorf("render %s prompt: %w", name, err)
	}
	out, err := gen.Generate(ctx, text)
	if err != nil {
		return Answer{}, fmt.Errorf("%w: round %d: %w", docerrors.ErrGeneration, in.Round, err)
	}
	return Answer{
		Text:       strings.TrimSpace(out),
		Round:      in.Round,
		ProducedAt: s.clock.Add(1),
	}, nil
}

func feedbackLines(c *CritiqueResult) []string {
	if c == nil {
		return nil
	}
	lines := c.FailedChecks()
	if fb := strings.TrimSpace(c.ModelFeedback); fb != "" {
		lines = append(lines, "reviewer: "+fb)
	}
	if len(lines) == 0 {
		lines = []string{"score below threshold"}
	}
	return lines
}

func chunkTexts(chunks []RetrievedChunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}
