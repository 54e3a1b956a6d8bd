package agentic

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	docerrors "github.com/sweetpotato0/docqa/errors"
	"github.com/sweetpotato0/docqa/prompt"
	"github.com/sweetpotato0/docqa/rag/tokenizer"
)

func TestSynthesizerPrepare(t *testing.T) {
	contexts := []Context{
		{SubtaskIndex: 1, Chunks: []RetrievedChunk{
			{Text: "beta one two", Rank: 1},
			{Text: "shared passage", Rank: 2},
		}},
		{SubtaskIndex: 0, Chunks: []RetrievedChunk{
			{Text: "alpha one two", Rank: 1},
			{Text: "shared passage", Rank: 2},
			{Text: "gamma one two three", Rank: 3},
		}},
		{SubtaskIndex: 2, Degraded: true},
	}

	t.Run("dedupes in subtask order", func(t *testing.T) {
		s := NewSynthesizer(script(), nil, nil, nil, 100)
		got := chunkTexts(s.Prepare(contexts))
		want := []string{"alpha one two", "shared passage", "gamma one two three", "beta one two"}
		if !slices.Equal(got, want) {
			t.Fatalf("Prepare() = %q, want %q", got, want)
		}
	})

	t.Run("budget keeps best ranks whole", func(t *testing.T) {
		// alpha(3) + beta(3) + shared(2) = 8; gamma(4) does not fit in 9.
		s := NewSynthesizer(script(), nil, nil, tokenizer.NewSimpleTokenizer(), 9)
		got := chunkTexts(s.Prepare(contexts))
		want := []string{"alpha one two", "shared passage", "beta one two"}
		if !slices.Equal(got, want) {
			t.Fatalf("Prepare() = %q, want %q", got, want)
		}
	})

	t.Run("stops at first chunk over budget", func(t *testing.T) {
		s := NewSynthesizer(script(), nil, nil, tokenizer.NewSimpleTokenizer(), 5)
		got := chunkTexts(s.Prepare(contexts))
		want := []string{"alpha one two"}
		if !slices.Equal(got, want) {
			t.Fatalf("Prepare() = %q, want %q", got, want)
		}
	})

	t.Run("does not mutate input", func(t *testing.T) {
		s := NewSynthesizer(script(), nil, nil, nil, 100)
		s.Prepare(contexts)
		if contexts[0].SubtaskIndex != 1 {
			t.Fatal("Prepare reordered caller contexts")
		}
	})
}

func TestSynthesizeDraftAndRevision(t *testing.T) {
	gen := script(reply{text: "  draft answer  "}, reply{text: "better answer"})
	s := NewSynthesizer(gen, nil, prompt.NewDefaultManager(), nil, 100)
	subtasks := []Subtask{
		{Index: 0, Text: "Explain the methodology", Kind: KindRetrieval},
		{Index: 1, Text: "Limitations", Kind: KindRetrieval},
		{Index: 2, Text: "Combine and summarize findings.", Kind: KindSynthesis},
	}
	in := SynthesisInput{
		Question:   "Explain the methodology and limitations.",
		Complexity: Complexity{Label: Complex, Reason: "limitations"},
		Subtasks:   subtasks,
		Chunks:     []RetrievedChunk{{Text: methodologyPassage, Rank: 1}},
		History:    []prompt.Exchange{{Question: "Earlier?", Answer: "Earlier answer."}},
	}

	draft, err := s.Synthesize(context.Background(), in)
	if err != nil {
		t.Fatalf("draft: %v", err)
	}
	if draft.Text != "draft answer" || draft.Round != 0 {
		t.Fatalf("unexpected draft: %+v", draft)
	}
	p := gen.prompt(0)
	for _, want := range []string{"- Explain the methodology", "- Limitations", "Combine and summarize findings.", "[1] " + methodologyPassage, "Q: Earlier?"} {
		if !strings.Contains(p, want) {
			t.Errorf("draft prompt missing %q:\n%s", want, p)
		}
	}

	in.Round = 1
	in.Previous = &draft
	in.Feedback = &CritiqueResult{
		Score: 4,
		Checks: map[string]CheckResult{
			CheckCoverage: {Detail: "missing: limitations"},
			CheckLength:   {Passed: true, Detail: "ok"},
		},
		ModelFeedback: "Mention the sample size.",
	}
	rev, err := s.Synthesize(context.Background(), in)
	if err != nil {
		t.Fatalf("revision: %v", err)
	}
	if rev.Round != 1 || rev.ProducedAt <= draft.ProducedAt {
		t.Fatalf("unexpected revision stamp: draft=%+v rev=%+v", draft, rev)
	}
	p = gen.prompt(1)
	for _, want := range []string{"Your previous answer was:\ndraft answer", "- coverage: missing: limitations", "- reviewer: Mention the sample size."} {
		if !strings.Contains(p, want) {
			t.Errorf("revise prompt missing %q:\n%s", want, p)
		}
	}
	if strings.Contains(p, "length: ok") {
		t.Error("passed checks must not be sent as feedback")
	}
}

func TestSynthesizeSimpleOmitsSubQuestions(t *testing.T) {
	gen := script(reply{text: "answer"})
	s := NewSynthesizer(gen, nil, nil, nil, 100)
	_, err := s.Synthesize(context.Background(), SynthesisInput{
		Question:   "What dataset did they use?",
		Complexity: Complexity{Label: Simple},
		Subtasks:   []Subtask{{Index: 0, Text: "What dataset did they use?", Kind: KindRetrieval}},
	})
	if err != nil {
		t.Fatal(err)
	}
	p := gen.prompt(0)
	if strings.Contains(p, "Address each part") {
		t.Fatalf("simple prompt lists sub-questions:\n%s", p)
	}
	if !strings.Contains(p, "(no context was retrieved)") {
		t.Fatalf("expected empty-context marker:\n%s", p)
	}
}

func TestSynthesizeWrapsGenerationErrors(t *testing.T) {
	cause := errors.New("upstream 503")
	s := NewSynthesizer(script(reply{err: cause}), nil, nil, nil, 100)
	_, err := s.Synthesize(context.Background(), SynthesisInput{Question: "q"})
	if !errors.Is(err, docerrors.ErrGeneration) || !errors.Is(err, cause) {
		t.Fatalf("expected ErrGeneration wrapping cause, got %v", err)
	}
}
