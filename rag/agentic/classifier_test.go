package agentic

import (
	"testing"
)

func TestClassifierEveryTriggerFires(t *testing.T) {
	c := NewClassifier(nil, 1)
	for _, rule := range DefaultVocabulary().Phrases {
		if rule.Effect != EffectTrigger {
			continue
		}
		q := "What about the " + rule.Phrase + " here?"
		got := c.Classify(q)
		if got.Label != Complex || got.Reason != rule.Phrase {
			t.Errorf("Classify(%q) = %+v, want COMPLEX/%q", q, got, rule.Phrase)
		}
	}
}

func TestClassifier(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     Complexity
	}{
		{
			name:     "limitations trigger",
			question: "Explain the methodology and limitations.",
			want:     Complexity{Label: Complex, Reason: "limitations"},
		},
		{
			name:     "case insensitive",
			question: "COMPARE the two models",
			want:     Complexity{Label: Complex, Reason: "compare"},
		},
		{
			name:     "earliest trigger wins",
			question: "What limitation shows up when you compare them?",
			want:     Complexity{Label: Complex, Reason: "limitation"},
		},
		{
			name:     "multi-word trigger",
			question: "List the advantages and disadvantages of pruning",
			want:     Complexity{Label: Complex, Reason: "advantages and disadvantages"},
		},
		{
			name:     "trigger needs word boundary",
			question: "What is the comparer used for?",
			want:     Complexity{Label: Simple},
		},
		{
			name:     "conjunction joins two spans",
			question: "What is the learning rate and batch size?",
			want:     Complexity{Label: Complex, Reason: ConjunctionReason},
		},
		{
			name:     "idiom is a single concept",
			question: "Describe the strengths and weaknesses.",
			want:     Complexity{Label: Simple},
		},
		{
			name:     "and with a trivial side",
			question: "What is it and how?",
			want:     Complexity{Label: Simple},
		},
		{
			name:     "and inside a word",
			question: "Which random seed was used?",
			want:     Complexity{Label: Simple},
		},
		{
			name:     "simple question",
			question: "What dataset did they use?",
			want:     Complexity{Label: Simple},
		},
	}
	c := NewClassifier(nil, 1)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.question); got != tt.want {
				t.Fatalf("Classify(%q) = %+v, want %+v", tt.question, got, tt.want)
			}
		})
	}
}

func TestClassifierMinConjunctTokens(t *testing.T) {
	q := "What is the learning rate and batch size?"
	if got := NewClassifier(nil, 3).Classify(q); got.Label != Simple {
		t.Fatalf("expected SIMPLE with 3-token minimum, got %+v", got)
	}
	if got := NewClassifier(nil, 2).Classify(q); got.Label != Complex {
		t.Fatalf("expected COMPLEX with 2-token minimum, got %+v", got)
	}
}

func TestClassifierIsPure(t *testing.T) {
	c := NewClassifier(nil, 1)
	q := "Compare precision and recall"
	first := c.Classify(q)
	for range 10 {
		if got := c.Classify(q); got != first {
			t.Fatalf("classification changed: %+v vs %+v", got, first)
		}
	}
}
