package agentic

import (
	"slices"
	"strings"
	"testing"
)

func TestPlannerSimpleKeepsQuestionVerbatim(t *testing.T) {
	p := NewPlanner(nil, "Combine and summarize findings.")
	q := "what dataset did they use?"
	got, fallback := p.Plan(q, Complexity{Label: Simple})
	if fallback {
		t.Fatal("simple plan must not report fallback")
	}
	want := []Subtask{{Index: 0, Text: q, Kind: KindRetrieval}}
	if !slices.Equal(got, want) {
		t.Fatalf("Plan() = %+v, want %+v", got, want)
	}
}

func TestPlannerSplitsComplexQuestions(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     []string
	}{
		{
			name:     "methodology and limitations",
			question: "Explain the methodology and limitations.",
			want:     []string{"Explain the methodology", "Limitations"},
		},
		{
			name:     "compared to",
			question: "How does BERT perform compared to GPT?",
			want:     []string{"How does BERT perform", "GPT"},
		},
		{
			name:     "versus",
			question: "Accuracy versus latency",
			want:     []string{"Accuracy", "Latency"},
		},
		{
			name:     "idiom stays whole",
			question: "Explain trial and error and the limitations",
			want:     []string{"Explain trial and error", "The limitations"},
		},
		{
			name:     "three parts",
			question: "Describe the data, the model and the metrics and the limitations",
			want:     []string{"Describe the data, the model", "The metrics", "The limitations"},
		},
	}
	p := NewPlanner(nil, "Combine and summarize findings.")
	c := NewClassifier(nil, 1)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label := c.Classify(tt.question)
			if label.Label != Complex {
				t.Fatalf("expected COMPLEX, got %+v", label)
			}
			got, fallback := p.Plan(tt.question, label)
			if fallback {
				t.Fatal("unexpected fallback")
			}
			if len(got) != len(tt.want)+1 {
				t.Fatalf("expected %d subtasks, got %+v", len(tt.want)+1, got)
			}
			for i, text := range tt.want {
				if got[i].Index != i || got[i].Kind != KindRetrieval || got[i].Text != text {
					t.Errorf("subtask %d = %+v, want RETRIEVAL %q", i, got[i], text)
				}
			}
			last := got[len(got)-1]
			if last.Kind != KindSynthesis || last.Index != len(tt.want) || last.Text != "Combine and summarize findings." {
				t.Fatalf("unexpected synthesis subtask: %+v", last)
			}
		})
	}
}

func TestPlannerFallsBackWithoutSplit(t *testing.T) {
	p := NewPlanner(nil, "Combine and summarize findings.")
	q := "What are the pros and cons?"
	label := NewClassifier(nil, 1).Classify(q)
	if label.Label != Complex {
		t.Fatalf("expected COMPLEX, got %+v", label)
	}
	got, fallback := p.Plan(q, label)
	if !fallback {
		t.Fatal("expected fallback")
	}
	if len(got) != 1 || got[0].Text != q || got[0].Kind != KindRetrieval {
		t.Fatalf("unexpected fallback plan: %+v", got)
	}
}

func TestPlannerSplitsAroundInvalidBytes(t *testing.T) {
	p := NewPlanner(nil, "Combine and summarize findings.")
	junk := strings.Repeat("\xff", 10)
	got, fallback := p.Plan(junk+" Compare X and Y", Complexity{Label: Complex, Reason: "compare"})
	if fallback {
		t.Fatal("unexpected fallback")
	}
	want := []string{junk + " Compare X", "Y"}
	if len(got) != len(want)+1 {
		t.Fatalf("expected %d subtasks, got %+v", len(want)+1, got)
	}
	for i, text := range want {
		if got[i].Text != text {
			t.Errorf("subtask %d = %q, want %q", i, got[i].Text, text)
		}
	}
}

func TestPlannerIsDeterministic(t *testing.T) {
	p := NewPlanner(nil, "Combine and summarize findings.")
	q := "Compare the encoder versus the decoder and the limitations"
	label := Complexity{Label: Complex, Reason: "compare"}
	first, _ := p.Plan(q, label)
	for range 10 {
		got, _ := p.Plan(q, label)
		if !slices.Equal(got, first) {
			t.Fatalf("plan changed: %+v vs %+v", got, first)
		}
	}
}
