package gemini

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestNewValidatesConfig(t *testing.T) {
	ctx := context.Background()
	if _, err := New(ctx, nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := New(ctx, DefaultConfig("")); err == nil {
		t.Fatal("expected error for missing api key")
	}
	cfg := DefaultConfig("key")
	cfg.MaxTokens = 0
	if _, err := New(ctx, cfg); err == nil {
		t.Fatal("expected error for zero max tokens")
	}
}

func TestCandidateText(t *testing.T) {
	if got := candidateText(nil); got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("Model A "), genai.Text("is faster.")}},
		}},
	}
	if got := candidateText(resp); got != "Model A is faster." {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestGenerateLive(t *testing.T) {
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		t.Skip("GEMINI_API_KEY not set")
	}
	ctx := context.Background()
	p, err := New(ctx, DefaultConfig(key))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer p.Close()
	out, err := p.Generate(ctx, "Reply with the single word: ready")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if strings.TrimSpace(out) == "" {
		t.Fatal("expected non-empty reply")
	}
}
