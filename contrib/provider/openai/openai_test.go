package openai

import (
	"context"
	"os"
	"strings"
	"testing"
)

func TestNewValidatesConfig(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := New(DefaultConfig("")); err == nil {
		t.Fatal("expected error for missing api key")
	}
	cfg := DefaultConfig("key")
	cfg.Temperature = 3
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for temperature out of range")
	}
	if _, err := New(DefaultConfig("key").WithModel("gpt-4o")); err != nil {
		t.Fatalf("New failed: %v", err)
	}
}

func TestMessagesIncludesSystemOnlyWhenSet(t *testing.T) {
	if got := messages("", "question"); len(got) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got))
	}
	got := messages("You answer from documents.", "question")
	if len(got) != 2 || got[0].OfSystem == nil || got[1].OfUser == nil {
		t.Fatalf("unexpected messages: %+v", got)
	}
}

func TestGenerateLive(t *testing.T) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		t.Skip("OPENAI_API_KEY not set")
	}
	p, err := New(DefaultConfig(key))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	out, err := p.Generate(context.Background(), "Reply with the single word: ready")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if strings.TrimSpace(out) == "" {
		t.Fatal("expected non-empty reply")
	}
}
