package markdown

import (
	"context"
	"strings"
	"testing"

	"github.com/sweetpotato0/docqa/rag/document"
)

const paper = `Abstract text introducing the paper.

# Method

We fine-tune a retriever on SQuAD.

## Training

Training took three days on one GPU.

# Evaluation

## Datasets

The evaluation set holds 500 questions.
`

func TestChunkSplitsAtHeadings(t *testing.T) {
	ch := New(WithMinTokens(0))
	chunks, err := ch.Chunk(context.Background(), document.Document{
		ID:       "paper",
		Content:  paper,
		Metadata: map[string]any{"source": "paper.md"},
	})
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}

	want := []struct {
		section string
		prefix  string
	}{
		{"", "Abstract text"},
		{"Method", "# Method"},
		{"Method > Training", "## Training"},
		{"Evaluation", "# Evaluation"},
		{"Evaluation > Datasets", "## Datasets"},
	}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %+v", len(want), len(chunks), chunks)
	}
	for i, w := range want {
		c := chunks[i]
		if !strings.HasPrefix(c.Content, w.prefix) {
			t.Errorf("chunk %d: expected prefix %q, got %q", i, w.prefix, c.Content)
		}
		got, _ := c.Metadata["section"].(string)
		if got != w.section {
			t.Errorf("chunk %d: expected section %q, got %q", i, w.section, got)
		}
		if c.Metadata["source"] != "paper.md" || c.Ordinal != i || c.DocumentID != "paper" {
			t.Errorf("chunk %d: unexpected fields %+v", i, c)
		}
	}
}

func TestChunkMergesShortSections(t *testing.T) {
	ch := New(WithMinTokens(8))
	chunks, err := ch.Chunk(context.Background(), document.Document{ID: "paper", Content: paper})
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	// "# Evaluation" alone is two tokens and folds into "## Datasets".
	last := chunks[len(chunks)-1]
	if !strings.HasPrefix(last.Content, "# Evaluation") || !strings.Contains(last.Content, "500 questions") {
		t.Fatalf("expected merged evaluation section, got %q", last.Content)
	}
	if last.Metadata["section"] != "Evaluation" {
		t.Fatalf("merged section keeps first path, got %v", last.Metadata["section"])
	}
}

func TestChunkWindowsLongSections(t *testing.T) {
	body := "# Long\n\n" + strings.Repeat("token ", 50)
	ch := New(WithMaxTokens(20), WithMinTokens(0))
	chunks, err := ch.Chunk(context.Background(), document.Document{ID: "long", Content: body})
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) < 3 {
		t.Fatalf("expected the section to be windowed, got %d chunks", len(chunks))
	}
	for i, c := range chunks {
		if c.Metadata["section"] != "Long" {
			t.Fatalf("chunk %d lost its section: %+v", i, c.Metadata)
		}
		if c.Ordinal != i {
			t.Fatalf("chunk %d has ordinal %d", i, c.Ordinal)
		}
	}
}

func TestChunkPlainText(t *testing.T) {
	chunks, err := New().Chunk(context.Background(), document.Document{ID: "plain", Content: "No headings at all."})
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Metadata != nil {
		t.Fatalf("unexpected chunks %+v", chunks)
	}
}
