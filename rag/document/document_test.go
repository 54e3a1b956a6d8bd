package document

import (
	"strings"
	"testing"
)

func TestEnsureID(t *testing.T) {
	named := Document{ID: "paper.md"}
	named.EnsureID()
	if named.ID != "paper.md" {
		t.Fatalf("named document changed id to %q", named.ID)
	}

	a, b := Document{}, Document{}
	a.EnsureID()
	b.EnsureID()
	if !strings.HasPrefix(a.ID, "doc-") || a.ID == b.ID {
		t.Fatalf("expected distinct generated ids, got %q and %q", a.ID, b.ID)
	}

	var nilDoc *Document
	nilDoc.EnsureID()
}

func TestNewChunkIsStable(t *testing.T) {
	doc := Document{ID: "notes.html"}
	first := doc.NewChunk(2, "  Ablations use 500 questions.\n", map[string]any{"section": "Limits"})
	again := doc.NewChunk(2, "Ablations use 500 questions.", nil)
	if first.ID != "notes.html#2" || first.ID != again.ID {
		t.Fatalf("unexpected ids %q / %q", first.ID, again.ID)
	}
	if first.Content != "Ablations use 500 questions." || first.DocumentID != "notes.html" || first.Ordinal != 2 {
		t.Fatalf("unexpected chunk %+v", first)
	}
	if first.Metadata["section"] != "Limits" || again.Metadata != nil {
		t.Fatalf("unexpected metadata %v / %v", first.Metadata, again.Metadata)
	}
}

func TestCloneCopiesMetadata(t *testing.T) {
	doc := Document{ID: "d", Metadata: map[string]any{"source": "a.md"}}
	cp := doc.Clone()
	cp.Metadata["source"] = "b.md"
	if doc.Metadata["source"] != "a.md" {
		t.Fatal("document clone shares metadata")
	}

	ch := doc.NewChunk(0, "x", map[string]any{"section": "Intro"})
	chc := ch.Clone()
	chc.Metadata["section"] = "Other"
	if ch.Metadata["section"] != "Intro" {
		t.Fatal("chunk clone shares metadata")
	}
}
