package prompt

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"testing/fstest"

	docerrors "github.com/sweetpotato0/docqa/errors"
)

func TestDefaultManagerTemplates(t *testing.T) {
	m := NewDefaultManager()
	got := m.List()
	want := []string{CritiqueTemplate, ReviseTemplate, AnswerTemplate}
	if strings.Join(got, ",") != "answer,critique,revise" {
		t.Fatalf("unexpected template list %v (want %v in sorted order)", got, want)
	}
}

func TestRenderAnswerSimple(t *testing.T) {
	out, err := NewDefaultManager().Render(AnswerTemplate, AnswerData{
		Question: "What is Model A?",
		Contexts: []string{"Model A is fast.", "Model A is small."},
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	for _, want := range []string{"[1] Model A is fast.", "[2] Model A is small.", "Question: What is Model A?"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in prompt:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Address each part") || strings.Contains(out, "Earlier in this conversation") {
		t.Fatalf("simple prompt should not carry sub-questions or history:\n%s", out)
	}
}

func TestRenderAnswerComplexWithHistory(t *testing.T) {
	out, err := NewDefaultManager().Render(AnswerTemplate, AnswerData{
		Question:     "Compare Model A and Model B",
		SubQuestions: []string{"Model A", "Model B"},
		Instruction:  "Combine and summarize findings.",
		History:      []Exchange{{Question: "What is Model A?", Answer: "A fast model."}},
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	for _, want := range []string{"- Model A", "- Model B", "Combine and summarize findings.", "Q: What is Model A?", "(no context was retrieved)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in prompt:\n%s", want, out)
		}
	}
}

func TestRenderRevise(t *testing.T) {
	out, err := NewDefaultManager().Render(ReviseTemplate, AnswerData{
		Question:       "What is Model A?",
		Contexts:       []string{"Model A is fast."},
		PreviousAnswer: "Model A is slow.",
		Feedback:       []string{"grounding: 0% of answer terms appear in context"},
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(out, "Model A is slow.") || !strings.Contains(out, "- grounding: 0%") {
		t.Fatalf("revise prompt missing previous answer or feedback:\n%s", out)
	}
}

func TestRegisterAndOverride(t *testing.T) {
	m := NewManager()
	if err := m.RegisterString("x", "hello {{.Question}}"); err != nil {
		t.Fatalf("RegisterString failed: %v", err)
	}
	if err := m.RegisterString("x", "dup"); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	tmpl, _ := NewTemplate("x", "bye {{.Question}}")
	if err := m.Override(tmpl); err != nil {
		t.Fatalf("Override failed: %v", err)
	}
	out, err := m.Render("x", CritiqueData{Question: "q"})
	if err != nil || out != "bye q" {
		t.Fatalf("unexpected render %q, %v", out, err)
	}
	if _, err := m.Render("missing", nil); err == nil {
		t.Fatal("expected error for missing template")
	}
	if _, err := NewTemplate("bad", "{{.Unclosed"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadFSOverridesDefaults(t *testing.T) {
	m := NewDefaultManager()
	fsys := fstest.MapFS{
		"critique.tmpl": {Data: []byte("Grade this: {{.Answer}}")},
		"README.md":     {Data: []byte("not a template")},
		"nested/x.tmpl": {Data: []byte("ignored")},
		"followup.tmpl": {Data: []byte("Follow up on {{.Question}}")},
	}
	loaded, err := m.LoadFS(fsys)
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	if !slices.Equal(loaded, []string{"critique", "followup"}) {
		t.Fatalf("loaded = %v", loaded)
	}
	out, err := m.Render(CritiqueTemplate, CritiqueData{Answer: "42"})
	if err != nil || out != "Grade this: 42" {
		t.Fatalf("unexpected override render %q, %v", out, err)
	}
	if got := m.List(); len(got) != 4 {
		t.Fatalf("expected 4 templates, got %v", got)
	}

	_, err = NewManager().LoadFS(fstest.MapFS{"answer.tmpl": {Data: []byte("{{if}}")}})
	if !errors.Is(err, docerrors.ErrInvalidInput) {
		t.Fatalf("expected parse failure, got %v", err)
	}
}

func TestMissingTemplateIsNotFound(t *testing.T) {
	if _, err := NewManager().Render("answer", nil); !errors.Is(err, docerrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
