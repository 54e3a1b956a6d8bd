package tokenizer

import "testing"

func TestSimpleTokenizerCountTokens(t *testing.T) {
	tok := NewSimpleTokenizer()
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "empty", text: "", want: 0},
		{name: "words", text: "Model A is fast", want: 4},
		{name: "punctuation", text: "fast, accurate.", want: 4},
		{name: "han", text: "模型A", want: 3},
		{name: "digits", text: "v2 costs 300", want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tok.CountTokens(tt.text); got != tt.want {
				t.Errorf("CountTokens(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestSpansCoverTokens(t *testing.T) {
	text := "Hi, there"
	spans := Spans(text)
	want := []string{"Hi", ",", "there"}
	if len(spans) != len(want) {
		t.Fatalf("expected %d spans, got %d", len(want), len(spans))
	}
	for i, sp := range spans {
		if got := text[sp.Start:sp.End]; got != want[i] {
			t.Errorf("span %d = %q, want %q", i, got, want[i])
		}
	}
}
