package tokenizer

import (
	"unicode"
	"unicode/utf8"
)

// Tokenizer measures text in model tokens.
type Tokenizer interface {
	CountTokens(text string) int
}

// Span is the byte range [Start, End) of one token in the source text.
type Span struct {
	Start int
	End   int
}

// SimpleTokenizer approximates model tokenization without a vocabulary:
// letter/digit runs are one token, Han characters and punctuation are one
// token each, whitespace is dropped. It is stateless and safe for concurrent use.
type SimpleTokenizer struct{}

var _ Tokenizer = SimpleTokenizer{}

// NewSimpleTokenizer returns the default tokenizer.
func NewSimpleTokenizer() SimpleTokenizer {
	return SimpleTokenizer{}
}

// CountTokens returns the number of tokens in text.
func (SimpleTokenizer) CountTokens(text string) int {
	return len(Spans(text))
}

// Spans returns token byte ranges in order.
func Spans(s string) []Span {
	var out []Span
	start := -1
	flush := func(end int) {
		if start >= 0 {
			out = append(out, Span{Start: start, End: end})
			start = -1
		}
	}
	for i, r := range s {
		switch {
		case unicode.IsSpace(r):
			flush(i)
		case unicode.Is(unicode.Han, r):
			flush(i)
			out = append(out, Span{Start: i, End: i + utf8.RuneLen(r)})
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r):
			if start < 0 {
				start = i
			}
		default:
			flush(i)
			out = append(out, Span{Start: i, End: i + utf8.RuneLen(r)})
		}
	}
	flush(len(s))
	return out
}
