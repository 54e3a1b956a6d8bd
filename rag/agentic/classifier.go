package agentic

import (
	"regexp"
)

var conjunctionPattern = regexp.MustCompile(`\band\b`)

// ConjunctionReason is the Complexity reason for a qualifying "and" split.
const ConjunctionReason = `conjunction "and"`

// Classifier labels questions SIMPLE or COMPLEX from vocabulary data alone.
// It is safe for concurrent use.
type Classifier struct {
	vocab       *Vocabulary
	minConjunct int
}

// NewClassifier creates a classifier. A nil vocabulary selects the default.
func NewClassifier(vocab *Vocabulary, minConjunctTokens int) *Classifier {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	if minConjunctTokens <= 0 {
		minConjunctTokens = 1
	}
	return &Classifier{vocab: vocab, minConjunct: minConjunctTokens}
}

// Classify returns COMPLEX when a trigger phrase occurs, naming the earliest
// one, or when "and" joins two spans that each carry enough significant
// words outside an idiom. Everything else is SIMPLE.
func (c *Classifier) Classify(question string) Complexity {
	folded := fold(question)
	if m, ok := earliest(find(c.vocab.triggers, folded)); ok {
		return Complexity{Label: Complex, Reason: m.phrase}
	}

	masked := c.vocab.maskIdioms(folded)
	ands := conjunctionPattern.FindAllStringIndex(masked, -1)
	for i, loc := range ands {
		leftStart, rightEnd := 0, len(masked)
		if i > 0 {
			leftStart = ands[i-1][1]
		}
		if i+1 < len(ands) {
			rightEnd = ands[i+1][0]
		}
		left := c.vocab.terms(masked[leftStart:loc[0]], true)
		right := c.vocab.terms(masked[loc[1]:rightEnd], true)
		if len(left) >= c.minConjunct && len(right) >= c.minConjunct {
			return Complexity{Label: Complex, Reason: ConjunctionReason}
		}
	}
	return Complexity{Label: Simple}
}

// earliest picks the first match by position, then the longer phrase, then
// vocabulary order.
func earliest(matches []match) (match, bool) {
	if len(matches) == 0 {
		return match{}, false
	}
	best := matches[0]
	for _, m := range matches[1:] {
		switch {
		case m.start < best.start:
			best = m
		case m.start == best.start && m.end-m.start > best.end-best.start:
			best = m
		case m.start == best.start && m.end-m.start == best.end-best.start && m.order < best.order:
			best = m
		}
	}
	return best, true
}
