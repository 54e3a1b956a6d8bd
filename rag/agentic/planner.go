package agentic

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Planner turns a classified question into an ordered list of subtasks.
type Planner struct {
	vocab       *Vocabulary
	instruction string
}

// NewPlanner creates a planner that closes complex plans with instruction.
func NewPlanner(vocab *Vocabulary, instruction string) *Planner {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	return &Planner{vocab: vocab, instruction: instruction}
}

// Plan returns one retrieval subtask holding the question verbatim for
// SIMPLE questions. COMPLEX questions are split at separator phrases into
// two or more retrieval subtasks followed by one synthesis subtask. When a
// complex question has no usable split, the simple plan is returned with
// fallback set.
func (p *Planner) Plan(question string, c Complexity) (subtasks []Subtask, fallback bool) {
	simple := []Subtask{{Index: 0, Text: question, Kind: KindRetrieval}}
	if c.Label != Complex {
		return simple, false
	}

	parts := p.split(question)
	if len(parts) < 2 {
		return simple, true
	}
	subtasks = make([]Subtask, 0, len(parts)+1)
	for i, part := range parts {
		subtasks = append(subtasks, Subtask{Index: i, Text: part, Kind: KindRetrieval})
	}
	subtasks = append(subtasks, Subtask{Index: len(parts), Text: p.instruction, Kind: KindSynthesis})
	return subtasks, false
}

// split cuts question at non-overlapping separator matches outside idioms.
// Offsets in the folded, masked text index the original question.
func (p *Planner) split(question string) []string {
	masked := p.vocab.maskIdioms(fold(question))
	seps := find(p.vocab.separators, masked)
	slices.SortFunc(seps, func(a, b match) int {
		if a.start != b.start {
			return a.start - b.start
		}
		return (b.end - b.start) - (a.end - a.start)
	})

	var parts []string
	last := 0
	for _, s := range seps {
		if s.start < last {
			continue
		}
		if part := cleanSubquestion(question[last:s.start]); part != "" {
			parts = append(parts, part)
		}
		last = s.end
	}
	if part := cleanSubquestion(question[last:]); part != "" {
		parts = append(parts, part)
	}
	return parts
}

func cleanSubquestion(s string) string {
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(".,;:!?", r)
	})
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
