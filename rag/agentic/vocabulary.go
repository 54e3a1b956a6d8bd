package agentic

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var defaultVocabularyYAML []byte

var defaultVocabulary = mustParseVocabulary(defaultVocabularyYAML)

// Effect tags what a phrase means to the classifier and planner.
type Effect string

const (
	EffectTrigger   Effect = "trigger"
	EffectIdiom     Effect = "idiom"
	EffectSeparator Effect = "separator"
)

// PhraseRule maps one phrase to its effect.
type PhraseRule struct {
	Phrase string `yaml:"phrase"`
	Effect Effect `yaml:"effect"`
}

// Vocabulary is the immutable word data driving classification, planning
// and the critic's token checks. Build one with ParseVocabulary.
type Vocabulary struct {
	Phrases       []PhraseRule `yaml:"phrases"`
	Stopwords     []string     `yaml:"stopwords"`
	QuestionWords []string     `yaml:"question_words"`
	NoInfo        []string     `yaml:"no_info"`

	triggers   []phraseMatcher
	idioms     []phraseMatcher
	separators []phraseMatcher
	stop       map[string]struct{}
	question   map[string]struct{}
}

type phraseMatcher struct {
	phrase string
	order  int
	re     *regexp.Regexp
}

// match is one phrase occurrence as a byte range of the folded text.
type match struct {
	phrase string
	order  int
	start  int
	end    int
}

// DefaultVocabulary returns the built-in vocabulary.
func DefaultVocabulary() *Vocabulary {
	return defaultVocabulary
}

// ParseVocabulary parses and compiles a YAML vocabulary document.
func ParseVocabulary(data []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}
	if err := v.compile(); err != nil {
		return nil, err
	}
	return &v, nil
}

// LoadVocabularyFile reads a YAML vocabulary from disk.
func LoadVocabularyFile(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary %s: %w", path, err)
	}
	return ParseVocabulary(data)
}

func mustParseVocabulary(data []byte) *Vocabulary {
	v, err := ParseVocabulary(data)
	if err != nil {
		panic(err)
	}
	return v
}

func (v *Vocabulary) compile() error {
	for i, rule := range v.Phrases {
		words := strings.Fields(strings.ToLower(rule.Phrase))
		if len(words) == 0 {
			return fmt.Errorf("vocabulary phrase %d is empty", i)
		}
		m := phraseMatcher{phrase: strings.Join(words, " "), order: i, re: phraseRegexp(words)}
		switch rule.Effect {
		case EffectTrigger:
			v.triggers = append(v.triggers, m)
		case EffectIdiom:
			v.idioms = append(v.idioms, m)
		case EffectSeparator:
			v.separators = append(v.separators, m)
		default:
			return fmt.Errorf("vocabulary phrase %q has unknown effect %q", rule.Phrase, rule.Effect)
		}
	}
	if len(v.separators) == 0 {
		return fmt.Errorf("vocabulary must define at least one separator")
	}
	v.stop = wordSet(v.Stopwords)
	v.question = wordSet(v.QuestionWords)
	for i, p := range v.NoInfo {
		v.NoInfo[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return nil
}

func wordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return set
}

func phraseRegexp(words []string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	expr := strings.Join(quoted, `\s+`)
	if isWordRune(firstRune(words[0])) {
		expr = `\b` + expr
	}
	if isWordRune(lastRune(words[len(words)-1])) {
		expr += `\b`
	}
	return regexp.MustCompile(expr)
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func find(matchers []phraseMatcher, folded string) []match {
	var out []match
	for _, m := range matchers {
		for _, loc := range m.re.FindAllStringIndex(folded, -1) {
			out = append(out, match{phrase: m.phrase, order: m.order, start: loc[0], end: loc[1]})
		}
	}
	return out
}

// fold lowercases s without changing its byte length, so offsets in the
// folded text index the original. Runes whose lowercase form has a
// different width are left as they are; invalid bytes are copied through.
func fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		lr := unicode.ToLower(r)
		switch {
		case r == utf8.RuneError && size == 1, utf8.RuneLen(lr) != size:
			b.WriteString(s[i : i+size])
		default:
			b.WriteRune(lr)
		}
		i += size
	}
	return b.String()
}

// maskIdioms replaces whitespace inside idiom occurrences with '_' so the
// separator matchers cannot split them.
func (v *Vocabulary) maskIdioms(folded string) string {
	idioms := find(v.idioms, folded)
	if len(idioms) == 0 {
		return folded
	}
	b := []byte(folded)
	for _, m := range idioms {
		for i := m.start; i < m.end; i++ {
			if b[i] == ' ' || b[i] == '\t' || b[i] == '\n' || b[i] == '\r' || b[i] == '\f' {
				b[i] = '_'
			}
		}
	}
	return string(b)
}

// terms returns the lowercased word tokens of s in order, skipping stopwords.
// When dropQuestionWords is set, question-framing words are skipped as well.
func (v *Vocabulary) terms(s string, dropQuestionWords bool) []string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := words[:0]
	for _, w := range words {
		if _, ok := v.stop[w]; ok {
			continue
		}
		if dropQuestionWords {
			if _, ok := v.question[w]; ok {
				continue
			}
		}
		out = append(out, w)
	}
	return out
}

// noInfoPhrase returns the first no-info phrase contained in text.
func (v *Vocabulary) noInfoPhrase(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, p := range v.NoInfo {
		if p != "" && strings.Contains(lower, p) {
			return p, true
		}
	}
	return "", false
}
