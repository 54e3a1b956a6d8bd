package agentic

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sweetpotato0/docqa/agent"
	"github.com/sweetpotato0/docqa/prompt"
)

// CritiqueInput is what the critic scores. DegradedSubtasks counts retrieval
// subtasks whose context came back empty or failed.
type CritiqueInput struct {
	Question         string
	Answer           string
	Chunks           []RetrievedChunk
	DegradedSubtasks int
	TotalSubtasks    int
}

// Critic scores answers with deterministic heuristic checks and optionally
// asks a model for free-text feedback. The feedback never moves the score.
type Critic struct {
	cfg     *Config
	vocab   *Vocabulary
	gen     agent.Generator
	prompts *prompt.Manager
	logger  *slog.Logger
}

// NewCritic creates a critic. A nil gen disables model feedback.
func NewCritic(cfg *Config, gen agent.Generator, prompts *prompt.Manager, logger *slog.Logger) *Critic {
	if prompts == nil {
		prompts = prompt.NewDefaultManager()
	}
	if logger == nil {
		logger = slog.Default()
	}
	vocab := cfg.vocabulary
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	return &Critic{cfg: cfg, vocab: vocab, gen: gen, prompts: prompts, logger: logger}
}

// Critique runs every check and, when enabled, the model feedback call.
// It never fails; a feedback error is logged and leaves ModelFeedback empty.
func (c *Critic) Critique(ctx context.Context, in CritiqueInput) CritiqueResult {
	res := c.Score(in)
	if c.gen == nil || !c.cfg.ModelFeedback {
		return res
	}
	text, err := c.prompts.Render(prompt.CritiqueTemplate, prompt.CritiqueData{
		Question: in.Question,
		Answer:   in.Answer,
		Contexts: chunkTexts(in.Chunks),
	})
	if err == nil {
		text, err = c.gen.Generate(ctx, text)
	}
	if err != nil {
		c.logger.Warn("model feedback unavailable", "error", err)
		return res
	}
	res.ModelFeedback = strings.TrimSpace(text)
	return res
}

// Score runs the heuristic checks only. Identical input yields an identical
// result.
func (c *Critic) Score(in CritiqueInput) CritiqueResult {
	checks := map[string]CheckResult{
		CheckLength:    c.checkLength(in),
		CheckNoInfo:    c.checkNoInfo(in),
		CheckGrounding: c.checkGrounding(in),
		CheckCoverage:  c.checkCoverage(in),
	}
	score := c.cfg.BaseScore
	for name, r := range checks {
		if !r.Passed {
			score -= c.cfg.Penalties[name]
		}
	}
	score = min(max(score, 1), 10)
	return CritiqueResult{
		Score:         score,
		NeedsRevision: score < c.cfg.PassThreshold,
		Checks:        checks,
	}
}

func (c *Critic) checkLength(in CritiqueInput) CheckResult {
	n := utf8.RuneCountInString(strings.TrimSpace(in.Answer))
	if n < c.cfg.MinAnswerChars {
		return CheckResult{Detail: fmt.Sprintf("answer has %d characters, minimum is %d", n, c.cfg.MinAnswerChars)}
	}
	contextChars := 0
	for _, ch := range in.Chunks {
		contextChars += utf8.RuneCountInString(ch.Text)
	}
	if contextChars > 0 && float64(n) > c.cfg.MaxAnswerContextRatio*float64(contextChars) {
		return CheckResult{Detail: fmt.Sprintf("answer has %d characters, over %.1fx the %d characters of context",
			n, c.cfg.MaxAnswerContextRatio, contextChars)}
	}
	return CheckResult{Passed: true, Detail: fmt.Sprintf("answer has %d characters", n)}
}

func (c *Critic) checkNoInfo(in CritiqueInput) CheckResult {
	if phrase, ok := c.vocab.noInfoPhrase(in.Answer); ok {
		return CheckResult{Detail: fmt.Sprintf("answer says %q", phrase)}
	}
	return CheckResult{Passed: true, Detail: "answer engages with the context"}
}

func (c *Critic) checkGrounding(in CritiqueInput) CheckResult {
	answerTerms := termSet(c.vocab.terms(in.Answer, false))
	contextTerms := make(map[string]struct{})
	weak := 0
	for _, ch := range in.Chunks {
		for _, t := range c.vocab.terms(ch.Text, false) {
			contextTerms[t] = struct{}{}
		}
		if ch.Weak {
			weak++
		}
	}

	ratio := 0.0
	if len(answerTerms) > 0 {
		shared := 0
		for t := range answerTerms {
			if _, ok := contextTerms[t]; ok {
				shared++
			}
		}
		ratio = float64(shared) / float64(len(answerTerms))
	}

	detail := fmt.Sprintf("%.0f%% of answer terms appear in the context", ratio*100)
	if len(in.Chunks) == 0 {
		detail += "; no context was retrieved"
	}
	if in.DegradedSubtasks > 0 {
		detail += fmt.Sprintf("; %d of %d subtasks returned no context", in.DegradedSubtasks, in.TotalSubtasks)
	}
	if weak > 0 {
		detail += fmt.Sprintf("; %d weak chunks", weak)
	}
	passed := len(in.Chunks) > 0 && ratio >= c.cfg.MinGroundingRatio
	return CheckResult{Passed: passed, Detail: detail}
}

func (c *Critic) checkCoverage(in CritiqueInput) CheckResult {
	keys := unique(c.vocab.terms(in.Question, true))
	if len(keys) == 0 {
		return CheckResult{Passed: true, Detail: "question has no key terms"}
	}
	answerTerms := termSet(c.vocab.terms(in.Answer, false))
	var missing []string
	for _, k := range keys {
		if _, ok := answerTerms[k]; !ok {
			missing = append(missing, k)
		}
	}
	ratio := float64(len(keys)-len(missing)) / float64(len(keys))
	if len(missing) == 0 {
		return CheckResult{Passed: true, Detail: "all key terms present"}
	}
	return CheckResult{
		Passed: ratio >= c.cfg.MinCoverageRatio,
		Detail: "missing: " + strings.Join(missing, ", "),
	}
}

func termSet(terms []string) map[string]struct{} {
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[t] = struct{}{}
	}
	return set
}

func unique(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := terms[:0]
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
