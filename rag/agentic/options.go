package agentic

import (
	"log/slog"

	"github.com/sweetpotato0/docqa/config"
	"github.com/sweetpotato0/docqa/middleware"
	"github.com/sweetpotato0/docqa/prompt"
	"github.com/sweetpotato0/docqa/rag/tokenizer"
)

// Critic check names.
const (
	CheckLength    = "length"
	CheckGrounding = "grounding"
	CheckCoverage  = "coverage"
	CheckNoInfo    = "no_info"
)

// Config controls the classifier, planner, retrieval fan-out, synthesis
// budget, critic scoring and the revision loop.
type Config struct {
	TopK                  int     // Passages requested per retrieval subtask
	PassThreshold         int     // Scores below this need revision
	MaxRevisionRounds     int     // Revisions allowed after the draft
	BaseScore             int     // Score before penalties
	ContextBudget         int     // Token budget for prompt context
	MinAnswerChars        int     // Shorter answers fail the length check
	MaxAnswerContextRatio float64 // Answers longer than ratio*context fail the length check
	MinGroundingRatio     float64
	MinCoverageRatio      float64
	Penalties             map[string]int // Check name -> score penalty
	MinConjunctTokens     int            // Significant tokens required on each side of "and"
	MaxParallelRetrievals int
	MaxQuestionChars      int
	HistoryTurns          int     // Prior exchanges shown to the synthesizer
	ModelFeedback         bool    // Ask the critic model for free-text feedback
	SerializeTurns        bool    // Run at most one turn at a time
	GraphMaxVisits        int     // Visit guard for the stage graph
	DistanceWarnThreshold float64 // Chunks farther than this are flagged weak
	SynthesisInstruction  string

	vocabulary *Vocabulary
	tokenizer  tokenizer.Tokenizer
	prompts    *prompt.Manager
	chain      *middleware.MiddlewareChain
	logger     *slog.Logger
	memory     *SessionMemory
}

// Option customises the pipeline configuration.
type Option func(*Config)

// WithTopK sets how many passages each retrieval subtask requests.
func WithTopK(k int) Option {
	return func(cfg *Config) {
		if k > 0 {
			cfg.TopK = k
		}
	}
}

// WithPassThreshold sets the minimum score accepted without revision.
func WithPassThreshold(threshold int) Option {
	return func(cfg *Config) {
		cfg.PassThreshold = threshold
	}
}

// WithMaxRevisionRounds bounds the revision loop. Zero disables revision.
func WithMaxRevisionRounds(rounds int) Option {
	return func(cfg *Config) {
		if rounds >= 0 {
			cfg.MaxRevisionRounds = rounds
		}
	}
}

// WithContextBudget sets the token budget for concatenated context.
func WithContextBudget(tokens int) Option {
	return func(cfg *Config) {
		if tokens > 0 {
			cfg.ContextBudget = tokens
		}
	}
}

// WithTokenizer replaces the token counter used for the context budget.
func WithTokenizer(t tokenizer.Tokenizer) Option {
	return func(cfg *Config) {
		if t != nil {
			cfg.tokenizer = t
		}
	}
}

// WithVocabulary replaces the built-in classifier and critic vocabulary.
func WithVocabulary(v *Vocabulary) Option {
	return func(cfg *Config) {
		if v != nil {
			cfg.vocabulary = v
		}
	}
}

// WithPenalties overrides per-check penalties. Unknown names are ignored.
func WithPenalties(penalties map[string]int) Option {
	return func(cfg *Config) {
		for name, p := range penalties {
			if _, ok := cfg.Penalties[name]; ok {
				cfg.Penalties[name] = p
			}
		}
	}
}

// WithMinAnswerChars sets the length check's lower bound.
func WithMinAnswerChars(n int) Option {
	return func(cfg *Config) {
		cfg.MinAnswerChars = n
	}
}

// WithGroundingRatio sets the minimum answer/context token overlap.
func WithGroundingRatio(ratio float64) Option {
	return func(cfg *Config) {
		cfg.MinGroundingRatio = ratio
	}
}

// WithCoverageRatio sets the share of question key terms an answer must contain.
func WithCoverageRatio(ratio float64) Option {
	return func(cfg *Config) {
		cfg.MinCoverageRatio = ratio
	}
}

// WithModelFeedback toggles the free-text critique call.
func WithModelFeedback(enabled bool) Option {
	return func(cfg *Config) {
		cfg.ModelFeedback = enabled
	}
}

// WithSerializeTurns controls whether Run processes one turn at a time.
func WithSerializeTurns(enabled bool) Option {
	return func(cfg *Config) {
		cfg.SerializeTurns = enabled
	}
}

// WithMaxParallelRetrievals bounds concurrent retrieval calls within a turn.
func WithMaxParallelRetrievals(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.MaxParallelRetrievals = n
		}
	}
}

// WithHistoryTurns sets how many prior exchanges the synthesizer sees.
func WithHistoryTurns(n int) Option {
	return func(cfg *Config) {
		if n >= 0 {
			cfg.HistoryTurns = n
		}
	}
}

// WithMiddleware routes every generation call through chain.
func WithMiddleware(chain *middleware.MiddlewareChain) Option {
	return func(cfg *Config) {
		cfg.chain = chain
	}
}

// WithPromptManager replaces the answer, revise and critique templates.
func WithPromptManager(m *prompt.Manager) Option {
	return func(cfg *Config) {
		if m != nil {
			cfg.prompts = m
		}
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *Config) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// WithSessionMemory shares an existing session log with the pipeline.
func WithSessionMemory(m *SessionMemory) Option {
	return func(cfg *Config) {
		if m != nil {
			cfg.memory = m
		}
	}
}

// WithSynthesisInstruction replaces the trailing synthesis subtask text.
func WithSynthesisInstruction(instruction string) Option {
	return func(cfg *Config) {
		if instruction != "" {
			cfg.SynthesisInstruction = instruction
		}
	}
}

// WithDistanceWarnThreshold sets the distance above which chunks are weak.
func WithDistanceWarnThreshold(d float64) Option {
	return func(cfg *Config) {
		if d > 0 {
			cfg.DistanceWarnThreshold = d
		}
	}
}

// WithGraphMaxVisits tweaks the safety guard for graph traversal.
func WithGraphMaxVisits(max int) Option {
	return func(cfg *Config) {
		if max > 0 {
			cfg.GraphMaxVisits = max
		}
	}
}

// WithMaxQuestionChars rejects longer questions as invalid input.
func WithMaxQuestionChars(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.MaxQuestionChars = n
		}
	}
}

// WithMinConjunctTokens sets how many significant tokens each side of "and"
// needs before the conjunction makes a question complex.
func WithMinConjunctTokens(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.MinConjunctTokens = n
		}
	}
}

func defaultConfig() *Config {
	return &Config{
		TopK:                  3,
		PassThreshold:         7,
		MaxRevisionRounds:     2,
		BaseScore:             10,
		ContextBudget:         512,
		MinAnswerChars:        20,
		MaxAnswerContextRatio: 3.0,
		MinGroundingRatio:     0.3,
		MinCoverageRatio:      0.3,
		Penalties: map[string]int{
			CheckLength:    3,
			CheckGrounding: 3,
			CheckCoverage:  2,
			CheckNoInfo:    2,
		},
		MinConjunctTokens:     1,
		MaxParallelRetrievals: 4,
		MaxQuestionChars:      2000,
		HistoryTurns:          2,
		ModelFeedback:         true,
		SerializeTurns:        true,
		GraphMaxVisits:        20,
		DistanceWarnThreshold: 1.5,
		SynthesisInstruction:  "Combine and summarize findings.",
		vocabulary:            DefaultVocabulary(),
		tokenizer:             tokenizer.NewSimpleTokenizer(),
	}
}

func applyOptions(cfg *Config, opts []Option) *Config {
	if cfg == nil {
		cfg = defaultConfig()
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// ValidateConfig reports every out-of-range setting.
func ValidateConfig(cfg *Config) error {
	v := config.NewValidator()
	v.RequirePositive("TopK", cfg.TopK).
		ValidateRange("PassThreshold", cfg.PassThreshold, 1, 10).
		ValidateRange("MaxRevisionRounds", cfg.MaxRevisionRounds, 0, 10).
		ValidateRange("BaseScore", cfg.BaseScore, 1, 10).
		RequirePositive("ContextBudget", cfg.ContextBudget).
		RequireNonNegative("MinAnswerChars", cfg.MinAnswerChars).
		ValidateFloatRange("MinGroundingRatio", cfg.MinGroundingRatio, 0, 1).
		ValidateFloatRange("MinCoverageRatio", cfg.MinCoverageRatio, 0, 1).
		RequirePositive("MinConjunctTokens", cfg.MinConjunctTokens).
		RequirePositive("MaxParallelRetrievals", cfg.MaxParallelRetrievals).
		RequirePositive("MaxQuestionChars", cfg.MaxQuestionChars).
		RequireNonNegative("HistoryTurns", cfg.HistoryTurns).
		RequireNonEmpty("SynthesisInstruction", cfg.SynthesisInstruction)
	if cfg.MaxAnswerContextRatio <= 0 {
		v.ValidateFloatRange("MaxAnswerContextRatio", cfg.MaxAnswerContextRatio, 0.01, 1000)
	}
	for name, p := range cfg.Penalties {
		v.RequireNonNegative("Penalties."+name, p)
	}
	return v.Error()
}
