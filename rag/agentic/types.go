package agentic

import (
	"maps"
	"slices"
	"time"
)

// Label is the complexity class of a question.
type Label string

const (
	Simple  Label = "SIMPLE"
	Complex Label = "COMPLEX"
)

// Complexity is the classifier verdict. Reason names the trigger phrase or
// pattern that fired; it is empty for simple questions.
type Complexity struct {
	Label  Label  `json:"label"`
	Reason string `json:"reason,omitempty"`
}

// SubtaskKind distinguishes retrieval subtasks from the trailing synthesis step.
type SubtaskKind string

const (
	KindRetrieval SubtaskKind = "RETRIEVAL"
	KindSynthesis SubtaskKind = "SYNTHESIS"
)

// Subtask is one step of a turn's plan. Index is its 0-based position.
type Subtask struct {
	Index int         `json:"index"`
	Text  string      `json:"text"`
	Kind  SubtaskKind `json:"kind"`
}

// RetrievedChunk is one passage attached to a subtask. Rank is 1-based and
// follows ascending distance.
type RetrievedChunk struct {
	Text     string  `json:"text"`
	Distance float64 `json:"distance"`
	Rank     int     `json:"source_rank"`
	Weak     bool    `json:"weak,omitempty"`
}

// Context holds the chunks retrieved for one retrieval subtask. Degraded is
// set when retrieval failed or returned nothing.
type Context struct {
	SubtaskIndex int              `json:"subtask_index"`
	Chunks       []RetrievedChunk `json:"chunks"`
	Degraded     bool             `json:"degraded,omitempty"`
	Error        string           `json:"error,omitempty"`
}

// Answer is one draft or revision. Round 0 is the initial draft.
type Answer struct {
	Text       string `json:"text"`
	Round      int    `json:"round"`
	ProducedAt uint64 `json:"produced_at"`
}

// CheckResult is the outcome of one heuristic critic check.
type CheckResult struct {
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// CritiqueResult scores an answer. NeedsRevision is always
// Score < PassThreshold.
type CritiqueResult struct {
	Score         int                    `json:"score"`
	NeedsRevision bool                   `json:"needs_revision"`
	Checks        map[string]CheckResult `json:"checks"`
	ModelFeedback string                 `json:"model_feedback,omitempty"`
}

// FailedChecks returns "name: detail" lines for every failed check, sorted
// by check name.
func (c CritiqueResult) FailedChecks() []string {
	var out []string
	for _, name := range slices.Sorted(maps.Keys(c.Checks)) {
		if r := c.Checks[name]; !r.Passed {
			out = append(out, name+": "+r.Detail)
		}
	}
	return out
}

// Round pairs an answer with its critique.
type Round struct {
	Answer   Answer         `json:"answer"`
	Critique CritiqueResult `json:"critique"`
}

// Outcome tags how a turn terminated.
type Outcome string

const (
	AcceptedByScore           Outcome = "ACCEPTED_BY_SCORE"
	AcceptedByExhaustion      Outcome = "ACCEPTED_BY_EXHAUSTION"
	AcceptedByFailureFallback Outcome = "ACCEPTED_BY_FAILURE_FALLBACK"
)

// Turn is the full record of one question's processing. Once committed to
// SessionMemory it is never modified.
type Turn struct {
	ID              string     `json:"id"`
	Seq             int        `json:"seq"`
	Question        string     `json:"question"`
	Complexity      Complexity `json:"complexity"`
	Subtasks        []Subtask  `json:"subtasks"`
	Contexts        []Context  `json:"contexts"`
	History         []Round    `json:"answer_history"`
	FinalAnswer     *Answer    `json:"final_answer,omitempty"`
	Outcome         Outcome    `json:"outcome"`
	FailureReason   string     `json:"failure_reason,omitempty"`
	PlannerFallback bool       `json:"planner_fallback,omitempty"`
	ScoreBefore     int        `json:"score_before"`
	ScoreAfter      int        `json:"score_after"`
	Improved        bool       `json:"improved"`
	StartedAt       time.Time  `json:"started_at"`
	CommittedAt     time.Time  `json:"committed_at"`
}

// Clone returns a deep copy of the turn.
func (t *Turn) Clone() *Turn {
	if t == nil {
		return nil
	}
	out := *t
	out.Subtasks = slices.Clone(t.Subtasks)
	if t.Contexts != nil {
		out.Contexts = make([]Context, len(t.Contexts))
		for i, c := range t.Contexts {
			c.Chunks = slices.Clone(c.Chunks)
			out.Contexts[i] = c
		}
	}
	if t.History != nil {
		out.History = make([]Round, len(t.History))
		for i, r := range t.History {
			r.Critique.Checks = maps.Clone(r.Critique.Checks)
			out.History[i] = r
		}
	}
	if t.FinalAnswer != nil {
		a := *t.FinalAnswer
		out.FinalAnswer = &a
	}
	return &out
}

// LastRound returns the most recent answer/critique pair.
func (t *Turn) LastRound() (Round, bool) {
	if len(t.History) == 0 {
		return Round{}, false
	}
	return t.History[len(t.History)-1], true
}
