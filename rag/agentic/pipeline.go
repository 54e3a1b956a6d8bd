package agentic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sweetpotato0/docqa/agent"
	docerrors "github.com/sweetpotato0/docqa/errors"
	"github.com/sweetpotato0/docqa/graph"
	"github.com/sweetpotato0/docqa/middleware"
	"github.com/sweetpotato0/docqa/pkg/logging"
	"github.com/sweetpotato0/docqa/pkg/telemetry"
	"github.com/sweetpotato0/docqa/prompt"
	"go.opentelemetry.io/otel/trace"
)

// Stage names used for graph nodes, middleware stages and span names.
const (
	stageStart    = "start"
	stageClassify = "classify"
	stagePlan     = "plan"
	stageRetrieve = "retrieve"
	stageDraft    = "draft"
	stageAdvance  = "advance"
	stageCritique = "critique"
	stageRevise   = "revise"
	stageCommit   = "commit"
	stageEnd      = "end"
)

// Clients groups the generation services used by the pipeline. Writer and
// Critic fall back to Default. Without any critic client the model feedback
// call is skipped.
type Clients struct {
	Default agent.Generator
	Writer  agent.Generator
	Critic  agent.Generator
}

// Pipeline answers one question per Run: classify, plan, retrieve, draft,
// then critique and revise until the revision controller stops, and finally
// commit the turn to session memory.
type Pipeline struct {
	cfg         *Config
	classifier  *Classifier
	planner     *Planner
	dispatcher  *Dispatcher
	synthesizer *Synthesizer
	critic      *Critic
	memory      *SessionMemory
	graph       *graph.Graph[*turnState]
	logger      *slog.Logger
	turnMu      sync.Mutex
}

type turnState struct {
	turn     *Turn
	fsm      State
	chunks   []RetrievedChunk
	degraded int
	history  []prompt.Exchange
}

// NewPipeline creates a fully wired pipeline.
func NewPipeline(clients Clients, retriever Retriever, opts ...Option) (*Pipeline, error) {
	cfg := applyOptions(nil, opts)
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", docerrors.ErrInvalidInput, err)
	}
	writer := agent.Pick(clients.Writer, clients.Default)
	if writer == nil {
		return nil, fmt.Errorf("%w: writer client is required", docerrors.ErrInvalidInput)
	}
	if retriever == nil {
		return nil, fmt.Errorf("%w: retriever is required", docerrors.ErrInvalidInput)
	}
	criticLLM := agent.Pick(clients.Critic, clients.Default)

	logger := cfg.logger
	if logger == nil {
		logger = logging.WithComponent("agentic_pipeline")
	}
	prompts := cfg.prompts
	if prompts == nil {
		prompts = prompt.NewDefaultManager()
	}
	mem := cfg.memory
	if mem == nil {
		mem = NewSessionMemory(logger)
	}

	p := &Pipeline{
		cfg:        cfg,
		classifier: NewClassifier(cfg.vocabulary, cfg.MinConjunctTokens),
		planner:    NewPlanner(cfg.vocabulary, cfg.SynthesisInstruction),
		dispatcher: NewDispatcher(retriever, cfg.TopK, cfg.MaxParallelRetrievals, cfg.DistanceWarnThreshold, logger),
		synthesizer: NewSynthesizer(
			middleware.Wrap(writer, stageDraft, cfg.chain),
			middleware.Wrap(writer, stageRevise, cfg.chain),
			prompts, cfg.tokenizer, cfg.ContextBudget,
		),
		critic: NewCritic(cfg, middleware.Wrap(criticLLM, stageCritique, cfg.chain), prompts, logger),
		memory: mem,
		logger: logger,
	}

	g, err := graph.NewBuilder[*turnState]().
		AddNode(stageStart, graph.KindStart, nil).
		AddNode(stageClassify, graph.KindTask, p.classifyNode).
		AddNode(stagePlan, graph.KindTask, p.planNode).
		AddNode(stageRetrieve, graph.KindTask, p.retrieveNode).
		AddNode(stageDraft, graph.KindTask, p.draftNode).
		AddConditionNode(stageAdvance, p.advance, map[string]string{
			string(ActionCritique): stageCritique,
			string(ActionRevise):   stageRevise,
			string(ActionStop):     stageCommit,
		}).
		AddNode(stageCritique, graph.KindTask, p.critiqueNode).
		AddNode(stageRevise, graph.KindTask, p.reviseNode).
		AddNode(stageCommit, graph.KindTask, p.commitNode).
		AddNode(stageEnd, graph.KindEnd, nil).
		AddEdge(stageStart, stageClassify).
		AddEdge(stageClassify, stagePlan).
		AddEdge(stagePlan, stageRetrieve).
		AddEdge(stageRetrieve, stageDraft).
		AddEdge(stageDraft, stageAdvance).
		AddEdge(stageCritique, stageAdvance).
		AddEdge(stageRevise, stageAdvance).
		AddEdge(stageCommit, stageEnd).
		SetStart(stageStart).
		SetMaxVisits(max(cfg.GraphMaxVisits, 2*cfg.MaxRevisionRounds+3)).
		WithHook(stageSpan).
		Build()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", docerrors.ErrInternal, err)
	}
	p.graph = g

	p.logger.Info("agentic pipeline initialised",
		"top_k", cfg.TopK,
		"pass_threshold", cfg.PassThreshold,
		"max_revision_rounds", cfg.MaxRevisionRounds,
		"model_feedback", cfg.ModelFeedback && criticLLM != nil,
	)
	return p, nil
}

// Memory returns the session log the pipeline commits to.
func (p *Pipeline) Memory() *SessionMemory {
	return p.memory
}

// Run processes one question and returns the committed turn. Invalid
// questions fail with ErrInvalidInput and produce no turn. Retrieval and
// generation failures are recorded on the turn, not returned; an error is
// returned only when ctx ends or the pipeline itself breaks.
func (p *Pipeline) Run(ctx context.Context, question string) (turn *Turn, err error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return nil, fmt.Errorf("%w: question cannot be empty", docerrors.ErrInvalidInput)
	}
	if !utf8.ValidString(q) {
		return nil, fmt.Errorf("%w: question is not valid UTF-8", docerrors.ErrInvalidInput)
	}
	if n := utf8.RuneCountInString(q); n > p.cfg.MaxQuestionChars {
		return nil, fmt.Errorf("%w: question has %d characters, limit is %d",
			docerrors.ErrInvalidInput, n, p.cfg.MaxQuestionChars)
	}
	if p.cfg.SerializeTurns {
		p.turnMu.Lock()
		defer p.turnMu.Unlock()
	}

	ctx, span := telemetry.Start(ctx, "docqa.turn", telemetry.AttrQuestion.Int(utf8.RuneCountInString(q)))
	defer func() { telemetry.End(span, err) }()

	p.logger.Info("pipeline run started", "question", trimForLog(q, 120))
	st := &turnState{
		turn: &Turn{
			ID:        uuid.NewString(),
			Question:  q,
			StartedAt: time.Now(),
		},
		fsm:     StateDrafted,
		history: p.recentExchanges(),
	}

	final, err := p.graph.Execute(ctx, st)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			if st.turn.Seq > 0 {
				// Committed before ctx ended; the turn is already in memory.
				return p.finish(span, st.turn), nil
			}
			return nil, err
		}
		p.logger.Error("pipeline run failed", "error", err)
		return nil, fmt.Errorf("%w: %w", docerrors.ErrInternal, err)
	}
	return p.finish(span, final.turn), nil
}

func (p *Pipeline) finish(span trace.Span, t *Turn) *Turn {
	span.SetAttributes(
		telemetry.AttrTurnID.String(t.ID),
		telemetry.AttrOutcome.String(string(t.Outcome)),
	)
	return t.Clone()
}

func (p *Pipeline) recentExchanges() []prompt.Exchange {
	var out []prompt.Exchange
	for _, t := range p.memory.Recent(p.cfg.HistoryTurns) {
		if t.FinalAnswer == nil {
			continue
		}
		out = append(out, prompt.Exchange{Question: t.Question, Answer: t.FinalAnswer.Text})
	}
	return out
}

func (p *Pipeline) classifyNode(ctx context.Context, st *turnState) (*turnState, error) {
	st.turn.Complexity = p.classifier.Classify(st.turn.Question)
	telemetry.Annotate(ctx,
		telemetry.AttrLabel.String(string(st.turn.Complexity.Label)),
		telemetry.AttrReason.String(st.turn.Complexity.Reason),
	)
	p.logger.Info("question classified",
		"label", st.turn.Complexity.Label,
		"reason", st.turn.Complexity.Reason,
	)
	return st, nil
}

func (p *Pipeline) planNode(ctx context.Context, st *turnState) (*turnState, error) {
	subtasks, fallback := p.planner.Plan(st.turn.Question, st.turn.Complexity)
	st.turn.Subtasks = subtasks
	st.turn.PlannerFallback = fallback
	telemetry.Annotate(ctx,
		telemetry.AttrSubtasks.Int(len(subtasks)),
		telemetry.AttrFallback.Bool(fallback),
	)
	if fallback {
		p.logger.Warn("planner found no split, using single subtask", "question", trimForLog(st.turn.Question, 120))
	}
	p.logger.Info("plan generated", "subtasks", len(subtasks))
	return st, nil
}

func (p *Pipeline) retrieveNode(ctx context.Context, st *turnState) (*turnState, error) {
	st.turn.Contexts = p.dispatcher.RetrieveFor(ctx, st.turn.Subtasks)
	for _, c := range st.turn.Contexts {
		if c.Degraded {
			st.degraded++
		}
	}
	st.chunks = p.synthesizer.Prepare(st.turn.Contexts)
	telemetry.Annotate(ctx,
		telemetry.AttrContexts.Int(len(st.turn.Contexts)),
		telemetry.AttrDegraded.Int(st.degraded),
		telemetry.AttrChunks.Int(len(st.chunks)),
	)
	return st, nil
}

func (p *Pipeline) draftNode(ctx context.Context, st *turnState) (*turnState, error) {
	ans, err := p.synthesizer.Synthesize(ctx, p.synthesisInput(st, 0))
	if err != nil {
		p.fail(st, err)
		return st, nil
	}
	st.turn.History = append(st.turn.History, Round{Answer: ans})
	st.fsm = StateDrafted
	return st, nil
}

func (p *Pipeline) critiqueNode(ctx context.Context, st *turnState) (*turnState, error) {
	last := &st.turn.History[len(st.turn.History)-1]
	last.Critique = p.critic.Critique(ctx, CritiqueInput{
		Question:         st.turn.Question,
		Answer:           last.Answer.Text,
		Chunks:           st.chunks,
		DegradedSubtasks: st.degraded,
		TotalSubtasks:    len(st.turn.Contexts),
	})
	telemetry.Annotate(ctx,
		telemetry.AttrRound.Int(last.Answer.Round),
		telemetry.AttrScore.Int(last.Critique.Score),
	)
	p.logger.Info("answer critiqued",
		"round", last.Answer.Round,
		"score", last.Critique.Score,
		"needs_revision", last.Critique.NeedsRevision,
	)
	return st, nil
}

func (p *Pipeline) reviseNode(ctx context.Context, st *turnState) (*turnState, error) {
	round := len(st.turn.History)
	ans, err := p.synthesizer.Synthesize(ctx, p.synthesisInput(st, round))
	if err != nil {
		p.fail(st, err)
		return st, nil
	}
	st.turn.History = append(st.turn.History, Round{Answer: ans})
	telemetry.Annotate(ctx, telemetry.AttrRound.Int(round))
	p.logger.Info("answer revised", "round", round)
	return st, nil
}

// advance applies one revision controller transition and routes the graph
// by the resulting action.
func (p *Pipeline) advance(_ context.Context, st *turnState) (string, error) {
	in := RevisionInput{
		RoundsUsed: max(len(st.turn.History)-1, 0),
		MaxRounds:  p.cfg.MaxRevisionRounds,
	}
	if last, ok := st.turn.LastRound(); ok && last.Critique.Checks != nil {
		in.Critique = &last.Critique
	}
	next, action := NextState(st.fsm, in)
	st.fsm = next
	return string(action), nil
}

func (p *Pipeline) commitNode(ctx context.Context, st *turnState) (*turnState, error) {
	t := st.turn
	t.Outcome = outcomeFor(st.fsm)
	if n := len(t.History); n > 0 {
		final := t.History[n-1].Answer
		t.FinalAnswer = &final
		t.ScoreBefore = t.History[0].Critique.Score
		t.ScoreAfter = t.History[n-1].Critique.Score
		t.Improved = t.ScoreAfter > t.ScoreBefore
	}
	if err := p.memory.Commit(ctx, t); err != nil {
		return st, err
	}
	telemetry.Annotate(ctx, telemetry.AttrOutcome.String(string(t.Outcome)))
	p.logger.Info("pipeline run completed",
		"question", trimForLog(t.Question, 120),
		"outcome", t.Outcome,
		"rounds", len(t.History),
		"score", t.ScoreAfter,
		"failure", t.FailureReason,
	)
	return st, nil
}

func (p *Pipeline) fail(st *turnState, err error) {
	st.fsm = StateFailed
	st.turn.FailureReason = err.Error()
	p.logger.Error("generation failed", "round", len(st.turn.History), "error", err)
}

func (p *Pipeline) synthesisInput(st *turnState, round int) SynthesisInput {
	in := SynthesisInput{
		Question:   st.turn.Question,
		Complexity: st.turn.Complexity,
		Subtasks:   st.turn.Subtasks,
		Chunks:     st.chunks,
		History:    st.history,
		Round:      round,
	}
	if last, ok := st.turn.LastRound(); ok {
		prev, fb := last.Answer, last.Critique
		in.Previous = &prev
		in.Feedback = &fb
	}
	return in
}

// stageSpan opens one span per pipeline stage.
func stageSpan(ctx context.Context, node string) (context.Context, func(error)) {
	if node == stageStart || node == stageEnd {
		return ctx, func(error) {}
	}
	ctx, span := telemetry.Start(ctx, "docqa."+node)
	return ctx, func(err error) { telemetry.End(span, err) }
}

func trimForLog(text string, limit int) string {
	text = strings.TrimSpace(text)
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + "..."
}
