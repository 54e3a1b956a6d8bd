package memory

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sweetpotato0/docqa/rag/agentic"
)

// Memory is the persisted snapshot of one committed turn. Content holds the
// full turn export as JSON; the other fields are denormalised for search.
type Memory struct {
	ID        string         `json:"id" bson:"_id"`
	Seq       int            `json:"seq" bson:"seq"`
	Question  string         `json:"question" bson:"question"`
	Answer    string         `json:"answer" bson:"answer"`
	Outcome   string         `json:"outcome" bson:"outcome"`
	Score     int            `json:"score" bson:"score"`
	Content   string         `json:"content" bson:"content"`
	Metadata  map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
}

// MemoryStore defines the interface for storing and retrieving turn snapshots.
// SearchMemory returns matches ordered by Seq, then CreatedAt; an empty
// query matches all.
type MemoryStore interface {
	AddMemory(context.Context, *Memory) error
	SearchMemory(context.Context, string) ([]*Memory, error)
}

// FromTurn snapshots a committed turn.
func FromTurn(turn *agentic.Turn) (*Memory, error) {
	if turn == nil {
		return nil, fmt.Errorf("turn cannot be nil")
	}
	data, err := json.Marshal(turn)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal turn: %w", err)
	}
	mem := &Memory{
		ID:       turn.ID,
		Seq:      turn.Seq,
		Question: turn.Question,
		Outcome:  string(turn.Outcome),
		Score:    turn.ScoreAfter,
		Content:  string(data),
		Metadata: map[string]any{
			"complexity":       string(turn.Complexity.Label),
			"subtasks":         len(turn.Subtasks),
			"rounds":           len(turn.History),
			"improved":         turn.Improved,
			"planner_fallback": turn.PlannerFallback,
		},
		CreatedAt: turn.CommittedAt,
	}
	if turn.FinalAnswer != nil {
		mem.Answer = turn.FinalAnswer.Text
	}
	if mem.CreatedAt.IsZero() {
		mem.CreatedAt = time.Now()
	}
	return mem, nil
}

// ByCommitOrder orders snapshots by Seq, then CreatedAt.
func ByCommitOrder(a, b *Memory) int {
	if c := cmp.Compare(a.Seq, b.Seq); c != 0 {
		return c
	}
	return a.CreatedAt.Compare(b.CreatedAt)
}

// ToTurn restores the turn stored in mem.
func ToTurn(mem *Memory) (*agentic.Turn, error) {
	if mem == nil || mem.Content == "" {
		return nil, fmt.Errorf("memory has no turn content")
	}
	var turn agentic.Turn
	if err := json.Unmarshal([]byte(mem.Content), &turn); err != nil {
		return nil, fmt.Errorf("failed to unmarshal turn %s: %w", mem.ID, err)
	}
	return &turn, nil
}

// Matches reports whether query occurs in the question or answer,
// ignoring case. An empty query matches everything.
func (m *Memory) Matches(query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(m.Question), query) ||
		strings.Contains(strings.ToLower(m.Answer), query)
}

// Sink persists committed turns into a MemoryStore. Register it with
// SessionMemory.AddSink.
type Sink struct {
	store MemoryStore
}

var _ agentic.TurnSink = (*Sink)(nil)

// NewSink adapts store into a turn sink.
func NewSink(store MemoryStore) *Sink {
	return &Sink{store: store}
}

// Persist snapshots turn and writes it to the store.
func (s *Sink) Persist(ctx context.Context, turn *agentic.Turn) error {
	mem, err := FromTurn(turn)
	if err != nil {
		return err
	}
	return s.store.AddMemory(ctx, mem)
}

// LoadTurns returns the stored turns matching query in commit order.
func LoadTurns(ctx context.Context, store MemoryStore, query string) ([]*agentic.Turn, error) {
	mems, err := store.SearchMemory(ctx, query)
	if err != nil {
		return nil, err
	}
	turns := make([]*agentic.Turn, 0, len(mems))
	for _, m := range mems {
		t, err := ToTurn(m)
		if err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	return turns, nil
}

// Restore seeds session with every stored turn, so a new process continues
// the persisted history and its Seq numbering.
func Restore(ctx context.Context, store MemoryStore, session *agentic.SessionMemory) (int, error) {
	turns, err := LoadTurns(ctx, store, "")
	if err != nil {
		return 0, fmt.Errorf("load stored turns: %w", err)
	}
	return session.Restore(turns), nil
}
