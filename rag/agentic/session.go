package agentic

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	docerrors "github.com/sweetpotato0/docqa/errors"
)

// TurnSink receives every committed turn, for example to persist it.
type TurnSink interface {
	Persist(ctx context.Context, turn *Turn) error
}

// SessionMemory is the append-only log of committed turns. Reads are
// concurrent; commits are serialized so append order is commit order.
type SessionMemory struct {
	commitMu sync.Mutex
	mu       sync.RWMutex
	turns    []*Turn
	lastSeq  int
	ids      map[string]struct{}
	sinks    []TurnSink
	logger   *slog.Logger
	now      func() time.Time
}

// NewSessionMemory creates an empty session log.
func NewSessionMemory(logger *slog.Logger) *SessionMemory {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionMemory{
		ids:    make(map[string]struct{}),
		logger: logger,
		now:    time.Now,
	}
}

// AddSink registers a sink called after every commit, in registration order.
func (m *SessionMemory) AddSink(sink TurnSink) {
	if sink == nil {
		return
	}
	m.commitMu.Lock()
	defer m.commitMu.Unlock()
	m.sinks = append(m.sinks, sink)
}

// Commit appends turn to the log. It assigns an ID when missing, sets Seq
// and CommittedAt, and stores a private copy; the caller's value is updated
// with the same fields. Committing the same ID twice fails with
// ErrAlreadyCommitted. Sink failures are logged and do not undo the commit.
func (m *SessionMemory) Commit(ctx context.Context, turn *Turn) error {
	if turn == nil {
		return fmt.Errorf("%w: nil turn", docerrors.ErrInvalidInput)
	}
	m.commitMu.Lock()
	defer m.commitMu.Unlock()

	m.mu.Lock()
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if _, dup := m.ids[turn.ID]; dup {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", docerrors.ErrAlreadyCommitted, turn.ID)
	}
	m.lastSeq++
	turn.Seq = m.lastSeq
	turn.CommittedAt = m.now()
	stored := turn.Clone()
	m.turns = append(m.turns, stored)
	m.ids[turn.ID] = struct{}{}
	m.mu.Unlock()

	for _, sink := range m.sinks {
		if err := sink.Persist(ctx, stored.Clone()); err != nil {
			m.logger.Error("turn sink failed", "turn_id", stored.ID, "seq", stored.Seq, "error", err)
		}
	}
	return nil
}

// Restore seeds the log with turns committed by an earlier session, in the
// order given. Seq is kept while it increases, otherwise it is renumbered,
// and later commits continue after the highest one. Sinks are not called
// and IDs already present are skipped. It returns the number added.
func (m *SessionMemory) Restore(turns []*Turn) int {
	m.commitMu.Lock()
	defer m.commitMu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()

	added := 0
	for _, t := range turns {
		if t == nil || t.ID == "" {
			continue
		}
		if _, dup := m.ids[t.ID]; dup {
			continue
		}
		stored := t.Clone()
		if stored.Seq <= m.lastSeq {
			stored.Seq = m.lastSeq + 1
		}
		m.lastSeq = stored.Seq
		m.turns = append(m.turns, stored)
		m.ids[stored.ID] = struct{}{}
		added++
	}
	return added
}

// History returns copies of every committed turn in commit order.
func (m *SessionMemory) History() []Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Turn, len(m.turns))
	for i, t := range m.turns {
		out[i] = *t.Clone()
	}
	return out
}

// Recent returns copies of the last n committed turns, oldest first.
func (m *SessionMemory) Recent(n int) []Turn {
	if n <= 0 {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	start := max(len(m.turns)-n, 0)
	out := make([]Turn, 0, len(m.turns)-start)
	for _, t := range m.turns[start:] {
		out = append(out, *t.Clone())
	}
	return out
}

// Len returns the number of committed turns.
func (m *SessionMemory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.turns)
}

// Chunks lists every chunk retrieved across committed turns, in commit and
// subtask order.
func (m *SessionMemory) Chunks() []RetrievedChunk {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []RetrievedChunk
	for _, t := range m.turns {
		for _, c := range t.Contexts {
			out = append(out, c.Chunks...)
		}
	}
	return out
}
