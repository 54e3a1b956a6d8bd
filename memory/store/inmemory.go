package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	docerrors "github.com/sweetpotato0/docqa/errors"
	"github.com/sweetpotato0/docqa/memory"
)

// InMemoryStore keeps turn snapshots in process memory. Adding an existing
// ID replaces the stored snapshot.
type InMemoryStore struct {
	memories []*memory.Memory
	index    map[string]int
	mu       sync.RWMutex
}

var _ memory.MemoryStore = (*InMemoryStore)(nil)

// checkSnapshot rejects input every store refuses to persist.
func checkSnapshot(mem *memory.Memory) error {
	switch {
	case mem == nil:
		return fmt.Errorf("%w: nil turn snapshot", docerrors.ErrInvalidInput)
	case mem.ID == "":
		return fmt.Errorf("%w: turn snapshot without id", docerrors.ErrInvalidInput)
	}
	return nil
}

// NewInMemoryStore creates a new in-memory store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{index: make(map[string]int)}
}

// AddMemory adds or replaces a snapshot
func (s *InMemoryStore) AddMemory(ctx context.Context, mem *memory.Memory) error {
	if err := checkSnapshot(mem); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *mem
	if i, ok := s.index[mem.ID]; ok {
		s.memories[i] = &cp
		return nil
	}
	s.index[mem.ID] = len(s.memories)
	s.memories = append(s.memories, &cp)
	return nil
}

// SearchMemory returns snapshots whose question or answer contains query.
func (s *InMemoryStore) SearchMemory(ctx context.Context, query string) ([]*memory.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*memory.Memory, 0, len(s.memories))
	for _, m := range s.memories {
		if m.Matches(query) {
			cp := *m
			out = append(out, &cp)
		}
	}
	slices.SortStableFunc(out, memory.ByCommitOrder)
	return out, nil
}

// Clear removes all snapshots from the store
func (s *InMemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memories = nil
	s.index = make(map[string]int)
	return nil
}

// Count returns the number of snapshots in the store
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.memories)
}
