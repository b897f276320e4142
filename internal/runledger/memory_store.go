package runledger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryStore keeps the most recent runs in a bounded LRU.
type MemoryStore struct {
	runs *lru.Cache[string, Run]
}

func NewMemoryStore(size int) (*MemoryStore, error) {
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New[string, Run](size)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{runs: cache}, nil
}

func (s *MemoryStore) Put(_ context.Context, run Run) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	run.ID = strings.TrimSpace(run.ID)
	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	s.runs.Add(run.ID, run)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Run, error) {
	if s == nil {
		return Run{}, fmt.Errorf("store is nil")
	}
	run, ok := s.runs.Peek(strings.TrimSpace(id))
	if !ok {
		return Run{}, ErrNotFound
	}
	return run, nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]Run, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	out := s.runs.Values()
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if n := clampLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
