package growth

import (
	"context"
	"sync"
)

type MemoryRepo struct {
	mu      sync.RWMutex
	nodes   map[string]Set
	cleared map[string]map[int32]bool
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		nodes:   make(map[string]Set),
		cleared: make(map[string]map[int32]bool),
	}
}

func (r *MemoryRepo) Nodes(ctx context.Context, playerID string) (Set, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nodes[playerID], nil
}

func (r *MemoryRepo) Unlock(ctx context.Context, playerID string, id NodeID) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.nodes[playerID]
	s.Unlock(id)
	r.nodes[playerID] = s
	return nil
}

func (r *MemoryRepo) MarkCleared(ctx context.Context, playerID string, towerID int32) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.cleared[playerID]
	if m == nil {
		m = make(map[int32]bool)
		r.cleared[playerID] = m
	}
	m[towerID] = true
	return nil
}

func (r *MemoryRepo) IsCleared(ctx context.Context, playerID string, towerID int32) (bool, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cleared[playerID][towerID], nil
}
