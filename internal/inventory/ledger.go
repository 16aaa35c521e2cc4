// Package inventory is the boundary to the account-wide item ledger. The run
// engine only ever counts, grants, and spends by item id; the real ledger
// lives outside this core.
package inventory

import (
	"context"
	"sync"
)

// Ledger is the minimal item-ledger contract the engine needs. Spend is an
// atomic check-and-deduct: false means insufficient quantity and no change.
type Ledger interface {
	Count(ctx context.Context, playerID string, itemID int32) (int32, error)
	Grant(ctx context.Context, playerID string, itemID int32, n int32) error
	Spend(ctx context.Context, playerID string, itemID int32, n int32) (bool, error)
}

type MemoryLedger struct {
	mu    sync.Mutex
	items map[string]map[int32]int32
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{items: make(map[string]map[int32]int32)}
}

func (l *MemoryLedger) Count(ctx context.Context, playerID string, itemID int32) (int32, error) {
	_ = ctx

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.items[playerID][itemID], nil
}

func (l *MemoryLedger) Grant(ctx context.Context, playerID string, itemID int32, n int32) error {
	_ = ctx

	if n <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	m := l.items[playerID]
	if m == nil {
		m = make(map[int32]int32)
		l.items[playerID] = m
	}
	m[itemID] += n
	return nil
}

func (l *MemoryLedger) Spend(ctx context.Context, playerID string, itemID int32, n int32) (bool, error) {
	_ = ctx

	if n <= 0 {
		return true, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	m := l.items[playerID]
	if m == nil || m[itemID] < n {
		return false, nil
	}
	m[itemID] -= n
	return true, nil
}
