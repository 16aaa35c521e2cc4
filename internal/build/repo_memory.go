package build

import (
	"context"
	"sort"
	"sync"
)

type MemoryRepo struct {
	mu     sync.RWMutex
	builds map[string]Build
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{builds: make(map[string]Build)}
}

func (r *MemoryRepo) Save(ctx context.Context, b Build) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()
	r.builds[b.ID] = cloneBuild(b)
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Build, bool, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.builds[id]
	if !ok {
		return Build{}, false, nil
	}
	return cloneBuild(b), true, nil
}

func (r *MemoryRepo) ListByOwner(ctx context.Context, playerID string) ([]Build, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []Build{}
	for _, b := range r.builds {
		if b.PlayerID == playerID {
			out = append(out, cloneBuild(b))
		}
	}

	// Highest score first; id breaks ties for stable listings.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepo) CountByOwner(ctx context.Context, playerID string) (int, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, b := range r.builds {
		if b.PlayerID == playerID {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) (bool, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.builds[id]; !ok {
		return false, nil
	}
	delete(r.builds, id)
	return true, nil
}

func cloneBuild(b Build) Build {
	b.CharacterIDs = append([]int32(nil), b.CharacterIDs...)
	b.DiscIDs = append([]int32(nil), b.DiscIDs...)
	b.CharPotentials = cloneMap(b.CharPotentials)
	b.Potentials = cloneMap(b.Potentials)
	b.SubNotes = cloneMap(b.SubNotes)
	return b
}

func cloneMap(m map[int32]int32) map[int32]int32 {
	if m == nil {
		return nil
	}
	out := make(map[int32]int32, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
