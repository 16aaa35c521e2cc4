package weighted

import "math/rand"

// Selector picks values at random with probability proportional to their
// weight. Entries with weight <= 0 are kept but can never win a draw.
type Selector[T any] struct {
	entries []entry[T]
	total   int64
}

type entry[T any] struct {
	weight int64
	value  T
}

// Add appends a candidate with the given weight.
func (s *Selector[T]) Add(weight int64, value T) {
	if weight < 0 {
		weight = 0
	}
	s.entries = append(s.entries, entry[T]{weight: weight, value: value})
	s.total += weight
}

// Len reports the number of candidates, including zero-weight ones.
func (s *Selector[T]) Len() int { return len(s.entries) }

// Total reports the cumulative weight.
func (s *Selector[T]) Total() int64 { return s.total }

// Next draws one candidate. ok is false when the cumulative weight is zero;
// callers must guard that case.
func (s *Selector[T]) Next(rng *rand.Rand) (value T, ok bool) {
	if s.total <= 0 {
		var zero T
		return zero, false
	}

	roll := rng.Int63n(s.total)
	current := int64(0)
	for _, e := range s.entries {
		current += e.weight
		if roll < current {
			return e.value, true
		}
	}

	// Unreachable while total matches the entries.
	var zero T
	return zero, false
}

// SampleDistinct draws up to n distinct values, removing each winner from the
// working candidate list so no value repeats. Fewer than n values are returned
// when the pool is smaller or the remaining weight hits zero.
func SampleDistinct[T any](rng *rand.Rand, n int, candidates []T, weightOf func(T) int64) []T {
	if n <= 0 || len(candidates) == 0 {
		return nil
	}

	pool := make([]T, len(candidates))
	copy(pool, candidates)

	out := make([]T, 0, n)
	for len(out) < n && len(pool) > 0 {
		var sel Selector[int]
		for i, c := range pool {
			sel.Add(weightOf(c), i)
		}
		idx, ok := sel.Next(rng)
		if !ok {
			break
		}
		out = append(out, pool[idx])
		pool = append(pool[:idx], pool[idx+1:]...)
	}
	return out
}
