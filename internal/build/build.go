// Package build holds persisted run snapshots: the team, accrued potentials
// and sub-note skills of a finished climb, condensed into a score-ranked
// record reused by leaderboards and import tooling.
package build

import (
	"time"

	"github.com/qinfyy/Nebula-sub000/internal/content"
)

// MaxSaved caps stored builds per player.
const MaxSaved = 50

// Composition bounds for a submitted build.
const (
	TeamSize = 3
	MinDiscs = 3
	MaxDiscs = 6
)

// Build is one snapshot. Score is never hand-mutated; any change to
// Potentials or SubNotes must be followed by Rescore before the value is
// read.
type Build struct {
	ID       string `json:"id"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Locked   bool   `json:"locked"`
	Score    int32  `json:"score"`

	CharacterIDs []int32 `json:"character_ids"` // exactly 3, index 0 = main
	DiscIDs      []int32 `json:"disc_ids"`      // 3..6

	// Derived: character id -> count of owned potentials.
	CharPotentials map[int32]int32 `json:"char_potentials"`

	Potentials map[int32]int32 `json:"potentials"` // potential id -> level
	SubNotes   map[int32]int32 `json:"sub_notes"`  // item id -> quantity

	CreatedAt time.Time `json:"created_at"`
}

// Score recomputes the snapshot score from scratch: the per-potential
// level-indexed table plus a fixed amount per sub-note unit. Pure and
// idempotent; never an incremental total.
func Score(lib *content.Library, potentials, subNotes map[int32]int32) int32 {
	var total int32
	for id, level := range potentials {
		def, ok := lib.Potential(id)
		if !ok {
			continue
		}
		total += def.ScoreAt(level)
	}
	for _, qty := range subNotes {
		total += qty * content.SubNoteScore
	}
	return total
}

// Rescore refreshes the cached score and the derived character->potential
// count map.
func (b *Build) Rescore(lib *content.Library) {
	b.Score = Score(lib, b.Potentials, b.SubNotes)

	b.CharPotentials = make(map[int32]int32)
	for id := range b.Potentials {
		def, ok := lib.Potential(id)
		if !ok {
			continue
		}
		b.CharPotentials[def.CharacterID]++
	}
}

// ValidComposition checks the submitted team shape: exactly 3 distinct
// characters and 3..6 distinct discs.
func ValidComposition(characterIDs, discIDs []int32) bool {
	if len(characterIDs) != TeamSize {
		return false
	}
	if len(discIDs) < MinDiscs || len(discIDs) > MaxDiscs {
		return false
	}
	return distinct(characterIDs) && distinct(discIDs)
}

func distinct(ids []int32) bool {
	seen := make(map[int32]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return false
		}
		seen[id] = true
	}
	return true
}
