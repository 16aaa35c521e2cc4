package run

import (
	"sort"

	"github.com/qinfyy/Nebula-sub000/internal/content"
	"github.com/qinfyy/Nebula-sub000/internal/weighted"
)

// selectorCandidates bounds a single roll.
const selectorCandidates = 3

// newSelectorCase rolls a fresh selector for the target character.
// upgradeOnly restricts the pool to potentials the player already owns
// below their adjusted max (strengthen machine semantics).
func (s *Session) newSelectorCase(characterID int32, upgradeOnly bool) *SelectorCase {
	sel := &SelectorCase{
		CharacterID: characterID,
		Rerolls:     s.Mods.SelectorRerolls,
		RerollPrice: s.lib.Selector.RerollPrice,
		UpgradeOnly: upgradeOnly,
	}
	sel.Candidates = s.rollCandidates(characterID, upgradeOnly)
	return sel
}

// rollCandidates samples up to 3 distinct potential ids. Potentials already
// at their modifier-adjusted max never appear; the target character's
// potentials carry double weight.
func (s *Session) rollCandidates(characterID int32, upgradeOnly bool) []int32 {
	var pool []content.PotentialDef
	for _, def := range s.lib.Potentials {
		if s.potentialMaxed(def) {
			continue
		}
		if upgradeOnly && s.Potentials[def.ID] == 0 {
			continue
		}
		if !upgradeOnly && !s.teamOwns(def.CharacterID) {
			continue
		}
		pool = append(pool, def)
	}
	// Map iteration order must not leak into seeded rolls.
	sort.Slice(pool, func(i, j int) bool { return pool[i].ID < pool[j].ID })

	picked := weighted.SampleDistinct(s.rng, selectorCandidates, pool, func(d content.PotentialDef) int64 {
		w := int64(d.Weight)
		if characterID != 0 && d.CharacterID == characterID {
			w *= 2
		}
		return w
	})

	out := make([]int32, 0, len(picked))
	for _, d := range picked {
		out = append(out, d.ID)
	}
	return out
}

// hasRollable reports whether a selector roll could produce at least one
// candidate. Mirrors the rollCandidates pool filter without touching the rng.
func (s *Session) hasRollable(upgradeOnly bool) bool {
	for _, def := range s.lib.Potentials {
		if s.potentialMaxed(def) {
			continue
		}
		if upgradeOnly && s.Potentials[def.ID] == 0 {
			continue
		}
		if !upgradeOnly && !s.teamOwns(def.CharacterID) {
			continue
		}
		if def.Weight > 0 {
			return true
		}
	}
	return false
}

func (s *Session) teamOwns(characterID int32) bool {
	for _, id := range s.Characters {
		if id == characterID {
			return true
		}
	}
	return false
}

// interactSelector resolves a selector case: a pick grants the chosen
// potential and hands progression back to the room; a reroll replaces the
// candidate set at the cost of one credit plus currency.
func (s *Session) interactSelector(c *Case, p Payload) (InteractResult, error) {
	sel := c.Selector

	if p.Reroll {
		if sel.Rerolls <= 0 {
			return softResult(RetNoRerolls), nil
		}
		// A reroll that cannot produce candidates is refused, not sold.
		if !s.hasRollable(sel.UpgradeOnly) {
			return softResult(RetNoCandidates), nil
		}
		if !s.spendRes(content.CurrencyCoin, sel.RerollPrice) {
			return softResult(RetInsufficient), nil
		}
		sel.Rerolls--
		sel.Candidates = s.rollCandidates(sel.CharacterID, sel.UpgradeOnly)

		res := InteractResult{Ret: RetOK, Selector: selectorView(sel)}
		res.change(content.CurrencyCoin, -sel.RerollPrice)
		return res, nil
	}

	if p.SelectIndex == nil {
		return softResult(RetBadChoice), nil
	}
	idx := int(*p.SelectIndex)
	if idx < 0 || idx >= len(sel.Candidates) {
		return softResult(RetBadChoice), nil
	}

	chosen := sel.Candidates[idx]
	if err := s.grantPotential(chosen); err != nil {
		return InteractResult{}, err
	}
	c.State = StateConsumed

	// One resolved pick may surface the next owed selector, or the room's
	// deferred exit and bonus cases once nothing blocks progression.
	res := InteractResult{Ret: RetOK, Selector: selectorView(sel)}
	res.NewCases = s.roomStep()
	return res, nil
}
