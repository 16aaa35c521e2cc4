// Package modifier computes the run's policy snapshot from the player's
// unlocked growth nodes and the run's difficulty tier. The snapshot is
// computed once at session construction and read-only for the run's
// lifetime, except the single free-strengthen charge.
package modifier

import "github.com/qinfyy/Nebula-sub000/internal/growth"

type Mods struct {
	Difficulty int32

	StartCoins        int32 // bonus coins added to the tower's base
	HawkerDiscountPct int32 // additive across discount nodes
	HawkerGoodsBonus  int32 // extra goods per shop refresh

	PotentialMaxBonus int32 // highest unlocked tier, not additive
	SelectorRerolls   int32 // reroll credits per potential selector

	StrengthenUnlocked bool
	StrengthenDiscount int32

	SweepUnlocked bool

	freeStrengthen bool
}

// Compute derives the snapshot. Every field is a pure function of the node
// view and difficulty.
func Compute(nodes growth.View, difficulty int32) *Mods {
	m := &Mods{Difficulty: difficulty}

	if nodes.IsUnlocked(growth.NodeStartCoinsI) {
		m.StartCoins += 40
	}
	if nodes.IsUnlocked(growth.NodeStartCoinsII) {
		m.StartCoins += 60
	}

	// Discounts stack across nodes.
	if nodes.IsUnlocked(growth.NodeHawkerDiscountI) {
		m.HawkerDiscountPct += 5
	}
	if nodes.IsUnlocked(growth.NodeHawkerDiscountII) {
		m.HawkerDiscountPct += 10
	}
	if nodes.IsUnlocked(growth.NodeHawkerGoodsPlus) {
		m.HawkerGoodsBonus = 1
	}

	// Max-level bonus takes the highest tier, not the sum.
	switch {
	case nodes.IsUnlocked(growth.NodePotentialMaxII):
		m.PotentialMaxBonus = 2
	case nodes.IsUnlocked(growth.NodePotentialMaxI):
		m.PotentialMaxBonus = 1
	}

	m.SelectorRerolls = 1
	if nodes.IsUnlocked(growth.NodeSelectorReroll) {
		m.SelectorRerolls = 2
	}

	m.StrengthenUnlocked = nodes.IsUnlocked(growth.NodeStrengthenUnlock)
	if nodes.IsUnlocked(growth.NodeStrengthenDiscount) {
		m.StrengthenDiscount = 20
	}
	m.freeStrengthen = nodes.IsUnlocked(growth.NodeFreeStrengthen)

	m.SweepUnlocked = nodes.IsUnlocked(growth.NodeSweepUnlock)

	return m
}

// FreeStrengthenAvailable reports whether the free first strengthen use is
// still unspent.
func (m *Mods) FreeStrengthenAvailable() bool { return m.freeStrengthen }

// ConsumeFreeStrengthen spends the free use. Returns true the first time
// only; the flag never refills within a run.
func (m *Mods) ConsumeFreeStrengthen() bool {
	if !m.freeStrengthen {
		return false
	}
	m.freeStrengthen = false
	return true
}
