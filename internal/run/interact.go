package run

import "github.com/qinfyy/Nebula-sub000/internal/content"

// Payload is the typed request body of one case interaction. The active
// fields depend on the target case kind; unused fields are ignored.
type Payload struct {
	SelectIndex *int32 `json:"select_index,omitempty"` // selector: candidate pick
	Reroll      bool   `json:"reroll,omitempty"`       // selector/hawker: refresh
	GoodsID     *int32 `json:"goods_id,omitempty"`     // hawker: purchase
	OptionID    *int32 `json:"option_id,omitempty"`    // event: chosen option

	HP      *int32 `json:"hp,omitempty"`      // sync/recover: reported team HP
	Energy  *int32 `json:"energy,omitempty"`  // sync: reported energy
	Cleared bool   `json:"cleared,omitempty"` // sync: battle floor cleared report
}

// Interact dispatches a request to the case with the given id in the active
// room. An unknown or stale id resolves as a neutral no-op, never an error;
// errors are reserved for content table defects.
func (s *Session) Interact(caseID int32, p Payload) (InteractResult, error) {
	c, ok := s.Room.findCase(caseID)
	if !ok {
		return softResult(RetUnknownCase), nil
	}
	if c.State == StateConsumed && !c.persistent() {
		return softResult(RetUnknownCase), nil
	}

	switch c.Kind {
	case KindExit:
		return s.interactExit(c)
	case KindPotentialSelector:
		return s.interactSelector(c, p)
	case KindHawker:
		return s.interactHawker(c, p)
	case KindStrengthen:
		return s.interactStrengthen(c)
	case KindEvent:
		return s.interactEvent(c, p)
	case KindRecoverHP:
		return s.interactRecoverHP(c, p)
	case KindSyncHP:
		return s.interactSyncHP(p)
	}
	return softResult(RetUnknownCase), nil
}

// interactExit advances the run to the next room; on the final floor it
// closes the climb instead, leaving settlement to the player.
func (s *Session) interactExit(c *Case) (InteractResult, error) {
	c.State = StateConsumed

	if s.Room.Final {
		s.Completed = true
		return InteractResult{Ret: RetOK, RunComplete: true}, nil
	}

	if err := s.enterNextRoom(); err != nil {
		return InteractResult{}, err
	}

	room := s.roomView()
	return InteractResult{Ret: RetOK, Room: &room}, nil
}

// strengthenPrice is the machine's current asking price:
// max(0, base + uses*increment - discount).
func (s *Session) strengthenPrice(st *StrengthenCase) int32 {
	pricing := s.lib.Strengthen
	p := pricing.Base + st.Uses*pricing.Increment - s.Mods.StrengthenDiscount
	if p < 0 {
		p = 0
	}
	return p
}

// interactStrengthen sells one potential upgrade. The candidate pool is
// restricted to potentials the player already owns below max; the free
// first use from the modifiers is consumed at most once per run and does
// not advance the price ladder.
func (s *Session) interactStrengthen(c *Case) (InteractResult, error) {
	st := c.Strengthen

	sel := s.newSelectorCase(0, true)
	if len(sel.Candidates) == 0 {
		return softResult(RetNoCandidates), nil
	}

	res := InteractResult{Ret: RetOK}

	if s.Mods.ConsumeFreeStrengthen() {
		// Free use: no charge, price ladder untouched.
	} else {
		price := s.strengthenPrice(st)
		if !s.spendRes(content.CurrencyCoin, price) {
			return softResult(RetInsufficient), nil
		}
		st.Uses++
		res.change(content.CurrencyCoin, -price)
	}

	spawned := s.Room.addCase(&Case{Kind: KindPotentialSelector, Selector: sel})
	res.NewCases = append(res.NewCases, s.caseView(spawned))
	return res, nil
}

// interactRecoverHP reconciles the client-reported HP after the recovery
// NPC heals; consumed on first use.
func (s *Session) interactRecoverHP(c *Case, p Payload) (InteractResult, error) {
	if p.HP != nil {
		s.TeamHP = *p.HP
	}
	c.State = StateConsumed
	return InteractResult{Ret: RetOK}, nil
}

// interactSyncHP is the stateless reconciliation pass: client-reported HP
// and energy are taken as-is and always accepted. On battle rooms the first
// cleared report grants the floor's exp and resumes room progression; the
// sync also acknowledges pending sub-note reveals.
func (s *Session) interactSyncHP(p Payload) (InteractResult, error) {
	if p.HP != nil {
		s.TeamHP = *p.HP
	}
	if p.Energy != nil {
		s.TeamEnergy = *p.Energy
	}
	s.PendingSubNotes = 0

	res := InteractResult{Ret: RetOK}

	if p.Cleared && s.Room.Kind == RoomBattle && !s.Room.cleared {
		s.Room.cleared = true
		s.GainExp(s.Room.Floor.ClearExp)
		res.NewCases = s.roomStep()
	}
	return res, nil
}
