package run

import (
	"fmt"

	"github.com/qinfyy/Nebula-sub000/internal/content"
	"github.com/qinfyy/Nebula-sub000/internal/weighted"
)

// eventOptionLimit bounds the sampled option subset per encounter.
const eventOptionLimit = 4

// addEventCase rolls an encounter from the event pool and samples its
// visible options. Question-band events always keep their correct answer in
// the sampled set.
func (s *Session) addEventCase() error {
	if len(s.lib.EventPool) == 0 {
		return fmt.Errorf("event pool empty: %w", content.ErrMissing)
	}
	eventID := s.lib.EventPool[s.rng.Intn(len(s.lib.EventPool))]

	def, ok := s.lib.Event(eventID)
	if !ok {
		return fmt.Errorf("event %d: %w", eventID, content.ErrMissing)
	}

	picked := weighted.SampleDistinct(s.rng, eventOptionLimit, def.Options,
		func(content.EventOption) int64 { return 1 })

	if def.Question() {
		picked = ensureCorrectOption(def, picked)
	}

	ids := make([]int32, 0, len(picked))
	for _, o := range picked {
		ids = append(ids, o.ID)
	}

	s.Room.addCase(&Case{Kind: KindEvent, Event: &EventCase{EventID: eventID, OptionIDs: ids}})
	return nil
}

// ensureCorrectOption swaps the correct answer into the sampled set when the
// roll missed it.
func ensureCorrectOption(def content.EventDef, picked []content.EventOption) []content.EventOption {
	for _, o := range picked {
		if o.Correct {
			return picked
		}
	}
	for _, o := range def.Options {
		if o.Correct {
			if len(picked) == 0 {
				return []content.EventOption{o}
			}
			picked[len(picked)-1] = o
			return picked
		}
	}
	return picked
}

// interactEvent resolves the chosen option through the fixed effect table.
// The case completes permanently on first resolution; an insufficient-funds
// spend is a soft rejection that leaves it open.
func (s *Session) interactEvent(c *Case, p Payload) (InteractResult, error) {
	if c.State == StateConsumed {
		return softResult(RetAlreadyDone), nil
	}
	if p.OptionID == nil {
		return softResult(RetBadChoice), nil
	}

	ev := c.Event
	if !containsID(ev.OptionIDs, *p.OptionID) {
		return softResult(RetBadChoice), nil
	}

	def, ok := s.lib.Event(ev.EventID)
	if !ok {
		return InteractResult{}, fmt.Errorf("event %d: %w", ev.EventID, content.ErrMissing)
	}
	opt, ok := def.Option(*p.OptionID)
	if !ok {
		return InteractResult{}, fmt.Errorf("event %d option %d: %w", ev.EventID, *p.OptionID, content.ErrMissing)
	}

	res := InteractResult{Ret: RetOK}

	switch opt.Effect {
	case content.EffectGainCurrency:
		s.gainRes(opt.ItemID, opt.Amount)
		res.change(opt.ItemID, opt.Amount)

	case content.EffectSpendCurrency:
		if !s.spendRes(opt.ItemID, opt.Amount) {
			return softResult(RetInsufficient), nil
		}
		res.change(opt.ItemID, -opt.Amount)

	case content.EffectPotentialPick:
		// With every potential capped the pick has nothing to offer; the
		// option settles empty instead of blocking the room.
		if s.hasRollable(false) {
			sel := s.newSelectorCase(s.rollTargetCharacter(), false)
			spawned := s.Room.addCase(&Case{Kind: KindPotentialSelector, Selector: sel})
			res.NewCases = append(res.NewCases, s.caseView(spawned))
		}

	case content.EffectGainSubNotes:
		s.grantSubNotes(opt.ItemID, opt.Amount)
		res.change(opt.ItemID, opt.Amount)

	case content.EffectDisplay:
		// Outcome is presentation-only.
	}

	c.State = StateConsumed
	res.Event = &EventView{EventID: ev.EventID, OptionIDs: ev.OptionIDs, Resolved: true}
	res.NewCases = append(res.NewCases, s.roomStep()...)
	return res, nil
}

func containsID(ids []int32, id int32) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
