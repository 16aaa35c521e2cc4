// Package run implements one active tower climb: floor and room
// progression, the case interaction state machine, level-up accounting and
// the in-run economy. A Session is single-writer; the owning manager
// serializes all access.
package run

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/qinfyy/Nebula-sub000/internal/build"
	"github.com/qinfyy/Nebula-sub000/internal/content"
	"github.com/qinfyy/Nebula-sub000/internal/modifier"
	"github.com/qinfyy/Nebula-sub000/internal/weighted"
)

// maxLevelLoop bounds the level-up loop against pathological exp grants.
const maxLevelLoop = 200

const defaultTeamHP = 100

// Session is one live run.
type Session struct {
	PlayerID string
	TowerID  int32

	FloorCount int32 // monotonic, one per room transition
	StageNum   int32
	StageFloor int32

	Level int32
	Exp   int32

	TeamHP     int32
	TeamEnergy int32

	Characters []int32 // index 0 = main character
	Discs      []int32

	Bag        map[int32]int32 // sub-note item id -> quantity
	Res        map[int32]int32 // currency id -> quantity
	Potentials map[int32]int32 // potential id -> level

	PendingPicks    int32 // level-up selector cases still owed
	PendingSubNotes int32 // sub-note units granted, unacknowledged by client

	Completed bool // final floor's exit taken; awaiting settlement

	Mods *modifier.Mods
	Room *Room

	StartedAt time.Time

	lib   *content.Library
	tower content.TowerDef
	rng   *rand.Rand

	snapshot *build.Build // lazy cache, dropped on any economy mutation
}

// NewSession starts a run at the tower's first floor. rng drives every
// procedural decision for the run; tests inject fixed seeds.
func NewSession(lib *content.Library, tower content.TowerDef, playerID string,
	characters, discs []int32, mods *modifier.Mods, rng *rand.Rand, now time.Time) (*Session, error) {

	s := &Session{
		PlayerID:   playerID,
		TowerID:    tower.ID,
		StageNum:   1,
		Level:      1,
		TeamHP:     defaultTeamHP,
		TeamEnergy: 0,
		Characters: append([]int32(nil), characters...),
		Discs:      append([]int32(nil), discs...),
		Bag:        make(map[int32]int32),
		Res:        make(map[int32]int32),
		Potentials: make(map[int32]int32),
		Mods:       mods,
		StartedAt:  now,
		lib:        lib,
		tower:      tower,
		rng:        rng,
	}

	s.Res[content.CurrencyCoin] = tower.StartCoins + mods.StartCoins

	if err := s.enterNextRoom(); err != nil {
		return nil, err
	}
	return s, nil
}

// enterNextRoom advances the floor/stage counters, resolves the stage table
// and builds the next room. A missing floor lookup for a reachable position
// is a content defect and aborts the run.
func (s *Session) enterNextRoom() error {
	s.FloorCount++
	s.StageFloor++

	if stage, ok := s.tower.Stage(s.StageNum); ok && int(s.StageFloor) > len(stage.Floors) {
		s.StageFloor = 1
		s.StageNum++
	}

	floor, ok := s.tower.Floor(s.StageNum, s.StageFloor)
	if !ok {
		return fmt.Errorf("tower %d stage %d floor %d: %w",
			s.TowerID, s.StageNum, s.StageFloor, content.ErrMissing)
	}

	finalStage, finalFloor := s.tower.FinalFloor()
	final := s.StageNum == finalStage && s.StageFloor == finalFloor

	room := newRoom(roomKindFor(floor.RoomCode), s.StageNum, s.StageFloor, floor, final)
	s.Room = room

	// Every room carries a sync case for HP/energy reconciliation.
	room.addCase(&Case{Kind: KindSyncHP})

	return s.populateRoom()
}

// populateRoom registers the room's kind-specific cases. Battle rooms stay
// open until the floor battle is reported cleared; event rooms until the
// encounter resolves. Rooms owing selector picks from a prior level-up emit
// one selector before anything else.
func (s *Session) populateRoom() error {
	r := s.Room

	switch r.Kind {
	case RoomEvent:
		if err := s.addEventCase(); err != nil {
			return err
		}
	case RoomHawker:
		s.addHawkerCase()
	}

	if r.Kind == RoomBattle || r.Kind == RoomEvent {
		// Picks owed from a prior level-up surface before anything else.
		// The exit stays withheld until the battle report or encounter
		// settles and the pick debt drains; roomStep emits it then.
		if s.PendingPicks > 0 {
			s.materializePendingPick()
		}
		return nil
	}

	// Hawker and base rooms expose their exit immediately.
	s.finishRoom()
	return nil
}

// roomStep re-evaluates room completion after an interaction settled
// something: emits the next pending selector (at most one), or the deferred
// exit and bonus cases once nothing is owed.
func (s *Session) roomStep() []CaseView {
	r := s.Room
	if r.finished {
		return nil
	}
	if r.Kind == RoomBattle && !r.cleared {
		return nil
	}
	if r.Kind == RoomEvent && s.eventUnresolved() {
		return nil
	}
	if r.activeSelector() {
		return nil
	}

	if s.PendingPicks > 0 {
		if c := s.materializePendingPick(); c != nil {
			return []CaseView{s.caseView(c)}
		}
	}

	return s.finishRoom()
}

// finishRoom emits the room's closing cases: recovery NPC for non-final
// battle rooms, hawker and strengthen machine on the final floor, then the
// single exit.
func (s *Session) finishRoom() []CaseView {
	r := s.Room
	if r.finished {
		return nil
	}
	r.finished = true

	var out []CaseView

	if r.Final {
		if r.Kind != RoomHawker {
			c := s.addHawkerCase()
			out = append(out, s.caseView(c))
		}
		if s.Mods.StrengthenUnlocked {
			c := r.addCase(&Case{Kind: KindStrengthen, Strengthen: &StrengthenCase{}})
			out = append(out, s.caseView(c))
		}
	} else if r.Kind == RoomBattle {
		c := r.addCase(&Case{Kind: KindRecoverHP})
		out = append(out, s.caseView(c))
	}

	exit := r.addCase(&Case{Kind: KindExit})
	out = append(out, s.caseView(exit))
	return out
}

func (s *Session) eventUnresolved() bool {
	for _, c := range s.Room.cases {
		if c.Kind == KindEvent && c.State == StateActive {
			return true
		}
	}
	return false
}

// GainExp accrues exp and converts full thresholds into level-ups, queueing
// one pending selector pick per level. Multi-level grants resolve in one
// call; the loop is bounded rather than recursive.
func (s *Session) GainExp(n int32) {
	if n <= 0 {
		return
	}
	s.Exp += n
	s.invalidate()

	for i := 0; i < maxLevelLoop; i++ {
		need := s.lib.NextLevelExp(s.Level)
		if need <= 0 || s.Exp < need {
			return
		}
		s.Exp -= need
		s.Level++
		s.PendingPicks++
	}
}

// materializePendingPick converts one owed pick into a live selector case.
// With every reachable potential at its cap there is nothing left to roll;
// caps never loosen mid-run, so the remaining debt is forgiven rather than
// blocking the room on an unresolvable selector.
func (s *Session) materializePendingPick() *Case {
	if !s.hasRollable(false) {
		s.PendingPicks = 0
		return nil
	}
	s.PendingPicks--
	target := s.rollTargetCharacter()
	sel := s.newSelectorCase(target, false)
	return s.Room.addCase(&Case{Kind: KindPotentialSelector, Selector: sel})
}

// rollTargetCharacter picks the selector's target; the main character
// carries double weight in the team pool.
func (s *Session) rollTargetCharacter() int32 {
	var sel weighted.Selector[int32]
	for i, id := range s.Characters {
		w := int64(1)
		if i == 0 {
			w = 2
		}
		sel.Add(w, id)
	}
	id, ok := sel.Next(s.rng)
	if !ok {
		return 0
	}
	return id
}

// grantPotential raises the potential one level, clamped to its
// modifier-adjusted max.
func (s *Session) grantPotential(id int32) error {
	def, err := s.lib.MustPotential(id)
	if err != nil {
		return err
	}
	max := def.MaxLevel + s.Mods.PotentialMaxBonus
	if s.Potentials[id] < max {
		s.Potentials[id]++
		s.invalidate()
	}
	return nil
}

// potentialMaxed reports whether the potential sits at its adjusted cap.
func (s *Session) potentialMaxed(def content.PotentialDef) bool {
	return s.Potentials[def.ID] >= def.MaxLevel+s.Mods.PotentialMaxBonus
}

func (s *Session) grantSubNotes(itemID, n int32) {
	if n <= 0 {
		return
	}
	s.Bag[itemID] += n
	s.PendingSubNotes += n
	s.invalidate()
}

// spendRes deducts run currency; false means insufficient funds and no
// change.
func (s *Session) spendRes(itemID, n int32) bool {
	if n < 0 {
		return false
	}
	if s.Res[itemID] < n {
		return false
	}
	s.Res[itemID] -= n
	s.invalidate()
	return true
}

func (s *Session) gainRes(itemID, n int32) {
	if n <= 0 {
		return
	}
	s.Res[itemID] += n
	s.invalidate()
}

func (s *Session) invalidate() { s.snapshot = nil }

// Snapshot distills the session into a build candidate. The result is
// cached until the next economy mutation; the score is always a full
// recomputation.
func (s *Session) Snapshot() *build.Build {
	if s.snapshot != nil {
		return s.snapshot
	}

	b := &build.Build{
		ID:           uuid.NewString(),
		PlayerID:     s.PlayerID,
		CharacterIDs: append([]int32(nil), s.Characters...),
		DiscIDs:      append([]int32(nil), s.Discs...),
		Potentials:   clone(s.Potentials),
		SubNotes:     clone(s.Bag),
		CreatedAt:    s.StartedAt,
	}
	b.Rescore(s.lib)

	s.snapshot = b
	return b
}

// RunView renders the whole live run.
func (s *Session) RunView() View {
	return View{
		TowerID:    s.TowerID,
		Level:      s.Level,
		Exp:        s.Exp,
		NextExp:    s.lib.NextLevelExp(s.Level),
		TeamHP:     s.TeamHP,
		TeamEnergy: s.TeamEnergy,
		Res:        clone(s.Res),
		Bag:        clone(s.Bag),
		Potentials: clone(s.Potentials),
		Pending:    s.PendingPicks,
		Room:       s.roomView(),
	}
}

func (s *Session) roomView() RoomView {
	r := s.Room
	v := RoomView{
		Kind:       r.Kind.String(),
		StageNum:   r.StageNum,
		StageFloor: r.StageFloor,
		FloorCount: s.FloorCount,
		HasDoor:    r.HasDoor,
	}
	for _, c := range r.cases {
		if c.State != StateActive {
			continue
		}
		v.Cases = append(v.Cases, s.caseView(c))
	}
	return v
}

func (s *Session) caseView(c *Case) CaseView {
	v := CaseView{ID: c.ID, Kind: c.Kind.String()}
	switch c.Kind {
	case KindPotentialSelector:
		v.Selector = selectorView(c.Selector)
	case KindHawker:
		v.Hawker = s.hawkerView(c.Hawker)
	case KindEvent:
		v.Event = &EventView{
			EventID:   c.Event.EventID,
			OptionIDs: append([]int32(nil), c.Event.OptionIDs...),
			Resolved:  c.State == StateConsumed,
		}
	case KindStrengthen:
		v.Price = s.strengthenPrice(c.Strengthen)
	}
	return v
}

func selectorView(sel *SelectorCase) *SelectorView {
	return &SelectorView{
		CharacterID: sel.CharacterID,
		Candidates:  append([]int32(nil), sel.Candidates...),
		Rerolls:     sel.Rerolls,
		RerollPrice: sel.RerollPrice,
	}
}

func clone(m map[int32]int32) map[int32]int32 {
	out := make(map[int32]int32, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
