package content

import (
	"errors"
	"fmt"
)

// ErrMissing marks a lookup the engine itself depends on. A miss is a content
// table defect, never a player-facing soft failure; callers wrap it with %w
// and abort the operation.
var ErrMissing = errors.New("missing content definition")

// Currency item ids used by the run economy.
const (
	CurrencyCoin       int32 = 6001 // in-run shop currency
	CurrencyTowerMedal int32 = 7001 // sweep ticket / dismantle refund
	CurrencyHollowPass int32 = 7002 // fallback sweep ticket
)

// SubNoteScore is the score contributed by one unit of any sub-note skill.
const SubNoteScore int32 = 15

// Question-type event ids live in a reserved band; their sampled option set
// must always include the correct answer.
const (
	QuestionEventLow  int32 = 5200
	QuestionEventHigh int32 = 5299
)

// RoomCode is the per-floor room-type code from the stage table.
type RoomCode int32

const (
	RoomCodeBattle      RoomCode = 1
	RoomCodeBattleElite RoomCode = 2
	RoomCodeBattleBoss  RoomCode = 3
	RoomCodeEvent       RoomCode = 10
	RoomCodeHawker      RoomCode = 20
	RoomCodeRest        RoomCode = 30
)

// Battle reports whether the code instantiates a battle room.
func (c RoomCode) Battle() bool {
	return c == RoomCodeBattle || c == RoomCodeBattleElite || c == RoomCodeBattleBoss
}

// FloorDef describes one floor of a stage.
type FloorDef struct {
	RoomCode RoomCode `json:"room_code"`
	ClearExp int32    `json:"clear_exp"` // exp granted when the floor's battle is cleared
}

// StageDef groups consecutive floors.
type StageDef struct {
	StageNum int32      `json:"stage_num"`
	Floors   []FloorDef `json:"floors"` // index 0 = stage floor 1
}

// TowerDef is one static tower (run) definition.
type TowerDef struct {
	ID           int32           `json:"id"`
	Difficulty   int32           `json:"difficulty"`
	StartCoins   int32           `json:"start_coins"`
	Stages       []StageDef      `json:"stages"`
	SweepRewards map[int32]int32 `json:"sweep_rewards"` // item id -> quantity
}

// Stage returns the stage table entry for stageNum.
func (t TowerDef) Stage(stageNum int32) (StageDef, bool) {
	for _, s := range t.Stages {
		if s.StageNum == stageNum {
			return s, true
		}
	}
	return StageDef{}, false
}

// Floor resolves (stageNum, stageFloor); stageFloor is 1-based.
func (t TowerDef) Floor(stageNum, stageFloor int32) (FloorDef, bool) {
	s, ok := t.Stage(stageNum)
	if !ok {
		return FloorDef{}, false
	}
	if stageFloor < 1 || int(stageFloor) > len(s.Floors) {
		return FloorDef{}, false
	}
	return s.Floors[stageFloor-1], true
}

// FinalFloor reports the last reachable (stageNum, stageFloor) pair.
func (t TowerDef) FinalFloor() (stageNum, stageFloor int32) {
	if len(t.Stages) == 0 {
		return 0, 0
	}
	last := t.Stages[len(t.Stages)-1]
	return last.StageNum, int32(len(last.Floors))
}

// TotalFloors counts every reachable floor of the tower.
func (t TowerDef) TotalFloors() int32 {
	var n int32
	for _, s := range t.Stages {
		n += int32(len(s.Floors))
	}
	return n
}

// PotentialDef is a procedurally grantable character upgrade.
type PotentialDef struct {
	ID          int32   `json:"id"`
	CharacterID int32   `json:"character_id"`
	MaxLevel    int32   `json:"max_level"`
	Weight      int32   `json:"weight"`
	BuildScore  []int32 `json:"build_score"` // score at level i+1; clamped to the last entry
}

// ScoreAt returns the build score contributed at the given level. Levels past
// the table's end clamp to the last entry; level 0 scores nothing.
func (p PotentialDef) ScoreAt(level int32) int32 {
	if level <= 0 || len(p.BuildScore) == 0 {
		return 0
	}
	idx := int(level) - 1
	if idx >= len(p.BuildScore) {
		idx = len(p.BuildScore) - 1
	}
	return p.BuildScore[idx]
}

// EventEffect is the fixed effect table for NPC event options.
type EventEffect int32

const (
	EffectDisplay       EventEffect = 0 // display-only outcome
	EffectGainCurrency  EventEffect = 1
	EffectSpendCurrency EventEffect = 2
	EffectPotentialPick EventEffect = 3
	EffectGainSubNotes  EventEffect = 4
)

// EventOption is one selectable outcome of an NPC event.
type EventOption struct {
	ID      int32       `json:"id"`
	Effect  EventEffect `json:"effect"`
	ItemID  int32       `json:"item_id,omitempty"`
	Amount  int32       `json:"amount,omitempty"`
	Correct bool        `json:"correct,omitempty"` // question-band answer flag
}

// EventDef is one static NPC event with its option pool.
type EventDef struct {
	ID      int32         `json:"id"`
	Options []EventOption `json:"options"`
}

// Question reports whether the event id falls in the question band.
func (e EventDef) Question() bool {
	return e.ID >= QuestionEventLow && e.ID <= QuestionEventHigh
}

// Option resolves an option id within the event's pool.
func (e EventDef) Option(id int32) (EventOption, bool) {
	for _, o := range e.Options {
		if o.ID == id {
			return o, true
		}
	}
	return EventOption{}, false
}

// DiscountTier is one store-wide hawker discount roll, evaluated once per
// tier per shop refresh.
type DiscountTier struct {
	Percent   int32 `json:"percent"`
	ChancePct int32 `json:"chance_pct"`
	MaxGoods  int32 `json:"max_goods"` // bound on not-yet-discounted goods it can touch
}

// HawkerPricing parametrizes shop goods generation.
type HawkerPricing struct {
	BaseGoods          int32          `json:"base_goods"`
	PotentialPrice     int32          `json:"potential_price"`
	CharPotentialPrice int32          `json:"char_potential_price"`
	CharPotentialPct   int32          `json:"char_potential_pct"` // chance a potential good is character-specific
	SubNotePrice       int32          `json:"sub_note_price"`
	SubNoteCount       int32          `json:"sub_note_count"`
	BulkSubNotePrice   int32          `json:"bulk_sub_note_price"`
	BulkSubNoteCount   int32          `json:"bulk_sub_note_count"`
	BulkChancePct      int32          `json:"bulk_chance_pct"` // rolled only when the player can afford bulk
	DiscountTiers      []DiscountTier `json:"discount_tiers"`
	FreeRerolls        int32          `json:"free_rerolls"`
	RerollPrice        int32          `json:"reroll_price"` // per paid reroll, escalating
}

// StrengthenPricing parametrizes the strengthen machine.
type StrengthenPricing struct {
	Base      int32 `json:"base"`
	Increment int32 `json:"increment"`
}

// SelectorPricing parametrizes potential-selector rerolls.
type SelectorPricing struct {
	RerollPrice int32 `json:"reroll_price"`
}

// SubNoteDef is a consumable material the run's bag tracks.
type SubNoteDef struct {
	ItemID int32 `json:"item_id"`
	Weight int32 `json:"weight"`
}

// Library is the injected read-only content registry. It is safely shared
// across all sessions; nothing in the engine mutates it after load.
type Library struct {
	Towers     map[int32]TowerDef
	Potentials map[int32]PotentialDef
	Events     map[int32]EventDef
	SubNotes   []SubNoteDef
	LevelExp   []int32 // exp needed to leave level i+1; clamped to the last entry
	Hawker     HawkerPricing
	Strengthen StrengthenPricing
	Selector   SelectorPricing

	// Event ids eligible for event rooms, in rolled weight order.
	EventPool []int32
}

// Tower looks up a tower definition.
func (l *Library) Tower(id int32) (TowerDef, bool) {
	t, ok := l.Towers[id]
	return t, ok
}

// Potential looks up a potential definition.
func (l *Library) Potential(id int32) (PotentialDef, bool) {
	p, ok := l.Potentials[id]
	return p, ok
}

// MustPotential resolves a potential the engine itself granted earlier; a
// miss at that point is a table integrity defect.
func (l *Library) MustPotential(id int32) (PotentialDef, error) {
	p, ok := l.Potentials[id]
	if !ok {
		return PotentialDef{}, fmt.Errorf("potential %d: %w", id, ErrMissing)
	}
	return p, nil
}

// Event looks up an event definition.
func (l *Library) Event(id int32) (EventDef, bool) {
	e, ok := l.Events[id]
	return e, ok
}

// NextLevelExp returns the exp threshold to leave the given level. Levels
// past the table clamp to its last entry; an empty table disables leveling.
func (l *Library) NextLevelExp(level int32) int32 {
	if len(l.LevelExp) == 0 || level <= 0 {
		return 0
	}
	idx := int(level) - 1
	if idx >= len(l.LevelExp) {
		idx = len(l.LevelExp) - 1
	}
	return l.LevelExp[idx]
}
