package run

// RetCode classifies the outcome of a player-initiated operation. Anything
// other than RetOK is a soft failure: resolved as a value, never an error,
// and guaranteed not to have mutated state.
type RetCode int32

const (
	RetOK RetCode = 0

	// Interaction-level soft failures.
	RetUnknownCase  RetCode = 101 // stale/unknown case id; neutral no-op
	RetInsufficient RetCode = 102 // not enough currency
	RetSoldOut      RetCode = 103 // good already sold
	RetBadChoice    RetCode = 104 // option / candidate index out of range
	RetNoRerolls    RetCode = 105 // reroll budget exhausted
	RetNoCandidates RetCode = 106 // nothing left to roll
	RetAlreadyDone  RetCode = 107 // case already resolved

	// Lifecycle-level soft failures.
	RetNoSession        RetCode = 201
	RetSessionActive    RetCode = 202
	RetInvalidFormation RetCode = 203
	RetSweepLocked      RetCode = 204
	RetTowerNotCleared  RetCode = 205
	RetNoSweepTicket    RetCode = 206
	RetNoCandidate      RetCode = 207 // no pending build to save
	RetCapExceeded      RetCode = 208
	RetNotFound         RetCode = 209
	RetLocked           RetCode = 210
)

func (r RetCode) OK() bool { return r == RetOK }

// ItemChange is one entry of an interaction's itemized delta. Positive for
// grants, negative for spends; applies to run-scoped currency and bag items
// alike.
type ItemChange struct {
	ItemID int32 `json:"item_id"`
	Delta  int32 `json:"delta"`
}

// InteractResult is the response value of one case interaction.
type InteractResult struct {
	Ret     RetCode      `json:"ret"`
	Changes []ItemChange `json:"changes,omitempty"`

	// Cases emitted by this interaction (next pending selector, deferred
	// exit, spawned selector from a purchase, ...).
	NewCases []CaseView `json:"new_cases,omitempty"`

	// Set when the interaction advanced the run to a new room.
	Room *RoomView `json:"room,omitempty"`

	// Set once the final floor's exit closes the climb.
	RunComplete bool `json:"run_complete,omitempty"`

	// Kind-specific echo for the client.
	Selector *SelectorView `json:"selector,omitempty"`
	Hawker   *HawkerView   `json:"hawker,omitempty"`
	Event    *EventView    `json:"event,omitempty"`
}

func (r *InteractResult) change(itemID, delta int32) {
	if delta == 0 {
		return
	}
	r.Changes = append(r.Changes, ItemChange{ItemID: itemID, Delta: delta})
}

func softResult(ret RetCode) InteractResult { return InteractResult{Ret: ret} }

// CaseView is the client-facing shape of a case.
type CaseView struct {
	ID       int32         `json:"id"`
	Kind     string        `json:"kind"`
	Selector *SelectorView `json:"selector,omitempty"`
	Hawker   *HawkerView   `json:"hawker,omitempty"`
	Event    *EventView    `json:"event,omitempty"`
	Price    int32         `json:"price,omitempty"` // strengthen machine
}

type SelectorView struct {
	CharacterID int32   `json:"character_id,omitempty"`
	Candidates  []int32 `json:"candidates"`
	Rerolls     int32   `json:"rerolls"`
	RerollPrice int32   `json:"reroll_price,omitempty"`
}

type GoodsView struct {
	ID          int32 `json:"id"`
	Kind        int32 `json:"kind"`
	ItemID      int32 `json:"item_id,omitempty"`
	Count       int32 `json:"count,omitempty"`
	CharacterID int32 `json:"character_id,omitempty"`
	Price       int32 `json:"price"`
	DiscountPct int32 `json:"discount_pct,omitempty"`
	Sold        bool  `json:"sold"`
}

type HawkerView struct {
	Goods       []GoodsView `json:"goods"`
	RerollPrice int32       `json:"reroll_price"` // next refresh cost, 0 while free
}

type EventView struct {
	EventID   int32   `json:"event_id"`
	OptionIDs []int32 `json:"option_ids"`
	Resolved  bool    `json:"resolved"`
}

// RoomView is the client-facing shape of the active room.
type RoomView struct {
	Kind       string     `json:"kind"`
	StageNum   int32      `json:"stage_num"`
	StageFloor int32      `json:"stage_floor"`
	FloorCount int32      `json:"floor_count"`
	HasDoor    bool       `json:"has_door"`
	Cases      []CaseView `json:"cases"`
}

// View summarizes the full live run for the client.
type View struct {
	TowerID    int32           `json:"tower_id"`
	Level      int32           `json:"level"`
	Exp        int32           `json:"exp"`
	NextExp    int32           `json:"next_exp"`
	TeamHP     int32           `json:"team_hp"`
	TeamEnergy int32           `json:"team_energy"`
	Res        map[int32]int32 `json:"res"`
	Bag        map[int32]int32 `json:"bag"`
	Potentials map[int32]int32 `json:"potentials"`
	Pending    int32           `json:"pending_picks"`
	Room       RoomView        `json:"room"`
}
