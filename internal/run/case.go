package run

// CaseKind tags the closed set of interactable case variants.
type CaseKind int32

const (
	KindExit CaseKind = iota + 1
	KindPotentialSelector
	KindHawker
	KindStrengthen
	KindEvent
	KindRecoverHP
	KindSyncHP
)

func (k CaseKind) String() string {
	switch k {
	case KindExit:
		return "exit"
	case KindPotentialSelector:
		return "potential_selector"
	case KindHawker:
		return "hawker"
	case KindStrengthen:
		return "strengthen"
	case KindEvent:
		return "event"
	case KindRecoverHP:
		return "recover_hp"
	case KindSyncHP:
		return "sync_hp"
	}
	return "unknown"
}

// CaseState is the unified case lifecycle.
type CaseState int32

const (
	StateActive CaseState = iota
	StateConsumed
)

// Case is one interactable unit within a room. Kind selects which payload
// pointer is set; the rest stay nil.
type Case struct {
	ID    int32
	Kind  CaseKind
	State CaseState

	Selector   *SelectorCase
	Hawker     *HawkerCase
	Strengthen *StrengthenCase
	Event      *EventCase
}

// persistent cases stay addressable after interactions within their room;
// the rest turn into stale ids once consumed. Resolved events remain
// addressable so a repeat choice reports already-done instead of unknown.
func (c *Case) persistent() bool {
	switch c.Kind {
	case KindHawker, KindStrengthen, KindSyncHP, KindEvent:
		return true
	}
	return false
}

// SelectorCase holds up to 3 distinct candidate potential ids.
type SelectorCase struct {
	CharacterID int32   // target character; 0 = whole team
	Candidates  []int32 // potential ids, no duplicates, none at adjusted max
	Rerolls     int32   // remaining reroll credits
	RerollPrice int32
	UpgradeOnly bool // strengthen machine: only owned potentials
}

// GoodsKind tags hawker stock entries.
type GoodsKind int32

const (
	GoodsPotential GoodsKind = iota + 1
	GoodsCharPotential
	GoodsSubNote
	GoodsBulkSubNote
)

func (k GoodsKind) potential() bool {
	return k == GoodsPotential || k == GoodsCharPotential
}

// Goods is one purchasable hawker entry.
type Goods struct {
	ID          int32
	Kind        GoodsKind
	ItemID      int32 // sub-note item id (sub-note kinds only)
	Count       int32
	CharacterID int32 // character-specific potential goods only
	Price       int32
	DiscountPct int32
	Sold        bool
}

// FinalPrice applies the good's own discount on top of the already
// modifier-discounted base price.
func (g Goods) FinalPrice() int32 {
	if g.DiscountPct <= 0 {
		return g.Price
	}
	p := g.Price - g.Price*g.DiscountPct/100
	if p < 0 {
		p = 0
	}
	return p
}

// HawkerCase is the in-run shop; it persists across interactions.
type HawkerCase struct {
	Goods       []Goods
	RerollCount int32 // total refreshes performed by the player
	nextGoodsID int32
}

func (h *HawkerCase) goods(id int32) *Goods {
	for i := range h.Goods {
		if h.Goods[i].ID == id {
			return &h.Goods[i]
		}
	}
	return nil
}

// StrengthenCase tracks paid uses; pricing derives from them.
type StrengthenCase struct {
	Uses int32 // successful non-free purchases
}

// EventCase is one NPC encounter with a sampled option subset.
type EventCase struct {
	EventID   int32
	OptionIDs []int32
}
