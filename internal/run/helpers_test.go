package run

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/qinfyy/Nebula-sub000/internal/content"
	"github.com/qinfyy/Nebula-sub000/internal/growth"
	"github.com/qinfyy/Nebula-sub000/internal/modifier"
)

var (
	testTeam  = []int32{10, 11, 12}
	testDiscs = []int32{90, 91, 92}
)

// testLibrary builds a small content set: two potentials per team character,
// one plain and one question event, and fixed pricing.
func testLibrary() *content.Library {
	lib := &content.Library{
		Towers:     map[int32]content.TowerDef{},
		Potentials: map[int32]content.PotentialDef{},
		Events:     map[int32]content.EventDef{},
	}

	pots := []struct{ id, char int32 }{
		{11, 10}, {12, 10},
		{21, 11}, {22, 11},
		{31, 12}, {32, 12},
	}
	for _, p := range pots {
		lib.Potentials[p.id] = content.PotentialDef{
			ID:          p.id,
			CharacterID: p.char,
			MaxLevel:    3,
			Weight:      100,
			BuildScore:  []int32{10, 50, 120},
		}
	}

	lib.Events[5100] = content.EventDef{ID: 5100, Options: []content.EventOption{
		{ID: 1, Effect: content.EffectGainCurrency, ItemID: content.CurrencyCoin, Amount: 30},
		{ID: 2, Effect: content.EffectSpendCurrency, ItemID: content.CurrencyCoin, Amount: 40},
		{ID: 3, Effect: content.EffectPotentialPick},
		{ID: 4, Effect: content.EffectGainSubNotes, ItemID: 8001, Amount: 3},
	}}
	lib.Events[5250] = content.EventDef{ID: 5250, Options: []content.EventOption{
		{ID: 1, Effect: content.EffectDisplay},
		{ID: 2, Effect: content.EffectDisplay},
		{ID: 3, Effect: content.EffectDisplay},
		{ID: 4, Effect: content.EffectGainCurrency, ItemID: content.CurrencyCoin, Amount: 100, Correct: true},
		{ID: 5, Effect: content.EffectDisplay},
		{ID: 6, Effect: content.EffectDisplay},
	}}
	lib.EventPool = []int32{5100}

	lib.SubNotes = []content.SubNoteDef{
		{ItemID: 8001, Weight: 100},
		{ItemID: 8002, Weight: 50},
	}

	lib.LevelExp = []int32{50, 70, 95}

	lib.Hawker = content.HawkerPricing{
		BaseGoods:          5,
		PotentialPrice:     50,
		CharPotentialPrice: 65,
		CharPotentialPct:   30,
		SubNotePrice:       20,
		SubNoteCount:       2,
		BulkSubNotePrice:   50,
		BulkSubNoteCount:   6,
		BulkChancePct:      35,
		DiscountTiers: []content.DiscountTier{
			{Percent: 20, ChancePct: 40, MaxGoods: 2},
			{Percent: 50, ChancePct: 10, MaxGoods: 1},
		},
		FreeRerolls: 1,
		RerollPrice: 20,
	}
	lib.Strengthen = content.StrengthenPricing{Base: 60, Increment: 30}
	lib.Selector = content.SelectorPricing{RerollPrice: 15}

	return lib
}

func testTower(stages ...[]content.FloorDef) content.TowerDef {
	t := content.TowerDef{ID: 900, Difficulty: 1, StartCoins: 100}
	for i, floors := range stages {
		t.Stages = append(t.Stages, content.StageDef{StageNum: int32(i + 1), Floors: floors})
	}
	return t
}

func battle(exp int32) content.FloorDef {
	return content.FloorDef{RoomCode: content.RoomCodeBattle, ClearExp: exp}
}
func eventFloor() content.FloorDef { return content.FloorDef{RoomCode: content.RoomCodeEvent} }
func hawkerFloor() content.FloorDef {
	return content.FloorDef{RoomCode: content.RoomCodeHawker}
}
func rest() content.FloorDef { return content.FloorDef{RoomCode: content.RoomCodeRest} }

// newTestSession accepts require.TestingT so property tests can drive it too.
func newTestSession(t require.TestingT, lib *content.Library, tower content.TowerDef, seed int64, nodes ...growth.NodeID) *Session {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}

	var set growth.Set
	for _, n := range nodes {
		set.Unlock(n)
	}
	mods := modifier.Compute(set, tower.Difficulty)

	rng := rand.New(rand.NewSource(seed))
	s, err := NewSession(lib, tower, "p1", testTeam, testDiscs, mods, rng,
		time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return s
}

// caseID returns the id of the first active case of the given kind in the
// current room.
func caseID(t *testing.T, s *Session, kind CaseKind) int32 {
	t.Helper()
	for _, c := range s.Room.cases {
		if c.Kind == kind && c.State == StateActive {
			return c.ID
		}
	}
	t.Fatalf("no active %s case in room", kind)
	return 0
}

func findCase(t *testing.T, s *Session, kind CaseKind) *Case {
	t.Helper()
	c, ok := s.Room.findCase(caseID(t, s, kind))
	require.True(t, ok)
	return c
}

func ptr(v int32) *int32 { return &v }
