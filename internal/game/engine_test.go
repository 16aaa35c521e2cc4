package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qinfyy/Nebula-sub000/internal/build"
	"github.com/qinfyy/Nebula-sub000/internal/content"
	"github.com/qinfyy/Nebula-sub000/internal/growth"
	"github.com/qinfyy/Nebula-sub000/internal/inventory"
	"github.com/qinfyy/Nebula-sub000/internal/run"
	"github.com/qinfyy/Nebula-sub000/internal/telemetry"
)

type FakeClock struct {
	now time.Time
}

func (c *FakeClock) Now() time.Time { return c.now }

func (c *FakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

var (
	testTeam  = []int32{10, 11, 12}
	testDiscs = []int32{90, 91, 92}
)

// engineLibrary: one tower of two plain floors plus one battle tower, enough
// potentials for the test team.
func engineLibrary() *content.Library {
	lib := &content.Library{
		Towers:     map[int32]content.TowerDef{},
		Potentials: map[int32]content.PotentialDef{},
		Events:     map[int32]content.EventDef{},
	}

	lib.Towers[700] = content.TowerDef{
		ID:         700,
		Difficulty: 1,
		StartCoins: 100,
		Stages: []content.StageDef{
			{StageNum: 1, Floors: []content.FloorDef{
				{RoomCode: content.RoomCodeRest},
				{RoomCode: content.RoomCodeRest},
			}},
		},
		SweepRewards: map[int32]int32{content.CurrencyCoin: 150, 8001: 4},
	}
	lib.Towers[701] = content.TowerDef{
		ID:         701,
		Difficulty: 2,
		StartCoins: 100,
		Stages: []content.StageDef{
			{StageNum: 1, Floors: []content.FloorDef{
				{RoomCode: content.RoomCodeBattle, ClearExp: 50},
				{RoomCode: content.RoomCodeRest},
			}},
		},
	}

	for i, char := range testTeam {
		id := int32(100*(i+1) + 1)
		lib.Potentials[id] = content.PotentialDef{
			ID: id, CharacterID: char, MaxLevel: 3, Weight: 100,
			BuildScore: []int32{10, 50, 120},
		}
	}

	lib.SubNotes = []content.SubNoteDef{{ItemID: 8001, Weight: 100}}
	lib.LevelExp = []int32{50, 70}
	lib.Hawker = content.HawkerPricing{
		BaseGoods: 4, PotentialPrice: 50, CharPotentialPrice: 65,
		SubNotePrice: 20, SubNoteCount: 2,
		BulkSubNotePrice: 50, BulkSubNoteCount: 6,
		FreeRerolls: 1, RerollPrice: 20,
	}
	lib.Strengthen = content.StrengthenPricing{Base: 60, Increment: 30}
	lib.Selector = content.SelectorPricing{RerollPrice: 15}
	return lib
}

func newEngineForTest(t *testing.T) (*Engine, *FakeClock, *growth.MemoryRepo, *inventory.MemoryLedger) {
	t.Helper()

	clock := &FakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	growthRepo := growth.NewMemoryRepo()
	items := inventory.NewMemoryLedger()

	e := NewEngine(engineLibrary(), build.NewMemoryRepo(), growthRepo, items)
	e.Clock = clock
	e.Seed = func() int64 { return 42 }
	return e, clock, growthRepo, items
}

func applyRun(t *testing.T, e *Engine, player string, towerID int32) *run.View {
	t.Helper()
	res, err := e.Apply(context.Background(), player, ApplyRequest{
		TowerID:      towerID,
		CharacterIDs: testTeam,
		DiscIDs:      testDiscs,
	})
	require.NoError(t, err)
	require.Equal(t, run.RetOK, res.Ret)
	require.NotNil(t, res.Run)
	return res.Run
}

func exitCaseID(t *testing.T, room run.RoomView) int32 {
	t.Helper()
	for _, c := range room.Cases {
		if c.Kind == "exit" {
			return c.ID
		}
	}
	t.Fatalf("no exit case in room view: %+v", room)
	return 0
}

// completeRun walks every exit of the two-floor rest tower.
func completeRun(t *testing.T, e *Engine, player string) {
	t.Helper()
	ctx := context.Background()

	view := applyRun(t, e, player, 700)
	room := view.Room
	for {
		res, err := e.Interact(ctx, player, exitCaseID(t, room), run.Payload{})
		require.NoError(t, err)
		require.Equal(t, run.RetOK, res.Ret)
		if res.RunComplete {
			return
		}
		require.NotNil(t, res.Room)
		room = *res.Room
	}
}

func TestApplyValidation(t *testing.T) {
	e, _, _, _ := newEngineForTest(t)
	ctx := context.Background()

	res, err := e.Apply(ctx, "p1", ApplyRequest{TowerID: 9999, CharacterIDs: testTeam, DiscIDs: testDiscs})
	require.NoError(t, err)
	assert.Equal(t, run.RetNotFound, res.Ret)

	res, err = e.Apply(ctx, "p1", ApplyRequest{TowerID: 700, CharacterIDs: []int32{10, 10, 11}, DiscIDs: testDiscs})
	require.NoError(t, err)
	assert.Equal(t, run.RetInvalidFormation, res.Ret)

	res, err = e.Apply(ctx, "p1", ApplyRequest{TowerID: 700, CharacterIDs: testTeam, DiscIDs: []int32{90}})
	require.NoError(t, err)
	assert.Equal(t, run.RetInvalidFormation, res.Ret)
}

func TestInteractWithoutSession(t *testing.T) {
	e, _, _, _ := newEngineForTest(t)

	res, err := e.Interact(context.Background(), "p1", 1, run.Payload{})
	require.NoError(t, err)
	assert.Equal(t, run.RetNoSession, res.Ret)
}

func TestApplyReplacesExistingRun(t *testing.T) {
	e, _, _, _ := newEngineForTest(t)

	first := applyRun(t, e, "p1", 700)
	second := applyRun(t, e, "p1", 701)

	assert.Equal(t, int32(700), first.TowerID)
	assert.Equal(t, int32(701), second.TowerID)

	// The old run's cases are gone with it; the new session's battle room
	// answers its clear report.
	var syncID int32
	for _, c := range second.Room.Cases {
		if c.Kind == "sync_hp" {
			syncID = c.ID
		}
	}
	require.NotZero(t, syncID)

	res, err := e.Interact(context.Background(), "p1", syncID, run.Payload{Cleared: true})
	require.NoError(t, err)
	assert.Equal(t, run.RetOK, res.Ret)
}

func TestSettleVictoryProducesScoredCandidate(t *testing.T) {
	e, clock, growthRepo, _ := newEngineForTest(t)
	ctx := context.Background()

	completeRun(t, e, "p1")
	clock.Advance(7 * time.Minute)

	sum, err := e.Settle(ctx, "p1", true)
	require.NoError(t, err)
	require.Equal(t, run.RetOK, sum.Ret)
	assert.True(t, sum.Victory)
	assert.Equal(t, int64(7*60), sum.ElapsedSec)
	require.NotNil(t, sum.Build)

	// The reported score is always a fresh recomputation of the snapshot.
	assert.Equal(t, build.Score(e.Content, sum.Build.Potentials, sum.Build.SubNotes), sum.Score)

	cleared, err := growthRepo.IsCleared(ctx, "p1", 700)
	require.NoError(t, err)
	assert.True(t, cleared)

	// The session is gone; only the pending candidate remains.
	res, err := e.Interact(ctx, "p1", 1, run.Payload{})
	require.NoError(t, err)
	assert.Equal(t, run.RetNoSession, res.Ret)

	sum, err = e.Settle(ctx, "p1", true)
	require.NoError(t, err)
	assert.Equal(t, run.RetNoSession, sum.Ret)
}

func TestSettleDefeatSkipsClearedMark(t *testing.T) {
	e, _, growthRepo, _ := newEngineForTest(t)
	ctx := context.Background()

	applyRun(t, e, "p1", 700)
	sum, err := e.Settle(ctx, "p1", false)
	require.NoError(t, err)
	require.Equal(t, run.RetOK, sum.Ret)
	assert.False(t, sum.Victory)

	cleared, err := growthRepo.IsCleared(ctx, "p1", 700)
	require.NoError(t, err)
	assert.False(t, cleared)
}

func TestSaveBuildPersistsCandidate(t *testing.T) {
	e, _, _, _ := newEngineForTest(t)
	ctx := context.Background()

	// No candidate yet.
	saved, err := e.SaveBuild(ctx, "p1", SaveBuildRequest{})
	require.NoError(t, err)
	assert.Equal(t, run.RetNoCandidate, saved.Ret)

	completeRun(t, e, "p1")
	_, err = e.Settle(ctx, "p1", true)
	require.NoError(t, err)

	saved, err = e.SaveBuild(ctx, "p1", SaveBuildRequest{Name: "first clear", Lock: true})
	require.NoError(t, err)
	require.Equal(t, run.RetOK, saved.Ret)
	require.NotNil(t, saved.Build)
	assert.Equal(t, "first clear", saved.Build.Name)
	assert.True(t, saved.Build.Locked)

	list, err := e.ListBuilds(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	// The candidate is single-use.
	saved, err = e.SaveBuild(ctx, "p1", SaveBuildRequest{})
	require.NoError(t, err)
	assert.Equal(t, run.RetNoCandidate, saved.Ret)
}

func TestSaveBuildCapRejectsWithoutStateChange(t *testing.T) {
	e, _, _, _ := newEngineForTest(t)
	ctx := context.Background()
	e.BuildCap = 1

	completeRun(t, e, "p1")
	_, err := e.Settle(ctx, "p1", true)
	require.NoError(t, err)
	saved, err := e.SaveBuild(ctx, "p1", SaveBuildRequest{Name: "one"})
	require.NoError(t, err)
	require.Equal(t, run.RetOK, saved.Ret)

	completeRun(t, e, "p1")
	_, err = e.Settle(ctx, "p1", true)
	require.NoError(t, err)

	saved, err = e.SaveBuild(ctx, "p1", SaveBuildRequest{Name: "two"})
	require.NoError(t, err)
	assert.Equal(t, run.RetCapExceeded, saved.Ret)

	list, err := e.ListBuilds(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// The rejected candidate survives and can still be dismantled.
	saved, err = e.SaveBuild(ctx, "p1", SaveBuildRequest{Delete: true})
	require.NoError(t, err)
	assert.Equal(t, run.RetOK, saved.Ret)
}

func TestDismantleCandidateRefunds(t *testing.T) {
	e, _, _, items := newEngineForTest(t)
	ctx := context.Background()

	completeRun(t, e, "p1")
	sum, err := e.Settle(ctx, "p1", true)
	require.NoError(t, err)

	saved, err := e.SaveBuild(ctx, "p1", SaveBuildRequest{Delete: true})
	require.NoError(t, err)
	require.Equal(t, run.RetOK, saved.Ret)

	want := refundFor(sum.Score)
	medals, err := items.Count(ctx, "p1", content.CurrencyTowerMedal)
	require.NoError(t, err)
	assert.Equal(t, want, medals)

	list, err := e.ListBuilds(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDeleteBuild(t *testing.T) {
	e, _, _, items := newEngineForTest(t)
	ctx := context.Background()

	imp, err := e.ImportBuild(ctx, "p1", ImportRequest{
		Name:         "imported",
		CharacterIDs: testTeam,
		DiscIDs:      testDiscs,
		Potentials:   map[int32]int32{101: 2},
		SubNotes:     map[int32]int32{8001: 4},
	})
	require.NoError(t, err)
	require.Equal(t, run.RetOK, imp.Ret)

	// Foreign players can't touch it.
	del, err := e.DeleteBuild(ctx, "p2", imp.Build.ID)
	require.NoError(t, err)
	assert.Equal(t, run.RetNotFound, del.Ret)

	del, err = e.DeleteBuild(ctx, "p1", imp.Build.ID)
	require.NoError(t, err)
	require.Equal(t, run.RetOK, del.Ret)

	medals, err := items.Count(ctx, "p1", content.CurrencyTowerMedal)
	require.NoError(t, err)
	assert.Equal(t, refundFor(imp.Build.Score), medals)

	del, err = e.DeleteBuild(ctx, "p1", imp.Build.ID)
	require.NoError(t, err)
	assert.Equal(t, run.RetNotFound, del.Ret)
}

func TestDeleteLockedBuild(t *testing.T) {
	e, _, _, _ := newEngineForTest(t)
	ctx := context.Background()

	completeRun(t, e, "p1")
	_, err := e.Settle(ctx, "p1", true)
	require.NoError(t, err)
	saved, err := e.SaveBuild(ctx, "p1", SaveBuildRequest{Name: "keep", Lock: true})
	require.NoError(t, err)
	require.Equal(t, run.RetOK, saved.Ret)

	del, err := e.DeleteBuild(ctx, "p1", saved.Build.ID)
	require.NoError(t, err)
	assert.Equal(t, run.RetLocked, del.Ret)

	list, err := e.ListBuilds(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestImportBuildDerivesScore(t *testing.T) {
	e, _, _, _ := newEngineForTest(t)
	ctx := context.Background()

	imp, err := e.ImportBuild(ctx, "p1", ImportRequest{
		CharacterIDs: testTeam,
		DiscIDs:      testDiscs,
		Potentials:   map[int32]int32{101: 3, 201: 1},
		SubNotes:     map[int32]int32{8001: 2},
	})
	require.NoError(t, err)
	require.Equal(t, run.RetOK, imp.Ret)
	assert.Equal(t, int32(120+10+2*15), imp.Build.Score)

	imp, err = e.ImportBuild(ctx, "p1", ImportRequest{CharacterIDs: []int32{1}, DiscIDs: testDiscs})
	require.NoError(t, err)
	assert.Equal(t, run.RetInvalidFormation, imp.Ret)
}

func TestSweepTicketPriority(t *testing.T) {
	e, _, growthRepo, items := newEngineForTest(t)
	ctx := context.Background()

	sweepReq := ApplyRequest{TowerID: 700, CharacterIDs: testTeam, DiscIDs: testDiscs, Sweep: true}

	// Sweep node not unlocked yet.
	res, err := e.Apply(ctx, "p1", sweepReq)
	require.NoError(t, err)
	assert.Equal(t, run.RetSweepLocked, res.Ret)

	require.NoError(t, growthRepo.Unlock(ctx, "p1", growth.NodeSweepUnlock))

	// Unlocked but the tower was never cleared.
	res, err = e.Apply(ctx, "p1", sweepReq)
	require.NoError(t, err)
	assert.Equal(t, run.RetTowerNotCleared, res.Ret)

	require.NoError(t, growthRepo.MarkCleared(ctx, "p1", 700))

	// No ticket of either kind.
	res, err = e.Apply(ctx, "p1", sweepReq)
	require.NoError(t, err)
	assert.Equal(t, run.RetNoSweepTicket, res.Ret)

	require.NoError(t, items.Grant(ctx, "p1", content.CurrencyTowerMedal, 1))
	require.NoError(t, items.Grant(ctx, "p1", content.CurrencyHollowPass, 1))

	// The medal goes first.
	res, err = e.Apply(ctx, "p1", sweepReq)
	require.NoError(t, err)
	require.Equal(t, run.RetOK, res.Ret)
	require.NotNil(t, res.Sweep)
	assert.Equal(t, content.CurrencyTowerMedal, res.Sweep.TicketItem)

	medals, err := items.Count(ctx, "p1", content.CurrencyTowerMedal)
	require.NoError(t, err)
	assert.Zero(t, medals)

	coins, err := items.Count(ctx, "p1", content.CurrencyCoin)
	require.NoError(t, err)
	assert.Equal(t, int32(150), coins)
	notes, err := items.Count(ctx, "p1", 8001)
	require.NoError(t, err)
	assert.Equal(t, int32(4), notes)

	// With the medal gone the pass covers the next sweep.
	res, err = e.Apply(ctx, "p1", sweepReq)
	require.NoError(t, err)
	require.Equal(t, run.RetOK, res.Ret)
	assert.Equal(t, content.CurrencyHollowPass, res.Sweep.TicketItem)
}

func TestSweepAlwaysUnlockedSkipsClearCheck(t *testing.T) {
	e, _, growthRepo, items := newEngineForTest(t)
	ctx := context.Background()
	e.SweepAlwaysUnlocked = true

	require.NoError(t, growthRepo.Unlock(ctx, "p1", growth.NodeSweepUnlock))
	require.NoError(t, items.Grant(ctx, "p1", content.CurrencyTowerMedal, 1))

	res, err := e.Apply(ctx, "p1", ApplyRequest{
		TowerID: 700, CharacterIDs: testTeam, DiscIDs: testDiscs, Sweep: true,
	})
	require.NoError(t, err)
	require.Equal(t, run.RetOK, res.Ret)
	require.NotNil(t, res.Sweep)
}

func TestTelemetryRecordsLifecycle(t *testing.T) {
	e, clock, _, _ := newEngineForTest(t)
	rec := telemetry.NewMemoryRecorder(100)
	e.Telemetry = rec
	ctx := context.Background()

	completeRun(t, e, "p1")
	_, err := e.Settle(ctx, "p1", true)
	require.NoError(t, err)
	_, err = e.SaveBuild(ctx, "p1", SaveBuildRequest{Name: "first"})
	require.NoError(t, err)

	events := rec.Events()
	require.Len(t, events, 3)
	assert.Equal(t, telemetry.EventRunApplied, events[0].Type)
	assert.Equal(t, telemetry.EventRunSettled, events[1].Type)
	assert.Equal(t, telemetry.EventBuildSaved, events[2].Type)
	assert.True(t, events[1].Victory)
	assert.Equal(t, int32(700), events[1].TowerID)
	assert.Equal(t, clock.Now(), events[1].Timestamp)
}

func TestRefundFor(t *testing.T) {
	assert.Equal(t, int32(0), refundFor(0))
	assert.Equal(t, int32(1), refundFor(5), "small scores still refund something")
	assert.Equal(t, int32(1), refundFor(19))
	assert.Equal(t, int32(31), refundFor(315))
}
