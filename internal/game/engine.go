// Package game orchestrates run lifecycles per player: apply/sweep, case
// interaction routing, settlement, and the saved-build collection. All
// mutations for one player are serialized behind that player's lock; no
// operation ever blocks on another player.
package game

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/qinfyy/Nebula-sub000/internal/build"
	"github.com/qinfyy/Nebula-sub000/internal/content"
	"github.com/qinfyy/Nebula-sub000/internal/growth"
	"github.com/qinfyy/Nebula-sub000/internal/inventory"
	"github.com/qinfyy/Nebula-sub000/internal/modifier"
	"github.com/qinfyy/Nebula-sub000/internal/run"
	"github.com/qinfyy/Nebula-sub000/internal/telemetry"
	"github.com/qinfyy/Nebula-sub000/pkg/logger"
)

// Clock abstracts run timing for tests.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// refundDivisor converts a build score into its dismantle/delete refund.
const refundDivisor = 10

// sweepTicketOrder is the fixed priority for sweep currency consumption:
// tower medal first, hollow pass as fallback. The order is a documented
// constant, not an inference point.
var sweepTicketOrder = []int32{content.CurrencyTowerMedal, content.CurrencyHollowPass}

// Engine is the run-engine façade.
type Engine struct {
	Content *content.Library
	Builds  build.Repository
	Growth  growth.Repository
	Items   inventory.Ledger
	Clock   Clock

	// Telemetry records lifecycle events; nil disables recording.
	Telemetry telemetry.Recorder

	// BuildCap caps stored builds per player; defaults to build.MaxSaved.
	BuildCap int

	// SweepAlwaysUnlocked waives the tower-cleared requirement for sweeps.
	SweepAlwaysUnlocked bool

	// Seed supplies per-run RNG seeds; tests pin it.
	Seed func() int64

	mu      sync.Mutex
	players map[string]*playerState
}

// playerState owns everything mutable for one player. Its lock serializes
// all run and build operations for that player.
type playerState struct {
	mu      sync.Mutex
	session *run.Session
	pending *build.Build // settlement candidate awaiting save or dismantle
}

func NewEngine(lib *content.Library, builds build.Repository, growthRepo growth.Repository, items inventory.Ledger) *Engine {
	return &Engine{
		Content:  lib,
		Builds:   builds,
		Growth:   growthRepo,
		Items:    items,
		Clock:    RealClock{},
		BuildCap: build.MaxSaved,
		Seed:     func() int64 { return time.Now().UnixNano() },
		players:  make(map[string]*playerState),
	}
}

func (e *Engine) state(playerID string) *playerState {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.players[playerID]
	if !ok {
		st = &playerState{}
		e.players[playerID] = st
	}
	return st
}

// ApplyRequest starts a run or a sweep of one tower.
type ApplyRequest struct {
	TowerID      int32   `json:"tower_id"`
	CharacterIDs []int32 `json:"character_ids"`
	DiscIDs      []int32 `json:"disc_ids"`
	Sweep        bool    `json:"sweep"`
}

// SweepSettlement is a fabricated settlement without an interactive run.
type SweepSettlement struct {
	TicketItem int32            `json:"ticket_item"`
	Rewards    []run.ItemChange `json:"rewards"`
}

type ApplyResult struct {
	Ret   run.RetCode      `json:"ret"`
	Run   *run.View        `json:"run,omitempty"`
	Sweep *SweepSettlement `json:"sweep,omitempty"`
}

// Apply validates the tower and formation, then either fabricates a sweep
// settlement or constructs a fresh session, discarding any previous one.
func (e *Engine) Apply(ctx context.Context, playerID string, req ApplyRequest) (ApplyResult, error) {
	st := e.state(playerID)
	st.mu.Lock()
	defer st.mu.Unlock()

	tower, ok := e.Content.Tower(req.TowerID)
	if !ok {
		return ApplyResult{Ret: run.RetNotFound}, nil
	}
	if !build.ValidComposition(req.CharacterIDs, req.DiscIDs) {
		return ApplyResult{Ret: run.RetInvalidFormation}, nil
	}

	nodes, err := e.Growth.Nodes(ctx, playerID)
	if err != nil {
		return ApplyResult{}, err
	}
	mods := modifier.Compute(nodes, tower.Difficulty)

	if req.Sweep {
		return e.sweep(ctx, playerID, tower, mods)
	}

	rng := rand.New(rand.NewSource(e.Seed()))
	session, err := run.NewSession(e.Content, tower, playerID,
		req.CharacterIDs, req.DiscIDs, mods, rng, e.Clock.Now())
	if err != nil {
		return ApplyResult{}, err
	}

	if st.session != nil {
		logger.Log.WithFields(map[string]any{
			"player": playerID,
			"tower":  st.session.TowerID,
		}).Info("discarding previous run")
	}
	st.session = session
	e.record(telemetry.Event{Type: telemetry.EventRunApplied, PlayerID: playerID, TowerID: tower.ID})

	view := session.RunView()
	return ApplyResult{Ret: run.RetOK, Run: &view}, nil
}

// sweep consumes one ticket in fixed priority order and grants the tower's
// static sweep rewards.
func (e *Engine) sweep(ctx context.Context, playerID string, tower content.TowerDef, mods *modifier.Mods) (ApplyResult, error) {
	if !mods.SweepUnlocked {
		return ApplyResult{Ret: run.RetSweepLocked}, nil
	}

	if !e.SweepAlwaysUnlocked {
		cleared, err := e.Growth.IsCleared(ctx, playerID, tower.ID)
		if err != nil {
			return ApplyResult{}, err
		}
		if !cleared {
			return ApplyResult{Ret: run.RetTowerNotCleared}, nil
		}
	}

	var ticket int32
	for _, item := range sweepTicketOrder {
		ok, err := e.Items.Spend(ctx, playerID, item, 1)
		if err != nil {
			return ApplyResult{}, err
		}
		if ok {
			ticket = item
			break
		}
	}
	if ticket == 0 {
		return ApplyResult{Ret: run.RetNoSweepTicket}, nil
	}

	settlement := &SweepSettlement{TicketItem: ticket}
	for itemID, qty := range tower.SweepRewards {
		if err := e.Items.Grant(ctx, playerID, itemID, qty); err != nil {
			return ApplyResult{}, err
		}
		settlement.Rewards = append(settlement.Rewards, run.ItemChange{ItemID: itemID, Delta: qty})
	}

	e.record(telemetry.Event{Type: telemetry.EventSweep, PlayerID: playerID, TowerID: tower.ID})
	return ApplyResult{Ret: run.RetOK, Sweep: settlement}, nil
}

// Interact routes one case interaction into the player's active session. A
// missing session, like a stale case id, resolves neutrally.
func (e *Engine) Interact(ctx context.Context, playerID string, caseID int32, p run.Payload) (run.InteractResult, error) {
	_ = ctx

	st := e.state(playerID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.session == nil {
		return run.InteractResult{Ret: run.RetNoSession}, nil
	}
	return st.session.Interact(caseID, p)
}

// SettlementSummary reports a finished run.
type SettlementSummary struct {
	Ret        run.RetCode  `json:"ret"`
	ElapsedSec int64        `json:"elapsed_sec,omitempty"`
	Victory    bool         `json:"victory,omitempty"`
	Build      *build.Build `json:"build,omitempty"`
	Score      int32        `json:"score,omitempty"`
}

// Settle detaches the session and converts it into the pending build
// candidate. The candidate is only durably saved, or dismantled for a
// refund, by an explicit follow-up SaveBuild.
func (e *Engine) Settle(ctx context.Context, playerID string, victory bool) (SettlementSummary, error) {
	st := e.state(playerID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.session == nil {
		return SettlementSummary{Ret: run.RetNoSession}, nil
	}

	session := st.session
	st.session = nil

	candidate := session.Snapshot()
	st.pending = candidate

	if victory {
		if err := e.Growth.MarkCleared(ctx, playerID, session.TowerID); err != nil {
			return SettlementSummary{}, err
		}
	}

	elapsed := int64(e.Clock.Now().Sub(session.StartedAt) / time.Second)

	// Quest and achievement progress live outside this core; the outcome is
	// only reported.
	logger.Log.WithFields(map[string]any{
		"player":  playerID,
		"tower":   session.TowerID,
		"victory": victory,
		"floors":  session.FloorCount,
		"score":   candidate.Score,
	}).Info("run settled")

	e.record(telemetry.Event{
		Type:     telemetry.EventRunSettled,
		PlayerID: playerID,
		TowerID:  session.TowerID,
		Victory:  victory,
		Score:    candidate.Score,
		Floors:   session.FloorCount,
	})

	return SettlementSummary{
		Ret:        run.RetOK,
		ElapsedSec: elapsed,
		Victory:    victory,
		Build:      candidate,
		Score:      candidate.Score,
	}, nil
}

// SaveBuildRequest resolves the pending candidate.
type SaveBuildRequest struct {
	Delete bool   `json:"delete"` // dismantle for a refund instead of saving
	Name   string `json:"name"`
	Lock   bool   `json:"lock"`
}

type SaveBuildResult struct {
	Ret    run.RetCode      `json:"ret"`
	Build  *build.Build     `json:"build,omitempty"`
	Refund []run.ItemChange `json:"refund,omitempty"`
}

// SaveBuild persists or dismantles the pending candidate. Saving past the
// per-player cap is rejected with no state change.
func (e *Engine) SaveBuild(ctx context.Context, playerID string, req SaveBuildRequest) (SaveBuildResult, error) {
	st := e.state(playerID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.pending == nil {
		return SaveBuildResult{Ret: run.RetNoCandidate}, nil
	}

	if req.Delete {
		refund := refundFor(st.pending.Score)
		if err := e.Items.Grant(ctx, playerID, content.CurrencyTowerMedal, refund); err != nil {
			return SaveBuildResult{}, err
		}
		st.pending = nil
		return SaveBuildResult{
			Ret:    run.RetOK,
			Refund: []run.ItemChange{{ItemID: content.CurrencyTowerMedal, Delta: refund}},
		}, nil
	}

	count, err := e.Builds.CountByOwner(ctx, playerID)
	if err != nil {
		return SaveBuildResult{}, err
	}
	if count >= e.BuildCap {
		return SaveBuildResult{Ret: run.RetCapExceeded}, nil
	}

	b := *st.pending
	b.Name = req.Name
	b.Locked = req.Lock
	if err := e.Builds.Save(ctx, b); err != nil {
		return SaveBuildResult{}, err
	}

	st.pending = nil
	e.record(telemetry.Event{Type: telemetry.EventBuildSaved, PlayerID: playerID, Score: b.Score})
	return SaveBuildResult{Ret: run.RetOK, Build: &b}, nil
}

type DeleteBuildResult struct {
	Ret    run.RetCode      `json:"ret"`
	Refund []run.ItemChange `json:"refund,omitempty"`
}

// DeleteBuild removes a stored build and refunds currency proportional to
// its score. Locked builds stay put.
func (e *Engine) DeleteBuild(ctx context.Context, playerID, buildID string) (DeleteBuildResult, error) {
	st := e.state(playerID)
	st.mu.Lock()
	defer st.mu.Unlock()

	b, ok, err := e.Builds.Get(ctx, buildID)
	if err != nil {
		return DeleteBuildResult{}, err
	}
	if !ok || b.PlayerID != playerID {
		return DeleteBuildResult{Ret: run.RetNotFound}, nil
	}
	if b.Locked {
		return DeleteBuildResult{Ret: run.RetLocked}, nil
	}

	if _, err := e.Builds.Delete(ctx, buildID); err != nil {
		return DeleteBuildResult{}, err
	}

	refund := refundFor(b.Score)
	if err := e.Items.Grant(ctx, playerID, content.CurrencyTowerMedal, refund); err != nil {
		return DeleteBuildResult{}, err
	}

	e.record(telemetry.Event{Type: telemetry.EventBuildDeleted, PlayerID: playerID, Score: b.Score})
	return DeleteBuildResult{
		Ret:    run.RetOK,
		Refund: []run.ItemChange{{ItemID: content.CurrencyTowerMedal, Delta: refund}},
	}, nil
}

// ImportRequest synthesizes a build directly, bypassing a run.
type ImportRequest struct {
	Name         string          `json:"name"`
	CharacterIDs []int32         `json:"character_ids"`
	DiscIDs      []int32         `json:"disc_ids"`
	Potentials   map[int32]int32 `json:"potentials"`
	SubNotes     map[int32]int32 `json:"sub_notes"`
}

type ImportResult struct {
	Ret   run.RetCode  `json:"ret"`
	Build *build.Build `json:"build,omitempty"`
}

// ImportBuild stores a tool-synthesized build. The score is always derived
// here, never taken from the caller.
func (e *Engine) ImportBuild(ctx context.Context, playerID string, req ImportRequest) (ImportResult, error) {
	st := e.state(playerID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if !build.ValidComposition(req.CharacterIDs, req.DiscIDs) {
		return ImportResult{Ret: run.RetInvalidFormation}, nil
	}

	count, err := e.Builds.CountByOwner(ctx, playerID)
	if err != nil {
		return ImportResult{}, err
	}
	if count >= e.BuildCap {
		return ImportResult{Ret: run.RetCapExceeded}, nil
	}

	b := build.Build{
		ID:           uuid.NewString(),
		PlayerID:     playerID,
		Name:         req.Name,
		CharacterIDs: append([]int32(nil), req.CharacterIDs...),
		DiscIDs:      append([]int32(nil), req.DiscIDs...),
		Potentials:   req.Potentials,
		SubNotes:     req.SubNotes,
		CreatedAt:    e.Clock.Now(),
	}
	if b.Potentials == nil {
		b.Potentials = map[int32]int32{}
	}
	if b.SubNotes == nil {
		b.SubNotes = map[int32]int32{}
	}
	b.Rescore(e.Content)

	if err := e.Builds.Save(ctx, b); err != nil {
		return ImportResult{}, err
	}
	return ImportResult{Ret: run.RetOK, Build: &b}, nil
}

// ListBuilds returns the player's stored builds, highest score first.
func (e *Engine) ListBuilds(ctx context.Context, playerID string) ([]build.Build, error) {
	return e.Builds.ListByOwner(ctx, playerID)
}

func (e *Engine) record(ev telemetry.Event) {
	if e.Telemetry == nil {
		return
	}
	ev.Timestamp = e.Clock.Now()
	e.Telemetry.Record(ev)
}

func refundFor(score int32) int32 {
	refund := score / refundDivisor
	if refund < 1 && score > 0 {
		refund = 1
	}
	return refund
}
