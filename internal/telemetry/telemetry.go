// Package telemetry records run-lifecycle events for balance analysis:
// applies, settlements, sweeps and build turnover. Recording is best-effort
// and never fails a player operation.
package telemetry

import (
	"sync"
	"time"
)

type EventType string

const (
	EventRunApplied   EventType = "run_applied"
	EventRunSettled   EventType = "run_settled"
	EventSweep        EventType = "sweep"
	EventBuildSaved   EventType = "build_saved"
	EventBuildDeleted EventType = "build_deleted"
)

// Event is one recorded occurrence. Score and Floors are only meaningful for
// settlement events.
type Event struct {
	Type      EventType `json:"type"`
	PlayerID  string    `json:"player_id"`
	TowerID   int32     `json:"tower_id,omitempty"`
	Victory   bool      `json:"victory,omitempty"`
	Score     int32     `json:"score,omitempty"`
	Floors    int32     `json:"floors,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Recorder accepts events. A nil *MemoryRecorder is a valid no-op recorder.
type Recorder interface {
	Record(e Event)
}

// MemoryRecorder keeps a bounded in-memory event window.
type MemoryRecorder struct {
	mu     sync.Mutex
	events []Event
	limit  int
}

// NewMemoryRecorder bounds the window to limit events; older entries fall
// off. A non-positive limit keeps everything.
func NewMemoryRecorder(limit int) *MemoryRecorder {
	return &MemoryRecorder{limit: limit}
}

func (r *MemoryRecorder) Record(e Event) {
	if r == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, e)
	if r.limit > 0 && len(r.events) > r.limit {
		r.events = r.events[len(r.events)-r.limit:]
	}
}

// Events returns a copy of the current window.
func (r *MemoryRecorder) Events() []Event {
	if r == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
