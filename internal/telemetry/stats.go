package telemetry

import "time"

// Stats aggregates the recorded window for balance review.
type Stats struct {
	Since       string            `json:"since"`
	EventCounts map[EventType]int `json:"event_counts"`

	Runs       int     `json:"runs"`
	Victories  int     `json:"victories"`
	WinRate    float64 `json:"win_rate"`
	AvgScore   float64 `json:"avg_score"`
	AvgFloors  float64 `json:"avg_floors"`
	Sweeps     int     `json:"sweeps"`
	BuildSaves int     `json:"build_saves"`
}

// CalculateStats folds the events at or after since into aggregate numbers.
func CalculateStats(events []Event, since time.Time) Stats {
	stats := Stats{
		Since:       since.Format("2006-01-02"),
		EventCounts: make(map[EventType]int),
	}

	var scoreSum, floorSum int64
	for _, e := range events {
		if e.Timestamp.Before(since) {
			continue
		}
		stats.EventCounts[e.Type]++

		switch e.Type {
		case EventRunSettled:
			stats.Runs++
			scoreSum += int64(e.Score)
			floorSum += int64(e.Floors)
			if e.Victory {
				stats.Victories++
			}
		case EventSweep:
			stats.Sweeps++
		case EventBuildSaved:
			stats.BuildSaves++
		}
	}

	if stats.Runs > 0 {
		stats.WinRate = float64(stats.Victories) / float64(stats.Runs)
		stats.AvgScore = float64(scoreSum) / float64(stats.Runs)
		stats.AvgFloors = float64(floorSum) / float64(stats.Runs)
	}
	return stats
}
