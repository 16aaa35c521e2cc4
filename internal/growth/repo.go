package growth

import "context"

// Repository is the slice of the external player-progress aggregate the run
// engine reads: growth-node unlocks and cleared-tower history. The engine
// only writes cleared towers; node unlocks belong to progression flows
// outside this core.
type Repository interface {
	Nodes(ctx context.Context, playerID string) (Set, error)
	Unlock(ctx context.Context, playerID string, id NodeID) error

	MarkCleared(ctx context.Context, playerID string, towerID int32) error
	IsCleared(ctx context.Context, playerID string, towerID int32) (bool, error)
}
