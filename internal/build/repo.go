package build

import "context"

type Repository interface {
	Save(ctx context.Context, b Build) error
	Get(ctx context.Context, id string) (Build, bool, error)
	ListByOwner(ctx context.Context, playerID string) ([]Build, error)
	CountByOwner(ctx context.Context, playerID string) (int, error)
	Delete(ctx context.Context, id string) (bool, error)
}
