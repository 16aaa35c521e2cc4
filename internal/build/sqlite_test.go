package build

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteForTest(t *testing.T) *SQLiteRepo {
	t.Helper()
	repo, err := NewSQLiteRepo(filepath.Join(t.TempDir(), "builds.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLiteRepoRoundtrip(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteForTest(t)

	b := sample("a", "p1", 210)
	b.Locked = true
	require.NoError(t, repo.Save(ctx, b))

	got, ok, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, b.PlayerID, got.PlayerID)
	assert.Equal(t, b.Name, got.Name)
	assert.True(t, got.Locked)
	assert.Equal(t, b.Score, got.Score)
	assert.Equal(t, b.CharacterIDs, got.CharacterIDs)
	assert.Equal(t, b.DiscIDs, got.DiscIDs)
	assert.Equal(t, b.Potentials, got.Potentials)
	assert.Equal(t, b.SubNotes, got.SubNotes)
	assert.Equal(t, b.CreatedAt.UTC(), got.CreatedAt.UTC())

	_, ok, err = repo.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteRepoUpsert(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteForTest(t)

	require.NoError(t, repo.Save(ctx, sample("a", "p1", 100)))

	updated := sample("a", "p1", 500)
	updated.Name = "renamed"
	require.NoError(t, repo.Save(ctx, updated))

	got, ok, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int32(500), got.Score)
	assert.Equal(t, "renamed", got.Name)

	n, err := repo.CountByOwner(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLiteRepoListAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteForTest(t)

	require.NoError(t, repo.Save(ctx, sample("a", "p1", 100)))
	require.NoError(t, repo.Save(ctx, sample("b", "p1", 300)))
	require.NoError(t, repo.Save(ctx, sample("c", "p2", 200)))

	list, err := repo.ListByOwner(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, "a", list[1].ID)

	ok, err := repo.Delete(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Delete(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := repo.CountByOwner(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
