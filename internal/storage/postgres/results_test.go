package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/tilegame/internal/game/session"
	"github.com/cory-johannsen/tilegame/internal/storage/postgres"
	"github.com/cory-johannsen/tilegame/internal/testutil"
)

func setupResults(t *testing.T) *postgres.MatchResultRepository {
	t.Helper()
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	return postgres.NewMatchResultRepository(pc.RawPool)
}

func TestMatchResultRepository_RecordStart(t *testing.T) {
	repo := setupResults(t)
	ctx := context.Background()

	err := repo.RecordStart(ctx, 7, []session.ClientID{1, 2, 3})
	require.NoError(t, err)

	result, err := repo.GetByGameID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), result.GameID)
	assert.Equal(t, []int64{1, 2, 3}, result.Participants)
	assert.False(t, result.StartedAt.IsZero())
	assert.Nil(t, result.FinishedAt)
}

func TestMatchResultRepository_RecordFinish(t *testing.T) {
	repo := setupResults(t)
	ctx := context.Background()

	require.NoError(t, repo.RecordStart(ctx, 7, []session.ClientID{1, 2}))
	require.NoError(t, repo.RecordFinish(ctx, 7))

	result, err := repo.GetByGameID(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, result.FinishedAt)
	assert.False(t, result.FinishedAt.Before(result.StartedAt))

	// A second finish finds no unfinished row.
	err = repo.RecordFinish(ctx, 7)
	assert.ErrorIs(t, err, postgres.ErrMatchNotFound)
}

func TestMatchResultRepository_FinishUnknownGame(t *testing.T) {
	repo := setupResults(t)

	err := repo.RecordFinish(context.Background(), 99)
	assert.ErrorIs(t, err, postgres.ErrMatchNotFound)
}

func TestMatchResultRepository_GetUnknownGame(t *testing.T) {
	repo := setupResults(t)

	_, err := repo.GetByGameID(context.Background(), 99)
	assert.ErrorIs(t, err, postgres.ErrMatchNotFound)
}
