package repository

import (
	"context"
	"testing"

	"bourse/models"
	"bourse/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayControlRepository_Lifecycle(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewDayControlRepository(testDB.DB)
	ctx := context.Background()

	t.Run("get before create returns nil", func(t *testing.T) {
		dc, err := repo.Get(ctx)
		require.NoError(t, err)
		assert.Nil(t, dc)
	})

	t.Run("create starts in NOT_STARTED", func(t *testing.T) {
		dc, err := repo.Create(ctx, 10)
		require.NoError(t, err)
		require.NotNil(t, dc)

		assert.Equal(t, 0, dc.CurrentDay)
		assert.Equal(t, 10, dc.TotalDays)
		assert.Equal(t, models.SimulationStateNotStarted, dc.State())
	})

	t.Run("mark started moves to day 1", func(t *testing.T) {
		err := repo.MarkStarted(ctx)
		require.NoError(t, err)

		dc, err := repo.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, dc.CurrentDay)
		assert.Equal(t, models.SimulationStateRunning, dc.State())
		assert.NotNil(t, dc.SimulationStartedAt)
	})

	t.Run("pause stores the frozen countdown", func(t *testing.T) {
		remaining := int64(45000)
		err := repo.SetPaused(ctx, true, &remaining)
		require.NoError(t, err)

		dc, err := repo.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.SimulationStatePaused, dc.State())
		require.NotNil(t, dc.PausedRemainingMs)
		assert.Equal(t, int64(45000), *dc.PausedRemainingMs)

		err = repo.SetPaused(ctx, false, nil)
		require.NoError(t, err)

		dc, err = repo.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.SimulationStateRunning, dc.State())
		assert.Nil(t, dc.PausedRemainingMs)
	})

	t.Run("reinitialize restores NOT_STARTED", func(t *testing.T) {
		err := repo.Reinitialize(ctx)
		require.NoError(t, err)

		dc, err := repo.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, dc.CurrentDay)
		assert.Equal(t, models.SimulationStateNotStarted, dc.State())
	})
}

func TestDayControlRepository_IncrementDay_Guard(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewDayControlRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.Create(ctx, 3)
	require.NoError(t, err)
	require.NoError(t, repo.MarkStarted(ctx))

	t.Run("increments when the guard matches", func(t *testing.T) {
		newDay, err := repo.IncrementDay(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, newDay)
	})

	t.Run("stale guard matches nothing", func(t *testing.T) {
		// A second advance that still believes the day is 1 must lose
		newDay, err := repo.IncrementDay(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 0, newDay)

		dc, err := repo.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, dc.CurrentDay)
	})

	t.Run("never advances past the final day", func(t *testing.T) {
		newDay, err := repo.IncrementDay(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, newDay)

		newDay, err = repo.IncrementDay(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, 0, newDay)
	})

	t.Run("inactive record never advances", func(t *testing.T) {
		require.NoError(t, repo.SetActive(ctx, false))

		dc, err := repo.Get(ctx)
		require.NoError(t, err)

		newDay, err := repo.IncrementDay(ctx, dc.CurrentDay)
		require.NoError(t, err)
		assert.Equal(t, 0, newDay)
	})
}
