package repository

import (
	"context"
	"testing"

	"bourse/models"
	"bourse/repository/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHoldingRepository_UpsertAndDelete(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	companyRepo := NewCompanyRepository(testDB.DB)
	participantRepo := NewParticipantRepository(testDB.DB)
	holdingRepo := NewHoldingRepository(testDB.DB)
	ctx := context.Background()

	company := testutil.CreateTestCompany("ABC", "Alphabet Cement")
	require.NoError(t, companyRepo.Create(ctx, company))

	participant, err := participantRepo.Create(ctx, "alice", nil, decimal.NewFromInt(1000000))
	require.NoError(t, err)

	t.Run("flat position reads as nil", func(t *testing.T) {
		holding, err := holdingRepo.GetByParticipantAndCompany(ctx, participant.ID, company.ID)
		require.NoError(t, err)
		assert.Nil(t, holding)
	})

	holding := &models.PortfolioHolding{
		ParticipantID:   participant.ID,
		CompanyID:       company.ID,
		Quantity:        100,
		AverageBuyPrice: decimal.NewFromInt(5000),
	}

	t.Run("first upsert inserts", func(t *testing.T) {
		require.NoError(t, holdingRepo.Upsert(ctx, holding))
		assert.NotZero(t, holding.ID)

		got, err := holdingRepo.GetByParticipantAndCompany(ctx, participant.ID, company.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 100, got.Quantity)
		assert.True(t, got.AverageBuyPrice.Equal(decimal.NewFromInt(5000)))
	})

	t.Run("second upsert replaces quantity and average", func(t *testing.T) {
		holding.Quantity = 150
		holding.AverageBuyPrice = decimal.RequireFromString("5333.33")
		require.NoError(t, holdingRepo.Upsert(ctx, holding))

		got, err := holdingRepo.GetByParticipantAndCompany(ctx, participant.ID, company.ID)
		require.NoError(t, err)
		assert.Equal(t, 150, got.Quantity)
		assert.True(t, got.AverageBuyPrice.Equal(decimal.RequireFromString("5333.33")))

		all, err := holdingRepo.GetByParticipant(ctx, participant.ID)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("partial sell shrinks the quantity", func(t *testing.T) {
		require.NoError(t, holdingRepo.UpdateQuantity(ctx, holding.ID, 40))

		got, err := holdingRepo.GetByParticipantAndCompany(ctx, participant.ID, company.ID)
		require.NoError(t, err)
		assert.Equal(t, 40, got.Quantity)
	})

	t.Run("full sell deletes the row", func(t *testing.T) {
		require.NoError(t, holdingRepo.Delete(ctx, holding.ID))

		got, err := holdingRepo.GetByParticipantAndCompany(ctx, participant.ID, company.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("zero quantity rows are rejected by the schema", func(t *testing.T) {
		err := holdingRepo.Upsert(ctx, &models.PortfolioHolding{
			ParticipantID:   participant.ID,
			CompanyID:       company.ID,
			Quantity:        0,
			AverageBuyPrice: decimal.NewFromInt(5000),
		})
		assert.Error(t, err)
	})
}
