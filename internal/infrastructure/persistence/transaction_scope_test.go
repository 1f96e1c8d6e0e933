package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	appinv "github.com/shopfront/backend/internal/application/inventory"
	"github.com/shopfront/backend/internal/domain/inventory"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormTransactionScope_RollsBackAcrossRepositories(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	batchRepo := NewGormShipmentBatchRepository(db.DB)
	key := inventory.StockKey{ProductID: uuid.New(), VariantSlug: "red-m"}
	batch := newBatch(t, "NHAP20250115-001", key, 10, baseDay)
	require.NoError(t, batchRepo.Create(ctx, batch))

	scope := NewGormTransactionScope(db.DB)
	boom := errors.New("boom")
	inv := newInvoice(t, "INV20250115-001")

	err := scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		require.NoError(t, repos.BatchRepo().DecrementRemaining(ctx, batch.ID, 4))
		require.NoError(t, repos.InvoiceRepo().Create(ctx, inv))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := batchRepo.FindByID(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.RemainingQuantity)
	_, err = NewGormInvoiceRepository(db.DB).FindByID(ctx, inv.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	err = scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		return repos.BatchRepo().DecrementRemaining(ctx, batch.ID, 4)
	})
	require.NoError(t, err)
	stored, err = batchRepo.FindByID(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, stored.RemainingQuantity)
}
