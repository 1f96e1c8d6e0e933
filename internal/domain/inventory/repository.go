package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
)

// BatchFilter narrows batch listings
type BatchFilter struct {
	shared.Filter
	ProductID     *uuid.UUID
	VariantSlug   string
	AvailableOnly bool
}

// ShipmentBatchRepository is the storage port of the batch ledger.
// Batches are an audit trail: the port deliberately has no delete.
type ShipmentBatchRepository interface {
	// Create inserts a new batch. A clashing batch code yields shared.ErrAlreadyExists.
	Create(ctx context.Context, batch *ShipmentBatch) error

	// FindByID returns shared.ErrNotFound when absent
	FindByID(ctx context.Context, id uuid.UUID) (*ShipmentBatch, error)

	// FindByCode returns shared.ErrNotFound when absent
	FindByCode(ctx context.Context, code string) (*ShipmentBatch, error)

	// FindByIDs returns the batches that exist among ids, in no particular order
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*ShipmentBatch, error)

	// FindAvailable returns batches with remaining > 0, oldest import first
	FindAvailable(ctx context.Context, key StockKey) ([]*ShipmentBatch, error)

	// FindAvailableForUpdate is FindAvailable with row locks held until the
	// surrounding transaction ends, where the engine supports them
	FindAvailableForUpdate(ctx context.Context, key StockKey) ([]*ShipmentBatch, error)

	// FindCodesWithPrefix lists every batch code starting with prefix
	FindCodesWithPrefix(ctx context.Context, prefix string) ([]string, error)

	// DecrementRemaining subtracts quantity only if at least quantity remains.
	// Returns shared.ErrConcurrencyConflict when the guard does not hold.
	DecrementRemaining(ctx context.Context, id uuid.UUID, quantity int) error

	// IncrementRemaining adds quantity only if remaining stays within imported.
	// Returns shared.ErrConcurrencyConflict when the guard does not hold.
	IncrementRemaining(ctx context.Context, id uuid.UUID, quantity int) error

	// List returns a page of batches and the total match count
	List(ctx context.Context, filter BatchFilter) ([]*ShipmentBatch, int64, error)
}
