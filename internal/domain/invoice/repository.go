package invoice

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
)

// Filter narrows invoice listings
type Filter struct {
	shared.Filter
	Status     *Status
	CustomerID *uuid.UUID
}

// Repository is the storage port for invoices.
// History rows can only be appended; there is no way to update or remove one.
type Repository interface {
	// Create inserts the invoice with its details and history
	Create(ctx context.Context, inv *Invoice) error

	// FindByID loads the invoice with details and history, or shared.ErrNotFound
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByIDForUpdate is FindByID holding a row lock until the transaction ends, where supported
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindNumbersWithPrefix lists invoice numbers starting with prefix
	FindNumbersWithPrefix(ctx context.Context, prefix string) ([]string, error)

	// SaveWithLock persists header fields when the stored version equals inv.Version,
	// then increments inv.Version. A mismatch yields shared.ErrConcurrencyConflict.
	SaveWithLock(ctx context.Context, inv *Invoice) error

	// ReplaceDetail swaps one detail row for the given rows (used when a line is split across batches)
	ReplaceDetail(ctx context.Context, detailID uuid.UUID, replacements []Detail) error

	// AppendHistory inserts a new status history row
	AppendHistory(ctx context.Context, entry StatusHistory) error

	// FindHistory returns the status log oldest first
	FindHistory(ctx context.Context, invoiceID uuid.UUID) ([]StatusHistory, error)

	// List returns a page of invoices (with details) and the total match count
	List(ctx context.Context, filter Filter) ([]*Invoice, int64, error)
}
