package inventory

import (
	"context"

	"github.com/shopfront/backend/internal/domain/inventory"
	"github.com/shopfront/backend/internal/domain/invoice"
)

// TransactionScope runs a unit of work in one database transaction.
// If fn returns an error the transaction is rolled back, otherwise committed.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories hands out repositories bound to the current transaction.
//
// Allocation spans both aggregates: batch decrements and invoice detail binding
// have to commit or roll back together, so both repositories share the transaction.
type TransactionalRepositories interface {
	BatchRepo() inventory.ShipmentBatchRepository
	InvoiceRepo() invoice.Repository
}

// NoOpTransactionScope calls fn with plain repositories and no transaction.
// Used by unit tests that exercise services against mocks.
type NoOpTransactionScope struct {
	batchRepo   inventory.ShipmentBatchRepository
	invoiceRepo invoice.Repository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(batchRepo inventory.ShipmentBatchRepository, invoiceRepo invoice.Repository) *NoOpTransactionScope {
	return &NoOpTransactionScope{batchRepo: batchRepo, invoiceRepo: invoiceRepo}
}

func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) BatchRepo() inventory.ShipmentBatchRepository {
	return s.batchRepo
}

func (s *NoOpTransactionScope) InvoiceRepo() invoice.Repository {
	return s.invoiceRepo
}

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*NoOpTransactionScope)(nil)
)
