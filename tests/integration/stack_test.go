package integration

import (
	"context"
	"testing"
	"time"

	appinventory "github.com/shopfront/backend/internal/application/inventory"
	appinvoice "github.com/shopfront/backend/internal/application/invoice"
	"github.com/shopfront/backend/internal/infrastructure/cache"
	"github.com/shopfront/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

// stack is the service layer wired the way cmd/server wires it
type stack struct {
	db          *persistence.Database
	batches     *appinventory.BatchService
	allocations *appinventory.AllocationService
	invoices    *appinvoice.InvoiceService
}

func newStack(t *testing.T, db *persistence.Database, locker appinventory.AllocationLocker) *stack {
	t.Helper()
	if locker == nil {
		locker = cache.NewLocalAllocationLocker(10 * time.Second)
	}

	log := zap.NewNop()
	batchRepo := persistence.NewGormShipmentBatchRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	return &stack{
		db:          db,
		batches:     appinventory.NewBatchService(batchRepo, appinventory.BatchServiceConfig{CodePrefix: "SB", Location: time.UTC}, log),
		allocations: appinventory.NewAllocationService(invoiceRepo, txScope, locker, log),
		invoices:    appinvoice.NewInvoiceService(invoiceRepo, txScope, appinvoice.ServiceConfig{NumberPrefix: "INV", Location: time.UTC}, log),
	}
}

// unlocked leaves mutual exclusion to the database row locks
type unlocked struct{}

func (unlocked) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}
