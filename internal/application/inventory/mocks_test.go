package inventory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/inventory"
	"github.com/shopfront/backend/internal/domain/invoice"
	"github.com/stretchr/testify/mock"
)

// MockShipmentBatchRepository is a mock implementation of inventory.ShipmentBatchRepository
type MockShipmentBatchRepository struct {
	mock.Mock
}

func (m *MockShipmentBatchRepository) Create(ctx context.Context, batch *inventory.ShipmentBatch) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func (m *MockShipmentBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.ShipmentBatch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.ShipmentBatch), args.Error(1)
}

func (m *MockShipmentBatchRepository) FindByCode(ctx context.Context, code string) (*inventory.ShipmentBatch, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.ShipmentBatch), args.Error(1)
}

func (m *MockShipmentBatchRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*inventory.ShipmentBatch, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*inventory.ShipmentBatch), args.Error(1)
}

func (m *MockShipmentBatchRepository) FindAvailable(ctx context.Context, key inventory.StockKey) ([]*inventory.ShipmentBatch, error) {
	args := m.Called(ctx, key)
	return args.Get(0).([]*inventory.ShipmentBatch), args.Error(1)
}

func (m *MockShipmentBatchRepository) FindAvailableForUpdate(ctx context.Context, key inventory.StockKey) ([]*inventory.ShipmentBatch, error) {
	args := m.Called(ctx, key)
	return args.Get(0).([]*inventory.ShipmentBatch), args.Error(1)
}

func (m *MockShipmentBatchRepository) FindCodesWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	args := m.Called(ctx, prefix)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockShipmentBatchRepository) DecrementRemaining(ctx context.Context, id uuid.UUID, quantity int) error {
	args := m.Called(ctx, id, quantity)
	return args.Error(0)
}

func (m *MockShipmentBatchRepository) IncrementRemaining(ctx context.Context, id uuid.UUID, quantity int) error {
	args := m.Called(ctx, id, quantity)
	return args.Error(0)
}

func (m *MockShipmentBatchRepository) List(ctx context.Context, filter inventory.BatchFilter) ([]*inventory.ShipmentBatch, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*inventory.ShipmentBatch), args.Get(1).(int64), args.Error(2)
}

// MockInvoiceRepository is a mock implementation of invoice.Repository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoice.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoice.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindNumbersWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	args := m.Called(ctx, prefix)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockInvoiceRepository) SaveWithLock(ctx context.Context, inv *invoice.Invoice) error {
	args := m.Called(ctx, inv)
	if args.Error(0) == nil {
		inv.Version++
	}
	return args.Error(0)
}

func (m *MockInvoiceRepository) ReplaceDetail(ctx context.Context, detailID uuid.UUID, replacements []invoice.Detail) error {
	args := m.Called(ctx, detailID, replacements)
	return args.Error(0)
}

func (m *MockInvoiceRepository) AppendHistory(ctx context.Context, entry invoice.StatusHistory) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockInvoiceRepository) FindHistory(ctx context.Context, invoiceID uuid.UUID) ([]invoice.StatusHistory, error) {
	args := m.Called(ctx, invoiceID)
	return args.Get(0).([]invoice.StatusHistory), args.Error(1)
}

func (m *MockInvoiceRepository) List(ctx context.Context, filter invoice.Filter) ([]*invoice.Invoice, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*invoice.Invoice), args.Get(1).(int64), args.Error(2)
}

// fakeLocker records lock and unlock calls in order
type fakeLocker struct {
	mu     sync.Mutex
	err    error
	events []string
}

func (l *fakeLocker) Lock(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.events = append(l.events, "lock "+key)
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.events = append(l.events, "unlock "+key)
	}, nil
}

func (l *fakeLocker) Events() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

var (
	_ inventory.ShipmentBatchRepository = (*MockShipmentBatchRepository)(nil)
	_ invoice.Repository                = (*MockInvoiceRepository)(nil)
	_ AllocationLocker                  = (*fakeLocker)(nil)
)
