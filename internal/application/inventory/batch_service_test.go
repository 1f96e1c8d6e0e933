package inventory

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/inventory"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var receiptDay = time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)

func newTestBatchService(repo *MockShipmentBatchRepository, cfg BatchServiceConfig) *BatchService {
	svc := NewBatchService(repo, cfg, nil)
	svc.SetClock(func() time.Time { return receiptDay })
	return svc
}

func validReceipt() CreateBatchRequest {
	price := decimal.NewFromInt(1000)
	return CreateBatchRequest{
		ProductID:        uuid.New(),
		VariantSlug:      "red-m",
		ImportedQuantity: 10,
		ImportPrice:      &price,
	}
}

func createdWithCode(code string) any {
	return mock.MatchedBy(func(b *inventory.ShipmentBatch) bool {
		return b.BatchCode == code
	})
}

type recordingExporter struct {
	rows []BatchResponse
}

func (e *recordingExporter) ExportBatches(w io.Writer, batches []BatchResponse) error {
	e.rows = batches
	_, err := w.Write([]byte("ok"))
	return err
}

func TestBatchService_CreateBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("first batch of the day gets sequence 001", func(t *testing.T) {
		repo := new(MockShipmentBatchRepository)
		svc := newTestBatchService(repo, BatchServiceConfig{})
		repo.On("FindCodesWithPrefix", mock.Anything, "NHAP20250115-").Return([]string{}, nil)
		repo.On("Create", mock.Anything, createdWithCode("NHAP20250115-001")).Return(nil)

		resp, err := svc.CreateBatch(ctx, validReceipt())
		require.NoError(t, err)
		assert.Equal(t, "NHAP20250115-001", resp.BatchCode)
		assert.Equal(t, 10, resp.RemainingQuantity)
		assert.Equal(t, 0, resp.AllocatedQuantity)
		assert.True(t, decimal.NewFromInt(10000).Equal(resp.RemainingValue))
		assert.Equal(t, receiptDay, resp.ImportedAt)
		repo.AssertExpectations(t)
	})

	t.Run("continues after the highest sequence", func(t *testing.T) {
		repo := new(MockShipmentBatchRepository)
		svc := newTestBatchService(repo, BatchServiceConfig{CodePrefix: "RCV"})
		repo.On("FindCodesWithPrefix", mock.Anything, "RCV20250115-").
			Return([]string{"RCV20250115-001", "RCV20250115-007", "RCV20250115-x"}, nil)
		repo.On("Create", mock.Anything, createdWithCode("RCV20250115-008")).Return(nil)

		resp, err := svc.CreateBatch(ctx, validReceipt())
		require.NoError(t, err)
		assert.Equal(t, "RCV20250115-008", resp.BatchCode)
	})

	t.Run("import day follows the configured location", func(t *testing.T) {
		repo := new(MockShipmentBatchRepository)
		svc := newTestBatchService(repo, BatchServiceConfig{Location: time.FixedZone("ICT", 7*3600)})
		req := validReceipt()
		late := time.Date(2025, 1, 15, 20, 0, 0, 0, time.UTC)
		req.ImportedAt = &late
		repo.On("FindCodesWithPrefix", mock.Anything, "NHAP20250116-").Return([]string{}, nil)
		repo.On("Create", mock.Anything, createdWithCode("NHAP20250116-001")).Return(nil)

		resp, err := svc.CreateBatch(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, late, resp.ImportedAt)
	})

	t.Run("regenerates the code when it was taken concurrently", func(t *testing.T) {
		repo := new(MockShipmentBatchRepository)
		svc := newTestBatchService(repo, BatchServiceConfig{})
		repo.On("FindCodesWithPrefix", mock.Anything, "NHAP20250115-").Return([]string{}, nil).Once()
		repo.On("Create", mock.Anything, createdWithCode("NHAP20250115-001")).Return(shared.ErrAlreadyExists).Once()
		repo.On("FindCodesWithPrefix", mock.Anything, "NHAP20250115-").Return([]string{"NHAP20250115-001"}, nil).Once()
		repo.On("Create", mock.Anything, createdWithCode("NHAP20250115-002")).Return(nil).Once()

		resp, err := svc.CreateBatch(ctx, validReceipt())
		require.NoError(t, err)
		assert.Equal(t, "NHAP20250115-002", resp.BatchCode)
		repo.AssertExpectations(t)
	})

	t.Run("gives up after the retry budget", func(t *testing.T) {
		repo := new(MockShipmentBatchRepository)
		svc := newTestBatchService(repo, BatchServiceConfig{MaxCodeRetries: 2})
		repo.On("FindCodesWithPrefix", mock.Anything, mock.Anything).Return([]string{}, nil)
		repo.On("Create", mock.Anything, mock.Anything).Return(shared.ErrAlreadyExists)

		_, err := svc.CreateBatch(ctx, validReceipt())
		assert.ErrorIs(t, err, shared.ErrBusinessRule)
		repo.AssertNumberOfCalls(t, "Create", 2)
	})

	t.Run("rejects invalid receipts before touching storage", func(t *testing.T) {
		cases := map[string]func(*CreateBatchRequest){
			"zero quantity":  func(r *CreateBatchRequest) { r.ImportedQuantity = 0 },
			"missing slug":   func(r *CreateBatchRequest) { r.VariantSlug = "  " },
			"nil product":    func(r *CreateBatchRequest) { r.ProductID = uuid.Nil },
			"negative price": func(r *CreateBatchRequest) { p := decimal.NewFromInt(-1); r.ImportPrice = &p },
		}
		for name, mutate := range cases {
			t.Run(name, func(t *testing.T) {
				repo := new(MockShipmentBatchRepository)
				svc := newTestBatchService(repo, BatchServiceConfig{})
				req := validReceipt()
				mutate(&req)

				_, err := svc.CreateBatch(ctx, req)
				assert.ErrorIs(t, err, shared.ErrInvalidInput)
				repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			})
		}
	})

	t.Run("storage failure is returned as is", func(t *testing.T) {
		repo := new(MockShipmentBatchRepository)
		svc := newTestBatchService(repo, BatchServiceConfig{})
		storageErr := shared.NewStorageError("find batch codes", assert.AnError)
		repo.On("FindCodesWithPrefix", mock.Anything, mock.Anything).Return([]string(nil), storageErr)

		_, err := svc.CreateBatch(ctx, validReceipt())
		assert.ErrorIs(t, err, shared.ErrStorage)
	})
}

func TestBatchService_GetAvailableBatches(t *testing.T) {
	ctx := context.Background()
	repo := new(MockShipmentBatchRepository)
	svc := newTestBatchService(repo, BatchServiceConfig{})
	productID := uuid.New()
	key := inventory.StockKey{ProductID: productID, VariantSlug: "red-m"}

	older, err := inventory.NewShipmentBatch("NHAP20250114-001", productID, "red-m", 5, nil, receiptDay.Add(-24*time.Hour))
	require.NoError(t, err)
	newer, err := inventory.NewShipmentBatch("NHAP20250115-001", productID, "red-m", 3, nil, receiptDay)
	require.NoError(t, err)
	repo.On("FindAvailable", mock.Anything, key).Return([]*inventory.ShipmentBatch{older, newer}, nil)

	got, err := svc.GetAvailableBatches(ctx, productID, " red-m ")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "NHAP20250114-001", got[0].BatchCode)
	assert.Equal(t, "NHAP20250115-001", got[1].BatchCode)

	_, err = svc.GetAvailableBatches(ctx, uuid.Nil, "red-m")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = svc.GetAvailableBatches(ctx, productID, "")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestBatchService_GetBatchByCode(t *testing.T) {
	ctx := context.Background()
	repo := new(MockShipmentBatchRepository)
	svc := newTestBatchService(repo, BatchServiceConfig{})
	repo.On("FindByCode", mock.Anything, "NHAP20250115-404").Return(nil, shared.NewNotFoundError("shipment batch", "NHAP20250115-404"))

	_, err := svc.GetBatchByCode(ctx, " NHAP20250115-404 ")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.GetBatchByCode(ctx, " ")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestBatchService_ListBatches_Defaults(t *testing.T) {
	repo := new(MockShipmentBatchRepository)
	svc := newTestBatchService(repo, BatchServiceConfig{})
	repo.On("List", mock.Anything, mock.MatchedBy(func(f inventory.BatchFilter) bool {
		return f.Page == 1 && f.PageSize == 20 && f.OrderBy == "imported_at" && f.OrderDir == "desc" && f.AvailableOnly
	})).Return([]*inventory.ShipmentBatch{}, int64(0), nil)

	got, total, err := svc.ListBatches(context.Background(), BatchListFilter{AvailableOnly: true})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, total)
	repo.AssertExpectations(t)
}

func TestBatchService_Restock(t *testing.T) {
	ctx := context.Background()

	newDrainedBatch := func(t *testing.T) *inventory.ShipmentBatch {
		b, err := inventory.NewShipmentBatch("NHAP20250115-001", uuid.New(), "red-m", 10, nil, receiptDay)
		require.NoError(t, err)
		require.NoError(t, b.Deduct(4))
		return b
	}

	t.Run("returns units to the batch", func(t *testing.T) {
		repo := new(MockShipmentBatchRepository)
		svc := newTestBatchService(repo, BatchServiceConfig{})
		batch := newDrainedBatch(t)
		restocked := *batch
		restocked.RemainingQuantity = 9
		repo.On("FindByID", mock.Anything, batch.ID).Return(batch, nil).Once()
		repo.On("IncrementRemaining", mock.Anything, batch.ID, 3).Return(nil)
		repo.On("FindByID", mock.Anything, batch.ID).Return(&restocked, nil).Once()

		resp, err := svc.Restock(ctx, batch.ID, RestockRequest{Quantity: 3, Reason: "count correction"})
		require.NoError(t, err)
		assert.Equal(t, 9, resp.RemainingQuantity)
		repo.AssertExpectations(t)
	})

	t.Run("cannot exceed the imported quantity", func(t *testing.T) {
		repo := new(MockShipmentBatchRepository)
		svc := newTestBatchService(repo, BatchServiceConfig{})
		batch := newDrainedBatch(t)
		repo.On("FindByID", mock.Anything, batch.ID).Return(batch, nil)

		_, err := svc.Restock(ctx, batch.ID, RestockRequest{Quantity: 5})
		assert.ErrorIs(t, err, shared.ErrBusinessRule)
		repo.AssertNotCalled(t, "IncrementRemaining", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("lost race surfaces as a conflict", func(t *testing.T) {
		repo := new(MockShipmentBatchRepository)
		svc := newTestBatchService(repo, BatchServiceConfig{})
		batch := newDrainedBatch(t)
		repo.On("FindByID", mock.Anything, batch.ID).Return(batch, nil)
		repo.On("IncrementRemaining", mock.Anything, batch.ID, 2).Return(shared.ErrConcurrencyConflict)

		_, err := svc.Restock(ctx, batch.ID, RestockRequest{Quantity: 2})
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}

func TestBatchService_ExportBatches(t *testing.T) {
	ctx := context.Background()

	t.Run("requires an exporter", func(t *testing.T) {
		svc := newTestBatchService(new(MockShipmentBatchRepository), BatchServiceConfig{})
		err := svc.ExportBatches(ctx, BatchListFilter{}, io.Discard)
		assert.ErrorIs(t, err, shared.ErrBusinessRule)
	})

	t.Run("walks every page", func(t *testing.T) {
		repo := new(MockShipmentBatchRepository)
		svc := newTestBatchService(repo, BatchServiceConfig{})
		exporter := &recordingExporter{}
		svc.SetExporter(exporter)

		page := func(n int) []*inventory.ShipmentBatch {
			out := make([]*inventory.ShipmentBatch, n)
			for i := range out {
				b, err := inventory.NewShipmentBatch("NHAP20250115-001", uuid.New(), "red-m", 1, nil, receiptDay)
				require.NoError(t, err)
				out[i] = b
			}
			return out
		}
		repo.On("List", mock.Anything, mock.MatchedBy(func(f inventory.BatchFilter) bool { return f.Page == 1 && f.PageSize == 500 })).
			Return(page(500), int64(650), nil)
		repo.On("List", mock.Anything, mock.MatchedBy(func(f inventory.BatchFilter) bool { return f.Page == 2 })).
			Return(page(150), int64(650), nil)

		var buf bytes.Buffer
		require.NoError(t, svc.ExportBatches(ctx, BatchListFilter{}, &buf))
		assert.Len(t, exporter.rows, 650)
		assert.Equal(t, "ok", buf.String())
		repo.AssertNumberOfCalls(t, "List", 2)
	})
}
