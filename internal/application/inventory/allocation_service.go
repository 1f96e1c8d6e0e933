package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/inventory"
	"github.com/shopfront/backend/internal/domain/invoice"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Allocation sources for metrics and profiling labels
const (
	SourceDirect  = "direct"
	SourceInvoice = "invoice"
)

// AllocationService deducts stock from batches oldest first.
//
// Every allocation holds the per-variant lock, reads the batches FOR UPDATE and
// decrements each with a guarded update, all inside one transaction. Any failure
// rolls back every decrement made so far.
type AllocationService struct {
	invoiceRepo invoice.Repository
	txScope     TransactionScope
	locker      AllocationLocker
	metrics     *telemetry.BusinessMetrics
	logger      *zap.Logger
	now         func() time.Time
}

// NewAllocationService creates a new AllocationService
func NewAllocationService(invoiceRepo invoice.Repository, txScope TransactionScope, locker AllocationLocker, logger *zap.Logger) *AllocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AllocationService{
		invoiceRepo: invoiceRepo,
		txScope:     txScope,
		locker:      locker,
		logger:      logger,
		now:         time.Now,
	}
}

// SetMetrics sets the business metrics recorder
func (s *AllocationService) SetMetrics(metrics *telemetry.BusinessMetrics) {
	s.metrics = metrics
}

// Allocate takes req.Quantity units of one variant from the oldest batches.
// InsufficientStockError leaves every batch untouched.
func (s *AllocationService) Allocate(ctx context.Context, req AllocateRequest) (*AllocateResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "allocation", "allocate",
		telemetry.SpanAttrProductID, req.ProductID.String(),
		telemetry.SpanAttrVariantSlug, req.VariantSlug,
		telemetry.SpanAttrQuantity, req.Quantity,
	)
	defer span.End()
	start := time.Now()

	if req.Quantity <= 0 {
		err := shared.NewValidationError("requested quantity must be positive")
		telemetry.RecordError(span, err)
		return nil, err
	}
	key, err := stockKey(req.ProductID, req.VariantSlug)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var plan inventory.AllocationPlan
	telemetry.WithProfilingLabels(ctx, telemetry.AllocationLabels("allocate", SourceDirect), func(ctx context.Context) {
		var unlock func()
		unlock, err = s.locker.Lock(ctx, key.String())
		if err != nil {
			return
		}
		defer unlock()

		err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			var txErr error
			plan, txErr = allocateKey(ctx, repos.BatchRepo(), key, req.Quantity, nil)
			return txErr
		})
	})

	s.metrics.RecordAllocation(ctx, SourceDirect, allocationOutcome(err), plan.Total(), time.Since(start))
	if err != nil {
		telemetry.RecordError(span, err)
		s.logAllocationFailure(ctx, key, req.Quantity, err)
		return nil, err
	}

	s.logger.Info("Stock allocated",
		zap.String("stock_key", key.String()),
		zap.Int("quantity", req.Quantity),
		zap.Int("batches", len(plan.Allocations)),
	)
	return &AllocateResponse{
		ProductID:   key.ProductID,
		VariantSlug: key.VariantSlug,
		Requested:   req.Quantity,
		Allocations: toAllocationResponses(plan.Allocations),
	}, nil
}

// AllocateInvoice binds every unallocated line of an invoice to batches.
// A line served by several batches is split into one line per batch. Decrements,
// splits and the invoice version bump commit together or not at all.
func (s *AllocationService) AllocateInvoice(ctx context.Context, invoiceID uuid.UUID) (*AllocateInvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "allocation", "allocate_invoice",
		telemetry.SpanAttrInvoiceID, invoiceID.String(),
	)
	defer span.End()
	start := time.Now()

	// Read outside the transaction to learn which stock keys to lock.
	inv, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := ensureAllocatable(inv); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	pending := inv.UnallocatedDetails()
	keys := make([]string, 0, len(pending))
	for _, d := range pending {
		keys = append(keys, d.StockKey().String())
	}

	response := &AllocateInvoiceResponse{InvoiceID: inv.ID, InvoiceNumber: inv.InvoiceNumber, Version: inv.Version}
	if len(pending) == 0 {
		return response, nil
	}

	units := 0
	telemetry.WithProfilingLabels(ctx, telemetry.AllocationLabels("allocate_invoice", SourceInvoice), func(ctx context.Context) {
		var unlock func()
		unlock, err = lockAll(ctx, s.locker, keys)
		if err != nil {
			return
		}
		defer unlock()

		err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			lines, version, n, txErr := s.bindInvoice(ctx, repos, invoiceID)
			if txErr != nil {
				return txErr
			}
			response.Lines = lines
			response.Version = version
			units = n
			return nil
		})
	})

	s.metrics.RecordAllocation(ctx, SourceInvoice, allocationOutcome(err), units, time.Since(start))
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Warn("Invoice allocation failed",
			zap.String("invoice_id", invoiceID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("Invoice allocated",
		zap.String("invoice_number", response.InvoiceNumber),
		zap.Int("lines", len(response.Lines)),
		zap.Int("units", units),
	)
	return response, nil
}

// bindInvoice runs inside the transaction with the stock locks held.
func (s *AllocationService) bindInvoice(ctx context.Context, repos TransactionalRepositories, invoiceID uuid.UUID) ([]LineAllocationResponse, int, int, error) {
	inv, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, invoiceID)
	if err != nil {
		return nil, 0, 0, err
	}
	if err := ensureAllocatable(inv); err != nil {
		return nil, 0, 0, err
	}

	// Batches loaded once per key; PlanFIFO deducts in memory as lines consume them.
	loaded := make(map[inventory.StockKey][]*inventory.ShipmentBatch)
	var lines []LineAllocationResponse
	units := 0

	for _, detail := range inv.UnallocatedDetails() {
		key := detail.StockKey()
		plan, err := allocateKey(ctx, repos.BatchRepo(), key, detail.Quantity, loaded)
		if err != nil {
			return nil, 0, 0, err
		}
		bound, err := inv.BindDetail(detail.ID, plan.Allocations)
		if err != nil {
			return nil, 0, 0, err
		}
		if err := repos.InvoiceRepo().ReplaceDetail(ctx, detail.ID, bound); err != nil {
			return nil, 0, 0, err
		}
		for i, d := range bound {
			lines = append(lines, LineAllocationResponse{
				DetailID:    d.ID,
				ProductID:   d.ProductID,
				VariantSlug: d.VariantSlug,
				BatchID:     *d.ShipmentBatchID,
				BatchCode:   plan.Allocations[i].BatchCode,
				Quantity:    d.Quantity,
			})
		}
		units += plan.Total()
	}

	inv.UpdatedAt = s.now().UTC()
	if err := repos.InvoiceRepo().SaveWithLock(ctx, inv); err != nil {
		return nil, 0, 0, err
	}
	return lines, inv.Version, units, nil
}

// allocateKey plans and applies a FIFO allocation for one stock key. With a non-nil
// cache the batches are read once per key and reused by later calls.
func allocateKey(
	ctx context.Context,
	repo inventory.ShipmentBatchRepository,
	key inventory.StockKey,
	quantity int,
	cache map[inventory.StockKey][]*inventory.ShipmentBatch,
) (inventory.AllocationPlan, error) {
	batches, ok := cache[key]
	if !ok {
		var err error
		batches, err = repo.FindAvailableForUpdate(ctx, key)
		if err != nil {
			return inventory.AllocationPlan{}, err
		}
		if cache != nil {
			cache[key] = batches
		}
	}

	plan, err := inventory.PlanFIFO(key, batches, quantity)
	if err != nil {
		return inventory.AllocationPlan{}, err
	}
	for _, a := range plan.Allocations {
		if err := repo.DecrementRemaining(ctx, a.BatchID, a.Quantity); err != nil {
			return inventory.AllocationPlan{}, err
		}
	}
	return plan, nil
}

func ensureAllocatable(inv *invoice.Invoice) error {
	if inv.CanAllocate() {
		return nil
	}
	return shared.NewBusinessRuleError(fmt.Sprintf(
		"invoice %s is %s and can no longer be allocated", inv.InvoiceNumber, inv.Status,
	))
}

func allocationOutcome(err error) string {
	switch {
	case err == nil:
		return telemetry.OutcomeSuccess
	case errors.Is(err, shared.ErrInsufficientStock):
		return telemetry.OutcomeInsufficient
	case errors.Is(err, shared.ErrConcurrencyConflict):
		return telemetry.OutcomeConflict
	default:
		return telemetry.OutcomeError
	}
}

func (s *AllocationService) logAllocationFailure(ctx context.Context, key inventory.StockKey, quantity int, err error) {
	var stockErr *shared.InsufficientStockError
	if errors.As(err, &stockErr) {
		s.logger.Info("Allocation rejected, insufficient stock",
			zap.String("stock_key", key.String()),
			zap.Int("requested", stockErr.Requested),
			zap.Int("available", stockErr.Available),
			zap.Int("shortfall", stockErr.Shortfall()),
		)
		return
	}
	s.logger.Warn("Allocation failed",
		zap.String("stock_key", key.String()),
		zap.Int("quantity", quantity),
		zap.Error(err),
	)
}
