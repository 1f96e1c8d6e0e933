package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/inventory"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// maxExportRows bounds a single ledger export
const maxExportRows = 10000

// BatchServiceConfig holds batch code settings
type BatchServiceConfig struct {
	CodePrefix     string
	Location       *time.Location
	MaxCodeRetries int
}

// LedgerExporter renders batches into a downloadable document
type LedgerExporter interface {
	ExportBatches(w io.Writer, batches []BatchResponse) error
}

// BatchService handles the shipment batch ledger
type BatchService struct {
	batchRepo inventory.ShipmentBatchRepository
	cfg       BatchServiceConfig
	exporter  LedgerExporter
	metrics   *telemetry.BusinessMetrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewBatchService creates a new BatchService
func NewBatchService(batchRepo inventory.ShipmentBatchRepository, cfg BatchServiceConfig, logger *zap.Logger) *BatchService {
	if cfg.CodePrefix == "" {
		cfg.CodePrefix = inventory.DefaultBatchCodePrefix
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MaxCodeRetries < 1 {
		cfg.MaxCodeRetries = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchService{
		batchRepo: batchRepo,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// SetExporter sets the ledger exporter used by ExportBatches
func (s *BatchService) SetExporter(exporter LedgerExporter) {
	s.exporter = exporter
}

// SetMetrics sets the business metrics recorder
func (s *BatchService) SetMetrics(metrics *telemetry.BusinessMetrics) {
	s.metrics = metrics
}

// SetClock overrides the time source
func (s *BatchService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateBatch records a receipt under the next free batch code for its import day.
// A code taken concurrently by another request is regenerated up to MaxCodeRetries times.
func (s *BatchService) CreateBatch(ctx context.Context, req CreateBatchRequest) (*BatchResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "batch", "create",
		telemetry.SpanAttrProductID, req.ProductID.String(),
		telemetry.SpanAttrVariantSlug, req.VariantSlug,
		telemetry.SpanAttrQuantity, req.ImportedQuantity,
	)
	defer span.End()

	if err := inventory.ValidateReceipt(req.ProductID, req.VariantSlug, req.ImportedQuantity, req.ImportPrice); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	importedAt := s.now().UTC()
	if req.ImportedAt != nil {
		importedAt = req.ImportedAt.UTC()
	}
	day := importedAt.In(s.cfg.Location)
	codePrefix := shared.DailyCodePrefix(s.cfg.CodePrefix, day)

	for attempt := 1; attempt <= s.cfg.MaxCodeRetries; attempt++ {
		codes, err := s.batchRepo.FindCodesWithPrefix(ctx, codePrefix)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		code := shared.FormatDailyCode(s.cfg.CodePrefix, day, shared.NextDailySequence(codes, s.cfg.CodePrefix, day))

		batch, err := inventory.NewShipmentBatch(code, req.ProductID, req.VariantSlug, req.ImportedQuantity, req.ImportPrice, importedAt)
		if err != nil {
			return nil, err
		}

		err = s.batchRepo.Create(ctx, batch)
		if errors.Is(err, shared.ErrAlreadyExists) {
			s.logger.Debug("Batch code taken, regenerating",
				zap.String("batch_code", code),
				zap.Int("attempt", attempt),
			)
			continue
		}
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}

		telemetry.SetAttributes(span, telemetry.SpanAttrBatchCode, code, telemetry.SpanAttrBatchID, batch.ID.String())
		s.metrics.RecordBatchCreated(ctx, batch.ImportedQuantity)
		s.logger.Info("Shipment batch created",
			zap.String("batch_code", code),
			zap.String("product_id", batch.ProductID.String()),
			zap.String("variant_slug", batch.VariantSlug),
			zap.Int("quantity", batch.ImportedQuantity),
		)
		response := ToBatchResponse(batch)
		return &response, nil
	}

	err := shared.NewBusinessRuleError(fmt.Sprintf(
		"could not assign a unique batch code for %s after %d attempts", codePrefix, s.cfg.MaxCodeRetries,
	))
	telemetry.RecordError(span, err)
	return nil, err
}

// GetAvailableBatches returns the batches with stock for a variant, oldest import first
func (s *BatchService) GetAvailableBatches(ctx context.Context, productID uuid.UUID, variantSlug string) ([]BatchResponse, error) {
	key, err := stockKey(productID, variantSlug)
	if err != nil {
		return nil, err
	}
	batches, err := s.batchRepo.FindAvailable(ctx, key)
	if err != nil {
		return nil, err
	}
	return ToBatchResponses(batches), nil
}

// GetBatch retrieves a batch by ID
func (s *BatchService) GetBatch(ctx context.Context, id uuid.UUID) (*BatchResponse, error) {
	batch, err := s.batchRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToBatchResponse(batch)
	return &response, nil
}

// GetBatchByCode retrieves a batch by its batch code
func (s *BatchService) GetBatchByCode(ctx context.Context, code string) (*BatchResponse, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewValidationError("batch code is required")
	}
	batch, err := s.batchRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	response := ToBatchResponse(batch)
	return &response, nil
}

// ListBatches returns a page of the ledger
func (s *BatchService) ListBatches(ctx context.Context, filter BatchListFilter) ([]BatchResponse, int64, error) {
	batches, total, err := s.batchRepo.List(ctx, toDomainBatchFilter(filter))
	if err != nil {
		return nil, 0, err
	}
	return ToBatchResponses(batches), total, nil
}

// Restock returns quantity to a batch, e.g. after a stock count correction.
// The batch can never hold more than it was imported with.
func (s *BatchService) Restock(ctx context.Context, id uuid.UUID, req RestockRequest) (*BatchResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "batch", "restock",
		telemetry.SpanAttrBatchID, id.String(),
		telemetry.SpanAttrQuantity, req.Quantity,
	)
	defer span.End()

	batch, err := s.batchRepo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	// Domain check first for a precise error; the guarded update covers races.
	if err := batch.Restock(req.Quantity); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.batchRepo.IncrementRemaining(ctx, id, req.Quantity); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	updated, err := s.batchRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Shipment batch restocked",
		zap.String("batch_code", updated.BatchCode),
		zap.Int("quantity", req.Quantity),
		zap.String("reason", req.Reason),
	)
	response := ToBatchResponse(updated)
	return &response, nil
}

// ExportBatches writes every batch matching filter to w using the configured exporter
func (s *BatchService) ExportBatches(ctx context.Context, filter BatchListFilter, w io.Writer) error {
	if s.exporter == nil {
		return shared.NewBusinessRuleError("ledger export is not configured")
	}

	domainFilter := toDomainBatchFilter(filter)
	domainFilter.Page = 1
	domainFilter.PageSize = 500

	var rows []BatchResponse
	for len(rows) < maxExportRows {
		batches, total, err := s.batchRepo.List(ctx, domainFilter)
		if err != nil {
			return err
		}
		rows = append(rows, ToBatchResponses(batches)...)
		if len(batches) == 0 || int64(len(rows)) >= total {
			break
		}
		domainFilter.Page++
	}
	if len(rows) > maxExportRows {
		rows = rows[:maxExportRows]
	}
	return s.exporter.ExportBatches(w, rows)
}

func toDomainBatchFilter(filter BatchListFilter) inventory.BatchFilter {
	f := shared.DefaultFilter()
	f.OrderBy = "imported_at"
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		f.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		f.OrderDir = filter.OrderDir
	}
	return inventory.BatchFilter{
		Filter:        f,
		ProductID:     filter.ProductID,
		VariantSlug:   strings.TrimSpace(filter.VariantSlug),
		AvailableOnly: filter.AvailableOnly,
	}
}

func stockKey(productID uuid.UUID, variantSlug string) (inventory.StockKey, error) {
	if productID == uuid.Nil {
		return inventory.StockKey{}, shared.NewValidationError("product id is required")
	}
	slug := strings.TrimSpace(variantSlug)
	if slug == "" {
		return inventory.StockKey{}, shared.NewValidationError("variant slug is required")
	}
	return inventory.StockKey{ProductID: productID, VariantSlug: slug}, nil
}
