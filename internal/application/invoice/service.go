package invoice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	appinv "github.com/shopfront/backend/internal/application/inventory"
	"github.com/shopfront/backend/internal/domain/invoice"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ServiceConfig holds invoice numbering settings
type ServiceConfig struct {
	NumberPrefix     string
	Location         *time.Location
	MaxNumberRetries int
}

// InvoiceService handles the invoice lifecycle
type InvoiceService struct {
	repo    invoice.Repository
	txScope appinv.TransactionScope
	cfg     ServiceConfig
	labels  *StatusLabels
	metrics *telemetry.BusinessMetrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(repo invoice.Repository, txScope appinv.TransactionScope, cfg ServiceConfig, logger *zap.Logger) *InvoiceService {
	if cfg.NumberPrefix == "" {
		cfg.NumberPrefix = invoice.DefaultNumberPrefix
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MaxNumberRetries < 1 {
		cfg.MaxNumberRetries = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{
		repo:    repo,
		txScope: txScope,
		cfg:     cfg,
		labels:  NewStatusLabels(),
		logger:  logger,
		now:     time.Now,
	}
}

// SetMetrics sets the business metrics recorder
func (s *InvoiceService) SetMetrics(metrics *telemetry.BusinessMetrics) {
	s.metrics = metrics
}

// SetClock overrides the time source
func (s *InvoiceService) SetClock(now func() time.Time) {
	s.now = now
}

// Labels returns the status label catalog
func (s *InvoiceService) Labels() *StatusLabels {
	return s.labels
}

func (s *InvoiceService) labeler(ctx context.Context) Labeler {
	return s.labels.For(LanguageFromContext(ctx))
}

// CreateInvoice places a pending invoice under the next free number of the day
func (s *InvoiceService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "create")
	defer span.End()

	lines := make([]invoice.LineInput, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = invoice.LineInput{
			ProductID:   l.ProductID,
			VariantSlug: l.VariantSlug,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		}
	}

	day := s.now().In(s.cfg.Location)
	numberPrefix := shared.DailyCodePrefix(s.cfg.NumberPrefix, day)

	for attempt := 1; attempt <= s.cfg.MaxNumberRetries; attempt++ {
		numbers, err := s.repo.FindNumbersWithPrefix(ctx, numberPrefix)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		number := shared.FormatDailyCode(s.cfg.NumberPrefix, day, shared.NextDailySequence(numbers, s.cfg.NumberPrefix, day))

		inv, err := invoice.NewInvoice(number, req.CustomerID, lines, strings.TrimSpace(req.Note))
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}

		err = s.repo.Create(ctx, inv)
		if errors.Is(err, shared.ErrAlreadyExists) {
			s.logger.Debug("Invoice number taken, regenerating",
				zap.String("invoice_number", number),
				zap.Int("attempt", attempt),
			)
			continue
		}
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}

		telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceID, inv.ID.String(), telemetry.SpanAttrInvoiceNumber, number)
		s.metrics.RecordInvoiceCreated(ctx)
		s.logger.Info("Invoice created",
			zap.String("invoice_number", number),
			zap.String("customer_id", inv.CustomerID.String()),
			zap.Int("lines", len(inv.Details)),
			zap.String("total", inv.TotalAmount().String()),
		)
		response := ToInvoiceResponse(inv, s.labeler(ctx))
		return &response, nil
	}

	err := shared.NewBusinessRuleError(fmt.Sprintf(
		"could not assign a unique invoice number for %s after %d attempts", numberPrefix, s.cfg.MaxNumberRetries,
	))
	telemetry.RecordError(span, err)
	return nil, err
}

// GetInvoice retrieves an invoice with its lines and history
func (s *InvoiceService) GetInvoice(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToInvoiceResponse(inv, s.labeler(ctx))
	return &response, nil
}

// ListInvoices returns a page of invoices
func (s *InvoiceService) ListInvoices(ctx context.Context, filter InvoiceListFilter) ([]InvoiceResponse, int64, error) {
	domainFilter, err := toDomainFilter(filter)
	if err != nil {
		return nil, 0, err
	}
	invoices, total, err := s.repo.List(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	labels := s.labeler(ctx)
	out := make([]InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		out[i] = ToInvoiceResponse(inv, labels)
		out[i].History = nil
	}
	return out, total, nil
}

// GetStatusHistory returns the status log of an invoice, oldest first
func (s *InvoiceService) GetStatusHistory(ctx context.Context, id uuid.UUID) ([]HistoryResponse, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.repo.FindHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToHistoryResponses(entries, s.labeler(ctx)), nil
}

// TransitionStatus moves an invoice to req.Status and appends one history entry.
// Cancelling returns every allocated line to its batch in the same transaction.
func (s *InvoiceService) TransitionStatus(ctx context.Context, id uuid.UUID, req TransitionRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "transition",
		telemetry.SpanAttrInvoiceID, id.String(),
		telemetry.SpanAttrToStatus, req.Status,
	)
	defer span.End()

	target, ok := invoice.ParseStatus(strings.TrimSpace(req.Status))
	if !ok {
		err := shared.NewValidationError(fmt.Sprintf("unknown invoice status %q", req.Status))
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		updated *invoice.Invoice
		from    invoice.Status
	)
	err := s.txScope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		inv, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if req.ExpectedVersion != nil && *req.ExpectedVersion != inv.Version {
			return shared.NewDomainError(shared.CodeConcurrencyConflict, fmt.Sprintf(
				"invoice %s is at version %d, expected %d", inv.InvoiceNumber, inv.Version, *req.ExpectedVersion,
			))
		}

		from = inv.Status
		entry, err := inv.TransitionTo(target, strings.TrimSpace(req.Note), s.now().UTC())
		if err != nil {
			return err
		}

		if target == invoice.StatusCancelled {
			for _, d := range inv.AllocatedDetails() {
				if err := repos.BatchRepo().IncrementRemaining(ctx, *d.ShipmentBatchID, d.Quantity); err != nil {
					return err
				}
			}
		}

		if err := repos.InvoiceRepo().SaveWithLock(ctx, inv); err != nil {
			return err
		}
		if err := repos.InvoiceRepo().AppendHistory(ctx, entry); err != nil {
			return err
		}
		updated = inv
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Warn("Invoice transition failed",
			zap.String("invoice_id", id.String()),
			zap.String("to", target.String()),
			zap.Error(err),
		)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrFromStatus, from.String())
	s.metrics.RecordStatusTransition(ctx, from.String(), target.String())
	s.logger.Info("Invoice status changed",
		zap.String("invoice_number", updated.InvoiceNumber),
		zap.String("from", from.String()),
		zap.String("to", target.String()),
		zap.Int("version", updated.Version),
	)
	response := ToInvoiceResponse(updated, s.labeler(ctx))
	return &response, nil
}

// ListStatuses describes every status in lifecycle order
func (s *InvoiceService) ListStatuses(ctx context.Context) []StatusResponse {
	labels := s.labeler(ctx)
	statuses := invoice.AllStatuses()
	out := make([]StatusResponse, len(statuses))
	for i, st := range statuses {
		out[i] = StatusResponse{
			Value:       st.String(),
			Label:       labels.Label(st),
			Badge:       string(st.Badge()),
			Terminal:    st.IsTerminal(),
			Transitions: statusStrings(st.AllowedTransitions()),
		}
	}
	return out
}

func toDomainFilter(filter InvoiceListFilter) (invoice.Filter, error) {
	f := shared.DefaultFilter()
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
	out := invoice.Filter{Filter: f, CustomerID: filter.CustomerID}
	if raw := strings.TrimSpace(filter.Status); raw != "" {
		status, ok := invoice.ParseStatus(raw)
		if !ok {
			return invoice.Filter{}, shared.NewValidationError(fmt.Sprintf("unknown invoice status %q", raw))
		}
		out.Status = &status
	}
	return out, nil
}
