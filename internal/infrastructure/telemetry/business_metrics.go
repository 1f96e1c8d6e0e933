package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Allocation outcomes used as the outcome attribute
const (
	OutcomeSuccess      = "success"
	OutcomeInsufficient = "insufficient_stock"
	OutcomeConflict     = "conflict"
	OutcomeError        = "error"
)

// BusinessMetrics records shop-level counters for the batch ledger, allocation and invoices.
// All methods are safe on a nil receiver so services can run without metrics.
type BusinessMetrics struct {
	logger *zap.Logger

	batchesCreated     *Counter
	unitsReceived      *Counter
	allocations        *Counter
	unitsAllocated     *Counter
	allocationDuration *Histogram
	invoicesCreated    *Counter
	statusTransitions  *Counter
}

// ErrMeterNil is returned when no meter is supplied.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// NewBusinessMetrics registers all business instruments on meter.
func NewBusinessMetrics(meter metric.Meter, logger *zap.Logger) (*BusinessMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{logger: logger}
	var err error

	if bm.batchesCreated, err = NewCounter(meter, "shop_batches_created_total", "Shipment batches received", "{batches}"); err != nil {
		return nil, err
	}
	if bm.unitsReceived, err = NewCounter(meter, "shop_units_received_total", "Units received into shipment batches", "{units}"); err != nil {
		return nil, err
	}
	if bm.allocations, err = NewCounter(meter, "shop_allocations_total", "Allocation attempts by outcome", "{allocations}"); err != nil {
		return nil, err
	}
	if bm.unitsAllocated, err = NewCounter(meter, "shop_units_allocated_total", "Units deducted from batches by allocation", "{units}"); err != nil {
		return nil, err
	}
	if bm.allocationDuration, err = NewHistogram(meter, "shop_allocation_duration_seconds",
		"Allocation latency including lock wait", "s", AllocationDurationBuckets); err != nil {
		return nil, err
	}
	if bm.invoicesCreated, err = NewCounter(meter, "shop_invoices_created_total", "Invoices created", "{invoices}"); err != nil {
		return nil, err
	}
	if bm.statusTransitions, err = NewCounter(meter, "shop_invoice_transitions_total", "Invoice status transitions", "{transitions}"); err != nil {
		return nil, err
	}
	return bm, nil
}

// RecordBatchCreated counts a received batch and its units.
func (bm *BusinessMetrics) RecordBatchCreated(ctx context.Context, quantity int) {
	if bm == nil {
		return
	}
	bm.batchesCreated.Inc(ctx)
	bm.unitsReceived.Add(ctx, int64(quantity))
}

// RecordAllocation counts an allocation attempt; units only count on success.
func (bm *BusinessMetrics) RecordAllocation(ctx context.Context, source, outcome string, units int, elapsed time.Duration) {
	if bm == nil {
		return
	}
	bm.allocations.Inc(ctx, AttrSource.String(source), AttrOutcome.String(outcome))
	bm.allocationDuration.RecordDuration(ctx, elapsed, AttrSource.String(source), AttrOutcome.String(outcome))
	if outcome == OutcomeSuccess && units > 0 {
		bm.unitsAllocated.Add(ctx, int64(units), AttrSource.String(source))
	}
}

// RecordInvoiceCreated counts a new invoice.
func (bm *BusinessMetrics) RecordInvoiceCreated(ctx context.Context) {
	if bm == nil {
		return
	}
	bm.invoicesCreated.Inc(ctx)
}

// RecordStatusTransition counts a committed status change.
func (bm *BusinessMetrics) RecordStatusTransition(ctx context.Context, from, to string) {
	if bm == nil {
		return
	}
	bm.statusTransitions.Inc(ctx, AttrFromStatus.String(from), AttrToStatus.String(to))
}
