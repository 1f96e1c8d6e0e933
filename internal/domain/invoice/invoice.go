package invoice

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/shopfront/backend/internal/domain/inventory"
	"github.com/shopfront/backend/internal/domain/shared"
)

// DefaultNumberPrefix is the invoice number prefix when none is configured
const DefaultNumberPrefix = "INV"

// Detail is one line item of an invoice, bound to the batch it ships from once allocated
type Detail struct {
	ID              uuid.UUID
	InvoiceID       uuid.UUID
	ProductID       uuid.UUID
	VariantSlug     string
	Quantity        int
	UnitPrice       decimal.Decimal
	ShipmentBatchID *uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewDetail validates and builds an unallocated line
func NewDetail(invoiceID, productID uuid.UUID, variantSlug string, quantity int, unitPrice decimal.Decimal) (*Detail, error) {
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("product id is required")
	}
	if strings.TrimSpace(variantSlug) == "" {
		return nil, shared.NewValidationError("variant slug is required")
	}
	if quantity <= 0 {
		return nil, shared.NewValidationError("line quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewValidationError("unit price cannot be negative")
	}
	now := time.Now()
	return &Detail{
		ID:          uuid.New(),
		InvoiceID:   invoiceID,
		ProductID:   productID,
		VariantSlug: strings.TrimSpace(variantSlug),
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Amount is quantity times unit price
func (d *Detail) Amount() decimal.Decimal {
	return d.UnitPrice.Mul(decimal.NewFromInt(int64(d.Quantity)))
}

// IsAllocated reports whether the line is bound to a batch
func (d *Detail) IsAllocated() bool {
	return d.ShipmentBatchID != nil
}

// StockKey returns the stock pool the line draws from
func (d *Detail) StockKey() inventory.StockKey {
	return inventory.StockKey{ProductID: d.ProductID, VariantSlug: d.VariantSlug}
}

// StatusHistory is an immutable record of one status change
type StatusHistory struct {
	ID        uuid.UUID
	InvoiceID uuid.UUID
	Status    Status
	Note      string
	ChangedAt time.Time
}

// Invoice is an order header with its lines and status log
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber string
	CustomerID    uuid.UUID
	Status        Status
	Note          string
	Details       []Detail
	History       []StatusHistory
}

// LineInput is the caller supplied part of a line
type LineInput struct {
	ProductID   uuid.UUID
	VariantSlug string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// NewInvoice builds a pending invoice with its initial history entry
func NewInvoice(number string, customerID uuid.UUID, lines []LineInput, note string) (*Invoice, error) {
	if strings.TrimSpace(number) == "" {
		return nil, shared.NewValidationError("invoice number is required")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("customer id is required")
	}
	if len(lines) == 0 {
		return nil, shared.NewValidationError("invoice must have at least one line")
	}

	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     number,
		CustomerID:        customerID,
		Status:            StatusPending,
		Note:              note,
	}
	for i, line := range lines {
		d, err := NewDetail(inv.ID, line.ProductID, line.VariantSlug, line.Quantity, line.UnitPrice)
		if err != nil {
			return nil, shared.NewValidationError(fmt.Sprintf("line %d: %s", i+1, err.Error()))
		}
		inv.Details = append(inv.Details, *d)
	}
	inv.History = append(inv.History, StatusHistory{
		ID:        uuid.New(),
		InvoiceID: inv.ID,
		Status:    StatusPending,
		Note:      "invoice created",
		ChangedAt: inv.CreatedAt,
	})
	return inv, nil
}

// TotalAmount sums all line amounts
func (i *Invoice) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for idx := range i.Details {
		total = total.Add(i.Details[idx].Amount())
	}
	return total
}

// TransitionTo moves the invoice to target and returns the history entry to persist.
// The entry is also appended to i.History; existing entries are never touched.
func (i *Invoice) TransitionTo(target Status, note string, at time.Time) (StatusHistory, error) {
	if !target.IsValid() {
		return StatusHistory{}, shared.NewValidationError(fmt.Sprintf("unknown invoice status %q", target))
	}
	if !i.Status.CanTransitionTo(target) {
		return StatusHistory{}, shared.NewInvalidTransitionError(i.Status.String(), target.String())
	}
	if target == StatusShipped && !i.FullyAllocated() {
		return StatusHistory{}, shared.NewBusinessRuleError(fmt.Sprintf(
			"invoice %s cannot ship: some lines are not allocated to a batch", i.InvoiceNumber,
		))
	}

	entry := StatusHistory{
		ID:        uuid.New(),
		InvoiceID: i.ID,
		Status:    target,
		Note:      note,
		ChangedAt: at,
	}
	i.Status = target
	i.UpdatedAt = at
	i.History = append(i.History, entry)
	return entry, nil
}

// CanAllocate reports whether lines may still be bound to batches
func (i *Invoice) CanAllocate() bool {
	return i.Status == StatusPending || i.Status == StatusPaid
}

// FullyAllocated reports whether every line is bound to a batch
func (i *Invoice) FullyAllocated() bool {
	for idx := range i.Details {
		if !i.Details[idx].IsAllocated() {
			return false
		}
	}
	return true
}

// UnallocatedDetails returns the lines still waiting for a batch
func (i *Invoice) UnallocatedDetails() []Detail {
	var out []Detail
	for _, d := range i.Details {
		if !d.IsAllocated() {
			out = append(out, d)
		}
	}
	return out
}

// AllocatedDetails returns the lines already bound to a batch
func (i *Invoice) AllocatedDetails() []Detail {
	var out []Detail
	for _, d := range i.Details {
		if d.IsAllocated() {
			out = append(out, d)
		}
	}
	return out
}

// BindDetail replaces an unallocated line by one line per batch allocation.
// The first allocation reuses the original line id; quantities must add up to the line quantity.
func (i *Invoice) BindDetail(detailID uuid.UUID, allocations []inventory.Allocation) ([]Detail, error) {
	idx := -1
	for n := range i.Details {
		if i.Details[n].ID == detailID {
			idx = n
			break
		}
	}
	if idx < 0 {
		return nil, shared.NewNotFoundError("invoice detail", detailID.String())
	}
	original := i.Details[idx]
	if original.IsAllocated() {
		return nil, shared.NewBusinessRuleError(fmt.Sprintf("invoice detail %s is already allocated", detailID))
	}
	sum := 0
	for _, a := range allocations {
		sum += a.Quantity
	}
	if len(allocations) == 0 || sum != original.Quantity {
		return nil, shared.NewBusinessRuleError(fmt.Sprintf(
			"allocations cover %d units but line needs %d", sum, original.Quantity,
		))
	}

	now := time.Now()
	bound := make([]Detail, 0, len(allocations))
	for n, a := range allocations {
		batchID := a.BatchID
		d := original
		d.Quantity = a.Quantity
		d.ShipmentBatchID = &batchID
		d.UpdatedAt = now
		if n > 0 {
			d.ID = uuid.New()
			d.CreatedAt = now
		}
		bound = append(bound, d)
	}

	details := make([]Detail, 0, len(i.Details)+len(bound)-1)
	details = append(details, i.Details[:idx]...)
	details = append(details, bound...)
	details = append(details, i.Details[idx+1:]...)
	i.Details = details
	i.UpdatedAt = now
	return bound, nil
}
