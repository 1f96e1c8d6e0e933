package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// CreateBatchRequest is a stock receipt. ImportedAt defaults to now.
type CreateBatchRequest struct {
	ProductID        uuid.UUID        `json:"product_id" binding:"required"`
	VariantSlug      string           `json:"variant_slug" binding:"required,max=128"`
	ImportedQuantity int              `json:"imported_quantity"`
	ImportPrice      *decimal.Decimal `json:"import_price,omitempty"`
	ImportedAt       *time.Time       `json:"imported_at,omitempty"`
}

// RestockRequest returns units to a batch
type RestockRequest struct {
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason" binding:"max=500"`
}

// BatchResponse represents a shipment batch in API responses
type BatchResponse struct {
	ID                uuid.UUID        `json:"id"`
	BatchCode         string           `json:"batch_code"`
	ProductID         uuid.UUID        `json:"product_id"`
	VariantSlug       string           `json:"variant_slug"`
	ImportedQuantity  int              `json:"imported_quantity"`
	RemainingQuantity int              `json:"remaining_quantity"`
	AllocatedQuantity int              `json:"allocated_quantity"`
	ImportPrice       *decimal.Decimal `json:"import_price,omitempty"`
	RemainingValue    decimal.Decimal  `json:"remaining_value"`
	ImportedAt        time.Time        `json:"imported_at"`
	Version           int              `json:"version"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// ToBatchResponse converts a domain batch
func ToBatchResponse(b *inventory.ShipmentBatch) BatchResponse {
	return BatchResponse{
		ID:                b.ID,
		BatchCode:         b.BatchCode,
		ProductID:         b.ProductID,
		VariantSlug:       b.VariantSlug,
		ImportedQuantity:  b.ImportedQuantity,
		RemainingQuantity: b.RemainingQuantity,
		AllocatedQuantity: b.AllocatedQuantity(),
		ImportPrice:       b.ImportPrice,
		RemainingValue:    b.RemainingValue(),
		ImportedAt:        b.ImportedAt,
		Version:           b.Version,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}

// ToBatchResponses converts a slice of domain batches
func ToBatchResponses(batches []*inventory.ShipmentBatch) []BatchResponse {
	out := make([]BatchResponse, len(batches))
	for i, b := range batches {
		out[i] = ToBatchResponse(b)
	}
	return out
}

// BatchListFilter represents filter options for the batch ledger
type BatchListFilter struct {
	ProductID     *uuid.UUID `form:"product_id"`
	VariantSlug   string     `form:"variant_slug"`
	AvailableOnly bool       `form:"available_only"`
	Page          int        `form:"page" binding:"omitempty,min=1"`
	PageSize      int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy       string     `form:"order_by"`
	OrderDir      string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// AllocateRequest asks for units of one product variant
type AllocateRequest struct {
	ProductID   uuid.UUID `json:"product_id" binding:"required"`
	VariantSlug string    `json:"variant_slug" binding:"required"`
	Quantity    int       `json:"quantity"`
}

// AllocationResponse is the quantity taken from one batch
type AllocationResponse struct {
	BatchID   uuid.UUID `json:"batch_id"`
	BatchCode string    `json:"batch_code"`
	Quantity  int       `json:"quantity"`
}

// AllocateResponse lists the batches an allocation drew from, oldest first
type AllocateResponse struct {
	ProductID   uuid.UUID            `json:"product_id"`
	VariantSlug string               `json:"variant_slug"`
	Requested   int                  `json:"requested"`
	Allocations []AllocationResponse `json:"allocations"`
}

// LineAllocationResponse is one invoice line bound to a batch
type LineAllocationResponse struct {
	DetailID    uuid.UUID `json:"detail_id"`
	ProductID   uuid.UUID `json:"product_id"`
	VariantSlug string    `json:"variant_slug"`
	BatchID     uuid.UUID `json:"batch_id"`
	BatchCode   string    `json:"batch_code"`
	Quantity    int       `json:"quantity"`
}

// AllocateInvoiceResponse reports the lines bound by an invoice allocation
type AllocateInvoiceResponse struct {
	InvoiceID     uuid.UUID                `json:"invoice_id"`
	InvoiceNumber string                   `json:"invoice_number"`
	Version       int                      `json:"version"`
	Lines         []LineAllocationResponse `json:"lines"`
}

func toAllocationResponses(allocs []inventory.Allocation) []AllocationResponse {
	out := make([]AllocationResponse, len(allocs))
	for i, a := range allocs {
		out[i] = AllocationResponse{BatchID: a.BatchID, BatchCode: a.BatchCode, Quantity: a.Quantity}
	}
	return out
}
