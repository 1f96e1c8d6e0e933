package invoice

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/invoice"
	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest is an order placed by a customer
type CreateInvoiceRequest struct {
	CustomerID uuid.UUID     `json:"customer_id" binding:"required"`
	Lines      []LineRequest `json:"lines" binding:"required,min=1,dive"`
	Note       string        `json:"note" binding:"max=1000"`
}

// LineRequest is one ordered product variant
type LineRequest struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	VariantSlug string          `json:"variant_slug" binding:"required,max=128"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// TransitionRequest moves an invoice to another status.
// ExpectedVersion, when set, must equal the stored version.
type TransitionRequest struct {
	Status          string `json:"status" binding:"required"`
	Note            string `json:"note" binding:"max=1000"`
	ExpectedVersion *int   `json:"expected_version,omitempty"`
}

// InvoiceListFilter represents filter options for invoice listings
type InvoiceListFilter struct {
	Status     string     `form:"status"`
	CustomerID *uuid.UUID `form:"customer_id"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// DetailResponse represents an invoice line in API responses
type DetailResponse struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	VariantSlug     string          `json:"variant_slug"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Amount          decimal.Decimal `json:"amount"`
	ShipmentBatchID *uuid.UUID      `json:"shipment_batch_id,omitempty"`
}

// HistoryResponse represents one status change
type HistoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Status      string    `json:"status"`
	StatusLabel string    `json:"status_label"`
	Note        string    `json:"note,omitempty"`
	ChangedAt   time.Time `json:"changed_at"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID                 uuid.UUID         `json:"id"`
	InvoiceNumber      string            `json:"invoice_number"`
	CustomerID         uuid.UUID         `json:"customer_id"`
	Status             string            `json:"status"`
	StatusLabel        string            `json:"status_label"`
	StatusBadge        string            `json:"status_badge"`
	AllowedTransitions []string          `json:"allowed_transitions"`
	Note               string            `json:"note,omitempty"`
	TotalAmount        decimal.Decimal   `json:"total_amount"`
	FullyAllocated     bool              `json:"fully_allocated"`
	Version            int               `json:"version"`
	Details            []DetailResponse  `json:"details"`
	History            []HistoryResponse `json:"history,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// StatusResponse describes one status for the consoles
type StatusResponse struct {
	Value       string   `json:"value"`
	Label       string   `json:"label"`
	Badge       string   `json:"badge"`
	Terminal    bool     `json:"terminal"`
	Transitions []string `json:"transitions"`
}

// ToInvoiceResponse converts a domain invoice, rendering labels with labels
func ToInvoiceResponse(inv *invoice.Invoice, labels Labeler) InvoiceResponse {
	resp := InvoiceResponse{
		ID:                 inv.ID,
		InvoiceNumber:      inv.InvoiceNumber,
		CustomerID:         inv.CustomerID,
		Status:             inv.Status.String(),
		StatusLabel:        labels.Label(inv.Status),
		StatusBadge:        string(inv.Status.Badge()),
		AllowedTransitions: statusStrings(inv.Status.AllowedTransitions()),
		Note:               inv.Note,
		TotalAmount:        inv.TotalAmount(),
		FullyAllocated:     inv.FullyAllocated(),
		Version:            inv.Version,
		Details:            make([]DetailResponse, len(inv.Details)),
		History:            ToHistoryResponses(inv.History, labels),
		CreatedAt:          inv.CreatedAt,
		UpdatedAt:          inv.UpdatedAt,
	}
	for i, d := range inv.Details {
		resp.Details[i] = DetailResponse{
			ID:              d.ID,
			ProductID:       d.ProductID,
			VariantSlug:     d.VariantSlug,
			Quantity:        d.Quantity,
			UnitPrice:       d.UnitPrice,
			Amount:          d.Amount(),
			ShipmentBatchID: d.ShipmentBatchID,
		}
	}
	return resp
}

// ToHistoryResponses converts status history entries
func ToHistoryResponses(entries []invoice.StatusHistory, labels Labeler) []HistoryResponse {
	out := make([]HistoryResponse, len(entries))
	for i, h := range entries {
		out[i] = HistoryResponse{
			ID:          h.ID,
			Status:      h.Status.String(),
			StatusLabel: labels.Label(h.Status),
			Note:        h.Note,
			ChangedAt:   h.ChangedAt,
		}
	}
	return out
}

func statusStrings(statuses []invoice.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = s.String()
	}
	return out
}
