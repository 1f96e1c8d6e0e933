package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/invoice"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	AggregateModel
	InvoiceNumber string    `gorm:"size:64;not null;uniqueIndex:idx_invoices_number"`
	CustomerID    uuid.UUID `gorm:"size:36;not null;index"`
	Status        string    `gorm:"size:32;not null;index"`
	Note          string    `gorm:"type:text"`

	Details []InvoiceDetailModel        `gorm:"foreignKey:InvoiceID;references:ID"`
	History []InvoiceStatusHistoryModel `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// InvoiceDetailModel is one invoice line; ShipmentBatchID is set once allocated.
type InvoiceDetailModel struct {
	ID              uuid.UUID       `gorm:"size:36;primaryKey"`
	InvoiceID       uuid.UUID       `gorm:"size:36;not null;index"`
	ProductID       uuid.UUID       `gorm:"size:36;not null"`
	VariantSlug     string          `gorm:"size:128;not null"`
	Quantity        int             `gorm:"not null"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ShipmentBatchID *uuid.UUID      `gorm:"size:36;index"`
	CreatedAt       time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceDetailModel) TableName() string {
	return "invoice_details"
}

// InvoiceStatusHistoryModel is an append-only status log row. It has no UpdatedAt.
type InvoiceStatusHistoryModel struct {
	ID        uuid.UUID `gorm:"size:36;primaryKey"`
	InvoiceID uuid.UUID `gorm:"size:36;not null;index:idx_invoice_status_history_invoice,priority:1"`
	Status    string    `gorm:"size:32;not null"`
	Note      string    `gorm:"type:text"`
	ChangedAt time.Time `gorm:"not null;index:idx_invoice_status_history_invoice,priority:2"`
}

// TableName returns the table name for GORM
func (InvoiceStatusHistoryModel) TableName() string {
	return "invoice_status_history"
}

// ToDomain converts the model, including loaded associations, to a domain Invoice.
func (m *InvoiceModel) ToDomain() *invoice.Invoice {
	inv := &invoice.Invoice{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		InvoiceNumber:     m.InvoiceNumber,
		CustomerID:        m.CustomerID,
		Status:            invoice.Status(m.Status),
		Note:              m.Note,
		Details:           make([]invoice.Detail, len(m.Details)),
		History:           make([]invoice.StatusHistory, len(m.History)),
	}
	for i := range m.Details {
		inv.Details[i] = m.Details[i].ToDomain()
	}
	for i := range m.History {
		inv.History[i] = m.History[i].ToDomain()
	}
	return inv
}

// FromDomain populates the model, including details and history, from a domain Invoice.
func (m *InvoiceModel) FromDomain(inv *invoice.Invoice) {
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.CustomerID = inv.CustomerID
	m.Status = inv.Status.String()
	m.Note = inv.Note
	m.Details = make([]InvoiceDetailModel, len(inv.Details))
	for i := range inv.Details {
		m.Details[i] = InvoiceDetailModelFromDomain(inv.Details[i])
	}
	m.History = make([]InvoiceStatusHistoryModel, len(inv.History))
	for i := range inv.History {
		m.History[i] = InvoiceStatusHistoryModelFromDomain(inv.History[i])
	}
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *invoice.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// ToDomain converts the detail model to a domain Detail.
func (m *InvoiceDetailModel) ToDomain() invoice.Detail {
	return invoice.Detail{
		ID:              m.ID,
		InvoiceID:       m.InvoiceID,
		ProductID:       m.ProductID,
		VariantSlug:     m.VariantSlug,
		Quantity:        m.Quantity,
		UnitPrice:       m.UnitPrice,
		ShipmentBatchID: m.ShipmentBatchID,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// InvoiceDetailModelFromDomain converts a domain Detail to its model.
func InvoiceDetailModelFromDomain(d invoice.Detail) InvoiceDetailModel {
	return InvoiceDetailModel{
		ID:              d.ID,
		InvoiceID:       d.InvoiceID,
		ProductID:       d.ProductID,
		VariantSlug:     d.VariantSlug,
		Quantity:        d.Quantity,
		UnitPrice:       d.UnitPrice,
		ShipmentBatchID: d.ShipmentBatchID,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

// ToDomain converts the history model to a domain StatusHistory.
func (m *InvoiceStatusHistoryModel) ToDomain() invoice.StatusHistory {
	return invoice.StatusHistory{
		ID:        m.ID,
		InvoiceID: m.InvoiceID,
		Status:    invoice.Status(m.Status),
		Note:      m.Note,
		ChangedAt: m.ChangedAt,
	}
}

// InvoiceStatusHistoryModelFromDomain converts a domain StatusHistory to its model.
func InvoiceStatusHistoryModelFromDomain(h invoice.StatusHistory) InvoiceStatusHistoryModel {
	return InvoiceStatusHistoryModel{
		ID:        h.ID,
		InvoiceID: h.InvoiceID,
		Status:    h.Status.String(),
		Note:      h.Note,
		ChangedAt: h.ChangedAt,
	}
}
