package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// ShipmentBatchModel is the persistence model for a batch ledger row.
type ShipmentBatchModel struct {
	AggregateModel
	BatchCode         string           `gorm:"size:64;not null;uniqueIndex:idx_shipment_batches_code"`
	ProductID         uuid.UUID        `gorm:"size:36;not null;index:idx_shipment_batches_fifo,priority:1"`
	VariantSlug       string           `gorm:"size:128;not null;index:idx_shipment_batches_fifo,priority:2"`
	ImportedQuantity  int              `gorm:"not null"`
	RemainingQuantity int              `gorm:"not null"`
	ImportPrice       *decimal.Decimal `gorm:"type:decimal(18,4)"`
	ImportedAt        time.Time        `gorm:"not null;index:idx_shipment_batches_fifo,priority:3"`
}

// TableName returns the table name for GORM
func (ShipmentBatchModel) TableName() string {
	return "shipment_batches"
}

// ToDomain converts the persistence model to a domain ShipmentBatch.
func (m *ShipmentBatchModel) ToDomain() *inventory.ShipmentBatch {
	return &inventory.ShipmentBatch{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		BatchCode:         m.BatchCode,
		ProductID:         m.ProductID,
		VariantSlug:       m.VariantSlug,
		ImportedQuantity:  m.ImportedQuantity,
		RemainingQuantity: m.RemainingQuantity,
		ImportPrice:       m.ImportPrice,
		ImportedAt:        m.ImportedAt,
	}
}

// FromDomain populates the persistence model from a domain ShipmentBatch.
func (m *ShipmentBatchModel) FromDomain(b *inventory.ShipmentBatch) {
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	m.BatchCode = b.BatchCode
	m.ProductID = b.ProductID
	m.VariantSlug = b.VariantSlug
	m.ImportedQuantity = b.ImportedQuantity
	m.RemainingQuantity = b.RemainingQuantity
	m.ImportPrice = b.ImportPrice
	m.ImportedAt = b.ImportedAt
}

// ShipmentBatchModelFromDomain creates a new persistence model from a domain ShipmentBatch.
func ShipmentBatchModelFromDomain(b *inventory.ShipmentBatch) *ShipmentBatchModel {
	m := &ShipmentBatchModel{}
	m.FromDomain(b)
	return m
}
