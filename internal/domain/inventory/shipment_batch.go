package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/shopfront/backend/internal/domain/shared"
)

// DefaultBatchCodePrefix is used when no prefix is configured ("nhap" means "import")
const DefaultBatchCodePrefix = "NHAP"

// ShipmentBatch is one inventory receipt of a product variant.
// ImportedQuantity is fixed at creation; RemainingQuantity moves only through
// Deduct (allocation) and Restock (correction), and always stays in [0, ImportedQuantity].
type ShipmentBatch struct {
	shared.BaseAggregateRoot
	BatchCode         string
	ProductID         uuid.UUID
	VariantSlug       string
	ImportedQuantity  int
	RemainingQuantity int
	ImportPrice       *decimal.Decimal
	ImportedAt        time.Time
}

// NewShipmentBatch validates the receipt and builds a batch with remaining = imported
func NewShipmentBatch(
	batchCode string,
	productID uuid.UUID,
	variantSlug string,
	importedQuantity int,
	importPrice *decimal.Decimal,
	importedAt time.Time,
) (*ShipmentBatch, error) {
	if err := ValidateReceipt(productID, variantSlug, importedQuantity, importPrice); err != nil {
		return nil, err
	}
	if strings.TrimSpace(batchCode) == "" {
		return nil, shared.NewValidationError("batch code is required")
	}

	return &ShipmentBatch{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BatchCode:         batchCode,
		ProductID:         productID,
		VariantSlug:       strings.TrimSpace(variantSlug),
		ImportedQuantity:  importedQuantity,
		RemainingQuantity: importedQuantity,
		ImportPrice:       importPrice,
		ImportedAt:        importedAt,
	}, nil
}

// ValidateReceipt checks the caller supplied part of a new batch
func ValidateReceipt(productID uuid.UUID, variantSlug string, importedQuantity int, importPrice *decimal.Decimal) error {
	if productID == uuid.Nil {
		return shared.NewValidationError("product id is required")
	}
	if strings.TrimSpace(variantSlug) == "" {
		return shared.NewValidationError("variant slug is required")
	}
	if importedQuantity <= 0 {
		return shared.NewValidationError("imported quantity must be positive")
	}
	if importPrice != nil && importPrice.IsNegative() {
		return shared.NewValidationError("import price cannot be negative")
	}
	return nil
}

// Deduct removes quantity from the remaining stock
func (b *ShipmentBatch) Deduct(quantity int) error {
	if quantity <= 0 {
		return shared.NewValidationError("deduct quantity must be positive")
	}
	if quantity > b.RemainingQuantity {
		return shared.NewBusinessRuleError(fmt.Sprintf(
			"cannot deduct %d from batch %s: only %d remaining",
			quantity, b.BatchCode, b.RemainingQuantity,
		))
	}
	b.RemainingQuantity -= quantity
	b.UpdatedAt = time.Now()
	return nil
}

// Restock returns quantity to the batch, e.g. after a cancelled invoice or a stock count correction
func (b *ShipmentBatch) Restock(quantity int) error {
	if quantity <= 0 {
		return shared.NewValidationError("restock quantity must be positive")
	}
	if b.RemainingQuantity+quantity > b.ImportedQuantity {
		return shared.NewBusinessRuleError(fmt.Sprintf(
			"cannot restock %d to batch %s: remaining would exceed imported quantity %d",
			quantity, b.BatchCode, b.ImportedQuantity,
		))
	}
	b.RemainingQuantity += quantity
	b.UpdatedAt = time.Now()
	return nil
}

// HasStock reports whether any units remain
func (b *ShipmentBatch) HasStock() bool {
	return b.RemainingQuantity > 0
}

// AllocatedQuantity is the number of units already taken from the batch
func (b *ShipmentBatch) AllocatedQuantity() int {
	return b.ImportedQuantity - b.RemainingQuantity
}

// RemainingValue prices the remaining units at the import price; zero when no price was recorded
func (b *ShipmentBatch) RemainingValue() decimal.Decimal {
	if b.ImportPrice == nil {
		return decimal.Zero
	}
	return b.ImportPrice.Mul(decimal.NewFromInt(int64(b.RemainingQuantity)))
}

// StockKey identifies the stock pool batches are drawn from
type StockKey struct {
	ProductID   uuid.UUID
	VariantSlug string
}

// String renders the key for lock names and log fields
func (k StockKey) String() string {
	return k.ProductID.String() + ":" + k.VariantSlug
}

// Key returns the stock pool the batch belongs to
func (b *ShipmentBatch) Key() StockKey {
	return StockKey{ProductID: b.ProductID, VariantSlug: b.VariantSlug}
}
