package inventory

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBatch(t *testing.T, code string, productID uuid.UUID, variant string, qty int, importedAt time.Time) *ShipmentBatch {
	t.Helper()
	b, err := NewShipmentBatch(code, productID, variant, qty, nil, importedAt)
	require.NoError(t, err)
	return b
}

func TestNewShipmentBatch(t *testing.T) {
	productID := uuid.New()
	now := time.Now()

	t.Run("remaining starts at imported", func(t *testing.T) {
		price := decimal.NewFromFloat(12.5)
		b, err := NewShipmentBatch("NHAP20250115-001", productID, " red-m ", 10, &price, now)
		require.NoError(t, err)
		assert.Equal(t, 10, b.ImportedQuantity)
		assert.Equal(t, 10, b.RemainingQuantity)
		assert.Equal(t, "red-m", b.VariantSlug)
		assert.Equal(t, 1, b.Version)
		assert.NotEqual(t, uuid.Nil, b.ID)
		assert.True(t, b.RemainingValue().Equal(decimal.NewFromInt(125)))
	})

	t.Run("rejects invalid receipts", func(t *testing.T) {
		negative := decimal.NewFromInt(-1)
		cases := map[string]func() (*ShipmentBatch, error){
			"zero quantity": func() (*ShipmentBatch, error) {
				return NewShipmentBatch("C-1", productID, "v", 0, nil, now)
			},
			"negative quantity": func() (*ShipmentBatch, error) {
				return NewShipmentBatch("C-1", productID, "v", -3, nil, now)
			},
			"nil product": func() (*ShipmentBatch, error) {
				return NewShipmentBatch("C-1", uuid.Nil, "v", 1, nil, now)
			},
			"blank variant": func() (*ShipmentBatch, error) {
				return NewShipmentBatch("C-1", productID, "  ", 1, nil, now)
			},
			"negative price": func() (*ShipmentBatch, error) {
				return NewShipmentBatch("C-1", productID, "v", 1, &negative, now)
			},
			"missing code": func() (*ShipmentBatch, error) {
				return NewShipmentBatch("", productID, "v", 1, nil, now)
			},
		}
		for name, build := range cases {
			t.Run(name, func(t *testing.T) {
				b, err := build()
				assert.Nil(t, b)
				assert.True(t, errors.Is(err, shared.ErrInvalidInput))
			})
		}
	})
}

func TestShipmentBatch_Deduct(t *testing.T) {
	b := newTestBatch(t, "NHAP20250115-001", uuid.New(), "v", 10, time.Now())

	require.NoError(t, b.Deduct(4))
	assert.Equal(t, 6, b.RemainingQuantity)
	assert.Equal(t, 4, b.AllocatedQuantity())

	err := b.Deduct(7)
	assert.True(t, errors.Is(err, shared.ErrBusinessRule))
	assert.Equal(t, 6, b.RemainingQuantity)

	assert.True(t, errors.Is(b.Deduct(0), shared.ErrInvalidInput))

	require.NoError(t, b.Deduct(6))
	assert.False(t, b.HasStock())
}

func TestShipmentBatch_Restock(t *testing.T) {
	b := newTestBatch(t, "NHAP20250115-001", uuid.New(), "v", 10, time.Now())
	require.NoError(t, b.Deduct(5))

	require.NoError(t, b.Restock(3))
	assert.Equal(t, 8, b.RemainingQuantity)

	err := b.Restock(3)
	assert.True(t, errors.Is(err, shared.ErrBusinessRule))
	assert.Equal(t, 8, b.RemainingQuantity)

	assert.True(t, errors.Is(b.Restock(-1), shared.ErrInvalidInput))
}
