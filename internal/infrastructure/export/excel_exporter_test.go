package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	appinv "github.com/shopfront/backend/internal/application/inventory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExcelLedgerExporter_ExportBatches(t *testing.T) {
	price := decimal.RequireFromString("1250.5")
	productID := uuid.New()
	batches := []appinv.BatchResponse{
		{
			BatchCode:         "NHAP20250115-001",
			ProductID:         productID,
			VariantSlug:       "red-m",
			ImportedQuantity:  10,
			RemainingQuantity: 4,
			AllocatedQuantity: 6,
			ImportPrice:       &price,
			RemainingValue:    price.Mul(decimal.NewFromInt(4)),
			ImportedAt:        time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC),
		},
		{
			BatchCode:         "NHAP20250115-002",
			ProductID:         productID,
			VariantSlug:       "red-l",
			ImportedQuantity:  3,
			RemainingQuantity: 3,
			ImportedAt:        time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewExcelLedgerExporter().ExportBatches(&buf, batches))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(LedgerSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Batch Code", rows[0][0])
	assert.Equal(t, "Remaining Value", rows[0][8])
	assert.Equal(t, []string{
		"NHAP20250115-001", productID.String(), "red-m", "2025-01-15 08:00:00",
		"10", "4", "6", "1250.50", "5002.00",
	}, rows[1])
	assert.Equal(t, "", rows[2][7])
	assert.Equal(t, "0.00", rows[2][8])
}

func TestExcelLedgerExporter_EmptyLedger(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewExcelLedgerExporter().ExportBatches(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(LedgerSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
