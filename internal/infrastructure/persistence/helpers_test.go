package persistence

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/inventory"
	"github.com/shopfront/backend/internal/domain/invoice"
	"github.com/shopfront/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// newTestDatabase opens a private in-memory SQLite database with the schema applied.
func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}
	db, err := NewDatabase(cfg)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

var baseDay = time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)

func newBatch(t *testing.T, code string, key inventory.StockKey, qty int, importedAt time.Time) *inventory.ShipmentBatch {
	t.Helper()
	price := decimal.NewFromInt(1000)
	b, err := inventory.NewShipmentBatch(code, key.ProductID, key.VariantSlug, qty, &price, importedAt)
	require.NoError(t, err)
	return b
}

func newInvoice(t *testing.T, number string, lines ...invoice.LineInput) *invoice.Invoice {
	t.Helper()
	if len(lines) == 0 {
		lines = []invoice.LineInput{{ProductID: uuid.New(), VariantSlug: "red-m", Quantity: 3, UnitPrice: decimal.NewFromInt(150)}}
	}
	inv, err := invoice.NewInvoice(number, uuid.New(), lines, "")
	require.NoError(t, err)
	return inv
}
