package testutil

import (
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	appinventory "github.com/shopfront/backend/internal/application/inventory"
	appinvoice "github.com/shopfront/backend/internal/application/invoice"
	"github.com/shopspring/decimal"
)

// Variant returns a realistic variant slug such as "navy-xl"
func Variant(f *gofakeit.Faker) string {
	return strings.ToLower(f.SafeColor() + "-" + f.RandomString([]string{"xs", "s", "m", "l", "xl"}))
}

// BatchRequest builds a stock receipt with a random import price
func BatchRequest(f *gofakeit.Faker, productID uuid.UUID, variant string, qty int) appinventory.CreateBatchRequest {
	price := decimal.NewFromFloat(f.Price(5, 500)).Round(2)
	return appinventory.CreateBatchRequest{
		ProductID:        productID,
		VariantSlug:      variant,
		ImportedQuantity: qty,
		ImportPrice:      &price,
	}
}

// InvoiceRequest builds an invoice for customerID with one line per given quantity
func InvoiceRequest(f *gofakeit.Faker, customerID, productID uuid.UUID, variant string, quantities ...int) appinvoice.CreateInvoiceRequest {
	lines := make([]appinvoice.LineRequest, len(quantities))
	for i, qty := range quantities {
		lines[i] = appinvoice.LineRequest{
			ProductID:   productID,
			VariantSlug: variant,
			Quantity:    qty,
			UnitPrice:   decimal.NewFromFloat(f.Price(10, 900)).Round(2),
		}
	}
	return appinvoice.CreateInvoiceRequest{
		CustomerID: customerID,
		Lines:      lines,
		Note:       f.Sentence(6),
	}
}
