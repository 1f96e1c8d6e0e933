package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes the sort order to ASC or DESC, defaulting to DESC.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when it is whitelisted, otherwise defaultField.
// Sort fields end up in ORDER BY verbatim, so only whitelisted names get through.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// ShipmentBatchSortFields contains allowed sort fields for batch listings
var ShipmentBatchSortFields = map[string]bool{
	"created_at":         true,
	"updated_at":         true,
	"imported_at":        true,
	"batch_code":         true,
	"imported_quantity":  true,
	"remaining_quantity": true,
	"import_price":       true,
}

// InvoiceSortFields contains allowed sort fields for invoice listings
var InvoiceSortFields = map[string]bool{
	"created_at":     true,
	"updated_at":     true,
	"invoice_number": true,
	"status":         true,
}
