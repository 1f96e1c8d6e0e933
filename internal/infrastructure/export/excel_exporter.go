package export

import (
	"fmt"
	"io"

	appinv "github.com/shopfront/backend/internal/application/inventory"
	"github.com/xuri/excelize/v2"
)

// ContentTypeXLSX is the media type of the generated workbook
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// LedgerSheet is the worksheet holding the batch ledger
const LedgerSheet = "Batches"

var ledgerHeadings = []any{
	"Batch Code",
	"Product ID",
	"Variant",
	"Imported At",
	"Imported Qty",
	"Remaining Qty",
	"Allocated Qty",
	"Import Price",
	"Remaining Value",
}

// ExcelLedgerExporter writes the batch ledger as an xlsx workbook
type ExcelLedgerExporter struct {
	timeLayout string
}

// NewExcelLedgerExporter creates an ExcelLedgerExporter
func NewExcelLedgerExporter() *ExcelLedgerExporter {
	return &ExcelLedgerExporter{timeLayout: "2006-01-02 15:04:05"}
}

// ExportBatches writes one row per batch below a bold header row
func (e *ExcelLedgerExporter) ExportBatches(w io.Writer, batches []appinv.BatchResponse) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", LedgerSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(LedgerSheet, "A1", &ledgerHeadings); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(ledgerHeadings))
	if err := f.SetCellStyle(LedgerSheet, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, b := range batches {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		price := ""
		if b.ImportPrice != nil {
			price = b.ImportPrice.StringFixed(2)
		}
		row := []any{
			b.BatchCode,
			b.ProductID.String(),
			b.VariantSlug,
			b.ImportedAt.Format(e.timeLayout),
			b.ImportedQuantity,
			b.RemainingQuantity,
			b.AllocatedQuantity,
			price,
			b.RemainingValue.StringFixed(2),
		}
		if err := f.SetSheetRow(LedgerSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(LedgerSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

var _ appinv.LedgerExporter = (*ExcelLedgerExporter)(nil)
