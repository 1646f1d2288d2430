// Package export writes ledger rows to an Excel workbook.
package export

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet the rows are written to.
const SheetName = "Sheet1"

// maxRows is Excel's per-sheet row limit.
const maxRows = 1048576

// WriteXLSX streams header and rows into a single-sheet workbook on w.
//
// Rows beyond Excel's limit are dropped with a warning. Returns the number
// of data rows written.
func WriteXLSX(w io.Writer, header []string, rows [][]string, log *slog.Logger) (int, error) {
	if log == nil {
		log = slog.Default()
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Warn("⚠️  Failed to close workbook", "error", err)
		}
	}()

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return 0, fmt.Errorf("failed to create stream writer: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"2563EB"}},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create header style: %w", err)
	}

	// Column widths must be set before the first SetRow.
	for i, name := range header {
		if err := sw.SetColWidth(i+1, i+1, columnWidth(name, rows, i)); err != nil {
			return 0, err
		}
	}

	cells := make([]interface{}, len(header))
	for i, name := range header {
		cells[i] = excelize.Cell{StyleID: headerStyle, Value: name}
	}
	if err := sw.SetRow("A1", cells); err != nil {
		return 0, err
	}

	written := 0
	for _, row := range rows {
		rowNum := written + 2
		if rowNum > maxRows {
			log.Warn("⚠️  Excel row limit reached, export truncated", "rows", written, "dropped", len(rows)-written)
			break
		}
		values := make([]interface{}, len(row))
		for i, v := range row {
			values[i] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return written, err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return written, err
		}
		written++
	}

	if err := sw.Flush(); err != nil {
		return written, err
	}
	if _, err := f.WriteTo(w); err != nil {
		return written, fmt.Errorf("failed to write workbook: %w", err)
	}
	return written, nil
}

// columnWidth sizes a column to its longest value, within Excel-friendly bounds.
func columnWidth(header string, rows [][]string, col int) float64 {
	longest := len([]rune(header))
	for _, row := range rows {
		if col < len(row) {
			longest = max(longest, len([]rune(row[col])))
		}
	}
	return float64(min(max(longest+2, 10), 60))
}
