package output

import (
	"fmt"
	"io"

	"github.com/iwvelando/desking/internal/desk"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the workbook written by WriteXLSX.
const (
	SheetPayments = "Payments"
	SheetMenu     = "Product Menu"
	SheetSummary  = "Summary"
)

type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (s *sheetWriter) set(col, row int, value interface{}) {
	if s.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.f.SetCellValue(s.sheet, cell, value)
}

// WriteXLSX writes the worksheet as a workbook with the payment grid, the
// product menu and the finance summary on separate sheets.
func WriteXLSX(w io.Writer, ws desk.Worksheet) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetPayments); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	for _, name := range []string{SheetMenu, SheetSummary} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", name, err)
		}
	}

	grid := &sheetWriter{f: f, sheet: SheetPayments}
	grid.set(1, 1, "Term")
	for i, down := range ws.Grid.Downs {
		grid.set(i+2, 1, fmt.Sprintf("Down %s", money(down)))
	}
	for r, row := range ws.Grid.Rows {
		grid.set(1, r+2, row.Term)
		for c, cell := range row.Cells {
			grid.set(c+2, r+2, cell.Payment)
		}
	}
	if grid.err != nil {
		return grid.err
	}

	menu := &sheetWriter{f: f, sheet: SheetMenu}
	menu.set(1, 1, "Term")
	for i, bundle := range ws.Menu.Bundles {
		menu.set(i+2, 1, bundle.Label)
	}
	for r, row := range ws.Menu.Rows {
		menu.set(1, r+2, row.Term)
		for c, cell := range row.Cells {
			menu.set(c+2, r+2, cell.Payment)
		}
	}
	if menu.err != nil {
		return menu.err
	}

	summary := &sheetWriter{f: f, sheet: SheetSummary}
	for i, header := range []string{"Term", "Amount Financed", "Payment", "Total of Payments", "Finance Charge"} {
		summary.set(i+1, 1, header)
	}
	for r, s := range ws.Summaries {
		summary.set(1, r+2, s.Term)
		summary.set(2, r+2, s.AmountFinanced)
		summary.set(3, r+2, s.Payment)
		summary.set(4, r+2, s.TotalOfPayments)
		summary.set(5, r+2, s.FinanceCharge)
	}
	if summary.err != nil {
		return summary.err
	}

	if err := f.SetColWidth(SheetMenu, "B", "H", 20); err != nil {
		return err
	}
	return f.Write(w)
}
