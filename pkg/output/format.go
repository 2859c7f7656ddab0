// Package output provides utilities for formatting and displaying worksheets.
package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/iwvelando/desking/internal/desk"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(ws desk.Worksheet) {
	PrettyFormatTo(os.Stdout, ws)
}

// PrettyFormatTo writes the human-readable tables to w.
func PrettyFormatTo(w io.Writer, ws desk.Worksheet) {
	p := message.NewPrinter(language.English)

	_, _ = p.Fprintf(w, "--- Payment grid (APR %.2f%%) ---\n", ws.Request.Inputs.APRPct)
	_, _ = fmt.Fprintf(w, "Term")
	for _, down := range ws.Grid.Downs {
		_, _ = p.Fprintf(w, " | $%.0f down", down)
	}
	_, _ = fmt.Fprintf(w, "\n")
	for _, row := range ws.Grid.Rows {
		_, _ = fmt.Fprintf(w, "%-4d", row.Term)
		for _, cell := range row.Cells {
			_, _ = p.Fprintf(w, " | $%.2f", cell.Payment)
		}
		_, _ = fmt.Fprintf(w, "\n")
	}

	if len(ws.Menu.Rows) > 0 {
		_, _ = p.Fprintf(w, "\n--- Product menu at $%.2f down ---\n", ws.Menu.Down)
		_, _ = fmt.Fprintf(w, "Term")
		for _, bundle := range ws.Menu.Bundles {
			_, _ = fmt.Fprintf(w, " | %s", bundle.Label)
		}
		_, _ = fmt.Fprintf(w, "\n")
		for _, row := range ws.Menu.Rows {
			_, _ = fmt.Fprintf(w, "%-4d", row.Term)
			for _, cell := range row.Cells {
				if cell.Delta == 0 {
					_, _ = p.Fprintf(w, " | $%.2f", cell.Payment)
					continue
				}
				_, _ = p.Fprintf(w, " | $%.2f (+$%.2f)", cell.Payment, cell.Delta)
			}
			_, _ = fmt.Fprintf(w, "\n")
		}
	}

	if len(ws.Summaries) > 0 {
		_, _ = p.Fprintf(w, "\n--- Finance summary at $%.2f down ---\n", ws.Menu.Down)
		_, _ = fmt.Fprintf(w, "Term | Amount financed | Total of payments | Finance charge\n")
		for _, s := range ws.Summaries {
			_, _ = p.Fprintf(w, "%-4d | $%.2f | $%.2f | $%.2f\n", s.Term, s.AmountFinanced, s.TotalOfPayments, s.FinanceCharge)
		}
	}
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(ws desk.Worksheet) {
	_ = WriteCSV(os.Stdout, ws)
}

// CsvString renders the worksheet as CSV text.
func CsvString(ws desk.Worksheet) string {
	var buf bytes.Buffer
	_ = WriteCSV(&buf, ws)
	return buf.String()
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// WriteCSV writes one record per grid cell and per menu cell.
func WriteCSV(w io.Writer, ws desk.Worksheet) error {
	cw := csv.NewWriter(w)
	records := [][]string{{"section", "term", "down", "bundle", "payment", "delta", "amount_financed", "taxes", "out_the_door"}}

	for _, row := range ws.Grid.Rows {
		for _, cell := range row.Cells {
			records = append(records, []string{
				"grid", strconv.Itoa(cell.Term), money(cell.Down), "base", money(cell.Payment), "",
				money(cell.AmountFinanced), "", money(cell.OutTheDoor),
			})
		}
	}
	for _, row := range ws.Menu.Rows {
		for _, cell := range row.Cells {
			records = append(records, []string{
				"menu", strconv.Itoa(row.Term), money(ws.Menu.Down), cell.Bundle, money(cell.Payment), money(cell.Delta),
				money(cell.AmountFinanced), money(cell.Taxes), money(cell.OutTheDoor),
			})
		}
	}

	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}
