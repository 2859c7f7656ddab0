// Package testutil provides common utility functions for testing.
package testutil

import (
	"testing"

	"github.com/iwvelando/desking/internal/desk"
	"github.com/iwvelando/desking/pkg/deal"
)

// DefaultWorksheet computes the worksheet for the default request and fails
// the test if that is not possible.
func DefaultWorksheet(tb testing.TB) desk.Worksheet {
	tb.Helper()
	ws, err := desk.Compute(desk.DefaultRequest())
	if err != nil {
		tb.Fatalf("failed to compute default worksheet: %v", err)
	}
	return ws
}

// FindGridCell finds the grid cell for a term and down amount.
// Returns a pointer to the cell if found, nil otherwise.
func FindGridCell(grid deal.Grid, term int, down float64) *deal.GridCell {
	for i := range grid.Rows {
		if grid.Rows[i].Term != term {
			continue
		}
		for j := range grid.Rows[i].Cells {
			if grid.Rows[i].Cells[j].Down == down {
				return &grid.Rows[i].Cells[j]
			}
		}
	}
	return nil
}

// FindMenuCell finds the menu cell for a term and bundle key.
// Returns a pointer to the cell if found, nil otherwise.
func FindMenuCell(menu deal.Menu, term int, bundle string) *deal.MenuCell {
	for i := range menu.Rows {
		if menu.Rows[i].Term != term {
			continue
		}
		for j := range menu.Rows[i].Cells {
			if menu.Rows[i].Cells[j].Bundle == bundle {
				return &menu.Rows[i].Cells[j]
			}
		}
	}
	return nil
}
