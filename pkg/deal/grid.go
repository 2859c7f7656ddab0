package deal

import (
	"github.com/iwvelando/desking/pkg/loans"
	"github.com/iwvelando/desking/pkg/tax"
	"github.com/iwvelando/desking/pkg/validation"
)

// GridCell is the base (no add-on) payment for one term and down.
type GridCell struct {
	Term           int     `json:"term"`
	Down           float64 `json:"down"`
	Payment        float64 `json:"payment"`
	AmountFinanced float64 `json:"amountFinanced"`
	OutTheDoor     float64 `json:"outTheDoor"`
}

// GridRow holds one cell per down for a term.
type GridRow struct {
	Term  int        `json:"term"`
	Cells []GridCell `json:"cells"`
}

// Grid is the term-by-down payment matrix.
type Grid struct {
	Terms []int     `json:"terms"`
	Downs []float64 `json:"downs"`
	Rows  []GridRow `json:"rows"`
}

// validateDeal checks the inputs and tax configuration along with both axes,
// so an empty axis never hides a bad deal.
func validateDeal(terms []int, downs []float64, in Inputs, cfg tax.Config) error {
	if err := in.Validate(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	for _, term := range terms {
		if err := validation.PositiveTerm(term); err != nil {
			return err
		}
	}
	for _, down := range downs {
		if err := validation.NonNegative("down", down); err != nil {
			return err
		}
	}
	return nil
}

// BuildGrid computes the base scenario for every down and its payment for
// every term. Rows follow the order of terms and cells the order of downs.
func BuildGrid(terms []int, downs []float64, in Inputs, cfg tax.Config) (Grid, error) {
	if err := validateDeal(terms, downs, in, cfg); err != nil {
		return Grid{}, err
	}

	// The scenario does not depend on the term, so price each down once.
	scenarios := make([]Scenario, len(downs))
	for i, down := range downs {
		s, err := BuildScenario(down, 0, in, cfg)
		if err != nil {
			return Grid{}, err
		}
		scenarios[i] = s
	}

	grid := Grid{
		Terms: append([]int(nil), terms...),
		Downs: append([]float64(nil), downs...),
		Rows:  make([]GridRow, 0, len(terms)),
	}
	for _, term := range terms {
		row := GridRow{Term: term, Cells: make([]GridCell, 0, len(downs))}
		for i, down := range downs {
			payment, err := loans.MonthlyPayment(scenarios[i].AmountFinanced, in.APRPct, term)
			if err != nil {
				return Grid{}, err
			}
			row.Cells = append(row.Cells, GridCell{
				Term:           term,
				Down:           down,
				Payment:        payment,
				AmountFinanced: scenarios[i].AmountFinanced,
				OutTheDoor:     scenarios[i].OutTheDoorWithDown,
			})
		}
		grid.Rows = append(grid.Rows, row)
	}
	return grid, nil
}

// Cell returns the grid cell for a term and down index.
func (g Grid) Cell(term, downIndex int) (GridCell, bool) {
	for _, row := range g.Rows {
		if row.Term != term {
			continue
		}
		if downIndex < 0 || downIndex >= len(row.Cells) {
			return GridCell{}, false
		}
		return row.Cells[downIndex], true
	}
	return GridCell{}, false
}
