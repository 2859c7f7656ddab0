package deal

import (
	"github.com/iwvelando/desking/pkg/constants"
	"github.com/iwvelando/desking/pkg/loans"
	"github.com/iwvelando/desking/pkg/mathutil"
	"github.com/iwvelando/desking/pkg/tax"
	"github.com/iwvelando/desking/pkg/validation"
)

// Addon is an optional product that can be financed with the vehicle.
type Addon struct {
	Key    string  `json:"key" yaml:"key"`
	Name   string  `json:"name" yaml:"name"`
	Amount float64 `json:"amount" yaml:"amount"`
}

// Catalog is the ordered list of add-ons offered on the menu.
type Catalog []Addon

// Selection lists the add-on keys included in the combo bundle.
type Selection []string

// DefaultCatalog returns the add-on products offered by default.
func DefaultCatalog() Catalog {
	return Catalog{
		{Key: "maint", Name: "Maintenance Plan", Amount: 1695},
		{Key: "connect", Name: "Connect + Anti-Theft", Amount: 1295},
		{Key: "gap", Name: "GAP", Amount: 1198},
		{Key: "vsc", Name: "VSC", Amount: 2998},
	}
}

// DefaultSelection returns the add-ons preselected for the combo bundle.
func DefaultSelection() Selection {
	return Selection{"maint", "connect"}
}

// Validate checks amounts and that keys are unique and not reserved.
func (c Catalog) Validate() error {
	seen := make(map[string]bool, len(c))
	for _, addon := range c {
		switch addon.Key {
		case "":
			return validation.Invalid("add-on %q has no key", addon.Name)
		case constants.BundleBase, constants.BundleFull, constants.BundleCombo:
			return validation.Invalid("add-on key %q is reserved", addon.Key)
		}
		if seen[addon.Key] {
			return validation.Invalid("add-on key %q is listed more than once", addon.Key)
		}
		seen[addon.Key] = true
		if err := validation.NonNegative("add-on "+addon.Key, addon.Amount); err != nil {
			return err
		}
	}
	return nil
}

// Total sums every add-on in the catalog.
func (c Catalog) Total() float64 {
	total := 0.0
	for _, addon := range c {
		total += addon.Amount
	}
	return total
}

// SelectedTotal sums the add-ons named in the selection. Unknown keys are an
// error.
func (c Catalog) SelectedTotal(selection Selection) (float64, error) {
	amounts := make(map[string]float64, len(c))
	for _, addon := range c {
		amounts[addon.Key] = addon.Amount
	}
	chosen := make(map[string]bool, len(selection))
	total := 0.0
	for _, key := range selection {
		amount, ok := amounts[key]
		if !ok {
			return 0, validation.Invalid("selected add-on %q is not in the catalog", key)
		}
		if chosen[key] {
			continue
		}
		chosen[key] = true
		total += amount
	}
	return total, nil
}

// Bundle is a named column of the product menu.
type Bundle struct {
	Key          string  `json:"key"`
	Label        string  `json:"label"`
	AddonsAmount float64 `json:"addonsAmount"`
}

// Bundles lists the menu columns: base, each single add-on, full and combo.
func Bundles(catalog Catalog, selection Selection) ([]Bundle, error) {
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	comboTotal, err := catalog.SelectedTotal(selection)
	if err != nil {
		return nil, err
	}

	bundles := make([]Bundle, 0, len(catalog)+3)
	bundles = append(bundles, Bundle{Key: constants.BundleBase, Label: "Base"})
	for _, addon := range catalog {
		bundles = append(bundles, Bundle{Key: addon.Key, Label: "+" + addon.Name, AddonsAmount: addon.Amount})
	}
	bundles = append(bundles,
		Bundle{Key: constants.BundleFull, Label: "Full Protection", AddonsAmount: catalog.Total()},
		Bundle{Key: constants.BundleCombo, Label: "Selected Combo", AddonsAmount: comboTotal},
	)
	return bundles, nil
}

// MenuCell is one bundle priced at one term.
type MenuCell struct {
	Bundle         string  `json:"bundle"`
	Payment        float64 `json:"payment"`
	Delta          float64 `json:"delta"`
	Taxes          float64 `json:"taxes"`
	AmountFinanced float64 `json:"amountFinanced"`
	OutTheDoor     float64 `json:"outTheDoor"`
}

// MenuRow holds one cell per bundle, in bundle order, for a term.
type MenuRow struct {
	Term  int        `json:"term"`
	Cells []MenuCell `json:"cells"`
}

// Menu compares every bundle across the terms at a single down.
type Menu struct {
	DownIndex int       `json:"downIndex"`
	Down      float64   `json:"down"`
	Bundles   []Bundle  `json:"bundles"`
	Rows      []MenuRow `json:"rows"`
}

// BuildProductMenu prices every bundle at the down chosen by downIndex. An
// index past the end of downs selects the last down; an empty downs axis
// uses no down at all. Deltas are relative to the base payment of the same
// term.
func BuildProductMenu(downIndex int, terms []int, downs []float64, catalog Catalog, selection Selection,
	in Inputs, cfg tax.Config) (Menu, error) {
	if err := validateDeal(terms, downs, in, cfg); err != nil {
		return Menu{}, err
	}
	bundles, err := Bundles(catalog, selection)
	if err != nil {
		return Menu{}, err
	}

	menu := Menu{DownIndex: mathutil.ClampIndex(downIndex, len(downs)), Bundles: bundles}
	if len(downs) > 0 {
		menu.Down = downs[menu.DownIndex]
	}

	scenarios := make([]Scenario, len(bundles))
	for i, bundle := range bundles {
		s, err := BuildScenario(menu.Down, bundle.AddonsAmount, in, cfg)
		if err != nil {
			return Menu{}, err
		}
		scenarios[i] = s
	}

	menu.Rows = make([]MenuRow, 0, len(terms))
	for _, term := range terms {
		row := MenuRow{Term: term, Cells: make([]MenuCell, 0, len(bundles))}
		var basePayment float64
		for i, bundle := range bundles {
			payment, err := loans.MonthlyPayment(scenarios[i].AmountFinanced, in.APRPct, term)
			if err != nil {
				return Menu{}, err
			}
			cell := MenuCell{
				Bundle:         bundle.Key,
				Payment:        payment,
				Taxes:          scenarios[i].Taxes,
				AmountFinanced: scenarios[i].AmountFinanced,
				OutTheDoor:     scenarios[i].OutTheDoorWithDown,
			}
			if bundle.Key == constants.BundleBase {
				basePayment = payment
			} else {
				cell.Delta = mathutil.Round(payment - basePayment)
			}
			row.Cells = append(row.Cells, cell)
		}
		menu.Rows = append(menu.Rows, row)
	}
	return menu, nil
}

// Lookup returns the cell for a term and bundle key.
func (m Menu) Lookup(term int, bundle string) (MenuCell, bool) {
	for _, row := range m.Rows {
		if row.Term != term {
			continue
		}
		for _, cell := range row.Cells {
			if cell.Bundle == bundle {
				return cell, true
			}
		}
	}
	return MenuCell{}, false
}

// Bundle returns the bundle definition for a key.
func (m Menu) Bundle(key string) (Bundle, bool) {
	for _, b := range m.Bundles {
		if b.Key == key {
			return b, true
		}
	}
	return Bundle{}, false
}
