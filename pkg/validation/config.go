package validation

import (
	"fmt"
)

// LongTermMonths is the longest term that does not raise a warning.
const LongTermMonths = 96

// DealValidator collects the parts of a deal configuration that can be
// legal but suspicious. It never fails; it only reports warnings.
type DealValidator struct {
	SalePrice      float64
	APRPct         float64
	TradeAllowance float64
	Payoff         float64
	Terms          []int
	Downs          []float64
	MenuDownIndex  int
	AddonKeys      []string
	Selection      []string
}

// ValidateAll validates the entire deal and returns warnings
func (dv *DealValidator) ValidateAll() []string {
	var warnings []string

	if dv.SalePrice == 0 {
		warnings = append(warnings, "Sale price is 0 - every scenario will only finance fees and products")
	}

	if dv.APRPct == 0 {
		warnings = append(warnings, "APR is 0 - payments are computed straight-line without interest")
	}

	if dv.Payoff > 0 && dv.TradeAllowance == 0 {
		warnings = append(warnings, fmt.Sprintf("Trade payoff %.2f has no trade allowance - the full payoff is rolled in as negative equity", dv.Payoff))
	}

	seenTerms := make(map[int]bool)
	for _, term := range dv.Terms {
		if seenTerms[term] {
			warnings = append(warnings, fmt.Sprintf("Term %d months is listed more than once", term))
		}
		seenTerms[term] = true
		if term > LongTermMonths {
			warnings = append(warnings, fmt.Sprintf("Term %d months exceeds %d months", term, LongTermMonths))
		}
	}

	if len(dv.Downs) > 0 && (dv.MenuDownIndex < 0 || dv.MenuDownIndex >= len(dv.Downs)) {
		warnings = append(warnings, fmt.Sprintf("Menu down index %d is outside the %d configured downs and will be clamped",
			dv.MenuDownIndex, len(dv.Downs)))
	}

	known := make(map[string]bool, len(dv.AddonKeys))
	for _, key := range dv.AddonKeys {
		known[key] = true
	}
	for _, key := range dv.Selection {
		if !known[key] {
			warnings = append(warnings, fmt.Sprintf("Selected add-on '%s' is not in the add-on catalog", key))
		}
	}

	return warnings
}
