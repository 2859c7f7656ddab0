package deal

import (
	"github.com/iwvelando/desking/pkg/mathutil"
	"github.com/iwvelando/desking/pkg/tax"
	"github.com/iwvelando/desking/pkg/validation"
)

// Scenario holds the figures for one cash down and add-on amount.
type Scenario struct {
	TaxableBase        float64 `json:"taxableBase"`
	Taxes              float64 `json:"taxes"`
	DueBeforeDowns     float64 `json:"dueBeforeDowns"`
	AmountFinanced     float64 `json:"amountFinanced"`
	OutTheDoorWithDown float64 `json:"outTheDoorWithDown"`
}

// BuildScenario prices the deal for a cash down and a total of optional
// add-ons. The order of operations is fixed so figures reproduce exactly.
//
// AmountFinanced is floored at zero before negative equity is added back.
// OutTheDoorWithDown is not floored: a down larger than the amount due shows
// as a negative out-the-door figure.
func BuildScenario(cashDown, extraAddons float64, in Inputs, cfg tax.Config) (Scenario, error) {
	if err := in.Validate(); err != nil {
		return Scenario{}, err
	}
	if err := validation.NonNegative("cash down", cashDown); err != nil {
		return Scenario{}, err
	}
	if err := validation.NonNegative("add-ons", extraAddons); err != nil {
		return Scenario{}, err
	}

	var s Scenario
	s.TaxableBase = mathutil.Floor0(in.SalePrice-in.TradeAllowance) + in.DocFee + in.RequiredPackageAmount + extraAddons

	taxes, err := tax.SalesTax(s.TaxableBase, cfg)
	if err != nil {
		return Scenario{}, err
	}
	s.Taxes = taxes

	s.DueBeforeDowns = in.SalePrice + in.DocFee + in.TitleFee + in.TempTag + in.RequiredPackageAmount + extraAddons + taxes

	tradeEquity := in.TradeEquity()
	negativeEquity := in.NegativeEquity()
	capReductions := cashDown + in.Rebate + tradeEquity

	s.AmountFinanced = mathutil.Round(mathutil.Floor0(s.DueBeforeDowns-capReductions) + negativeEquity)
	s.OutTheDoorWithDown = mathutil.Round(s.DueBeforeDowns + negativeEquity - cashDown - in.Rebate - tradeEquity)
	return s, nil
}
