// Package deal builds the figures a desk manager pencils for a vehicle deal:
// single scenarios, the term-by-down payment grid, and the product menu that
// compares add-on bundles at one presentation down.
package deal

import (
	"github.com/iwvelando/desking/pkg/mathutil"
	"github.com/iwvelando/desking/pkg/validation"
)

// Inputs holds the money figures of a deal. All amounts are non-negative.
type Inputs struct {
	SalePrice             float64 `json:"salePrice" yaml:"salePrice"`
	APRPct                float64 `json:"aprPct" yaml:"aprPct"`
	Rebate                float64 `json:"rebate" yaml:"rebate"`
	TradeAllowance        float64 `json:"tradeAllowance" yaml:"tradeAllowance"`
	Payoff                float64 `json:"payoff" yaml:"payoff"`
	DocFee                float64 `json:"docFee" yaml:"docFee"`
	TitleFee              float64 `json:"titleFee" yaml:"titleFee"`
	TempTag               float64 `json:"tempTag" yaml:"tempTag"`
	RequiredPackageName   string  `json:"requiredPackageName,omitempty" yaml:"requiredPackageName,omitempty"`
	RequiredPackageAmount float64 `json:"requiredPackageAmount" yaml:"requiredPackageAmount"`
}

// DefaultInputs returns the figures a new worksheet starts with.
func DefaultInputs() Inputs {
	return Inputs{
		SalePrice:             34240,
		APRPct:                6.99,
		DocFee:                799,
		TitleFee:              101,
		TempTag:               5,
		RequiredPackageName:   "Protection Package",
		RequiredPackageAmount: 2998,
	}
}

// Validate rejects negative or non-finite amounts.
func (in Inputs) Validate() error {
	fields := []struct {
		name string
		val  float64
	}{
		{"sale price", in.SalePrice},
		{"apr", in.APRPct},
		{"rebate", in.Rebate},
		{"trade allowance", in.TradeAllowance},
		{"payoff", in.Payoff},
		{"doc fee", in.DocFee},
		{"title fee", in.TitleFee},
		{"temp tag", in.TempTag},
		{"required package", in.RequiredPackageAmount},
	}
	for _, f := range fields {
		if err := validation.NonNegative(f.name, f.val); err != nil {
			return err
		}
	}
	return nil
}

// TradeEquity is the positive part of allowance minus payoff.
func (in Inputs) TradeEquity() float64 {
	return mathutil.Floor0(in.TradeAllowance - in.Payoff)
}

// NegativeEquity is the payoff in excess of the allowance; it is rolled into
// the amount financed rather than reducing it.
func (in Inputs) NegativeEquity() float64 {
	return mathutil.Floor0(in.Payoff - in.TradeAllowance)
}
