// Package loans provides the amortization math used to price a deal.
package loans

import (
	"math"

	"github.com/iwvelando/desking/pkg/constants"
	"github.com/iwvelando/desking/pkg/mathutil"
	"github.com/iwvelando/desking/pkg/validation"
)

// Payment holds the values for a given payment.
type Payment struct {
	Number             int     `json:"number"`
	Payment            float64 `json:"payment"`
	Principal          float64 `json:"principal"`
	Interest           float64 `json:"interest"`
	RemainingPrincipal float64 `json:"remainingPrincipal"`
}

// Summary holds the disclosure figures for a financed amount.
type Summary struct {
	AmountFinanced  float64 `json:"amountFinanced"`
	Payment         float64 `json:"payment"`
	TotalOfPayments float64 `json:"totalOfPayments"`
	FinanceCharge   float64 `json:"financeCharge"`
}

func validateLoan(aprPct float64, months int) error {
	if err := validation.PositiveTerm(months); err != nil {
		return err
	}
	return validation.NonNegative("apr", aprPct)
}

// MonthlyPayment calculates the monthly payment using the standard amortization
// formula, rounded to cents. A principal of zero or less yields 0.
func MonthlyPayment(principal, aprPct float64, months int) (float64, error) {
	if err := validateLoan(aprPct, months); err != nil {
		return 0, err
	}
	if !mathutil.IsFinite(principal) {
		return 0, validation.Invalid("principal must be a finite number")
	}
	if principal <= 0 {
		return 0, nil
	}

	periodicInterestRate := PeriodicRate(aprPct)
	if periodicInterestRate == 0 {
		// For zero interest, simply divide the principal by term
		return mathutil.Round(principal / float64(months)), nil
	}

	factor := periodicInterestRate / (1 - math.Pow(1+periodicInterestRate, -float64(months)))
	return mathutil.Round(principal * factor), nil
}

// PeriodicRate converts an APR percentage into a monthly rate.
func PeriodicRate(aprPct float64) float64 {
	return aprPct / (constants.PercentageMultiplier * constants.MonthsPerYear)
}

// CalculateInterestPayment calculates the interest portion of a payment.
func CalculateInterestPayment(remainingPrincipal, aprPct float64) float64 {
	return remainingPrincipal * PeriodicRate(aprPct)
}

// Summarize returns the payment, total of payments and finance charge for a
// financed amount. The finance charge is computed from the schedule so that
// the last-payment adjustment is reflected.
func Summarize(principal, aprPct float64, months int) (Summary, error) {
	schedule, err := Schedule(principal, aprPct, months)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{AmountFinanced: mathutil.Round(mathutil.Floor0(principal))}
	if len(schedule) == 0 {
		return summary, nil
	}

	summary.Payment = schedule[0].Payment
	total := 0.0
	for _, p := range schedule {
		total += p.Payment
	}
	summary.TotalOfPayments = mathutil.Round(total)
	summary.FinanceCharge = mathutil.Round(summary.TotalOfPayments - summary.AmountFinanced)
	return summary, nil
}

// Schedule builds the month-by-month amortization of a financed amount. Every
// row is rounded to cents; the final payment absorbs the rounding drift so the
// balance closes at exactly zero. A principal of zero or less has no schedule.
func Schedule(principal, aprPct float64, months int) ([]Payment, error) {
	monthlyPayment, err := MonthlyPayment(principal, aprPct, months)
	if err != nil {
		return nil, err
	}
	if principal <= 0 {
		return nil, nil
	}

	schedule := make([]Payment, 0, min(months, constants.MaxTermMonths))
	remaining := mathutil.Round(principal)
	for month := 1; month <= months; month++ {
		var current Payment
		current.Number = month
		current.Interest = mathutil.Round(CalculateInterestPayment(remaining, aprPct))

		if month == months || mathutil.Round(monthlyPayment-current.Interest) >= remaining {
			// Close out the loan; we will get machine error otherwise.
			current.Principal = remaining
			current.Payment = mathutil.Round(remaining + current.Interest)
			current.RemainingPrincipal = 0
			schedule = append(schedule, current)
			break
		}

		current.Payment = monthlyPayment
		current.Principal = mathutil.Round(monthlyPayment - current.Interest)
		remaining = mathutil.Round(remaining - current.Principal)
		current.RemainingPrincipal = remaining
		schedule = append(schedule, current)
	}

	return schedule, nil
}
