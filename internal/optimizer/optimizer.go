// Package optimizer solves a single deal input for a target monthly payment:
// the cash down a customer needs, or the highest price that still fits.
package optimizer

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/desking/internal/desk"
	"github.com/iwvelando/desking/pkg/constants"
	"github.com/iwvelando/desking/pkg/deal"
	"github.com/iwvelando/desking/pkg/format"
	"github.com/iwvelando/desking/pkg/loans"
	"github.com/iwvelando/desking/pkg/mathutil"
	"github.com/iwvelando/desking/pkg/optimization"
	"github.com/iwvelando/desking/pkg/validation"
	"go.uber.org/zap"
)

// Fields the runner can solve for.
const (
	FieldCashDown  = "cashDown"
	FieldSalePrice = "salePrice"
)

const (
	maxIterations = 64

	// minPriceCeiling bounds the sale price search when no Max is given and
	// the current price is small.
	minPriceCeiling = 100000.0
)

// Target asks for the value of Field at which the Term payment for Bundle is
// at most Payment. Min and Max bound the search; a zero Max picks a bound
// from the deal.
type Target struct {
	Field   string  `json:"field"`
	Payment float64 `json:"payment"`
	Term    int     `json:"term"`
	Bundle  string  `json:"bundle,omitempty"`
	Min     float64 `json:"min,omitempty"`
	Max     float64 `json:"max,omitempty"`
}

// CanonicalField maps accepted spellings onto the Field constants.
func CanonicalField(field string) string {
	switch strings.ToLower(strings.TrimSpace(field)) {
	case "", "cashdown", "down", "cash_down":
		return FieldCashDown
	case "saleprice", "price", "sale_price":
		return FieldSalePrice
	}
	return field
}

// Runner solves targets against one worksheet request.
type Runner struct {
	logger *zap.Logger
	req    desk.Request
	down   float64
}

type evaluation struct {
	value   float64
	payment float64
	target  float64
}

func (e evaluation) feasible() bool {
	return e.payment <= e.target
}

func (e evaluation) headroom() float64 {
	return mathutil.Round(e.target - e.payment)
}

// NewRunner constructs a Runner for the provided request. Values not being
// solved for keep the request's figures; the cash down is the menu down.
func NewRunner(logger *zap.Logger, req desk.Request) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := req.Inputs.Validate(); err != nil {
		return nil, err
	}
	if err := req.Tax.Validate(); err != nil {
		return nil, err
	}

	var down float64
	if len(req.Downs) > 0 {
		down = req.Downs[mathutil.ClampIndex(req.MenuDownIndex, len(req.Downs))]
	}
	return &Runner{logger: logger, req: req, down: down}, nil
}

// Run solves target and reports the value found. A target that cannot be
// met inside the bounds is not an error: the summary comes back with
// Converged false, the closest bound and a note.
func (r *Runner) Run(target Target) (optimization.Summary, error) {
	field := CanonicalField(target.Field)
	if field != FieldCashDown && field != FieldSalePrice {
		return optimization.Summary{}, validation.Invalid("cannot solve for %q; expected %s or %s",
			target.Field, FieldCashDown, FieldSalePrice)
	}
	if target.Payment <= 0 {
		return optimization.Summary{}, validation.Invalid("target payment must be greater than zero, got %.2f", target.Payment)
	}
	if err := validation.PositiveTerm(target.Term); err != nil {
		return optimization.Summary{}, err
	}

	bundleKey := target.Bundle
	if bundleKey == "" {
		bundleKey = constants.BundleBase
	}
	addons, err := r.addonsAmount(bundleKey)
	if err != nil {
		return optimization.Summary{}, err
	}

	minVal, maxVal, err := r.bounds(field, target, addons)
	if err != nil {
		return optimization.Summary{}, err
	}

	eval := func(value float64) (evaluation, error) {
		return r.evaluate(field, mathutil.Round(value), target, addons)
	}
	lowerEval, err := eval(minVal)
	if err != nil {
		return optimization.Summary{}, err
	}
	upperEval, err := eval(maxVal)
	if err != nil {
		return optimization.Summary{}, err
	}

	// More down lowers the payment, so the smallest feasible down is wanted;
	// a higher price raises it, so the largest feasible price is wanted.
	best, worst := lowerEval, upperEval
	if field == FieldCashDown {
		best, worst = upperEval, lowerEval
	}

	summary := optimization.Summary{
		Field:           field,
		Term:            target.Term,
		Bundle:          bundleKey,
		TargetPayment:   mathutil.Round(target.Payment),
		Original:        r.original(field),
		OriginalDisplay: format.Currency(r.original(field)),
	}

	var final evaluation
	iterations := 0
	switch {
	case !best.feasible():
		final = best
		summary.Notes = []string{fmt.Sprintf(
			"payment %s is not reachable for %s between %s and %s",
			format.Currency(target.Payment), field, format.Currency(minVal), format.Currency(maxVal),
		)}
	case worst.feasible():
		final = worst
		summary.Converged = true
	default:
		final, iterations, err = bisect(worst, best, eval)
		if err != nil {
			return optimization.Summary{}, err
		}
		summary.Converged = true
	}

	summary.Value = final.value
	summary.ValueDisplay = format.Currency(final.value)
	summary.Payment = final.payment
	summary.Headroom = final.headroom()
	summary.Iterations = iterations

	r.logger.Info("optimizer solved deal field",
		zap.String("op", "optimizer.Run"),
		zap.String("field", field),
		zap.Int("term", target.Term),
		zap.String("bundle", bundleKey),
		zap.Float64("targetPayment", summary.TargetPayment),
		zap.Float64("original", summary.Original),
		zap.Float64("value", summary.Value),
		zap.Float64("payment", summary.Payment),
		zap.Int("iterations", summary.Iterations),
		zap.Bool("converged", summary.Converged),
	)
	return summary, nil
}

// bisect narrows the gap between an infeasible and a feasible evaluation to
// a cent and returns the feasible end.
func bisect(infeasible, feasible evaluation, eval func(float64) (evaluation, error)) (evaluation, int, error) {
	iterations := 0
	for iterations < maxIterations && !mathutil.WithinTolerance(feasible.value, infeasible.value, constants.CurrencyTolerance) {
		mid := mathutil.Round(infeasible.value + (feasible.value-infeasible.value)/2)
		if mid == infeasible.value || mid == feasible.value {
			break
		}
		evalMid, err := eval(mid)
		if err != nil {
			return evaluation{}, iterations, err
		}
		iterations++
		if evalMid.feasible() {
			feasible = evalMid
		} else {
			infeasible = evalMid
		}
	}
	return feasible, iterations, nil
}

func (r *Runner) evaluate(field string, value float64, target Target, addons float64) (evaluation, error) {
	in := r.req.Inputs
	down := r.down
	switch field {
	case FieldCashDown:
		down = value
	case FieldSalePrice:
		in.SalePrice = value
	}

	s, err := deal.BuildScenario(down, addons, in, r.req.Tax)
	if err != nil {
		return evaluation{}, err
	}
	payment, err := loans.MonthlyPayment(s.AmountFinanced, in.APRPct, target.Term)
	if err != nil {
		return evaluation{}, err
	}
	return evaluation{value: value, payment: payment, target: mathutil.Round(target.Payment)}, nil
}

func (r *Runner) addonsAmount(bundleKey string) (float64, error) {
	bundles, err := deal.Bundles(r.req.Catalog, r.req.Selection)
	if err != nil {
		return 0, err
	}
	for _, b := range bundles {
		if b.Key == bundleKey {
			return b.AddonsAmount, nil
		}
	}
	return 0, validation.Invalid("unknown menu option %q", bundleKey)
}

func (r *Runner) bounds(field string, target Target, addons float64) (float64, float64, error) {
	if err := validation.NonNegative("minimum", target.Min); err != nil {
		return 0, 0, err
	}
	if err := validation.NonNegative("maximum", target.Max); err != nil {
		return 0, 0, err
	}

	maxVal := target.Max
	if maxVal == 0 {
		switch field {
		case FieldCashDown:
			// Past the amount due before downs more cash changes nothing.
			s, err := deal.BuildScenario(0, addons, r.req.Inputs, r.req.Tax)
			if err != nil {
				return 0, 0, err
			}
			maxVal = math.Max(s.DueBeforeDowns, 0)
		case FieldSalePrice:
			maxVal = math.Max(2*r.req.Inputs.SalePrice, minPriceCeiling)
		}
	}
	if target.Min > maxVal {
		return 0, 0, validation.Invalid("minimum %.2f is above maximum %.2f", target.Min, maxVal)
	}
	return mathutil.Round(target.Min), mathutil.Round(maxVal), nil
}

func (r *Runner) original(field string) float64 {
	if field == FieldSalePrice {
		return r.req.Inputs.SalePrice
	}
	return r.down
}
