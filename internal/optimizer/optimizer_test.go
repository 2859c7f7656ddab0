package optimizer

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/iwvelando/desking/internal/desk"
	"github.com/iwvelando/desking/pkg/constants"
	"github.com/iwvelando/desking/pkg/deal"
	"github.com/iwvelando/desking/pkg/loans"
	"github.com/iwvelando/desking/pkg/validation"
	"go.uber.org/zap"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	runner, err := NewRunner(zap.NewNop(), desk.DefaultRequest())
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	return runner
}

func paymentAt(t *testing.T, down, price, addons float64, term int) float64 {
	t.Helper()
	req := desk.DefaultRequest()
	in := req.Inputs
	in.SalePrice = price
	s, err := deal.BuildScenario(down, addons, in, req.Tax)
	if err != nil {
		t.Fatalf("BuildScenario() error = %v", err)
	}
	payment, err := loans.MonthlyPayment(s.AmountFinanced, in.APRPct, term)
	if err != nil {
		t.Fatalf("MonthlyPayment() error = %v", err)
	}
	return payment
}

func TestRunCashDown(t *testing.T) {
	runner := newTestRunner(t)

	summary, err := runner.Run(Target{Field: FieldCashDown, Payment: 679.95, Term: 72})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !summary.Converged {
		t.Fatalf("expected convergence, notes: %v", summary.Notes)
	}
	if summary.Value < 999 || summary.Value > 1000 {
		t.Errorf("cash down = %.2f, expected just under 1000", summary.Value)
	}
	if summary.Payment > 679.95 {
		t.Errorf("payment %.2f exceeds the target", summary.Payment)
	}
	if below := paymentAt(t, summary.Value-0.01, 34240, 0, 72); below <= 679.95 {
		t.Errorf("a cent less down still meets the target (%.2f); the solver did not find the smallest down", below)
	}
	if summary.Original != 1000 {
		t.Errorf("original = %.2f, expected the menu down 1000", summary.Original)
	}
	if summary.Iterations == 0 {
		t.Error("expected the search to iterate")
	}
	if summary.Bundle != constants.BundleBase {
		t.Errorf("bundle = %q, expected base", summary.Bundle)
	}
}

func TestRunCashDownWithBundle(t *testing.T) {
	runner := newTestRunner(t)

	summary, err := runner.Run(Target{Field: "down", Payment: 679.95, Term: 72, Bundle: constants.BundleCombo})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// The combo adds 2990 of products plus their tax, about 3199.30 financed.
	if summary.Value < 4198 || summary.Value > 4200 {
		t.Errorf("cash down = %.2f, expected about 4199.30", summary.Value)
	}
	if summary.Payment > 679.95 {
		t.Errorf("payment %.2f exceeds the target", summary.Payment)
	}
}

func TestRunCashDownAlreadyMet(t *testing.T) {
	runner := newTestRunner(t)

	summary, err := runner.Run(Target{Field: FieldCashDown, Payment: 2000, Term: 72})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !summary.Converged || summary.Value != 0 || summary.Iterations != 0 {
		t.Errorf("expected no down needed without iterating, got %+v", summary)
	}
	if math.Abs(summary.Headroom-(2000-summary.Payment)) > 0.001 {
		t.Errorf("headroom = %.2f, expected %.2f", summary.Headroom, 2000-summary.Payment)
	}
}

func TestRunUnreachableWithinBounds(t *testing.T) {
	runner := newTestRunner(t)

	summary, err := runner.Run(Target{Field: FieldCashDown, Payment: 100, Term: 72, Max: 5000})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Converged {
		t.Fatal("expected no convergence")
	}
	if summary.Value != 5000 {
		t.Errorf("value = %.2f, expected the upper bound 5000", summary.Value)
	}
	if summary.Headroom >= 0 {
		t.Errorf("headroom = %.2f, expected negative", summary.Headroom)
	}
	if len(summary.Notes) != 1 || !strings.Contains(summary.Notes[0], "not reachable") {
		t.Errorf("expected an unreachable note, got %v", summary.Notes)
	}
}

func TestRunSalePrice(t *testing.T) {
	runner := newTestRunner(t)

	summary, err := runner.Run(Target{Field: "price", Payment: 679.95, Term: 72})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Field != FieldSalePrice {
		t.Errorf("field = %q, expected %q", summary.Field, FieldSalePrice)
	}
	if !summary.Converged {
		t.Fatalf("expected convergence, notes: %v", summary.Notes)
	}
	if summary.Value < 34240 || summary.Value >= 34241 {
		t.Errorf("sale price = %.2f, expected within a dollar above 34240", summary.Value)
	}
	if above := paymentAt(t, 1000, summary.Value+0.01, 0, 72); above <= 679.95 {
		t.Errorf("a cent more price still meets the target (%.2f); the solver did not find the highest price", above)
	}
	if summary.OriginalDisplay != "$34,240.00" {
		t.Errorf("original display = %q", summary.OriginalDisplay)
	}
}

func TestRunSalePriceBelowFees(t *testing.T) {
	runner := newTestRunner(t)

	// Fees, tax and the required package alone cost more than 10 a month.
	summary, err := runner.Run(Target{Field: FieldSalePrice, Payment: 10, Term: 72})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Converged || summary.Value != 0 {
		t.Errorf("expected an unreachable result at price 0, got %+v", summary)
	}
}

func TestRunRejectsInvalidTargets(t *testing.T) {
	runner := newTestRunner(t)

	tests := []struct {
		name   string
		target Target
	}{
		{"unknown field", Target{Field: "apr", Payment: 500, Term: 72}},
		{"zero payment", Target{Payment: 0, Term: 72}},
		{"zero term", Target{Payment: 500, Term: 0}},
		{"unknown bundle", Target{Payment: 500, Term: 72, Bundle: "tint"}},
		{"negative min", Target{Payment: 500, Term: 72, Min: -1}},
		{"min above max", Target{Payment: 500, Term: 72, Min: 3000, Max: 2000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runner.Run(tt.target)
			if !errors.Is(err, validation.ErrInvalidArgument) {
				t.Errorf("Run() error = %v, expected ErrInvalidArgument", err)
			}
		})
	}
}

func TestNewRunnerRejectsInvalidRequest(t *testing.T) {
	req := desk.DefaultRequest()
	req.Inputs.SalePrice = -1

	if _, err := NewRunner(nil, req); !errors.Is(err, validation.ErrInvalidArgument) {
		t.Errorf("NewRunner() error = %v, expected ErrInvalidArgument", err)
	}
}

func TestCanonicalField(t *testing.T) {
	tests := map[string]string{
		"":           FieldCashDown,
		"cashDown":   FieldCashDown,
		" Down ":     FieldCashDown,
		"salePrice":  FieldSalePrice,
		"PRICE":      FieldSalePrice,
		"tradeValue": "tradeValue",
	}
	for in, expected := range tests {
		if got := CanonicalField(in); got != expected {
			t.Errorf("CanonicalField(%q) = %q, expected %q", in, got, expected)
		}
	}
}

func TestBisectStopsWithinACent(t *testing.T) {
	eval := func(v float64) (evaluation, error) {
		return evaluation{value: v, payment: 1000 - v, target: 500}, nil
	}
	low, _ := eval(0)
	high, _ := eval(1000)

	final, iterations, err := bisect(low, high, eval)
	if err != nil {
		t.Fatalf("bisect() error = %v", err)
	}
	if math.Abs(final.value-500) > 0.001 {
		t.Errorf("bisect() value = %.2f, expected 500.00", final.value)
	}
	if !final.feasible() {
		t.Errorf("bisect() returned an infeasible end: %+v", final)
	}
	if iterations == 0 || iterations >= maxIterations {
		t.Errorf("bisect() iterations = %d", iterations)
	}
}
