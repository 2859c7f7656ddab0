package validation

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/desking/pkg/constants"
)

// ErrInvalidArgument is returned (wrapped) whenever a caller passes a value
// the deal engine does not accept. Test for it with errors.Is.
var ErrInvalidArgument = errors.New("invalid argument")

// Invalid wraps ErrInvalidArgument with a formatted message.
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// NonNegative rejects negative and non-finite amounts.
func NonNegative(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return Invalid("%s must be a finite number", name)
	}
	if val < 0 {
		return Invalid("%s must not be negative, got %.2f", name, val)
	}
	return nil
}

// PositiveTerm rejects loan terms that are not a positive number of months
// or that run past constants.MaxTermMonths.
func PositiveTerm(months int) error {
	if months <= 0 {
		return Invalid("term must be a positive number of months, got %d", months)
	}
	if months > constants.MaxTermMonths {
		return Invalid("term must be at most %d months, got %d", constants.MaxTermMonths, months)
	}
	return nil
}
