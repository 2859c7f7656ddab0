// Package datetime provides date and time utility functions.
package datetime

import (
	"strings"
	"time"

	"github.com/iwvelando/desking/pkg/validation"
)

const (
	// InputLayout is the date format customer forms submit, e.g. 1990-02-03.
	InputLayout = "2006-01-02"

	// DisplayLayout is the short date printed on documents.
	DisplayLayout = "1/2/2006"
)

// acceptedLayouts are tried in order by ParseDate.
var acceptedLayouts = []string{InputLayout, "01/02/2006", DisplayLayout, "2006/01/02"}

// ParseDate reads a customer-entered date in any of the accepted layouts.
func ParseDate(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, validation.Invalid("date is blank")
	}
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, validation.Invalid("date %q is not in a recognized format", raw)
}

// Display renders raw in DisplayLayout. Text that is not a recognized date is
// returned trimmed but otherwise as entered.
func Display(raw string) string {
	t, err := ParseDate(raw)
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return t.Format(DisplayLayout)
}

// Expired reports whether the date in raw falls before the day of now. Dates
// that cannot be parsed are never expired.
func Expired(raw string, now time.Time) bool {
	t, err := ParseDate(raw)
	if err != nil {
		return false
	}
	y, m, d := now.Date()
	return t.Before(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}
