// Package format renders and parses the money and rate strings shown to the
// desk.
package format

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Currency returns a dollar amount with thousands separators, e.g. "$34,240.00"
// or "-$9,106.41".
func Currency(amount float64) string {
	p := message.NewPrinter(language.English)
	formatted := p.Sprintf("$%.2f", math.Abs(amount))
	if amount < 0 {
		return "-" + formatted
	}
	return formatted
}
