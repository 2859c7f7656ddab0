package format

import (
	"strings"

	"github.com/iwvelando/desking/pkg/validation"
	"github.com/shopspring/decimal"
)

var moneyStripper = strings.NewReplacer("$", "", ",", "", " ", "", "\t", "")

func parseDecimal(raw, kind string, cleaned string) (decimal.Decimal, error) {
	if cleaned == "" {
		return decimal.Decimal{}, validation.Invalid("%s is blank", kind)
	}
	if strings.ContainsAny(cleaned, "eE") {
		return decimal.Decimal{}, validation.Invalid("%s %q is not a number", kind, raw)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, validation.Invalid("%s %q is not a number", kind, raw)
	}
	return d, nil
}

// ParseMoney reads a dollar amount such as "$34,240.00" or "-1500" and rounds
// it to cents. Blank input and anything that is not a plain decimal number
// after removing "$", "," and spaces is rejected.
func ParseMoney(raw string) (float64, error) {
	d, err := parseDecimal(raw, "amount", moneyStripper.Replace(strings.TrimSpace(raw)))
	if err != nil {
		return 0, err
	}
	value, _ := d.Round(2).Float64()
	return value, nil
}

// ParseRate reads a percentage such as "6.99" or "6.99%".
func ParseRate(raw string) (float64, error) {
	cleaned := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	d, err := parseDecimal(raw, "rate", cleaned)
	if err != nil {
		return 0, err
	}
	value, _ := d.Round(4).Float64()
	return value, nil
}

// ParseDecimal reads any configured number, money or rate, without rounding:
// "34,240", "$1,000.50", "0.0275" and "6.99%" are all accepted.
func ParseDecimal(raw string) (float64, error) {
	cleaned := strings.TrimSuffix(moneyStripper.Replace(strings.TrimSpace(raw)), "%")
	d, err := parseDecimal(raw, "number", cleaned)
	if err != nil {
		return 0, err
	}
	value, _ := d.Float64()
	return value, nil
}
