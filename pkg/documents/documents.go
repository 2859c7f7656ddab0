// Package documents renders the customer-facing paperwork for a deal: the
// printable pencil and the sales-document bundle.
package documents

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/iwvelando/desking/pkg/datetime"
	"github.com/iwvelando/desking/pkg/deal"
	"github.com/iwvelando/desking/pkg/format"
)

// Separator joins the parts of a header line.
const Separator = "  •  "

// DateLayout is the short date printed on documents.
const DateLayout = datetime.DisplayLayout

// Customer holds the buyer details captured at the desk.
type Customer struct {
	FirstName      string `json:"firstName" yaml:"firstName"`
	LastName       string `json:"lastName" yaml:"lastName"`
	Cell           string `json:"cell,omitempty" yaml:"cell,omitempty"`
	Email          string `json:"email,omitempty" yaml:"email,omitempty"`
	Address        string `json:"address,omitempty" yaml:"address,omitempty"`
	City           string `json:"city,omitempty" yaml:"city,omitempty"`
	State          string `json:"state,omitempty" yaml:"state,omitempty"`
	Zip            string `json:"zip,omitempty" yaml:"zip,omitempty"`
	DriversLicense string `json:"driversLicense,omitempty" yaml:"driversLicense,omitempty"`
	DLState        string `json:"dlState,omitempty" yaml:"dlState,omitempty"`
	DLExpires      string `json:"dlExpires,omitempty" yaml:"dlExpires,omitempty"`
	DOB            string `json:"dob,omitempty" yaml:"dob,omitempty"`
	CoBuyer        bool   `json:"coBuyer,omitempty" yaml:"coBuyer,omitempty"`
	Notes          string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// FullName joins the first and last name.
func (c Customer) FullName() string {
	return joinNonEmpty(" ", c.FirstName, c.LastName)
}

// CityLine is "City State Zip" with blanks dropped.
func (c Customer) CityLine() string {
	return joinNonEmpty(" ", c.City, c.State, c.Zip)
}

// AddressLine is the street address followed by the city line.
func (c Customer) AddressLine() string {
	return joinNonEmpty(", ", c.Address, c.CityLine())
}

// Vehicle identifies the unit being sold.
type Vehicle struct {
	Stock     string `json:"stock,omitempty" yaml:"stock,omitempty"`
	Year      string `json:"year,omitempty" yaml:"year,omitempty"`
	Make      string `json:"make,omitempty" yaml:"make,omitempty"`
	Model     string `json:"model,omitempty" yaml:"model,omitempty"`
	VIN       string `json:"vin,omitempty" yaml:"vin,omitempty"`
	NewOrUsed string `json:"newOrUsed,omitempty" yaml:"newOrUsed,omitempty"`
}

// Description is "Year Make Model".
func (v Vehicle) Description() string {
	return joinNonEmpty(" ", v.Year, v.Make, v.Model)
}

// Fields returns the vehicle as deal figure keys.
func (v Vehicle) Fields() map[string]string {
	return map[string]string{
		"stock":     v.Stock,
		"year":      v.Year,
		"make":      v.Make,
		"model":     v.Model,
		"vin":       v.VIN,
		"newOrUsed": v.NewOrUsed,
	}
}

// Pencil is a saved snapshot of a deal for printing.
type Pencil struct {
	DealerName string            `json:"dealerName,omitempty"`
	Customer   Customer          `json:"customer"`
	Vehicle    Vehicle           `json:"deal"`
	Figures    map[string]string `json:"figures,omitempty"`
	SavedAt    time.Time         `json:"savedAt"`
}

// SplitName splits a full name into the first word and the rest.
func SplitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// Header builds the stamp line printed across the top of every bundle page.
func Header(c Customer, v Vehicle, date time.Time) string {
	name := c.FullName()
	if name == "" {
		name = "Customer"
	}

	var license string
	if dl := strings.TrimSpace(c.DriversLicense); dl != "" {
		license = "DL " + dl
		if st := strings.TrimSpace(c.DLState); st != "" {
			license += " (" + st + ")"
		}
	}
	var expires, dob string
	if exp := strings.TrimSpace(c.DLExpires); exp != "" {
		expires = "DL Exp " + datetime.Display(exp)
	}
	if d := strings.TrimSpace(c.DOB); d != "" {
		dob = "DOB " + datetime.Display(d)
	}

	var vin, stock string
	if s := strings.TrimSpace(v.VIN); s != "" {
		vin = "VIN " + s
	}
	if s := strings.TrimSpace(v.Stock); s != "" {
		stock = "Stock " + s
	}

	return joinNonEmpty(Separator,
		name,
		joinNonEmpty(" • ", c.Cell, c.Email),
		c.AddressLine(),
		joinNonEmpty(" • ", license, expires, dob),
		joinNonEmpty(" | ", v.Description(), vin, stock, v.NewOrUsed),
		date.Format(DateLayout),
	)
}

// Humanize turns a figure key such as "newOrUsed" into "New Or Used".
func Humanize(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r == '_':
			b.WriteRune(' ')
		case unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	words := strings.Fields(b.String())
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

var preferredDealOrder = []string{
	"stock", "vin", "year", "make", "model", "newOrUsed", "msrp", "price", "sellingPrice", "docFee",
	"tax", "taxes", "tag", "title", "tagAndTitle", "tradeValue", "payoff", "netTrade", "cashDown",
	"downPayment", "amountFinanced", "apr", "rate", "term", "termMonths", "payment", "estPayment",
}

// Pair is a humanized label and its value.
type Pair struct {
	Label string
	Value string
}

// DealPairs orders the non-blank figures: known keys first in their usual
// order, then the rest alphabetically.
func DealPairs(figures map[string]string) []Pair {
	present := make(map[string]bool, len(figures))
	for k, v := range figures {
		if strings.TrimSpace(v) != "" {
			present[k] = true
		}
	}

	pairs := make([]Pair, 0, len(present))
	for _, k := range preferredDealOrder {
		if present[k] {
			pairs = append(pairs, Pair{Label: Humanize(k), Value: strings.TrimSpace(figures[k])})
			delete(present, k)
		}
	}
	rest := make([]string, 0, len(present))
	for k := range present {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	for _, k := range rest {
		pairs = append(pairs, Pair{Label: Humanize(k), Value: strings.TrimSpace(figures[k])})
	}
	return pairs
}

// Pairs merges the vehicle fields with the pencil figures and orders them.
func (p Pencil) Pairs() []Pair {
	merged := p.Vehicle.Fields()
	for k, v := range p.Figures {
		merged[k] = v
	}
	return DealPairs(merged)
}

// DealFigures formats a calculated scenario as pencil figures.
func DealFigures(in deal.Inputs, s deal.Scenario, down float64, term int, payment float64) map[string]string {
	figures := map[string]string{
		"price":          format.Currency(in.SalePrice),
		"docFee":         format.Currency(in.DocFee),
		"taxes":          format.Currency(s.Taxes),
		"title":          format.Currency(in.TitleFee),
		"tag":            format.Currency(in.TempTag),
		"cashDown":       format.Currency(down),
		"amountFinanced": format.Currency(s.AmountFinanced),
		"apr":            fmt.Sprintf("%.2f%%", in.APRPct),
		"term":           fmt.Sprintf("%d months", term),
		"payment":        format.Currency(payment),
		"outTheDoor":     format.Currency(s.OutTheDoorWithDown),
	}
	if in.RequiredPackageAmount > 0 {
		label := in.RequiredPackageName
		if label == "" {
			label = "requiredPackage"
		}
		figures[label] = format.Currency(in.RequiredPackageAmount)
	}
	if in.Rebate > 0 {
		figures["rebate"] = format.Currency(in.Rebate)
	}
	if in.TradeAllowance > 0 || in.Payoff > 0 {
		figures["tradeValue"] = format.Currency(in.TradeAllowance)
		figures["payoff"] = format.Currency(in.Payoff)
		figures["netTrade"] = format.Currency(in.TradeAllowance - in.Payoff)
	}
	return figures
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, sep)
}
