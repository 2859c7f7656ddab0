package documents

import (
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/iwvelando/desking/pkg/constants"
	"github.com/iwvelando/desking/pkg/validation"
)

const (
	letterWidth  = 612.0
	letterHeight = 792.0
	stampHeight  = 28.0
)

// Field is text placed on a form. X and Y are PDF points measured from the
// bottom-left corner of the page.
type Field struct {
	Text string
	X    float64
	Y    float64
	Size float64
}

// Form is one page of the sales bundle and the fields filled onto it.
type Form struct {
	Name   string
	Fields func(req BundleRequest) []Field
}

// BundleRequest describes a sales bundle to print.
type BundleRequest struct {
	Customer   Customer
	Vehicle    Vehicle
	Mode       string
	Stamp      bool
	DealerName string
	Date       time.Time
}

// Forms lists the bundle pages in print order.
var Forms = []Form{
	{
		Name: "Flying 50",
		Fields: func(req BundleRequest) []Field {
			return []Field{
				{Text: req.Date.Format(DateLayout), X: 80, Y: 740},
				{Text: req.dealerName(), X: 260, Y: 740},
				{Text: req.Customer.FullName(), X: 140, Y: 705},
				{Text: req.Vehicle.Description(), X: 140, Y: 650},
				{Text: req.Vehicle.NewOrUsed, X: 100, Y: 630},
				{Text: req.Vehicle.Stock, X: 260, Y: 630},
				{Text: req.Vehicle.VIN, X: 140, Y: 610},
			}
		},
	},
	{
		Name: "Social Release",
		Fields: func(req BundleRequest) []Field {
			return []Field{
				{Text: req.Customer.FullName(), X: 110, Y: 735},
				{Text: req.Vehicle.VIN, X: 420, Y: 735},
				{Text: req.Customer.Cell, X: 110, Y: 718},
			}
		},
	},
	{
		Name: "Tag Reg Form",
		Fields: func(req BundleRequest) []Field {
			c := req.Customer
			city := strings.TrimSpace(c.City)
			if city != "" {
				city += ","
			}
			return []Field{
				{Text: c.FullName(), X: 120, Y: 720},
				{Text: c.Address, X: 120, Y: 700},
				{Text: joinNonEmpty(" ", city, c.State, c.Zip), X: 120, Y: 682},
			}
		},
	},
	{
		Name: "Insurance and Payoff",
		Fields: func(req BundleRequest) []Field {
			return []Field{
				{Text: req.Vehicle.Description(), X: 140, Y: 720},
				{Text: req.Vehicle.VIN, X: 140, Y: 703},
				{Text: req.Customer.FullName(), X: 60, Y: 595},
				{Text: req.Customer.Cell, X: 60, Y: 578},
			}
		},
	},
}

func (req BundleRequest) dealerName() string {
	if strings.TrimSpace(req.DealerName) == "" {
		return constants.DefaultDealerName
	}
	return req.DealerName
}

func (req BundleRequest) normalize() (BundleRequest, error) {
	switch strings.ToLower(strings.TrimSpace(req.Mode)) {
	case "", constants.DocumentModeFilled:
		req.Mode = constants.DocumentModeFilled
	case constants.DocumentModeBlank:
		req.Mode = constants.DocumentModeBlank
	default:
		return req, validation.Invalid("unknown bundle mode %q", req.Mode)
	}
	if req.Date.IsZero() {
		req.Date = time.Now()
	}
	return req, nil
}

func buildBundle(req BundleRequest) (*fpdf.Fpdf, error) {
	req, err := req.normalize()
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetCreationDate(req.Date)
	pdf.SetTitle("Sales Bundle", true)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	header := Header(req.Customer, req.Vehicle, req.Date)

	for _, form := range Forms {
		pdf.AddPage()

		pdf.SetFont("Helvetica", "B", 14)
		pdf.SetTextColor(156, 163, 175)
		pdf.SetXY(0, letterHeight-60)
		pdf.CellFormat(letterWidth, 20, form.Name, "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)

		if req.Stamp {
			pdf.SetFillColor(242, 242, 242)
			pdf.Rect(0, 0, letterWidth, stampHeight, "F")
			pdf.SetDrawColor(204, 204, 204)
			pdf.SetLineWidth(0.5)
			pdf.Line(0, stampHeight, letterWidth, stampHeight)
			pdf.SetFont("Helvetica", "", 9)
			pdf.Text(12, 20, tr(header))
		}

		if req.Mode != constants.DocumentModeFilled {
			continue
		}
		for _, field := range form.Fields(req) {
			text := strings.TrimSpace(field.Text)
			if text == "" {
				continue
			}
			size := field.Size
			if size == 0 {
				size = 10
			}
			pdf.SetFont("Helvetica", "", size)
			pdf.Text(field.X, letterHeight-field.Y, tr(text))
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, err
	}
	return pdf, nil
}

// RenderBundle writes the sales bundle: one page per form, with the
// customer header stamped across the top when requested. In filled mode the
// customer and vehicle details are placed on each form; blank mode leaves
// the forms empty.
func RenderBundle(w io.Writer, req BundleRequest) error {
	pdf, err := buildBundle(req)
	if err != nil {
		return err
	}
	return pdf.Output(w)
}
