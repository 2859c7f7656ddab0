package documents

import (
	"bytes"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/iwvelando/desking/pkg/constants"
	"github.com/iwvelando/desking/pkg/datetime"
	"github.com/yuin/goldmark"
)

// SignatureLines are printed at the foot of every pencil.
var SignatureLines = []string{"Customer", "Co-Buyer", "Salesperson", "Manager"}

type pencilRow struct {
	Label string
	Value string
}

type pencilView struct {
	DealerName string
	Date       string
	SavedAt    string
	Customer   []pencilRow
	Notes      template.HTML
	Vehicle    []pencilRow
	Deal       []Pair
	Signatures []string
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return strings.TrimSpace(s)
}

func licenseLine(c Customer, now time.Time) string {
	line := strings.TrimSpace(c.DriversLicense)
	if st := strings.TrimSpace(c.DLState); st != "" {
		line += " (" + st + ")"
	}
	if exp := strings.TrimSpace(c.DLExpires); exp != "" {
		line += " • Exp " + datetime.Display(exp)
		if datetime.Expired(exp, now) {
			line += " (expired)"
		}
	}
	return strings.TrimSpace(line)
}

func newPencilView(p Pencil, now time.Time) (pencilView, error) {
	view := pencilView{
		DealerName: p.DealerName,
		Date:       now.Format(DateLayout),
		Deal:       p.Pairs(),
		Signatures: SignatureLines,
	}
	if view.DealerName == "" {
		view.DealerName = constants.DefaultDealerName
	}
	if !p.SavedAt.IsZero() {
		view.SavedAt = p.SavedAt.Format("1/2/2006 3:04 PM")
	}

	c := p.Customer
	view.Customer = []pencilRow{
		{"Name", orDash(c.FullName())},
		{"Mobile", orDash(c.Cell)},
		{"Email", orDash(c.Email)},
		{"Address", orDash(c.AddressLine())},
		{"DL", orDash(licenseLine(c, now))},
		{"DOB", orDash(datetime.Display(c.DOB))},
	}
	if c.CoBuyer {
		view.Customer = append(view.Customer, pencilRow{"Co-Buyer", "Yes"})
	}
	if notes := strings.TrimSpace(c.Notes); notes != "" {
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(notes), &buf); err != nil {
			return pencilView{}, err
		}
		view.Notes = template.HTML(buf.String())
	}

	v := p.Vehicle
	view.Vehicle = []pencilRow{
		{"Vehicle", orDash(v.Description())},
		{"VIN", orDash(v.VIN)},
		{"Stock", orDash(v.Stock)},
		{"Type", orDash(v.NewOrUsed)},
	}
	return view, nil
}

var pencilTemplate = template.Must(template.New("pencil").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Deal Pencil - {{.DealerName}}</title>
<style>
body { background:#fff; }
.sheet { font-family: Inter, system-ui, Arial, sans-serif; padding: 24px; max-width: 8.5in; margin: 0 auto; color:#111; }
.hdr { display:flex; justify-content:space-between; align-items:flex-end; border-bottom:1px solid #e5e7eb; padding-bottom:10px; margin-bottom:16px; }
.title { font-size:18px; font-weight:700; }
.subtitle { font-size:12px; color:#6b7280; }
.grid { display:grid; grid-template-columns:1fr 1fr; gap:12px; margin-bottom:12px; }
.card { border:1px solid #e5e7eb; border-radius:8px; padding:12px; margin-bottom:12px; }
.card h2 { font-size:14px; margin:0 0 8px; }
.row { display:flex; gap:8px; font-size:12px; padding:2px 0; }
.row label { width:80px; color:#6b7280; }
.kv { width:100%; border-collapse:collapse; font-size:12px; }
.kv td { border-bottom:1px solid #f3f4f6; padding:4px 0; }
.kv .v { text-align:right; }
.muted { color:#6b7280; font-size:12px; }
.sign { display:grid; grid-template-columns:1fr 1fr; gap:24px; margin-top:32px; font-size:12px; }
.line { border-bottom:1px solid #111; height:28px; margin-bottom:4px; }
@media print { .sheet { padding:0; } }
</style>
</head>
<body>
<main class="sheet">
<header class="hdr">
<div>
<div class="title">{{.DealerName}}</div>
<div class="subtitle">Deal Pencil</div>
</div>
<div class="meta">
<div><b>Date:</b> {{.Date}}</div>
{{- if .SavedAt}}
<div><b>Saved:</b> {{.SavedAt}}</div>
{{- end}}
</div>
</header>
<section class="grid">
<div class="card">
<h2>Customer</h2>
{{- range .Customer}}
<div class="row"><label>{{.Label}}</label><span>{{.Value}}</span></div>
{{- end}}
{{- if .Notes}}
<div class="row notes"><label>Notes</label><div>{{.Notes}}</div></div>
{{- end}}
</div>
<div class="card">
<h2>Vehicle</h2>
{{- range .Vehicle}}
<div class="row"><label>{{.Label}}</label><span>{{.Value}}</span></div>
{{- end}}
</div>
</section>
<section class="card">
<h2>Deal Numbers</h2>
{{- if .Deal}}
<table class="kv">
<tbody>
{{- range .Deal}}
<tr><td class="k">{{.Label}}</td><td class="v">{{.Value}}</td></tr>
{{- end}}
</tbody>
</table>
{{- else}}
<div class="muted">No figures captured yet.</div>
{{- end}}
</section>
<section class="sign">
{{- range .Signatures}}
<div class="sig"><div class="line"></div>{{.}}</div>
{{- end}}
</section>
</main>
</body>
</html>
`))

// RenderPencilHTML writes the printable pencil page. Customer notes are
// Markdown; raw HTML in them is not passed through.
func RenderPencilHTML(w io.Writer, p Pencil, now time.Time) error {
	view, err := newPencilView(p, now)
	if err != nil {
		return err
	}
	return pencilTemplate.Execute(w, view)
}

// RenderPencilPDF writes the pencil as a single Letter page.
func RenderPencilPDF(w io.Writer, p Pencil, now time.Time) error {
	view, err := newPencilView(p, now)
	if err != nil {
		return err
	}

	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetCreationDate(now)
	pdf.SetTitle("Deal Pencil", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(36, 36, 36)
	pdf.AddPage()
	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 72

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW/2, 20, tr(view.DealerName), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW/2, 20, "Date: "+view.Date, "", 1, "R", false, 0, "")
	pdf.SetTextColor(107, 114, 128)
	pdf.CellFormat(contentW/2, 14, "Deal Pencil", "", 0, "L", false, 0, "")
	saved := ""
	if view.SavedAt != "" {
		saved = "Saved: " + view.SavedAt
	}
	pdf.CellFormat(contentW/2, 14, saved, "", 1, "R", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetDrawColor(229, 231, 235)
	pdf.Line(36, pdf.GetY()+4, pageW-36, pdf.GetY()+4)
	pdf.Ln(14)

	section := func(title string, rows []pencilRow) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(contentW, 18, title, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, row := range rows {
			pdf.SetTextColor(107, 114, 128)
			pdf.CellFormat(90, 14, tr(row.Label), "", 0, "L", false, 0, "")
			pdf.SetTextColor(0, 0, 0)
			pdf.CellFormat(contentW-90, 14, tr(row.Value), "", 1, "L", false, 0, "")
		}
		pdf.Ln(8)
	}

	customer := view.Customer
	if notes := strings.TrimSpace(p.Customer.Notes); notes != "" {
		customer = append(customer, pencilRow{"Notes", notes})
	}
	section("Customer", customer)
	section("Vehicle", view.Vehicle)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 18, "Deal Numbers", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if len(view.Deal) == 0 {
		pdf.SetTextColor(107, 114, 128)
		pdf.CellFormat(contentW, 14, "No figures captured yet.", "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}
	for _, pair := range view.Deal {
		pdf.CellFormat(contentW/2, 16, tr(pair.Label), "B", 0, "L", false, 0, "")
		pdf.CellFormat(contentW/2, 16, tr(pair.Value), "B", 1, "R", false, 0, "")
	}

	pdf.Ln(36)
	pdf.SetDrawColor(17, 17, 17)
	colW := (contentW - 24) / 2
	for i, label := range view.Signatures {
		x := 36 + float64(i%2)*(colW+24)
		y := pdf.GetY()
		pdf.Line(x, y, x+colW, y)
		pdf.Text(x, y+12, label)
		if i%2 == 1 {
			pdf.Ln(44)
		}
	}

	return pdf.Output(w)
}
