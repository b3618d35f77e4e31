package reports

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

type column struct {
	title string
	width float64
	align string
}

var (
	salesColumns = []column{
		{"Customer", 62, "L"},
		{"Date", 34, "L"},
		{"Items", 18, "R"},
		{"Status", 28, "L"},
		{"Total", 48, "R"},
	}
	inventoryColumns = []column{
		{"Product", 50, "L"},
		{"Description", 56, "L"},
		{"Price", 30, "R"},
		{"Stock", 18, "R"},
		{"Status", 36, "L"},
	}
)

// PDFRenderer draws A4 portrait tables with the core Helvetica font.
type PDFRenderer struct{}

func (PDFRenderer) Sales(w io.Writer, r SalesReport) error {
	pdf, tr := newDoc(r.Company+" Sales Report", r.Company, r.GeneratedAt.Format("January 02, 2006 at 15:04"))
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Period: "+r.Period(), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	tableHeader(pdf, salesColumns)
	for i, o := range r.Rows {
		cells := []string{
			tr(clip(o.CustomerName, 34)),
			o.CreatedAt.Format("Jan 02, 2006"),
			strconv.Itoa(o.ItemCount),
			o.Status,
			money(o.Total),
		}
		tableRow(pdf, salesColumns, cells, i%2 == 1)
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, "Total Sales: "+money(r.TotalSales), "", 1, "R", false, 0, "")
	return pdf.Output(w)
}

func (PDFRenderer) Inventory(w io.Writer, r InventoryReport) error {
	pdf, tr := newDoc(r.Company+" Inventory Report", r.Company, r.GeneratedAt.Format("January 02, 2006 at 15:04"))
	tableHeader(pdf, inventoryColumns)
	for i, p := range r.Rows {
		desc := "N/A"
		if p.Description != nil && *p.Description != "" {
			desc = *p.Description
		}
		status := "Active"
		if !p.Active {
			status = "Inactive"
		}
		if p.LowStock() {
			status += " / Low"
		}
		cells := []string{
			tr(clip(p.Name, 28)),
			tr(clip(desc, 32)),
			money(p.Price),
			strconv.Itoa(p.Stock),
			status,
		}
		tableRow(pdf, inventoryColumns, cells, i%2 == 1)
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, "Inventory Value: "+money(r.InventoryValue), "", 1, "R", false, 0, "")
	return pdf.Output(w)
}

func newDoc(title, company, generated string) (*fpdf.Fpdf, func(string) string) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.SetAuthor(company, false)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 9, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, "Generated on "+generated, "", 1, "L", false, 0, "")
	pdf.Ln(3)
	return pdf, tr
}

func tableHeader(pdf *fpdf.Fpdf, cols []column) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(40, 60, 90)
	pdf.SetTextColor(255, 255, 255)
	for _, c := range cols {
		pdf.CellFormat(c.width, 7, c.title, "1", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 9)
}

func tableRow(pdf *fpdf.Fpdf, cols []column, cells []string, shade bool) {
	pdf.SetFillColor(235, 240, 248)
	for i, c := range cols {
		pdf.CellFormat(c.width, 6, cells[i], "1", 0, c.align, shade, 0, "")
	}
	pdf.Ln(-1)
}

// money formats as "PHP 1,234.50". Core fonts have no peso glyph.
func money(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	out := "PHP " + b.String() + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}
