// Package export renders invoices to downloadable documents.
package export

import (
	"bytes"
	"fmt"
	"strconv"

	"invoicing/internal/billing"
	"invoicing/internal/model"

	"github.com/jung-kurt/gofpdf"
)

const agencyName = "Travel Agency Invoicing"

// Column widths of the item table, in mm. They sum to the printable A4 width.
var itemColumns = []struct {
	title string
	width float64
	align string
}{
	{"Service", 90, "L"},
	{"Qty", 20, "R"},
	{"Unit price", 35, "R"},
	{"Total", 35, "R"},
}

// RenderPDF lays out inv as a single A4 invoice. The invoice must have its
// client and agent loaded.
func RenderPDF(inv *model.Invoice) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(inv.InvoiceNumber, true)
	pdf.SetAuthor(agencyName, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(120, 10, agencyName, "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(60, 10, "INVOICE", "", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	meta := [][2]string{
		{"Invoice Number", inv.InvoiceNumber},
		{"Status", string(inv.Status)},
		{"Issued", inv.CreatedAt.Format("2006-01-02")},
	}
	if !inv.DueDate.IsZero() {
		meta = append(meta, [2]string{"Due Date", inv.DueDate.Format("2006-01-02")})
	}
	if inv.Agent != nil {
		meta = append(meta, [2]string{"Agent", tr(inv.Agent.Name)})
	}
	for _, m := range meta {
		pdf.CellFormat(40, 6, m[0]+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, m[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, "Bill To", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	if c := inv.Client; c != nil {
		for _, line := range []string{c.Name, c.Email, c.Phone, c.Address} {
			if line != "" {
				pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
			}
		}
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range itemColumns {
		pdf.CellFormat(col.width, 8, col.title, "1", 0, col.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, it := range inv.Items {
		cells := []string{
			tr(it.Description),
			strconv.Itoa(it.Quantity),
			it.UnitPrice.StringFixed(billing.CurrencyPlaces),
			it.Total.StringFixed(billing.CurrencyPlaces),
		}
		for i, col := range itemColumns {
			pdf.CellFormat(col.width, 7, cells[i], "1", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	labelWidth := itemColumns[0].width + itemColumns[1].width + itemColumns[2].width
	totals := [][2]string{
		{"Subtotal", inv.Subtotal.StringFixed(billing.CurrencyPlaces)},
		{"Tax", inv.Tax.StringFixed(billing.CurrencyPlaces)},
		{"Total", inv.Total.StringFixed(billing.CurrencyPlaces)},
	}
	for i, t := range totals {
		if i == len(totals)-1 {
			pdf.SetFont("Arial", "B", 11)
		}
		pdf.CellFormat(labelWidth, 7, t[0], "", 0, "R", false, 0, "")
		pdf.CellFormat(itemColumns[3].width, 7, t[1], "1", 1, "R", false, 0, "")
	}

	if inv.Notes != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, "Notes", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, tr(inv.Notes), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render invoice %s: %w", inv.InvoiceNumber, err)
	}
	return buf.Bytes(), nil
}

// FileName is the download name for inv.
func FileName(inv *model.Invoice) string {
	return inv.InvoiceNumber + ".pdf"
}
