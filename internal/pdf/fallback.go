package pdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// GenerateFallbackDocument renders a minimal single page with the business
// name, quote number, customer and total. It uses only core fonts and no
// external assets.
func GenerateFallbackDocument(data QuoteDocumentData) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.SetTitle("Quote "+data.QuoteNumber, true)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 18)
	doc.Cell(0, 10, tr(data.Business.Name))
	doc.Ln(16)

	doc.SetFont("Helvetica", "B", 14)
	doc.Cell(0, 8, tr("Quote "+data.QuoteNumber))
	doc.Ln(12)

	doc.SetFont("Helvetica", "", 11)
	doc.Cell(40, 7, "Prepared for:")
	doc.Cell(0, 7, tr(data.CustomerName))
	doc.Ln(7)
	doc.Cell(40, 7, "Email:")
	doc.Cell(0, 7, tr(data.CustomerEmail))
	doc.Ln(12)

	doc.SetFont("Helvetica", "B", 12)
	doc.Cell(40, 8, "Total:")
	doc.Cell(0, 8, FormatCurrency(data.Total))
	doc.Ln(14)

	doc.SetFont("Helvetica", "I", 9)
	doc.MultiCell(0, 5, tr("This is a summary of your quote. Please contact us for the full itemised document."), "", "L", false)

	if err := doc.Error(); err != nil {
		return nil, fmt.Errorf("fallback document: %w", err)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("fallback document output: %w", err)
	}
	return buf.Bytes(), nil
}
