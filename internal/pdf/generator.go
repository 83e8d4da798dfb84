package pdf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
)

// ── Colour palette ──────────────────────────────────────────────────────

var (
	colorPrimary   = &props.Color{Red: 28, Green: 25, Blue: 23}    // stone-900
	colorSecondary = &props.Color{Red: 120, Green: 113, Blue: 108} // stone-500
	colorAccent    = &props.Color{Red: 194, Green: 65, Blue: 12}   // orange-700
	colorTableHead = &props.Color{Red: 245, Green: 245, Blue: 244} // stone-100
	colorTableAlt  = &props.Color{Red: 250, Green: 250, Blue: 249} // stone-50
	colorBorder    = &props.Color{Red: 231, Green: 229, Blue: 228} // stone-200
	colorWhite     = &props.Color{Red: 255, Green: 255, Blue: 255}
	colorGreen     = &props.Color{Red: 22, Green: 163, Blue: 74}
	colorBlue      = &props.Color{Red: 37, Green: 99, Blue: 235}
	colorRed       = &props.Color{Red: 220, Green: 38, Blue: 38}
	colorAmber     = &props.Color{Red: 217, Green: 119, Blue: 6}
	colorGray      = &props.Color{Red: 107, Green: 114, Blue: 128}
)

const (
	dateLayout     = "Jan 2, 2006"
	charsPerLine   = 110
	textLineHeight = 4.0
)

// GenerateQuotePDF lays out the full quote document.
func GenerateQuotePDF(data QuoteDocumentData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithLeftMargin(15).
		WithTopMargin(12).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)

	if err := m.RegisterFooter(buildFooter(data)); err != nil {
		return nil, fmt.Errorf("register footer: %w", err)
	}

	m.AddRows(buildHeader(data)...)
	m.AddRows(separator(), row.New(5))

	m.AddRows(buildTitleBlock(data)...)
	m.AddRows(row.New(5))

	m.AddRows(buildCustomerBlock(data)...)
	if details := buildEventDetails(data); len(details) > 0 {
		m.AddRows(row.New(4))
		m.AddRows(details...)
	}
	m.AddRows(row.New(6))

	// maroto starts a new page when the table outgrows the current one
	m.AddRows(buildItemsTable(data)...)
	m.AddRows(row.New(4))

	m.AddRows(buildFinancialSummary(data)...)

	if data.PaymentLink != "" {
		payRows, err := buildPaymentBlock(data.PaymentLink)
		if err != nil {
			return nil, err
		}
		m.AddRows(row.New(6))
		m.AddRows(payRows...)
	}

	if data.Notes != "" {
		m.AddRows(row.New(6))
		m.AddRows(buildFreeText("NOTES", data.Notes)...)
	}
	if data.Terms != "" {
		m.AddRows(row.New(6))
		m.AddRows(buildFreeText("TERMS & CONDITIONS", data.Terms)...)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

// ── Header ──────────────────────────────────────────────────────────────

func buildHeader(data QuoteDocumentData) []core.Row {
	identity := col.New(7)
	if data.logo != nil {
		identity.Add(image.NewFromBytes(data.logo.bytes, data.logo.ext, props.Rect{Percent: 85}))
	} else {
		identity.Add(text.New(data.Business.Name, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Color: colorPrimary,
			Top:   4,
		}))
	}

	contact := col.New(5)
	top := 0.0
	for _, line := range businessLines(data.Business) {
		contact.Add(text.New(line, props.Text{Size: 8, Color: colorSecondary, Align: align.Right, Top: top}))
		top += 4
	}

	return []core.Row{row.New(22).Add(identity, contact)}
}

func businessLines(b Business) []string {
	lines := append([]string{}, b.AddressLines...)
	if b.Phone != "" {
		lines = append(lines, b.Phone)
	}
	if b.Email != "" {
		lines = append(lines, b.Email)
	}
	if b.Website != "" {
		lines = append(lines, b.Website)
	}
	if len(lines) > 5 {
		lines = lines[:5]
	}
	return lines
}

// ── Title block ─────────────────────────────────────────────────────────

func buildTitleBlock(data QuoteDocumentData) []core.Row {
	validUntil := "n/a"
	if data.ValidUntil != nil {
		validUntil = data.ValidUntil.Format(dateLayout)
	}

	return []core.Row{
		row.New(12).Add(
			col.New(8).Add(text.New("QUOTE", props.Text{
				Size:  22,
				Style: fontstyle.Bold,
				Color: colorAccent,
			})),
			col.New(4).Add(text.New(statusLabel(data.Status), props.Text{
				Size:  9,
				Style: fontstyle.Bold,
				Color: colorWhite,
				Align: align.Center,
				Top:   3.5,
			})).WithStyle(&props.Cell{BackgroundColor: statusColor(data.Status)}),
		),
		row.New(6).Add(
			col.New(4).Add(labelValue("Quote number", data.QuoteNumber)...),
			col.New(4).Add(labelValue("Issued", data.IssuedAt.Format(dateLayout))...),
			col.New(4).Add(labelValue("Valid until", validUntil)...),
		),
		row.New(4),
	}
}

func labelValue(label, value string) []core.Component {
	return []core.Component{
		text.New(strings.ToUpper(label), props.Text{Size: 6.5, Style: fontstyle.Bold, Color: colorSecondary}),
		text.New(value, props.Text{Size: 9, Color: colorPrimary, Top: 3}),
	}
}

// ── Customer & event ────────────────────────────────────────────────────

func buildCustomerBlock(data QuoteDocumentData) []core.Row {
	rows := []core.Row{
		sectionTitle("PREPARED FOR"),
		row.New(5).Add(col.New(12).Add(text.New(data.CustomerName, props.Text{Size: 10, Style: fontstyle.Bold, Color: colorPrimary}))),
	}
	contact := joinParts([]string{data.CustomerEmail, data.CustomerPhone}, "  |  ")
	if contact != "" {
		rows = append(rows, row.New(5).Add(col.New(12).Add(text.New(contact, props.Text{Size: 8, Color: colorSecondary}))))
	}
	return rows
}

func buildEventDetails(data QuoteDocumentData) []core.Row {
	var cells []core.Col
	if data.EventType != "" {
		cells = append(cells, col.New(3).Add(labelValue("Service", data.EventType)...))
	}
	if data.EventDate != nil {
		cells = append(cells, col.New(3).Add(labelValue("Event date", data.EventDate.Format(dateLayout))...))
	}
	if data.GuestCount > 0 {
		cells = append(cells, col.New(2).Add(labelValue("Guests", strconv.Itoa(data.GuestCount))...))
	}
	if data.Venue != "" {
		cells = append(cells, col.New(4).Add(labelValue("Venue", data.Venue)...))
	}
	if len(cells) == 0 {
		return nil
	}
	return []core.Row{sectionTitle("EVENT DETAILS"), row.New(9).Add(cells...)}
}

// ── Line items table ────────────────────────────────────────────────────

func buildItemsTable(data QuoteDocumentData) []core.Row {
	headerStyle := props.Text{Size: 7.5, Style: fontstyle.Bold, Color: colorPrimary, Top: 1.5}
	headerStyleRight := props.Text{Size: 7.5, Style: fontstyle.Bold, Color: colorPrimary, Align: align.Right, Top: 1.5}

	rows := []core.Row{
		sectionTitle("ITEMS"),
		row.New(7).Add(
			col.New(6).Add(text.New("Description", headerStyle)),
			col.New(2).Add(text.New("Qty", headerStyleRight)),
			col.New(2).Add(text.New("Unit price", headerStyleRight)),
			col.New(2).Add(text.New("Amount", headerStyleRight)),
		).WithStyle(&props.Cell{
			BackgroundColor: colorTableHead,
			BorderType:      border.Bottom,
			BorderColor:     colorBorder,
		}),
	}

	for i, item := range data.Items {
		rows = append(rows, buildItemRow(item, i))
	}
	return rows
}

func buildItemRow(item LineItem, idx int) core.Row {
	normal := props.Text{Size: 8, Color: colorPrimary, Top: 1}
	right := props.Text{Size: 8, Color: colorPrimary, Align: align.Right, Top: 1}

	lines := wrappedLineCount(item.Description, 60)
	r := row.New(float64(lines)*textLineHeight+3).Add(
		col.New(6).Add(text.New(item.Description, normal)),
		col.New(2).Add(text.New(strconv.Itoa(item.Quantity), right)),
		col.New(2).Add(text.New(FormatCurrency(item.UnitPrice), right)),
		col.New(2).Add(text.New(FormatCurrency(item.Total), right)),
	)
	if idx%2 == 0 {
		r.WithStyle(&props.Cell{BackgroundColor: colorTableAlt})
	}
	return r
}

// ── Financial summary ───────────────────────────────────────────────────

func buildFinancialSummary(data QuoteDocumentData) []core.Row {
	rows := []core.Row{separator(), row.New(3)}

	rows = append(rows, summaryLine("Subtotal", FormatCurrency(data.Subtotal)))
	if data.TaxRatePct.IsPositive() {
		rows = append(rows, summaryLine("Tax ("+formatPercent(data.TaxRatePct)+")", FormatCurrency(data.Tax)))
	}
	if data.GratuityRatePct.IsPositive() {
		rows = append(rows, summaryLine("Gratuity ("+formatPercent(data.GratuityRatePct)+")", FormatCurrency(data.Gratuity)))
	}

	totalStyle := props.Text{Size: 12, Style: fontstyle.Bold, Color: colorPrimary, Align: align.Right, Top: 2}
	rows = append(rows, separator(), row.New(10).Add(
		col.New(9).Add(text.New("TOTAL", totalStyle)),
		col.New(3).Add(text.New(FormatCurrency(data.Total), totalStyle)),
	).WithStyle(&props.Cell{
		BackgroundColor: colorTableHead,
		BorderType:      border.Bottom,
		BorderColor:     colorBorder,
	}))

	if data.HasDeposit() {
		rows = append(rows, row.New(3),
			summaryLine("Deposit due to confirm", FormatCurrency(data.DepositAmount)),
			summaryLine("Balance due", FormatCurrency(data.BalanceDue)),
		)
	}
	return rows
}

func summaryLine(label, value string) core.Row {
	return row.New(6).Add(
		col.New(9).Add(text.New(label, props.Text{Size: 9, Color: colorSecondary, Align: align.Right})),
		col.New(3).Add(text.New(value, props.Text{Size: 9, Color: colorPrimary, Align: align.Right})),
	)
}

// ── Payment link ────────────────────────────────────────────────────────

func buildPaymentBlock(link string) ([]core.Row, error) {
	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode payment QR: %w", err)
	}
	return []core.Row{
		sectionTitle("PAY ONLINE"),
		row.New(28).Add(
			col.New(3).Add(image.NewFromBytes(png, extension.Png, props.Rect{Percent: 95})),
			col.New(9).Add(
				text.New("Scan the code or open the link below to pay securely online.", props.Text{Size: 8, Color: colorSecondary, Top: 4}),
				text.New(link, props.Text{Size: 7, Color: colorBlue, Top: 10}),
			),
		),
	}, nil
}

// ── Notes & terms ───────────────────────────────────────────────────────

func buildFreeText(title, body string) []core.Row {
	lines := wrappedLineCount(body, charsPerLine)
	return []core.Row{
		sectionTitle(title),
		row.New(float64(lines)*textLineHeight + 2).Add(
			col.New(12).Add(text.New(body, props.Text{Size: 8, Color: colorSecondary, Top: 1})),
		),
	}
}

// ── Footer (registered, repeats on every page) ─────────────────────────

func buildFooter(data QuoteDocumentData) core.Row {
	footerText := joinParts([]string{data.Business.Name, data.Business.Phone, data.Business.Email, data.Business.Website}, "  |  ")
	if data.QuoteNumber != "" {
		footerText = joinParts([]string{footerText, data.QuoteNumber}, "  |  ")
	}

	return row.New(10).Add(
		col.New(12).Add(text.New(footerText, props.Text{
			Size:  6.5,
			Color: colorSecondary,
			Align: align.Center,
			Top:   4,
		})),
	).WithStyle(&props.Cell{
		BorderType:  border.Top,
		BorderColor: colorBorder,
	})
}

// ── Helpers ─────────────────────────────────────────────────────────────

func sectionTitle(title string) core.Row {
	return row.New(6).Add(col.New(12).Add(text.New(title, props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Color: colorAccent,
	})))
}

func separator() core.Row {
	return row.New(1).WithStyle(&props.Cell{
		BorderType:  border.Bottom,
		BorderColor: colorBorder,
	})
}

func statusColor(status string) *props.Color {
	switch status {
	case "SENT":
		return colorBlue
	case "ACCEPTED", "PAID":
		return colorGreen
	case "REJECTED":
		return colorRed
	case "EXPIRED":
		return colorAmber
	default:
		return colorGray
	}
}

func statusLabel(status string) string {
	if status == "" {
		return "DRAFT"
	}
	return strings.ToUpper(status)
}

// FormatCurrency renders an amount as US dollars with thousands separators, e.g. $1,234.50.
func FormatCurrency(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}
	fixed := amount.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String() + "." + frac
}

func formatPercent(pct decimal.Decimal) string {
	return pct.String() + "%"
}

// wrappedLineCount estimates how many printed lines s needs at width chars per line.
func wrappedLineCount(s string, width int) int {
	count := 0
	for _, para := range strings.Split(s, "\n") {
		n := (len(para) + width - 1) / width
		if n == 0 {
			n = 1
		}
		count += n
	}
	return count
}

func joinParts(parts []string, sep string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
