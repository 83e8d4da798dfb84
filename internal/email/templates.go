package email

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

// ErrUnknownTemplate is returned for any name not in the registry. There is
// no default template.
var ErrUnknownTemplate = errors.New("unknown email template")

const (
	TemplateWelcome         = "welcome"
	TemplateQuoteSent       = "quote_sent"
	TemplatePaymentReceived = "payment_received"
)

type baseEmailData struct {
	Title        string
	Heading      string
	BusinessName string
	CTALabel     string
	CTAURL       string
	FooterLines  []string
}

// WelcomeData fills the welcome template.
type WelcomeData struct {
	baseEmailData
	CustomerName string
}

// QuoteSentData fills the quote_sent template.
type QuoteSentData struct {
	baseEmailData
	CustomerName   string
	QuoteNumber    string
	EventType      string
	EventDate      string
	GuestCount     int
	ValidUntil     string
	Total          string
	DepositAmount  string
	BalanceDue     string
	PaymentURL     string
	PaymentIsQuote bool // false when PaymentURL is the contact page
	HasAttachment  bool
	DocumentURL    string
}

// PaymentReceivedData fills the payment_received template.
type PaymentReceivedData struct {
	baseEmailData
	CustomerName string
	QuoteNumber  string
	AmountPaid   string
	BalanceDue   string
	PaidAt       string
}

// Rendered is a template rendered to both bodies and the subject.
type Rendered struct {
	Subject  string
	HTMLBody string
	TextBody string
}

type compiledTemplate struct {
	subject *texttemplate.Template
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

// Templates is the fixed registry of email templates.
type Templates struct {
	byName map[string]compiledTemplate
}

// LoadTemplates parses every registered template from the embedded files.
func LoadTemplates() (*Templates, error) {
	t := &Templates{byName: make(map[string]compiledTemplate, len(subjects))}
	for name, subject := range subjects {
		subj, err := texttemplate.New(name + ".subject").Option("missingkey=error").Parse(subject)
		if err != nil {
			return nil, fmt.Errorf("parse email subject %s: %w", name, err)
		}
		html, err := htmltemplate.New("base.html").Option("missingkey=error").ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse email template %s: %w", name, err)
		}
		text, err := texttemplate.New(name+".txt").Option("missingkey=error").ParseFS(templateFS, "templates/"+name+".txt")
		if err != nil {
			return nil, fmt.Errorf("parse email text template %s: %w", name, err)
		}
		t.byName[name] = compiledTemplate{subject: subj, html: html, text: text}
	}
	return t, nil
}

// Has reports whether name is a registered template.
func (t *Templates) Has(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Render renders the named template with data.
func (t *Templates) Render(name string, data any) (Rendered, error) {
	tmpl, ok := t.byName[name]
	if !ok {
		return Rendered{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}

	var subject, html, text bytes.Buffer
	if err := tmpl.subject.Execute(&subject, data); err != nil {
		return Rendered{}, fmt.Errorf("execute email subject %s: %w", name, err)
	}
	if err := tmpl.html.ExecuteTemplate(&html, "email", data); err != nil {
		return Rendered{}, fmt.Errorf("execute email template %s: %w", name, err)
	}
	if err := tmpl.text.Execute(&text, data); err != nil {
		return Rendered{}, fmt.Errorf("execute email text template %s: %w", name, err)
	}

	return Rendered{
		Subject:  strings.TrimSpace(subject.String()),
		HTMLBody: html.String(),
		TextBody: strings.TrimSpace(text.String()) + "\n",
	}, nil
}

// NewQuoteSentData prepares quote_sent data with the layout fields filled in.
func NewQuoteSentData(businessName string, footer []string) QuoteSentData {
	return QuoteSentData{baseEmailData: baseEmailData{
		Title:        "Your quote is ready",
		Heading:      "Your quote is ready",
		BusinessName: businessName,
		FooterLines:  footer,
	}}
}

// NewPaymentReceivedData prepares payment_received data with the layout fields filled in.
func NewPaymentReceivedData(businessName string, footer []string) PaymentReceivedData {
	return PaymentReceivedData{baseEmailData: baseEmailData{
		Title:        "Payment received",
		Heading:      "Thank you for your payment",
		BusinessName: businessName,
		FooterLines:  footer,
	}}
}

// NewWelcomeData prepares welcome data with the layout fields filled in.
func NewWelcomeData(businessName string, footer []string) WelcomeData {
	return WelcomeData{baseEmailData: baseEmailData{
		Title:        "Welcome",
		Heading:      "Thanks for reaching out",
		BusinessName: businessName,
		FooterLines:  footer,
	}}
}

// SetCTA sets the call-to-action button.
func (b *baseEmailData) SetCTA(label, url string) {
	b.CTALabel = label
	b.CTAURL = url
}
