package email

import (
	"errors"
	"strings"
	"testing"
)

func mustLoadTemplates(t *testing.T) *Templates {
	t.Helper()
	tmpl, err := LoadTemplates()
	if err != nil {
		t.Fatalf("load templates: %v", err)
	}
	return tmpl
}

func TestRender_UnknownTemplateNeverFallsBack(t *testing.T) {
	tmpl := mustLoadTemplates(t)
	if _, err := tmpl.Render(TemplateWelcome, NewWelcomeData("Smoke & Sage", nil)); err != nil {
		t.Fatalf("render welcome: %v", err)
	}

	for _, name := range []string{"quote-sent", "", "QUOTE_SENT", "welcome.html", "default"} {
		got, err := tmpl.Render(name, NewWelcomeData("Smoke & Sage", nil))
		if !errors.Is(err, ErrUnknownTemplate) {
			t.Fatalf("%q: expected ErrUnknownTemplate, got %v", name, err)
		}
		if got.HTMLBody != "" || got.Subject != "" || got.TextBody != "" {
			t.Fatalf("%q: expected empty result, got %+v", name, got)
		}
	}
}

func TestRender_QuoteSent(t *testing.T) {
	data := NewQuoteSentData("Smoke & Sage", []string{"12 Market Street, Austin"})
	data.CustomerName = "Dana"
	data.QuoteNumber = "Q-202501-0001"
	data.EventType = "wedding"
	data.Total = "$632.50"
	data.DepositAmount = "$126.50"
	data.BalanceDue = "$506.00"
	data.PaymentURL = "https://checkout.stripe.test/c/pay/cs_1"
	data.PaymentIsQuote = true
	data.HasAttachment = true
	data.SetCTA("Pay deposit", data.PaymentURL)

	got, err := mustLoadTemplates(t).Render(TemplateQuoteSent, data)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if got.Subject != "Your quote Q-202501-0001 from Smoke & Sage" {
		t.Fatalf("unexpected subject %q", got.Subject)
	}
	for _, want := range []string{"Q-202501-0001", "$632.50", "$126.50", "attached as a PDF", "https://checkout.stripe.test/c/pay/cs_1", "Smoke &amp; Sage"} {
		if !strings.Contains(got.HTMLBody, want) {
			t.Fatalf("html body missing %q", want)
		}
	}
	for _, want := range []string{"Total: $632.50", "Balance due: $506.00", "Pay online: https://checkout.stripe.test/c/pay/cs_1", "12 Market Street, Austin"} {
		if !strings.Contains(got.TextBody, want) {
			t.Fatalf("text body missing %q:\n%s", want, got.TextBody)
		}
	}
}

func TestRender_QuoteSentWithContactFallback(t *testing.T) {
	data := NewQuoteSentData("Smoke & Sage", nil)
	data.CustomerName = "Dana"
	data.QuoteNumber = "Q-202501-0001"
	data.Total = "$632.50"
	data.PaymentURL = "https://events.test/contact"

	got, err := mustLoadTemplates(t).Render(TemplateQuoteSent, data)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(got.TextBody, "Pay online") {
		t.Fatal("contact fallback must not be presented as a payment link")
	}
	if strings.Contains(got.HTMLBody, "attached as a PDF") {
		t.Fatal("missing attachment must not be announced")
	}
}

func TestRender_QuoteSentWithoutAnyLink(t *testing.T) {
	data := NewQuoteSentData("Smoke & Sage", nil)
	data.CustomerName = "Dana"
	data.QuoteNumber = "Q-202501-0001"
	data.Total = "$632.50"

	got, err := mustLoadTemplates(t).Render(TemplateQuoteSent, data)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(got.TextBody, "confirm your booking: ") {
		t.Fatalf("expected no dangling link label:\n%s", got.TextBody)
	}
	if !strings.Contains(got.TextBody, "Reply to this email to confirm your booking.") {
		t.Fatalf("expected reply wording:\n%s", got.TextBody)
	}
}

func TestRender_EscapesCustomerInput(t *testing.T) {
	data := NewPaymentReceivedData("Smoke & Sage", nil)
	data.CustomerName = "<script>alert(1)</script>"
	data.QuoteNumber = "Q-202501-0001"
	data.AmountPaid = "$126.50"

	got, err := mustLoadTemplates(t).Render(TemplatePaymentReceived, data)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(got.HTMLBody, "<script>") {
		t.Fatal("expected customer name to be escaped in html body")
	}
}

func TestLoadTemplates_RegistersEveryName(t *testing.T) {
	tmpl := mustLoadTemplates(t)
	for _, name := range []string{TemplateWelcome, TemplateQuoteSent, TemplatePaymentReceived} {
		if !tmpl.Has(name) {
			t.Fatalf("expected %s to be registered", name)
		}
	}
	if tmpl.Has("quote_reminder") {
		t.Fatal("unexpected template registered")
	}
}
