package email

var subjects = map[string]string{
	TemplateWelcome:         `Thanks for contacting {{.BusinessName}}`,
	TemplateQuoteSent:       `Your quote {{.QuoteNumber}} from {{.BusinessName}}`,
	TemplatePaymentReceived: `Payment received for quote {{.QuoteNumber}}`,
}
