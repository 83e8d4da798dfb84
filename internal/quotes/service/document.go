package service

import (
	"context"
	"strings"

	"eventsite_backend/internal/pdf"
	"eventsite_backend/internal/quotes/pricing"
	"eventsite_backend/internal/quotes/repository"
	"eventsite_backend/internal/quotes/transport"
	"eventsite_backend/platform/apperr"
	"eventsite_backend/platform/phone"
	"eventsite_backend/platform/sanitize"

	"github.com/google/uuid"
)

// quoteBundle is a quote with everything needed to price and render it.
type quoteBundle struct {
	quote    *repository.Quote
	customer *repository.Customer
	items    []repository.QuoteItem
}

func (s *Service) loadQuote(ctx context.Context, id uuid.UUID) (*quoteBundle, error) {
	quote, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	customer, err := s.repo.GetCustomer(ctx, quote.CustomerID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.GetItemsByQuoteID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &quoteBundle{quote: quote, customer: customer, items: items}, nil
}

func (b *quoteBundle) pricingInput() pricing.Input {
	items := make([]pricing.LineItem, len(b.items))
	for i, it := range b.items {
		items[i] = pricing.LineItem{Description: it.Description, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	return pricing.Input{
		Items:           items,
		TaxRatePct:      b.quote.TaxRatePct,
		GratuityRatePct: b.quote.GratuityRatePct,
		Deposit: pricing.Deposit{
			Type:  pricing.DepositType(b.quote.DepositType),
			Value: b.quote.DepositValue,
		},
	}
}

func (s *Service) validateCustomer(c *repository.Customer) error {
	if strings.TrimSpace(c.Name) == "" || s.val.Var(c.Email, "required,email") != nil {
		return apperr.Wrap(apperr.KindValidation, ErrMissingCustomerData.Error(), ErrMissingCustomerData).
			WithDetails(map[string]string{"customerId": c.ID.String()})
	}
	return nil
}

// RenderQuoteDocument renders the current state of a quote for preview or
// download. The stored payment link, if any, is printed on the document.
func (s *Service) RenderQuoteDocument(ctx context.Context, id uuid.UUID) (*pdf.Document, error) {
	bundle, err := s.loadQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	priced, err := pricing.Calculate(bundle.pricingInput())
	if err != nil {
		return nil, err
	}

	link := ""
	if bundle.quote.PaymentLink != nil {
		link = *bundle.quote.PaymentLink
	}
	data := s.buildDocumentData(bundle, priced, transport.QuoteStatus(bundle.quote.Status), link)

	doc, err := s.renderer.Render(ctx, data)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "quote document could not be rendered", err)
	}
	return doc, nil
}

func (s *Service) buildDocumentData(b *quoteBundle, priced pricing.Result, status transport.QuoteStatus, paymentLink string) pdf.QuoteDocumentData {
	business := s.cfg.Business
	region := business.PhoneRegion
	q := b.quote

	issuedAt := s.now()
	if q.SentAt != nil && status != transport.QuoteStatusDraft {
		issuedAt = *q.SentAt
	}

	data := pdf.QuoteDocumentData{
		Business: pdf.Business{
			Name:         business.Name,
			AddressLines: business.AddressLines,
			Phone:        phone.Display(business.Phone, region),
			Email:        business.Email,
			Website:      business.Website,
		},
		QuoteNumber:     q.QuoteNumber,
		Status:          status.String(),
		IssuedAt:        issuedAt,
		ValidUntil:      q.ValidUntil,
		CustomerName:    strings.TrimSpace(b.customer.Name),
		CustomerEmail:   strings.TrimSpace(b.customer.Email),
		EventDate:       q.EventDate,
		Subtotal:        priced.Subtotal,
		TaxRatePct:      q.TaxRatePct,
		Tax:             priced.Tax,
		GratuityRatePct: q.GratuityRatePct,
		Gratuity:        priced.Gratuity,
		Total:           priced.Total,
		DepositAmount:   priced.DepositAmount,
		BalanceDue:      priced.BalanceDue,
		PaymentLink:     paymentLink,
		Terms:           business.DefaultTerms,
	}
	if b.customer.Phone != nil {
		data.CustomerPhone = phone.Display(*b.customer.Phone, region)
	}
	if q.EventType != nil {
		data.EventType = *q.EventType
	}
	if q.GuestCount != nil {
		data.GuestCount = *q.GuestCount
	}
	if q.Venue != nil {
		data.Venue = *q.Venue
	}
	if q.Notes != nil {
		data.Notes = sanitize.Text(*q.Notes)
	}
	if q.Terms != nil && strings.TrimSpace(*q.Terms) != "" {
		data.Terms = sanitize.Text(*q.Terms)
	}

	data.Items = make([]pdf.LineItem, len(b.items))
	for i, it := range b.items {
		data.Items[i] = pdf.LineItem{
			Description: sanitize.StripHTML(it.Description),
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Total:       priced.LineTotals[i],
		}
	}
	return data
}

// NotificationHistory returns every recorded send attempt for a quote,
// oldest first.
func (s *Service) NotificationHistory(ctx context.Context, id uuid.UUID) ([]transport.NotificationAttemptResponse, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListNotificationAttempts(ctx, id)
	if err != nil {
		return nil, err
	}

	out := make([]transport.NotificationAttemptResponse, len(rows))
	for i, a := range rows {
		out[i] = transport.NotificationAttemptResponse{
			Recipient:          a.Recipient,
			Provider:           a.Provider,
			Attempt:            a.Attempt,
			Status:             a.Status,
			Error:              a.Error,
			PDFGenerated:       a.PDFGenerated,
			PaymentLinkCreated: a.PaymentLinkCreated,
			CreatedAt:          a.CreatedAt,
		}
	}
	return out, nil
}
