package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"eventsite_backend/internal/adapters/storage"
	"eventsite_backend/internal/email"
	"eventsite_backend/internal/notification"
	"eventsite_backend/internal/payments"
	"eventsite_backend/internal/pdf"
	"eventsite_backend/internal/quotes/repository"
	"eventsite_backend/platform/apperr"
	"eventsite_backend/platform/config"
	"eventsite_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2025, time.January, 14, 10, 0, 0, 0, time.UTC)

type fakeStore struct {
	mu        sync.Mutex
	quote     *repository.Quote
	customer  *repository.Customer
	items     []repository.QuoteItem
	sent      *repository.SendOutcome
	markSent  int
	markErr   error
	appended  []repository.NotificationAttempt
	updates   []string
	paidWith  string
	expireCnt int64
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*repository.Quote, error) {
	if f.quote == nil || f.quote.ID != id {
		return nil, apperr.NotFound("quote not found")
	}
	q := *f.quote
	return &q, nil
}

func (f *fakeStore) GetItemsByQuoteID(context.Context, uuid.UUID) ([]repository.QuoteItem, error) {
	return f.items, nil
}

func (f *fakeStore) GetCustomer(context.Context, uuid.UUID) (*repository.Customer, error) {
	c := *f.customer
	return &c, nil
}

func (f *fakeStore) MarkSent(_ context.Context, out repository.SendOutcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markSent++
	if f.markErr != nil {
		return f.markErr
	}
	f.sent = &out
	f.quote.Status = "SENT"
	f.quote.SentAt = &out.SentAt
	return nil
}

func (f *fakeStore) AppendNotificationAttempts(_ context.Context, attempts []repository.NotificationAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, attempts...)
	return nil
}

func (f *fakeStore) ListNotificationAttempts(_ context.Context, quoteID uuid.UUID) ([]repository.NotificationAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.NotificationAttempt
	if f.sent != nil {
		out = append(out, f.sent.Attempts...)
	}
	for _, a := range f.appended {
		if a.QuoteID == quoteID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, _ uuid.UUID, from, to string, _ time.Time) error {
	if f.quote.Status != from {
		return apperr.Conflict("quote status changed concurrently")
	}
	f.quote.Status = to
	f.updates = append(f.updates, from+"->"+to)
	return nil
}

func (f *fakeStore) MarkPaid(_ context.Context, _ uuid.UUID, sessionID string, at time.Time) error {
	f.quote.Status = "PAID"
	f.quote.PaidAt = &at
	f.paidWith = sessionID
	return nil
}

func (f *fakeStore) ExpireOverdue(context.Context, time.Time) (int64, error) {
	return f.expireCnt, nil
}

type fakeIssuer struct {
	calls    int
	last     payments.CheckoutRequest
	err      error
	ctxErr   error
	session  payments.ProviderSession
	retrieve int
}

func (f *fakeIssuer) Issue(ctx context.Context, req payments.CheckoutRequest) (*payments.CheckoutSession, error) {
	f.calls++
	f.last = req
	f.ctxErr = ctx.Err()
	if f.err != nil {
		return nil, f.err
	}
	return &payments.CheckoutSession{
		CheckoutURL: "https://checkout.stripe.test/c/pay/cs_test_1",
		SessionID:   "cs_test_1",
		AmountMinor: req.TotalMinor,
		Mode:        req.Mode,
	}, nil
}

func (f *fakeIssuer) RetrieveSession(context.Context, string) (payments.ProviderSession, error) {
	f.retrieve++
	return f.session, nil
}

type fakeRenderer struct {
	calls    int
	last     pdf.QuoteDocumentData
	err      error
	fallback bool
}

func (f *fakeRenderer) Render(_ context.Context, data pdf.QuoteDocumentData) (*pdf.Document, error) {
	f.calls++
	f.last = data
	if f.err != nil {
		return nil, f.err
	}
	return &pdf.Document{Bytes: []byte("%PDF-1.4 test"), Filename: pdf.Filename(data.QuoteNumber), Fallback: f.fallback}, nil
}

type fakeNotifier struct {
	result notification.Result
	msgs   []email.Message
}

func sentVia(provider string) notification.Result {
	return notification.Result{
		Sent:         true,
		ProviderUsed: provider,
		Attempts:     []notification.Attempt{{Provider: provider, Attempt: 1, At: testNow}},
	}
}

func (f *fakeNotifier) Dispatch(_ context.Context, msg email.Message) notification.Result {
	f.msgs = append(f.msgs, msg)
	return f.result
}

type unknownTemplates struct{}

func (unknownTemplates) Render(name string, _ any) (email.Rendered, error) {
	return email.Rendered{}, errors.Join(email.ErrUnknownTemplate, errors.New(name))
}

type fakeDocumentStore struct {
	putErr error
	keys   []string
}

func (f *fakeDocumentStore) PutObject(_ context.Context, _ string, key, _ string, _ []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.keys = append(f.keys, key)
	return nil
}

func (f *fakeDocumentStore) GenerateDownloadURL(_ context.Context, bucket, key string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://files.test/" + bucket + "/" + key, FileKey: key, ExpiresAt: testNow.Add(time.Hour)}, nil
}

type harness struct {
	svc      *Service
	store    *fakeStore
	issuer   *fakeIssuer
	renderer *fakeRenderer
	notifier *fakeNotifier
}

// scenarioQuote is Q-202501-0001: $500.00 of food, 8.5% tax, 18% gratuity, no deposit.
func scenarioQuote() (*repository.Quote, *repository.Customer, []repository.QuoteItem) {
	eventType := "wedding"
	guests := 50
	q := &repository.Quote{
		ID:              uuid.New(),
		QuoteNumber:     "Q-202501-0001",
		CustomerID:      uuid.New(),
		Status:          "DRAFT",
		EventType:       &eventType,
		GuestCount:      &guests,
		TaxRatePct:      decimal.RequireFromString("8.5"),
		GratuityRatePct: decimal.RequireFromString("18"),
		DepositType:     "NONE",
		Total:           decimal.RequireFromString("632.50"),
	}
	c := &repository.Customer{ID: q.CustomerID, Name: "Dana Whitfield", Email: "dana@example.com"}
	items := []repository.QuoteItem{
		{ID: uuid.New(), QuoteID: q.ID, Description: "Taco bar (per guest)", Quantity: 50, UnitPrice: decimal.RequireFromString("10.00")},
	}
	return q, c, items
}

func newHarness(t interface{ Fatalf(string, ...any) }) *harness {
	q, c, items := scenarioQuote()
	tmpl, err := email.LoadTemplates()
	if err != nil {
		t.Fatalf("load templates: %v", err)
	}

	h := &harness{
		store:    &fakeStore{quote: q, customer: c, items: items},
		issuer:   &fakeIssuer{},
		renderer: &fakeRenderer{},
		notifier: &fakeNotifier{result: sentVia("graph")},
	}
	h.svc = New(h.store, h.renderer, h.notifier, tmpl, Config{
		Business:       config.BusinessProfile{Name: "Smoke & Sage", PhoneRegion: "US", DefaultTerms: "Deposit confirms the booking."},
		ContactPageURL: "https://smokeandsage.test/contact",
		QuoteCCList:    []string{"bookings@smokeandsage.test"},
	}, logger.New("development"))
	h.svc.SetPaymentIssuer(h.issuer)
	h.svc.now = func() time.Time { return testNow }
	return h
}
