package payments

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"eventsite_backend/platform/logger"

	"github.com/shopspring/decimal"
)

// fakeProvider dedupes on the idempotency key the way Stripe does.
type fakeProvider struct {
	mu       sync.Mutex
	sessions map[string]ProviderSession
	calls    int
	last     SessionParams
	err      error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{sessions: map[string]ProviderSession{}}
}

func (p *fakeProvider) CreateCheckoutSession(_ context.Context, params SessionParams) (ProviderSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.last = params
	if p.err != nil {
		return ProviderSession{}, p.err
	}
	if existing, ok := p.sessions[params.IdempotencyKey]; ok {
		return existing, nil
	}
	id := fmt.Sprintf("cs_test_%d", len(p.sessions)+1)
	session := ProviderSession{ID: id, URL: "https://checkout.stripe.test/c/pay/" + id, AmountTotal: params.LineItem.AmountMinor, Metadata: params.Metadata}
	p.sessions[params.IdempotencyKey] = session
	return session, nil
}

func (p *fakeProvider) RetrieveSession(_ context.Context, id string) (ProviderSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.sessions {
		if s.ID == id {
			return s, nil
		}
	}
	return ProviderSession{}, invalidRequest("fake", "no such session")
}

func newTestIssuer(p Provider) *Issuer {
	return NewIssuer(p, IssuerConfig{
		Currency:            "usd",
		SuccessURL:          "https://events.test/paid",
		CancelURL:           "https://events.test/quote",
		DefaultDepositPct:   decimal.RequireFromString("0.20"),
		MinimumDepositMinor: 5000,
	}, logger.New("development"))
}

func request(mode Mode, totalMinor int64) CheckoutRequest {
	return CheckoutRequest{
		QuoteID:       "7f0c2a9e-quote",
		QuoteNumber:   "Q-202501-0001",
		CustomerEmail: "dana@example.com",
		Mode:          mode,
		TotalMinor:    totalMinor,
	}
}

func TestIssue_SameQuoteAndModeReturnsSameSession(t *testing.T) {
	provider := newFakeProvider()
	issuer := newTestIssuer(provider)

	first, err := issuer.Issue(context.Background(), request(ModeFull, 63250))
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}
	second, err := issuer.Issue(context.Background(), request(ModeFull, 63250))
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}

	if first.SessionID != second.SessionID {
		t.Fatalf("expected same session, got %s and %s", first.SessionID, second.SessionID)
	}
	if len(provider.sessions) != 1 {
		t.Fatalf("expected one provider session, got %d", len(provider.sessions))
	}
	if provider.last.IdempotencyKey != "quote:7f0c2a9e-quote:full" {
		t.Fatalf("unexpected idempotency key %q", provider.last.IdempotencyKey)
	}
}

func TestIssue_DifferentModesGetDifferentSessions(t *testing.T) {
	provider := newFakeProvider()
	issuer := newTestIssuer(provider)

	full, err := issuer.Issue(context.Background(), request(ModeFull, 63250))
	if err != nil {
		t.Fatalf("full: %v", err)
	}
	deposit, err := issuer.Issue(context.Background(), request(ModeDeposit, 63250))
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if full.SessionID == deposit.SessionID {
		t.Fatal("expected distinct sessions per mode")
	}
}

func TestIssue_DepositAmounts(t *testing.T) {
	cases := []struct {
		name  string
		total int64
		want  int64
	}{
		{name: "floor applies to $100", total: 10000, want: 5000},
		{name: "floor inactive for $1000", total: 100000, want: 20000},
		{name: "twenty percent of $632.50", total: 63250, want: 12650},
		{name: "floor capped at total", total: 3000, want: 3000},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			provider := newFakeProvider()
			session, err := newTestIssuer(provider).Issue(context.Background(), request(ModeDeposit, tc.total))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if session.AmountMinor != tc.want || provider.last.LineItem.AmountMinor != tc.want {
				t.Fatalf("expected %d, got session %d provider %d", tc.want, session.AmountMinor, provider.last.LineItem.AmountMinor)
			}
			if !session.AmountCollected.Equal(decimal.New(tc.want, -2)) {
				t.Fatalf("unexpected major amount %s", session.AmountCollected)
			}
		})
	}
}

func TestIssue_DepositFollowsQuoteTerms(t *testing.T) {
	cases := []struct {
		name  string
		pct   string
		fixed int64
		total int64
		want  int64
	}{
		{name: "half of $1000", pct: "0.5", total: 100000, want: 50000},
		{name: "small percentage still floored", pct: "0.1", total: 30000, want: 5000},
		{name: "fixed $300", fixed: 30000, total: 100000, want: 30000},
		{name: "fixed below floor", fixed: 2500, total: 100000, want: 5000},
		{name: "fixed capped at total", fixed: 30000, total: 4000, want: 4000},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := request(ModeDeposit, tc.total)
			req.DepositMinor = tc.fixed
			if tc.pct != "" {
				req.DepositPct = decimal.RequireFromString(tc.pct)
			}
			provider := newFakeProvider()
			session, err := newTestIssuer(provider).Issue(context.Background(), req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if session.AmountMinor != tc.want || provider.last.LineItem.AmountMinor != tc.want {
				t.Fatalf("expected %d, got session %d provider %d", tc.want, session.AmountMinor, provider.last.LineItem.AmountMinor)
			}
		})
	}
}

func TestIssue_FullModeCollectsTotal(t *testing.T) {
	session, err := newTestIssuer(newFakeProvider()).Issue(context.Background(), request(ModeFull, 63250))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.AmountMinor != 63250 || session.AmountCollected.String() != "632.5" {
		t.Fatalf("unexpected amount %d / %s", session.AmountMinor, session.AmountCollected)
	}
}

func TestIssue_InvalidRequestsNeverReachProvider(t *testing.T) {
	cases := map[string]func(*CheckoutRequest){
		"malformed email":        func(r *CheckoutRequest) { r.CustomerEmail = "not-an-email" },
		"negative amount":        func(r *CheckoutRequest) { r.TotalMinor = -100 },
		"unknown mode":           func(r *CheckoutRequest) { r.Mode = "installments" },
		"negative fixed deposit": func(r *CheckoutRequest) { r.DepositMinor = -1 },
		"missing quote":          func(r *CheckoutRequest) { r.QuoteID = "" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			provider := newFakeProvider()
			req := request(ModeFull, 63250)
			mutate(&req)

			_, err := newTestIssuer(provider).Issue(context.Background(), req)
			if !IsInvalidRequest(err) {
				t.Fatalf("expected invalid request, got %v", err)
			}
			if IsProviderUnavailable(err) {
				t.Fatal("invalid request must not be reported as provider unavailable")
			}
			if provider.calls != 0 {
				t.Fatalf("expected no provider calls, got %d", provider.calls)
			}
		})
	}
}

func TestIssue_ProviderFailureIsUnavailable(t *testing.T) {
	provider := newFakeProvider()
	provider.err = errors.New("dial tcp: i/o timeout")

	_, err := newTestIssuer(provider).Issue(context.Background(), request(ModeFull, 63250))
	if !IsProviderUnavailable(err) {
		t.Fatalf("expected provider unavailable, got %v", err)
	}
}

func TestIssue_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	provider := newFakeProvider()
	provider.err = providerUnavailable("fake", errors.New("503 from upstream"))
	issuer := newTestIssuer(provider)

	for i := 0; i < 5; i++ {
		if _, err := issuer.Issue(context.Background(), request(ModeFull, 63250)); err == nil {
			t.Fatalf("attempt %d: expected error", i+1)
		}
	}
	_, err := issuer.Issue(context.Background(), request(ModeFull, 63250))
	if !IsProviderUnavailable(err) {
		t.Fatalf("expected unavailable from open breaker, got %v", err)
	}
	if provider.calls != 5 {
		t.Fatalf("expected breaker to stop calls after 5, got %d", provider.calls)
	}
}

func TestIssue_RejectedRequestsDoNotOpenBreaker(t *testing.T) {
	provider := newFakeProvider()
	provider.err = invalidRequest("fake", "amount too small")
	issuer := newTestIssuer(provider)

	for i := 0; i < 6; i++ {
		_, _ = issuer.Issue(context.Background(), request(ModeFull, 63250))
	}
	if provider.calls != 6 {
		t.Fatalf("expected every rejected call to reach the provider, got %d", provider.calls)
	}
}

func TestIssue_MetadataCarriesQuoteID(t *testing.T) {
	provider := newFakeProvider()
	if _, err := newTestIssuer(provider).Issue(context.Background(), request(ModeDeposit, 63250)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.last.Metadata["quoteId"] != "7f0c2a9e-quote" || provider.last.Metadata["mode"] != "deposit" {
		t.Fatalf("unexpected metadata %#v", provider.last.Metadata)
	}
}

func TestRetrieveSession(t *testing.T) {
	provider := newFakeProvider()
	issuer := newTestIssuer(provider)
	session, err := issuer.Issue(context.Background(), request(ModeFull, 63250))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := issuer.RetrieveSession(context.Background(), session.SessionID)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if got.Metadata["quoteId"] != "7f0c2a9e-quote" {
		t.Fatalf("unexpected metadata %#v", got.Metadata)
	}

	if _, err := issuer.RetrieveSession(context.Background(), " "); !IsInvalidRequest(err) {
		t.Fatalf("expected invalid request for blank id, got %v", err)
	}
}
