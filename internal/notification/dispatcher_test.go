package notification

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"eventsite_backend/internal/email"
	"eventsite_backend/platform/logger"
)

type stubProvider struct {
	name        string
	err         error
	calls       int
	invalidated int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Send(context.Context, email.Message) error {
	p.calls++
	return p.err
}

func (p *stubProvider) InvalidateCredentials() { p.invalidated++ }

func testMessage() email.Message {
	return email.Message{To: "dana@example.com", Subject: "Your quote Q-202501-0001", HTMLBody: "<p>hi</p>"}
}

func quoteContext() context.Context {
	return context.WithValue(context.Background(), logger.QuoteIDKey, "quote-1")
}

func TestDispatch_FallsThroughToThirdProvider(t *testing.T) {
	graph := &stubProvider{name: "graph", err: errors.New("graph: status 503")}
	brevo := &stubProvider{name: "brevo", err: errors.New("brevo: timeout")}
	smtp := &stubProvider{name: "smtp"}

	d := NewDispatcher(ChainConfig{Providers: []email.Provider{graph, brevo, smtp}}, logger.New("development"))
	res := d.Dispatch(quoteContext(), testMessage())

	if !res.Sent || res.ProviderUsed != "smtp" {
		t.Fatalf("expected send via smtp, got %+v", res)
	}
	if len(res.Attempts) != 3 || len(res.FailedAttempts()) != 2 {
		t.Fatalf("expected 3 attempts with 2 failures, got %+v", res.Attempts)
	}
	for i, a := range res.Attempts {
		if a.Attempt != i+1 {
			t.Fatalf("attempt %d numbered %d", i, a.Attempt)
		}
	}
}

func TestDispatch_StopsAtFirstSuccess(t *testing.T) {
	graph := &stubProvider{name: "graph"}
	brevo := &stubProvider{name: "brevo"}

	res := NewDispatcher(ChainConfig{Providers: []email.Provider{graph, brevo}}, logger.New("development")).Dispatch(quoteContext(), testMessage())

	if !res.Sent || res.ProviderUsed != "graph" {
		t.Fatalf("expected graph, got %+v", res)
	}
	if brevo.calls != 0 {
		t.Fatal("later providers must not be called after a success")
	}
}

func TestDispatch_AllFailReportsNotSent(t *testing.T) {
	a := &stubProvider{name: "graph", err: errors.New("down")}
	b := &stubProvider{name: "smtp", err: errors.New("down")}

	res := NewDispatcher(ChainConfig{Providers: []email.Provider{a, b}}, logger.New("development")).Dispatch(quoteContext(), testMessage())

	if res.Sent || res.ProviderUsed != "" {
		t.Fatalf("expected not sent, got %+v", res)
	}
	if len(res.FailedAttempts()) != 2 {
		t.Fatalf("expected 2 failed attempts, got %d", len(res.FailedAttempts()))
	}
}

func TestDispatch_NoProvidersIsLogOnly(t *testing.T) {
	res := NewDispatcher(ChainConfig{}, logger.New("development")).Dispatch(context.Background(), testMessage())
	if res.Sent || len(res.Attempts) != 0 {
		t.Fatalf("expected empty not-sent result, got %+v", res)
	}
}

func TestDispatch_AuthenticationFailureInvalidatesCredentials(t *testing.T) {
	graph := &stubProvider{name: "graph", err: fmt.Errorf("%w: graph send: status 401", email.ErrAuthentication)}
	brevo := &stubProvider{name: "brevo", err: errors.New("brevo: status 500")}
	smtp := &stubProvider{name: "smtp"}

	res := NewDispatcher(ChainConfig{Providers: []email.Provider{graph, brevo, smtp}}, logger.New("development")).Dispatch(quoteContext(), testMessage())

	if !res.Sent {
		t.Fatal("expected send to fall through to smtp")
	}
	if graph.invalidated != 1 {
		t.Fatalf("expected graph credentials invalidated once, got %d", graph.invalidated)
	}
	if brevo.invalidated != 0 {
		t.Fatal("non-auth failures must not invalidate credentials")
	}
}

func TestDispatch_RecordsAttemptTime(t *testing.T) {
	fixed := time.Date(2025, 1, 14, 9, 30, 0, 0, time.UTC)
	d := NewDispatcher(ChainConfig{Providers: []email.Provider{&stubProvider{name: "smtp"}}}, logger.New("development"))
	d.now = func() time.Time { return fixed }

	res := d.Dispatch(quoteContext(), testMessage())
	if !res.Attempts[0].At.Equal(fixed) {
		t.Fatalf("unexpected attempt time %v", res.Attempts[0].At)
	}
}

type chainSettings struct {
	enabled bool
	graph   bool
	brevo   bool
	smtp    bool
}

func (c chainSettings) GetEmailEnabled() bool          { return c.enabled }
func (c chainSettings) GetEmailFromName() string       { return "Smoke & Sage" }
func (c chainSettings) GetEmailFromAddress() string    { return "quotes@smokeandsage.test" }
func (c chainSettings) GetQuoteCCList() []string       { return nil }
func (c chainSettings) GetEmailTimeout() time.Duration { return 5 * time.Second }
func (c chainSettings) GetGraphTenantID() string       { return "tenant" }
func (c chainSettings) GetGraphClientID() string       { return "client" }
func (c chainSettings) GetGraphClientSecret() string   { return "secret" }
func (c chainSettings) GetGraphMailbox() string        { return "quotes@smokeandsage.test" }
func (c chainSettings) IsGraphMailEnabled() bool       { return c.graph }
func (c chainSettings) GetBrevoAPIKey() string         { return "key" }
func (c chainSettings) IsBrevoEnabled() bool           { return c.brevo }
func (c chainSettings) GetSMTPHost() string            { return "smtp.example.com" }
func (c chainSettings) GetSMTPPort() int               { return 587 }
func (c chainSettings) GetSMTPUsername() string        { return "user" }
func (c chainSettings) GetSMTPPassword() string        { return "pass" }
func (c chainSettings) IsSMTPEnabled() bool            { return c.smtp }

func TestBuildChain_OrderFollowsCredentialPresence(t *testing.T) {
	log := logger.New("development")

	cases := []struct {
		name string
		cfg  chainSettings
		want []string
	}{
		{name: "all", cfg: chainSettings{enabled: true, graph: true, brevo: true, smtp: true}, want: []string{"graph", "brevo", "smtp"}},
		{name: "smtp only", cfg: chainSettings{enabled: true, smtp: true}, want: []string{"smtp"}},
		{name: "graph and smtp", cfg: chainSettings{enabled: true, graph: true, smtp: true}, want: []string{"graph", "smtp"}},
		{name: "disabled", cfg: chainSettings{graph: true, brevo: true, smtp: true}, want: []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NewDispatcher(BuildChain(tc.cfg, log), log).ProviderNames()
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
