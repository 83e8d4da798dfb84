// Package notification sends composed messages through the ordered email
// provider chain.
package notification

import (
	"context"
	"errors"
	"time"

	"eventsite_backend/internal/email"
	"eventsite_backend/platform/logger"
)

// ChainConfig is the provider chain, built once at startup.
type ChainConfig struct {
	Providers []email.Provider
}

// Attempt is one provider call made during a dispatch.
type Attempt struct {
	Provider string
	Attempt  int
	At       time.Time
	Err      error
}

// Result reports the outcome of a dispatch.
type Result struct {
	Sent         bool
	ProviderUsed string
	Attempts     []Attempt
}

// FailedAttempts returns the attempts that did not deliver.
func (r Result) FailedAttempts() []Attempt {
	var failed []Attempt
	for _, a := range r.Attempts {
		if a.Err != nil {
			failed = append(failed, a)
		}
	}
	return failed
}

// Dispatcher tries each provider in order until one delivers.
type Dispatcher struct {
	providers []email.Provider
	log       *logger.Logger
	now       func() time.Time
}

// NewDispatcher creates a dispatcher for the given chain.
func NewDispatcher(cfg ChainConfig, log *logger.Logger) *Dispatcher {
	providers := make([]email.Provider, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		if p != nil {
			providers = append(providers, p)
		}
	}
	return &Dispatcher{providers: providers, log: log, now: time.Now}
}

// ProviderNames lists the chain in order.
func (d *Dispatcher) ProviderNames() []string {
	names := make([]string, len(d.providers))
	for i, p := range d.providers {
		names[i] = p.Name()
	}
	return names
}

// Dispatch sends msg through the chain, stopping at the first success. It
// never returns an error: exhausting the chain, or having no providers at
// all, is reported as Sent=false.
func (d *Dispatcher) Dispatch(ctx context.Context, msg email.Message) Result {
	quoteID := quoteIDFrom(ctx)
	log := d.log.WithContext(ctx)

	if len(d.providers) == 0 {
		log.Warn("no email provider configured, message logged only", "to", msg.To, "subject", msg.Subject)
		return Result{}
	}

	var result Result
	for i, p := range d.providers {
		attempt := Attempt{Provider: p.Name(), Attempt: i + 1, At: d.now()}
		attempt.Err = p.Send(ctx, msg)
		result.Attempts = append(result.Attempts, attempt)
		d.log.ProviderAttempt("email", attempt.Provider, attempt.Attempt, quoteID, attempt.Err)

		if attempt.Err == nil {
			result.Sent = true
			result.ProviderUsed = attempt.Provider
			return result
		}

		if errors.Is(attempt.Err, email.ErrAuthentication) {
			if inv, ok := p.(email.CredentialInvalidator); ok {
				inv.InvalidateCredentials()
			}
		}
	}

	log.Error("every email provider failed", "to", msg.To, "attempts", len(result.Attempts))
	return result
}

func quoteIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(logger.QuoteIDKey).(string); ok {
		return id
	}
	return ""
}
