package payments

import (
	"context"
	"strings"

	"eventsite_backend/internal/quotes/pricing"
	"eventsite_backend/platform/logger"
	"eventsite_backend/platform/validator"

	"github.com/shopspring/decimal"
)

const providerName = "stripe"

// IssuerConfig holds the checkout settings read once at startup.
type IssuerConfig struct {
	Currency            string
	SuccessURL          string
	CancelURL           string
	DefaultDepositPct   decimal.Decimal
	MinimumDepositMinor int64
}

// SessionCache remembers issued sessions by idempotency key.
type SessionCache interface {
	Get(ctx context.Context, key string) (*CheckoutSession, bool, error)
	Put(ctx context.Context, key string, session *CheckoutSession) error
}

// Issuer creates checkout sessions through a provider.
type Issuer struct {
	provider Provider
	cache    SessionCache
	cfg      IssuerConfig
	breaker  *breaker
	val      *validator.Validator
	log      *logger.Logger
}

// NewIssuer creates an issuer backed by provider.
func NewIssuer(provider Provider, cfg IssuerConfig, log *logger.Logger) *Issuer {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if cfg.DefaultDepositPct.IsZero() {
		cfg.DefaultDepositPct = decimal.RequireFromString("0.20")
	}
	if cfg.MinimumDepositMinor <= 0 {
		cfg.MinimumDepositMinor = pricing.DefaultCheckoutMinimumMinor
	}
	return &Issuer{
		provider: provider,
		cfg:      cfg,
		breaker:  newBreaker(providerName, log),
		val:      validator.New(),
		log:      log,
	}
}

// SetSessionCache enables the local session cache.
func (i *Issuer) SetSessionCache(cache SessionCache) {
	i.cache = cache
}

// AmountFor returns the minor units a checkout for req collects.
func (i *Issuer) AmountFor(req CheckoutRequest) int64 {
	if req.Mode == ModeFull {
		return req.TotalMinor
	}
	if req.DepositMinor > 0 {
		return pricing.CheckoutFixedDepositMinorUnits(req.TotalMinor, req.DepositMinor, i.cfg.MinimumDepositMinor)
	}
	depositPct := req.DepositPct
	if depositPct.IsZero() {
		depositPct = i.cfg.DefaultDepositPct
	}
	return pricing.CheckoutDepositMinorUnits(req.TotalMinor, depositPct, i.cfg.MinimumDepositMinor)
}

// Issue returns the checkout session for the request, creating it at the
// provider only when no session exists yet for the quote and mode.
func (i *Issuer) Issue(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	const op = "payments.Issue"

	if err := i.validate(req); err != nil {
		return nil, err
	}

	key := IdempotencyKey(req.QuoteID, req.Mode)
	if cached := i.cached(ctx, key); cached != nil {
		return cached, nil
	}

	amount := i.AmountFor(req)
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Quote " + req.QuoteNumber
	}
	if req.Mode == ModeDeposit {
		title += " (deposit)"
	}

	params := SessionParams{
		IdempotencyKey: key,
		LineItem: LineItem{
			Name:        title,
			AmountMinor: amount,
			Currency:    i.cfg.Currency,
		},
		SuccessURL:    i.cfg.SuccessURL,
		CancelURL:     i.cfg.CancelURL,
		CustomerEmail: req.CustomerEmail,
		Metadata: map[string]string{
			"quoteId":     req.QuoteID,
			"quoteNumber": req.QuoteNumber,
			"mode":        string(req.Mode),
		},
	}

	created, err := i.breaker.execute(func() (ProviderSession, error) {
		return i.provider.CreateCheckoutSession(ctx, params)
	})
	i.log.ProviderAttempt("payment", providerName, 1, req.QuoteID, err)
	if err != nil {
		if IsInvalidRequest(err) || IsProviderUnavailable(err) {
			return nil, err
		}
		return nil, providerUnavailable(op, err)
	}
	if created.ID == "" || created.URL == "" {
		return nil, providerUnavailable(op, errEmptySession)
	}

	session := &CheckoutSession{
		CheckoutURL:     created.URL,
		SessionID:       created.ID,
		AmountMinor:     amount,
		AmountCollected: pricing.FromMinorUnits(amount),
		Mode:            req.Mode,
	}
	if i.cache != nil {
		if err := i.cache.Put(ctx, key, session); err != nil {
			i.log.Warn("checkout session cache write failed", "key", key, "error", err)
		}
	}
	return session, nil
}

// RetrieveSession reads the provider's view of a session.
func (i *Issuer) RetrieveSession(ctx context.Context, sessionID string) (ProviderSession, error) {
	const op = "payments.RetrieveSession"
	if strings.TrimSpace(sessionID) == "" {
		return ProviderSession{}, invalidRequest(op, "session id is required")
	}
	session, err := i.breaker.execute(func() (ProviderSession, error) {
		return i.provider.RetrieveSession(ctx, sessionID)
	})
	if err != nil {
		if IsInvalidRequest(err) || IsProviderUnavailable(err) {
			return ProviderSession{}, err
		}
		return ProviderSession{}, providerUnavailable(op, err)
	}
	return session, nil
}

func (i *Issuer) validate(req CheckoutRequest) error {
	const op = "payments.Issue"
	switch {
	case strings.TrimSpace(req.QuoteID) == "":
		return invalidRequest(op, "quote id is required")
	case !req.Mode.IsValid():
		return invalidRequest(op, "payment mode must be deposit or full")
	case req.TotalMinor <= 0:
		return invalidRequest(op, "checkout amount must be positive")
	case req.DepositPct.IsNegative() || req.DepositPct.GreaterThan(decimal.NewFromInt(1)):
		return invalidRequest(op, "deposit percentage must be between 0 and 1")
	case req.DepositMinor < 0:
		return invalidRequest(op, "deposit amount cannot be negative")
	}
	if err := i.val.Var(req.CustomerEmail, "required,email"); err != nil {
		return invalidRequest(op, "customer email is invalid")
	}
	return nil
}

func (i *Issuer) cached(ctx context.Context, key string) *CheckoutSession {
	if i.cache == nil {
		return nil
	}
	session, ok, err := i.cache.Get(ctx, key)
	if err != nil {
		i.log.Warn("checkout session cache read failed", "key", key, "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	return session
}
