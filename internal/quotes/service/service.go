// Package service coordinates sending a quote: pricing, payment link,
// document, notification and the resulting status change.
package service

import (
	"context"
	"errors"
	"time"

	"eventsite_backend/internal/adapters/storage"
	"eventsite_backend/internal/email"
	"eventsite_backend/internal/notification"
	"eventsite_backend/internal/payments"
	"eventsite_backend/internal/pdf"
	"eventsite_backend/internal/quotes/repository"
	"eventsite_backend/platform/config"
	"eventsite_backend/platform/logger"
	"eventsite_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrMissingCustomerData means the quote's customer lacks a usable name or email.
	ErrMissingCustomerData = errors.New("customer name and email are required")
	// ErrNotificationNotSent means every email provider failed or none is configured.
	ErrNotificationNotSent = errors.New("quote email could not be delivered")
)

// QuoteStore is the persistence the service needs.
type QuoteStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Quote, error)
	GetItemsByQuoteID(ctx context.Context, quoteID uuid.UUID) ([]repository.QuoteItem, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (*repository.Customer, error)
	MarkSent(ctx context.Context, out repository.SendOutcome) error
	AppendNotificationAttempts(ctx context.Context, attempts []repository.NotificationAttempt) error
	ListNotificationAttempts(ctx context.Context, quoteID uuid.UUID) ([]repository.NotificationAttempt, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string, at time.Time) error
	MarkPaid(ctx context.Context, id uuid.UUID, sessionID string, at time.Time) error
	ExpireOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

// PaymentIssuer creates and looks up checkout sessions.
type PaymentIssuer interface {
	Issue(ctx context.Context, req payments.CheckoutRequest) (*payments.CheckoutSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (payments.ProviderSession, error)
}

// DocumentRenderer renders quote PDFs.
type DocumentRenderer interface {
	Render(ctx context.Context, data pdf.QuoteDocumentData) (*pdf.Document, error)
}

// Notifier delivers composed emails.
type Notifier interface {
	Dispatch(ctx context.Context, msg email.Message) notification.Result
}

// TemplateRenderer renders named email templates.
type TemplateRenderer interface {
	Render(name string, data any) (email.Rendered, error)
}

// DocumentStore keeps rendered documents and hands out download links.
type DocumentStore interface {
	PutObject(ctx context.Context, bucket, fileKey, contentType string, content []byte) error
	GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*storage.PresignedURL, error)
}

// Config holds the settings the service reads once at startup.
type Config struct {
	Business       config.BusinessProfile
	ContactPageURL string
	QuoteCCList    []string
	// DepositPct is the checkout deposit fraction. Zero uses the issuer default.
	DepositPct     decimal.Decimal
	PaymentTimeout time.Duration
	RenderTimeout  time.Duration
	DocumentBucket string
}

// Service provides the quote pipeline.
type Service struct {
	repo      QuoteStore
	renderer  DocumentRenderer
	notifier  Notifier
	templates TemplateRenderer
	payments  PaymentIssuer // optional, nil means no online payment
	documents DocumentStore // optional, nil means documents are only attached
	cfg       Config
	val       *validator.Validator
	log       *logger.Logger
	now       func() time.Time
}

// New creates a new quotes service.
func New(repo QuoteStore, renderer DocumentRenderer, notifier Notifier, templates TemplateRenderer, cfg Config, log *logger.Logger) *Service {
	if cfg.PaymentTimeout <= 0 {
		cfg.PaymentTimeout = 20 * time.Second
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = 30 * time.Second
	}
	return &Service{
		repo:      repo,
		renderer:  renderer,
		notifier:  notifier,
		templates: templates,
		cfg:       cfg,
		val:       validator.New(),
		log:       log,
		now:       time.Now,
	}
}

// SetPaymentIssuer enables checkout links.
func (s *Service) SetPaymentIssuer(p PaymentIssuer) {
	s.payments = p
}

// SetDocumentStore enables uploading rendered documents.
func (s *Service) SetDocumentStore(d DocumentStore) {
	s.documents = d
}

func (s *Service) footerLines() []string {
	b := s.cfg.Business
	lines := []string{b.Name}
	lines = append(lines, b.AddressLines...)
	if b.Phone != "" {
		lines = append(lines, b.Phone)
	}
	if b.Email != "" {
		lines = append(lines, b.Email)
	}
	return lines
}
