package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"eventsite_backend/platform/apperr"
	"eventsite_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	stripewebhook "github.com/stripe/stripe-go/v79/webhook"
)

const (
	eventCheckoutCompleted     = "checkout.session.completed"
	eventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	signatureTolerance         = 5 * time.Minute
	checkoutPaymentStatusPaid  = "paid"
	quoteIDMetadataKey         = "quoteId"
)

// ErrInvalidSignature means the payload was not signed with the endpoint secret.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// PaymentRecorder marks quotes paid.
type PaymentRecorder interface {
	MarkPaid(ctx context.Context, quoteID uuid.UUID, sessionID string) error
}

// EventStore deduplicates provider events.
type EventStore interface {
	HasProcessed(ctx context.Context, eventID string) (bool, error)
	RecordProcessed(ctx context.Context, eventID, eventType, quoteID string, at time.Time) error
}

// Outcome describes what happened to a delivered event.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
)

// Service verifies and applies Stripe events.
type Service struct {
	secret   string
	payments PaymentRecorder
	events   EventStore
	log      *logger.Logger
	now      func() time.Time
}

// NewService creates a webhook service. events may be nil.
func NewService(secret string, payments PaymentRecorder, events EventStore, log *logger.Logger) *Service {
	return &Service{secret: secret, payments: payments, events: events, log: log, now: time.Now}
}

// HandleStripeEvent verifies the signature on payload and applies the event.
// Errors of kind Validation, Conflict or NotFound will not succeed on retry.
func (s *Service) HandleStripeEvent(ctx context.Context, payload []byte, signature string) (Outcome, error) {
	event, err := stripewebhook.ConstructEventWithOptions(payload, signature, s.secret, stripewebhook.ConstructEventOptions{
		Tolerance:                signatureTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return "", apperr.Wrap(apperr.KindBadRequest, ErrInvalidSignature.Error(), fmt.Errorf("%w: %v", ErrInvalidSignature, err))
	}

	log := s.log.WithContext(ctx)
	eventType := string(event.Type)
	if eventType != eventCheckoutCompleted && eventType != eventAsyncPaymentSucceeded {
		log.Debug("ignoring stripe event", "eventId", event.ID, "type", eventType)
		return OutcomeIgnored, nil
	}

	if s.events != nil {
		seen, err := s.events.HasProcessed(ctx, event.ID)
		if err != nil {
			return "", err
		}
		if seen {
			log.Info("stripe event already processed", "eventId", event.ID)
			return OutcomeDuplicate, nil
		}
	}

	if event.Data == nil {
		return "", apperr.Validation("event carries no data")
	}
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return "", apperr.Wrap(apperr.KindValidation, "event data is not a checkout session", err)
	}
	if string(session.PaymentStatus) != checkoutPaymentStatusPaid {
		log.Info("checkout completed without payment, waiting", "eventId", event.ID, "sessionId", session.ID, "paymentStatus", string(session.PaymentStatus))
		return OutcomeIgnored, nil
	}

	ref := session.Metadata[quoteIDMetadataKey]
	if ref == "" {
		ref = session.ClientReferenceID
	}
	quoteID, err := uuid.Parse(ref)
	if err != nil {
		return "", apperr.Validation("checkout session has no quote reference").
			WithDetails(map[string]string{"sessionId": session.ID})
	}

	ctx = context.WithValue(ctx, logger.QuoteIDKey, quoteID.String())
	if err := s.payments.MarkPaid(ctx, quoteID, session.ID); err != nil {
		return "", err
	}

	if s.events != nil {
		if err := s.events.RecordProcessed(ctx, event.ID, eventType, quoteID.String(), s.now().UTC()); err != nil {
			s.log.WithContext(ctx).Warn("failed to record processed stripe event", "eventId", event.ID, "error", err)
		}
	}
	return OutcomeProcessed, nil
}

// isPermanent reports whether redelivering the event cannot help.
func isPermanent(err error) bool {
	return apperr.Is(err, apperr.KindValidation) || apperr.Is(err, apperr.KindConflict) || apperr.Is(err, apperr.KindNotFound)
}
