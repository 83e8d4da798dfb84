package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"eventsite_backend/internal/email"
	"eventsite_backend/internal/payments"
	"eventsite_backend/internal/pdf"
	"eventsite_backend/internal/quotes/pricing"
	"eventsite_backend/internal/quotes/transport"
	"eventsite_backend/platform/apperr"
	"eventsite_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UpdateStatus applies a manual accept, reject or expire.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, to transport.QuoteStatus) (*transport.QuoteStatusResponse, error) {
	switch to {
	case transport.QuoteStatusAccepted, transport.QuoteStatusRejected, transport.QuoteStatusExpired:
	default:
		return nil, apperr.Validation(fmt.Sprintf("status %s cannot be set manually", to))
	}

	quote, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := transport.QuoteStatus(quote.Status)
	if !from.CanTransitionTo(to) {
		return nil, apperr.Conflict(fmt.Sprintf("quote cannot move from %s to %s", from, to))
	}

	if err := s.repo.UpdateStatus(ctx, id, from.String(), to.String(), s.now().UTC()); err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Info("quote status changed", "quoteId", id.String(), "from", from.String(), "to", to.String())
	return &transport.QuoteStatusResponse{ID: id, Status: to}, nil
}

// MarkPaid records a completed checkout for a quote and emails a receipt.
// The session is verified with the payment provider first. Repeated calls
// for an already paid quote succeed without side effects.
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID, sessionID string) error {
	ctx = context.WithValue(ctx, logger.QuoteIDKey, id.String())
	log := s.log.WithContext(ctx)

	bundle, err := s.loadQuote(ctx, id)
	if err != nil {
		return err
	}
	status := transport.QuoteStatus(bundle.quote.Status)
	if status == transport.QuoteStatusPaid {
		log.Info("quote already paid, ignoring duplicate payment event", "sessionId", sessionID)
		return nil
	}
	if status != transport.QuoteStatusSent && status != transport.QuoteStatusAccepted {
		return apperr.Conflict(fmt.Sprintf("quote in status %s cannot be paid", status))
	}

	var amountPaid decimal.Decimal
	if s.payments != nil {
		session, err := s.payments.RetrieveSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if session.PaymentStatus != payments.PaymentStatusPaid {
			return apperr.Validation("checkout session is not paid")
		}
		if ref := session.Metadata["quoteId"]; ref != "" && ref != id.String() {
			return apperr.Validation("checkout session belongs to another quote")
		}
		amountPaid = pricing.FromMinorUnits(session.AmountTotal)
	}

	paidAt := s.now().UTC()
	if err := s.repo.MarkPaid(ctx, id, sessionID, paidAt); err != nil {
		return err
	}
	log.Info("quote paid", "quoteNumber", bundle.quote.QuoteNumber, "sessionId", sessionID)

	s.sendReceipt(ctx, bundle, amountPaid, paidAt)
	return nil
}

// sendReceipt emails the payment_received notice. Failures are logged only:
// the payment is already recorded.
func (s *Service) sendReceipt(ctx context.Context, b *quoteBundle, amountPaid decimal.Decimal, paidAt time.Time) {
	log := s.log.WithContext(ctx)
	q := b.quote

	data := email.NewPaymentReceivedData(s.cfg.Business.Name, s.footerLines())
	data.CustomerName = strings.TrimSpace(b.customer.Name)
	data.QuoteNumber = q.QuoteNumber
	data.PaidAt = paidAt.Format("January 2, 2006")
	if amountPaid.IsPositive() {
		data.AmountPaid = pdf.FormatCurrency(amountPaid)
		if remaining := q.Total.Sub(amountPaid); remaining.IsPositive() {
			data.BalanceDue = pdf.FormatCurrency(remaining)
		}
	} else {
		data.AmountPaid = pdf.FormatCurrency(q.Total)
	}

	rendered, err := s.templates.Render(email.TemplatePaymentReceived, data)
	if err != nil {
		log.Error("payment receipt could not be composed", "error", err)
		return
	}

	work := context.WithoutCancel(ctx)
	result := s.notifier.Dispatch(work, email.Message{
		To:       strings.TrimSpace(b.customer.Email),
		CC:       s.cfg.QuoteCCList,
		Subject:  rendered.Subject,
		HTMLBody: rendered.HTMLBody,
		TextBody: rendered.TextBody,
	})
	if err := s.repo.AppendNotificationAttempts(work, s.attemptRows(q.ID, b.customer.Email, result, false, true)); err != nil {
		log.Error("failed to record receipt attempts", "error", err)
	}
	if !result.Sent {
		log.Warn("payment receipt not delivered", "quoteNumber", q.QuoteNumber)
	}
}

// ExpireOverdue expires every SENT quote whose valid-until date has passed.
func (s *Service) ExpireOverdue(ctx context.Context, asOf time.Time) (transport.ExpireResult, error) {
	n, err := s.repo.ExpireOverdue(ctx, asOf)
	if err != nil {
		return transport.ExpireResult{}, err
	}
	s.log.Info("expired overdue quotes", "count", n, "asOf", asOf.Format(time.DateOnly))
	return transport.ExpireResult{Expired: int(n), AsOf: asOf}, nil
}
