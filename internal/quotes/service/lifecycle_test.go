package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"eventsite_backend/internal/notification"
	"eventsite_backend/internal/payments"
	"eventsite_backend/internal/quotes/transport"
	"eventsite_backend/platform/apperr"
)

func TestUpdateStatus_Transitions(t *testing.T) {
	cases := []struct {
		from    string
		to      transport.QuoteStatus
		allowed bool
	}{
		{"SENT", transport.QuoteStatusAccepted, true},
		{"SENT", transport.QuoteStatusRejected, true},
		{"SENT", transport.QuoteStatusExpired, true},
		{"DRAFT", transport.QuoteStatusAccepted, false},
		{"PAID", transport.QuoteStatusRejected, false},
		{"EXPIRED", transport.QuoteStatusAccepted, false},
		{"ACCEPTED", transport.QuoteStatusRejected, false},
	}
	for _, tc := range cases {
		t.Run(tc.from+"->"+tc.to.String(), func(t *testing.T) {
			h := newHarness(t)
			h.store.quote.Status = tc.from

			resp, err := h.svc.UpdateStatus(context.Background(), h.store.quote.ID, tc.to)
			if tc.allowed {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if resp.Status != tc.to || h.store.quote.Status != tc.to.String() {
					t.Fatalf("expected status %s, got resp=%s stored=%s", tc.to, resp.Status, h.store.quote.Status)
				}
				return
			}
			if !apperr.Is(err, apperr.KindConflict) {
				t.Fatalf("expected conflict, got %v", err)
			}
			if h.store.quote.Status != tc.from {
				t.Fatalf("status must not change, got %s", h.store.quote.Status)
			}
		})
	}
}

func TestUpdateStatus_RejectsSystemStatuses(t *testing.T) {
	for _, to := range []transport.QuoteStatus{transport.QuoteStatusSent, transport.QuoteStatusPaid, transport.QuoteStatusDraft} {
		h := newHarness(t)
		h.store.quote.Status = "SENT"
		if _, err := h.svc.UpdateStatus(context.Background(), h.store.quote.ID, to); !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("expected validation error for %s, got %v", to, err)
		}
	}
}

func paidSession(quoteID string, amount int64) payments.ProviderSession {
	return payments.ProviderSession{
		ID:            "cs_test_1",
		PaymentStatus: payments.PaymentStatusPaid,
		AmountTotal:   amount,
		Metadata:      map[string]string{"quoteId": quoteID},
	}
}

func TestMarkPaid_RecordsPaymentAndSendsReceipt(t *testing.T) {
	h := newHarness(t)
	h.store.quote.Status = "SENT"
	h.issuer.session = paidSession(h.store.quote.ID.String(), 12650)

	if err := h.svc.MarkPaid(context.Background(), h.store.quote.ID, "cs_test_1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.store.quote.Status != "PAID" || h.store.paidWith != "cs_test_1" {
		t.Fatalf("expected quote paid with session, got status=%s session=%q", h.store.quote.Status, h.store.paidWith)
	}
	if h.store.quote.PaidAt == nil || !h.store.quote.PaidAt.Equal(testNow) {
		t.Fatalf("expected paid at %v, got %v", testNow, h.store.quote.PaidAt)
	}

	if len(h.notifier.msgs) != 1 {
		t.Fatalf("expected a receipt email, got %d", len(h.notifier.msgs))
	}
	receipt := h.notifier.msgs[0]
	if receipt.Subject != "Payment received for quote Q-202501-0001" {
		t.Fatalf("unexpected subject %q", receipt.Subject)
	}
	if !strings.Contains(receipt.TextBody, "payment of $126.50") || !strings.Contains(receipt.TextBody, "Remaining balance: $506.00") {
		t.Fatalf("unexpected receipt body:\n%s", receipt.TextBody)
	}
	if len(h.store.appended) != 1 {
		t.Fatalf("expected receipt attempt recorded, got %d", len(h.store.appended))
	}
}

func TestMarkPaid_DuplicateEventIsNoop(t *testing.T) {
	h := newHarness(t)
	h.store.quote.Status = "PAID"

	if err := h.svc.MarkPaid(context.Background(), h.store.quote.ID, "cs_test_1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.issuer.retrieve != 0 || len(h.notifier.msgs) != 0 {
		t.Fatal("a duplicate event must not call the provider or send email")
	}
}

func TestMarkPaid_RejectsUnpaidOrForeignSession(t *testing.T) {
	h := newHarness(t)
	h.store.quote.Status = "SENT"
	h.issuer.session = payments.ProviderSession{ID: "cs_test_1", PaymentStatus: "unpaid"}
	if err := h.svc.MarkPaid(context.Background(), h.store.quote.ID, "cs_test_1"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unpaid session, got %v", err)
	}

	h = newHarness(t)
	h.store.quote.Status = "ACCEPTED"
	h.issuer.session = paidSession("another-quote", 63250)
	if err := h.svc.MarkPaid(context.Background(), h.store.quote.ID, "cs_test_1"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for foreign session, got %v", err)
	}
	if h.store.quote.Status != "ACCEPTED" {
		t.Fatalf("status must not change, got %s", h.store.quote.Status)
	}
}

func TestMarkPaid_DraftIsConflict(t *testing.T) {
	h := newHarness(t)
	if err := h.svc.MarkPaid(context.Background(), h.store.quote.ID, "cs_test_1"); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestMarkPaid_ReceiptFailureIsNotAnError(t *testing.T) {
	h := newHarness(t)
	h.store.quote.Status = "SENT"
	h.issuer.session = paidSession(h.store.quote.ID.String(), 63250)
	h.notifier.result = notification.Result{}

	if err := h.svc.MarkPaid(context.Background(), h.store.quote.ID, "cs_test_1"); err != nil {
		t.Fatalf("receipt failure must not fail the payment: %v", err)
	}
	if h.store.quote.Status != "PAID" {
		t.Fatalf("expected PAID, got %s", h.store.quote.Status)
	}
}

func TestExpireOverdue_ReportsCount(t *testing.T) {
	h := newHarness(t)
	h.store.expireCnt = 3
	asOf := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)

	res, err := h.svc.ExpireOverdue(context.Background(), asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Expired != 3 || !res.AsOf.Equal(asOf) {
		t.Fatalf("unexpected result: %+v", res)
	}
}
