package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventsite_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ── Domain Models ─────────────────────────────────────────────────────────────

// Quote is the database model for a quote header
type Quote struct {
	ID               uuid.UUID       `db:"id"`
	QuoteNumber      string          `db:"quote_number"`
	CustomerID       uuid.UUID       `db:"customer_id"`
	Status           string          `db:"status"`
	EventType        *string         `db:"event_type"`
	EventDate        *time.Time      `db:"event_date"`
	GuestCount       *int            `db:"guest_count"`
	Venue            *string         `db:"venue"`
	Amount           decimal.Decimal `db:"amount"`
	TaxRatePct       decimal.Decimal `db:"tax_rate_pct"`
	GratuityRatePct  decimal.Decimal `db:"gratuity_rate_pct"`
	TaxAmount        decimal.Decimal `db:"tax_amount"`
	GratuityAmount   decimal.Decimal `db:"gratuity_amount"`
	Total            decimal.Decimal `db:"total"`
	DepositType      string          `db:"deposit_type"`
	DepositValue     decimal.Decimal `db:"deposit_value"`
	DepositAmount    decimal.Decimal `db:"deposit_amount"`
	BalanceDue       decimal.Decimal `db:"balance_due"`
	ValidUntil       *time.Time      `db:"valid_until"`
	Notes            *string         `db:"notes"`
	Terms            *string         `db:"terms"`
	SentAt           *time.Time      `db:"sent_at"`
	AcceptedAt       *time.Time      `db:"accepted_at"`
	PaidAt           *time.Time      `db:"paid_at"`
	PaymentSessionID *string         `db:"payment_session_id"`
	PaymentLink      *string         `db:"payment_link"`
	PaymentMode      *string         `db:"payment_mode"`
	PDFURL           *string         `db:"pdf_url"`
	PDFFileKey       *string         `db:"pdf_file_key"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

// QuoteItem is the database model for a quote line item
type QuoteItem struct {
	ID          uuid.UUID       `db:"id"`
	QuoteID     uuid.UUID       `db:"quote_id"`
	Description string          `db:"description"`
	Quantity    int             `db:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price"`
	SortOrder   int             `db:"sort_order"`
}

// Customer is the read-only customer record a quote is addressed to
type Customer struct {
	ID    uuid.UUID `db:"id"`
	Name  string    `db:"name"`
	Email string    `db:"email"`
	Phone *string   `db:"phone"`
}

// Attempt statuses
const (
	AttemptSent   = "SENT"
	AttemptFailed = "FAILED"
)

// NotificationAttempt is one append-only audit row per provider attempt
type NotificationAttempt struct {
	ID                 int64     `db:"id"`
	QuoteID            uuid.UUID `db:"quote_id"`
	Recipient          string    `db:"recipient"`
	Provider           string    `db:"provider"`
	Attempt            int       `db:"attempt"`
	Status             string    `db:"status"`
	Error              *string   `db:"error"`
	PDFGenerated       bool      `db:"pdf_generated"`
	PaymentLinkCreated bool      `db:"payment_link_created"`
	CreatedAt          time.Time `db:"created_at"`
}

// SendOutcome is everything a successful send writes, applied as one update.
// Nil pointers leave the stored value untouched.
type SendOutcome struct {
	QuoteID          uuid.UUID
	SentAt           time.Time
	Amount           decimal.Decimal
	TaxAmount        decimal.Decimal
	GratuityAmount   decimal.Decimal
	Total            decimal.Decimal
	DepositAmount    decimal.Decimal
	BalanceDue       decimal.Decimal
	PaymentSessionID *string
	PaymentLink      *string
	PaymentMode      *string
	PDFURL           *string
	PDFFileKey       *string
	Attempts         []NotificationAttempt
}

// ── Repository ────────────────────────────────────────────────────────────────

const quoteNotFoundMsg = "quote not found"

// Repository provides database operations for quotes
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new quotes repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FormatQuoteNumber renders the human-readable number for the n-th quote of
// the month containing at: Q-YYYYMM-NNNN.
func FormatQuoteNumber(at time.Time, n int) string {
	return fmt.Sprintf("Q-%s-%04d", at.Format("200601"), n)
}

// rowQuerier is the single-row subset of pgxpool.Pool and pgx.Tx.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NextQuoteNumber atomically allocates the next number in at's calendar month.
func (r *Repository) NextQuoteNumber(ctx context.Context, at time.Time) (string, error) {
	return nextQuoteNumber(ctx, r.pool, at)
}

func nextQuoteNumber(ctx context.Context, db rowQuerier, at time.Time) (string, error) {
	var nextNum int
	query := `
		INSERT INTO quote_counters (period, last_number)
		VALUES ($1, 1)
		ON CONFLICT (period) DO UPDATE SET last_number = quote_counters.last_number + 1
		RETURNING last_number`

	if err := db.QueryRow(ctx, query, at.Format("200601")).Scan(&nextNum); err != nil {
		return "", fmt.Errorf("failed to generate quote number: %w", err)
	}

	return FormatQuoteNumber(at, nextNum), nil
}

const quoteColumns = `
	id, quote_number, customer_id, status, event_type, event_date, guest_count, venue,
	amount, tax_rate_pct, gratuity_rate_pct, tax_amount, gratuity_amount, total,
	deposit_type, deposit_value, deposit_amount, balance_due,
	valid_until, notes, terms, sent_at, accepted_at, paid_at,
	payment_session_id, payment_link, payment_mode, pdf_url, pdf_file_key,
	created_at, updated_at`

func scanQuote(row pgx.Row) (*Quote, error) {
	var q Quote
	err := row.Scan(
		&q.ID, &q.QuoteNumber, &q.CustomerID, &q.Status, &q.EventType, &q.EventDate, &q.GuestCount, &q.Venue,
		&q.Amount, &q.TaxRatePct, &q.GratuityRatePct, &q.TaxAmount, &q.GratuityAmount, &q.Total,
		&q.DepositType, &q.DepositValue, &q.DepositAmount, &q.BalanceDue,
		&q.ValidUntil, &q.Notes, &q.Terms, &q.SentAt, &q.AcceptedAt, &q.PaidAt,
		&q.PaymentSessionID, &q.PaymentLink, &q.PaymentMode, &q.PDFURL, &q.PDFFileKey,
		&q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// GetByID retrieves a quote by its ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Quote, error) {
	q, err := scanQuote(r.pool.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound(quoteNotFoundMsg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return q, nil
}

// GetItemsByQuoteID retrieves all line items for a quote in display order
func (r *Repository) GetItemsByQuoteID(ctx context.Context, quoteID uuid.UUID) ([]QuoteItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, quote_id, description, quantity, unit_price, sort_order
		FROM quote_line_items WHERE quote_id = $1
		ORDER BY sort_order ASC, id ASC`, quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quote items: %w", err)
	}
	defer rows.Close()

	var items []QuoteItem
	for rows.Next() {
		var it QuoteItem
		if err := rows.Scan(&it.ID, &it.QuoteID, &it.Description, &it.Quantity, &it.UnitPrice, &it.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan quote item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetCustomer retrieves the customer a quote is addressed to
func (r *Repository) GetCustomer(ctx context.Context, id uuid.UUID) (*Customer, error) {
	var c Customer
	err := r.pool.QueryRow(ctx, `SELECT id, name, email, phone FROM customers WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Email, &c.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("customer not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &c, nil
}

// MarkSent applies a successful send: one UPDATE of the quote row plus the
// audit rows, committed together. The update only matches a quote that is
// still DRAFT or SENT.
func (r *Repository) MarkSent(ctx context.Context, out SendOutcome) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		UPDATE quotes SET
			status = 'SENT', sent_at = $2,
			amount = $3, tax_amount = $4, gratuity_amount = $5, total = $6,
			deposit_amount = $7, balance_due = $8,
			payment_session_id = COALESCE($9, payment_session_id),
			payment_link = COALESCE($10, payment_link),
			payment_mode = COALESCE($11, payment_mode),
			pdf_url = COALESCE($12, pdf_url),
			pdf_file_key = COALESCE($13, pdf_file_key),
			updated_at = $2
		WHERE id = $1 AND status IN ('DRAFT', 'SENT')`,
		out.QuoteID, out.SentAt,
		out.Amount, out.TaxAmount, out.GratuityAmount, out.Total,
		out.DepositAmount, out.BalanceDue,
		out.PaymentSessionID, out.PaymentLink, out.PaymentMode, out.PDFURL, out.PDFFileKey,
	)
	if err != nil {
		return fmt.Errorf("failed to mark quote sent: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.Conflict("quote is no longer sendable")
	}

	if err := insertAttempts(ctx, tx, out.Attempts); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// AppendNotificationAttempts records attempts without touching the quote row.
func (r *Repository) AppendNotificationAttempts(ctx context.Context, attempts []NotificationAttempt) error {
	if len(attempts) == 0 {
		return nil
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertAttempts(ctx, tx, attempts); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertAttempts(ctx context.Context, tx pgx.Tx, attempts []NotificationAttempt) error {
	query := `
		INSERT INTO notification_attempts (
			quote_id, recipient, provider, attempt, status, error,
			pdf_generated, payment_link_created, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	for _, a := range attempts {
		if _, err := tx.Exec(ctx, query,
			a.QuoteID, a.Recipient, a.Provider, a.Attempt, a.Status, a.Error,
			a.PDFGenerated, a.PaymentLinkCreated, a.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert notification attempt: %w", err)
		}
	}
	return nil
}

// ListNotificationAttempts returns the audit trail of a quote, oldest first
func (r *Repository) ListNotificationAttempts(ctx context.Context, quoteID uuid.UUID) ([]NotificationAttempt, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, quote_id, recipient, provider, attempt, status, error,
			pdf_generated, payment_link_created, created_at
		FROM notification_attempts WHERE quote_id = $1
		ORDER BY created_at ASC, id ASC`, quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notification attempts: %w", err)
	}
	defer rows.Close()

	var attempts []NotificationAttempt
	for rows.Next() {
		var a NotificationAttempt
		if err := rows.Scan(&a.ID, &a.QuoteID, &a.Recipient, &a.Provider, &a.Attempt, &a.Status, &a.Error,
			&a.PDFGenerated, &a.PaymentLinkCreated, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// UpdateStatus moves a quote from one status to another, stamping the
// matching timestamp. It fails with a conflict if the quote is no longer in
// status from.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string, at time.Time) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE quotes SET
			status = $3,
			accepted_at = CASE WHEN $3 = 'ACCEPTED' THEN $4 ELSE accepted_at END,
			paid_at = CASE WHEN $3 = 'PAID' THEN $4 ELSE paid_at END,
			updated_at = $4
		WHERE id = $1 AND status = $2`, id, from, to, at)
	if err != nil {
		return fmt.Errorf("failed to update quote status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.Conflict("quote status changed concurrently")
	}
	return nil
}

// MarkPaid records a completed payment. A SENT quote is accepted and paid in
// the same statement.
func (r *Repository) MarkPaid(ctx context.Context, id uuid.UUID, sessionID string, at time.Time) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE quotes SET
			status = 'PAID',
			accepted_at = COALESCE(accepted_at, $3),
			paid_at = $3,
			payment_session_id = COALESCE(payment_session_id, $2),
			updated_at = $3
		WHERE id = $1 AND status IN ('SENT', 'ACCEPTED')`, id, sessionID, at)
	if err != nil {
		return fmt.Errorf("failed to mark quote paid: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.Conflict("quote cannot be marked paid from its current status")
	}
	return nil
}

// ExpireOverdue moves SENT quotes whose valid-until date is before asOf to
// EXPIRED and returns how many were changed.
func (r *Repository) ExpireOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE quotes SET status = 'EXPIRED', updated_at = $2
		WHERE status = 'SENT' AND valid_until IS NOT NULL AND valid_until < $1::date`,
		asOf.Format("2006-01-02"), asOf)
	if err != nil {
		return 0, fmt.Errorf("failed to expire quotes: %w", err)
	}
	return result.RowsAffected(), nil
}
