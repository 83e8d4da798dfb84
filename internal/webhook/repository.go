// Package webhook receives payment provider callbacks and records completed
// checkouts against their quotes.
package webhook

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository remembers processed provider events.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new webhook repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// HasProcessed reports whether eventID was already handled.
func (r *Repository) HasProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM payment_events WHERE event_id = $1)`, eventID,
	).Scan(&exists)
	return exists, err
}

// RecordProcessed stores eventID. Recording the same event twice is a no-op.
func (r *Repository) RecordProcessed(ctx context.Context, eventID, eventType, quoteID string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO payment_events (event_id, event_type, quote_id, processed_at)
		VALUES ($1, $2, NULLIF($3, '')::uuid, $4)
		ON CONFLICT (event_id) DO NOTHING`,
		eventID, eventType, quoteID, at,
	)
	return err
}
