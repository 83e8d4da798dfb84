package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

func TestFormatQuoteNumber(t *testing.T) {
	at := time.Date(2025, time.January, 14, 9, 30, 0, 0, time.UTC)

	if got := FormatQuoteNumber(at, 1); got != "Q-202501-0001" {
		t.Fatalf("expected Q-202501-0001, got %s", got)
	}
	if got := FormatQuoteNumber(at, 12345); got != "Q-202501-12345" {
		t.Fatalf("expected counter to widen past four digits, got %s", got)
	}

	december := time.Date(2024, time.December, 31, 23, 0, 0, 0, time.UTC)
	if got := FormatQuoteNumber(december, 87); got != "Q-202412-0087" {
		t.Fatalf("expected Q-202412-0087, got %s", got)
	}
}

// counterDB mimics the quote_counters upsert: one counter per period.
type counterDB struct {
	counters map[string]int
	err      error
}

type counterRow struct {
	n   int
	err error
}

func (r counterRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*int) = r.n
	return nil
}

func (d *counterDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	if !strings.Contains(sql, "quote_counters") {
		return counterRow{err: errors.New("unexpected query")}
	}
	if d.err != nil {
		return counterRow{err: d.err}
	}
	period := args[0].(string)
	d.counters[period]++
	return counterRow{n: d.counters[period]}
}

func TestNextQuoteNumber_CountsPerMonth(t *testing.T) {
	db := &counterDB{counters: map[string]int{}}
	ctx := context.Background()
	jan := time.Date(2025, time.January, 3, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)

	want := []struct {
		at   time.Time
		want string
	}{
		{jan, "Q-202501-0001"},
		{jan.Add(48 * time.Hour), "Q-202501-0002"},
		{feb, "Q-202502-0001"},
		{jan, "Q-202501-0003"},
	}
	for i, tc := range want {
		got, err := nextQuoteNumber(ctx, db, tc.at)
		if err != nil {
			t.Fatalf("step %d: unexpected error: %v", i, err)
		}
		if got != tc.want {
			t.Fatalf("step %d: expected %s, got %s", i, tc.want, got)
		}
	}
}

func TestNextQuoteNumber_WrapsDatabaseError(t *testing.T) {
	db := &counterDB{counters: map[string]int{}, err: errors.New("connection refused")}

	_, err := nextQuoteNumber(context.Background(), db, time.Now())
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected wrapped database error, got %v", err)
	}
}
