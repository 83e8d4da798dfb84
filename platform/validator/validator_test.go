package validator

import "testing"

func TestQuoteNumberRule(t *testing.T) {
	val := New()

	if err := val.Var("Q-202501-0001", "quote_number"); err != nil {
		t.Fatalf("expected valid quote number, got %v", err)
	}
	for _, bad := range []string{"OFF-2025-0001", "Q-2025-0001", "Q-202501-01", ""} {
		if err := val.Var(bad, "quote_number"); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestEmailRule(t *testing.T) {
	val := New()
	if err := val.Var("guest@example.com", "required,email"); err != nil {
		t.Fatalf("expected valid email, got %v", err)
	}
	if err := val.Var("not-an-email", "required,email"); err == nil {
		t.Fatal("expected malformed email to be rejected")
	}
}
