package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	if got := NormalizeE164("(650) 253-0000", "US"); got != "+16502530000" {
		t.Fatalf("expected +16502530000, got %q", got)
	}
	if got := NormalizeE164("  not a phone ", "US"); got != "not a phone" {
		t.Fatalf("expected trimmed input back, got %q", got)
	}
}

func TestDisplay_NationalForHomeRegion(t *testing.T) {
	if got := Display("+16502530000", "US"); got != "(650) 253-0000" {
		t.Fatalf("expected national format, got %q", got)
	}
	if got := Display("", "US"); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}
