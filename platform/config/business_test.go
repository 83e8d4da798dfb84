package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadBusinessProfile_ReadsYAMLAndAppliesEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "business.yaml")
	content := []byte(`name: Smoke & Sage
address:
  - 12 Market Street
  - Austin, TX 78701
phone: "+1 512 555 0100"
email: events@smokeandsage.test
logoPath: /srv/branding/logo.png
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	t.Setenv("BUSINESS_EMAIL", "quotes@smokeandsage.test")

	profile, err := LoadBusinessProfile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if profile.Name != "Smoke & Sage" {
		t.Fatalf("expected name from yaml, got %q", profile.Name)
	}
	if len(profile.AddressLines) != 2 || profile.AddressLines[1] != "Austin, TX 78701" {
		t.Fatalf("unexpected address lines: %#v", profile.AddressLines)
	}
	if profile.Email != "quotes@smokeandsage.test" {
		t.Fatalf("expected env override for email, got %q", profile.Email)
	}
	if profile.PhoneRegion != "US" {
		t.Fatalf("expected default phone region US, got %q", profile.PhoneRegion)
	}
	if profile.DefaultTerms == "" {
		t.Fatal("expected default terms to be filled in")
	}
}

func TestLoadBusinessProfile_MissingFileFails(t *testing.T) {
	if _, err := LoadBusinessProfile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing profile file")
	}
}
