package storage

import "testing"

func TestValidateContentType(t *testing.T) {
	for _, ct := range []string{"application/pdf", "image/PNG", "image/jpeg; charset=binary"} {
		if err := ValidateContentType(ct); err != nil {
			t.Fatalf("%s: unexpected error %v", ct, err)
		}
	}
	for _, ct := range []string{"text/html", "application/zip", ""} {
		if err := ValidateContentType(ct); err == nil {
			t.Fatalf("%s: expected rejection", ct)
		}
	}
}

func TestValidateFileSize(t *testing.T) {
	if err := validateFileSize(0, 1024); err == nil {
		t.Fatal("expected empty file to be rejected")
	}
	if err := validateFileSize(2048, 1024); err == nil {
		t.Fatal("expected oversized file to be rejected")
	}
	if err := validateFileSize(2048, 0); err != nil {
		t.Fatalf("expected no limit when max is unset, got %v", err)
	}
}

func TestObjectKey(t *testing.T) {
	cases := []struct {
		file    string
		folders []string
		want    string
	}{
		{file: "quote-Q-202501-0001.pdf", folders: []string{"quotes", "202501"}, want: "quotes/202501/quote-Q-202501-0001.pdf"},
		{file: "../../etc/passwd", folders: []string{"quotes"}, want: "quotes/passwd"},
		{file: "logo.png", folders: []string{"/branding/", "", ".."}, want: "branding/logo.png"},
	}
	for _, tc := range cases {
		if got := ObjectKey(tc.file, tc.folders...); got != tc.want {
			t.Fatalf("ObjectKey(%q, %v): expected %q, got %q", tc.file, tc.folders, tc.want, got)
		}
	}
}
