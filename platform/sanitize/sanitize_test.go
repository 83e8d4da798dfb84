package sanitize

import "testing"

func TestText_KeepsLineBreaks(t *testing.T) {
	got := Text("<p>Deposit is <b>non-refundable</b>.</p><p>Balance due on event day.</p>")
	want := "Deposit is non-refundable.\nBalance due on event day."
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestStripHTML_EncodedTags(t *testing.T) {
	if got := StripHTML("&lt;script&gt;alert(1)&lt;/script&gt;ok"); got != "alert(1)ok" {
		t.Fatalf("expected encoded tags to be stripped, got %q", got)
	}
}
