package redact

import "testing"

func TestTextDisabledPassesThrough(t *testing.T) {
	SetEnabled(false)
	in := "call me at +62 812-3456-7890"
	if got := Text(in); got != in {
		t.Fatalf("expected passthrough, got %q", got)
	}
}

func TestTextMasksEmailAndPhone(t *testing.T) {
	SetEnabled(true)
	defer SetEnabled(false)

	got := Text("mail jane@example.com or +62 812-3456-7890")
	if got != "mail [REDACTED_EMAIL] or [REDACTED_PHONE]" {
		t.Fatalf("unexpected redaction: %q", got)
	}
}

func TestSecret(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"abcd", "****"},
		{"sk-1234567890", "*********7890"},
	}
	for _, tc := range cases {
		if got := Secret(tc.in); got != tc.want {
			t.Fatalf("Secret(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
