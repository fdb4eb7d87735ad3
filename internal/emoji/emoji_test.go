package emoji

import "testing"

func TestGetEmojiFallback(t *testing.T) {
	defer SetEmojiDisabled(false)

	SetEmojiDisabled(false)
	if got := GetEmoji("success"); got != "✅" {
		t.Errorf("Expected emoji, got %q", got)
	}

	SetEmojiDisabled(true)
	if !IsEmojiDisabled() {
		t.Fatal("Expected emoji disabled")
	}
	if got := GetEmoji("success"); got != "[OK]" {
		t.Errorf("Expected fallback, got %q", got)
	}
	if got := GetEmoji("nope"); got != "[?]" {
		t.Errorf("Expected unknown marker, got %q", got)
	}
}

func TestForKind(t *testing.T) {
	SetEmojiDisabled(true)
	defer SetEmojiDisabled(false)

	tests := map[string]string{
		"success": "[OK]",
		"error":   "[ERR]",
		"info":    "[INF]",
		"other":   "[INF]",
	}
	for kind, want := range tests {
		if got := ForKind(kind); got != want {
			t.Errorf("ForKind(%q): expected %q, got %q", kind, want, got)
		}
	}
}
