package validation

import (
	"os"
	"strings"
	"testing"
)

func TestMessageBody(t *testing.T) {
	body, err := MessageBody("  hello  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body != "hello" {
		t.Errorf("got %q, want %q", body, "hello")
	}

	if _, err := MessageBody("   "); err != ErrEmptyBody {
		t.Errorf("whitespace-only body: got %v, want ErrEmptyBody", err)
	}
	if _, err := MessageBody(""); err != ErrEmptyBody {
		t.Errorf("empty body: got %v, want ErrEmptyBody", err)
	}
}

func TestMessageBodyLimit(t *testing.T) {
	os.Setenv("MAX_MESSAGE_LENGTH", "10")
	defer os.Unsetenv("MAX_MESSAGE_LENGTH")

	body, err := MessageBody(strings.Repeat("a", 50))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(body) != 10 {
		t.Errorf("got len %d, want 10", len(body))
	}
}

func TestMaxMessageLengthDefaults(t *testing.T) {
	os.Setenv("MAX_MESSAGE_LENGTH", "not-a-number")
	defer os.Unsetenv("MAX_MESSAGE_LENGTH")
	if got := MaxMessageLength(); got != 4000 {
		t.Errorf("got %d, want 4000", got)
	}
}
