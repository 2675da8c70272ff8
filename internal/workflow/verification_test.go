package workflow

import (
	"strings"
	"testing"
)

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestApplyVerification(t *testing.T) {
	tests := []struct {
		name         string
		response     string
		wantReplaced bool
	}{
		{name: "short confirmation", response: "Looks accurate."},
		{name: "exactly threshold", response: words(200)},
		{name: "one over threshold", response: words(201), wantReplaced: true},
		{name: "long correction with newlines", response: strings.ReplaceAll(words(250), " ", "\n"), wantReplaced: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enhanced, message := ApplyVerification("ENHANCED", tt.response)
			if tt.wantReplaced {
				if enhanced != tt.response {
					t.Fatalf("expected enhanced resume replaced by response")
				}
				if message != VerifiedMessage {
					t.Fatalf("unexpected message %q", message)
				}
				return
			}
			if enhanced != "ENHANCED" {
				t.Fatalf("expected enhanced unchanged, got %q", enhanced)
			}
			if message != tt.response {
				t.Fatalf("expected response as message, got %q", message)
			}
		})
	}
}
