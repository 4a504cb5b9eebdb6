package redact

import (
	"strings"
	"testing"

	"github.com/summarion/summarion/internal/core"
)

func TestRegexRedactor(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantAbsent  string
		wantPresent string
	}{
		{
			name:        "email masked",
			content:     "reach me at jane.doe@example.com tomorrow",
			wantAbsent:  "jane.doe@example.com",
			wantPresent: "[email]",
		},
		{
			name:        "card number masked",
			content:     "card 4111 1111 1111 1111 please",
			wantAbsent:  "4111 1111 1111 1111",
			wantPresent: "[card]",
		},
		{
			name:        "phone masked",
			content:     "call +1 555 123 4567 later",
			wantAbsent:  "555 123 4567",
			wantPresent: "[phone]",
		},
		{
			name:        "clean text untouched",
			content:     "no sensitive data here",
			wantPresent: "no sensitive data here",
		},
	}

	redactor := NewRegexRedactor()
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			messages := []core.Message{{ID: "m1", Role: "user", Content: test.content}}
			redacted := redactor.Redact(messages)

			if len(redacted) != 1 {
				t.Fatalf("Redact() returned %d messages, want 1", len(redacted))
			}
			if test.wantAbsent != "" && strings.Contains(redacted[0].Content, test.wantAbsent) {
				t.Errorf("Redact() left %q in %q", test.wantAbsent, redacted[0].Content)
			}
			if !strings.Contains(redacted[0].Content, test.wantPresent) {
				t.Errorf("Redact() = %q, want to contain %q", redacted[0].Content, test.wantPresent)
			}
			if messages[0].Content != test.content {
				t.Error("Redact() mutated the input slice")
			}
			if redacted[0].ID != "m1" || redacted[0].Role != "user" {
				t.Error("Redact() changed message identity fields")
			}
		})
	}
}
