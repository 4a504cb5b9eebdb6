// Package redact scrubs personally identifiable information from message
// content before it reaches a prompt. The orchestrator consults
// SummarizerConfig.EnablePIIRedaction to decide whether to apply it.
package redact

import (
	"regexp"

	"github.com/summarion/summarion/internal/core"
)

// Redactor removes sensitive content from messages. Implementations must
// not mutate the input slice; redaction produces new messages.
type Redactor interface {
	Redact(messages []core.Message) []core.Message
}

// RegexRedactor masks common PII patterns (email addresses, phone numbers,
// credit-card-like digit runs) with fixed placeholders.
type RegexRedactor struct {
	rules []rule
}

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// NewRegexRedactor creates a redactor with the built-in rules.
func NewRegexRedactor() *RegexRedactor {
	return &RegexRedactor{
		rules: []rule{
			{
				pattern:     regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`),
				replacement: "[email]",
			},
			{
				pattern:     regexp.MustCompile(`\b(?:\d[ \-]?){13,16}\b`),
				replacement: "[card]",
			},
			{
				pattern:     regexp.MustCompile(`\+?\d{1,3}[ \-.]?\(?\d{2,4}\)?(?:[ \-.]?\d{2,4}){2,3}`),
				replacement: "[phone]",
			},
		},
	}
}

// Redact returns a copy of the messages with PII masked. Message ids,
// roles, and timestamps are left untouched so attribution still works.
func (r *RegexRedactor) Redact(messages []core.Message) []core.Message {
	if len(messages) == 0 {
		return messages
	}

	out := make([]core.Message, len(messages))
	for i, msg := range messages {
		content := msg.Content
		for _, rule := range r.rules {
			content = rule.pattern.ReplaceAllString(content, rule.replacement)
		}
		msg.Content = content
		out[i] = msg
	}
	return out
}
