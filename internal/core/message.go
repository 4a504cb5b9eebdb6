// Package core contains the value types shared by every component of the
// Summarion service: conversation messages, summary fragments, the
// SummaryResult envelope, and per-call configuration.
package core

import (
	"errors"
	"fmt"
)

// Message represents a single turn in a conversation. Messages are owned by
// the caller and never mutated by the framework.
type Message struct {
	// ID is the unique message identifier. Required.
	ID string `json:"id"`

	// Role is a free-form speaker label (user, assistant, system, ...).
	Role string `json:"role"`

	// Content is the message text. May be empty.
	Content string `json:"content"`

	// Timestamp is an optional ISO-8601 timestamp for when the message
	// was sent.
	Timestamp string `json:"timestamp,omitempty"`
}

// ErrEmptyMessageID indicates a message without an identifier.
var ErrEmptyMessageID = errors.New("message id must not be empty")

// Validate checks that the message satisfies the data model invariants.
func (m Message) Validate() error {
	if m.ID == "" {
		return ErrEmptyMessageID
	}
	return nil
}

// ValidateMessages validates a slice of messages and rejects duplicate ids.
// An empty slice is valid; a summarization over zero messages produces a
// degenerate but well-formed result.
func ValidateMessages(messages []Message) error {
	seen := make(map[string]struct{}, len(messages))
	for i, msg := range messages {
		if err := msg.Validate(); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
		if _, dup := seen[msg.ID]; dup {
			return fmt.Errorf("message %d: duplicate id %q", i, msg.ID)
		}
		seen[msg.ID] = struct{}{}
	}
	return nil
}

// MessageIDSet returns the set of ids present in the given messages.
// Modes use this to verify attribution during parsing.
func MessageIDSet(messages []Message) map[string]struct{} {
	ids := make(map[string]struct{}, len(messages))
	for _, msg := range messages {
		ids[msg.ID] = struct{}{}
	}
	return ids
}
