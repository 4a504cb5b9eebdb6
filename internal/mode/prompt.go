package mode

import (
	"fmt"
	"strings"

	"github.com/summarion/summarion/internal/core"
)

// renderTranscript renders messages as "[id] role: content" lines. The ids
// are what lets Parse attribute output back to source messages, so every
// prompt includes them.
func renderTranscript(messages []core.Message) string {
	if len(messages) == 0 {
		return "(the conversation is empty)"
	}

	var b strings.Builder
	for _, msg := range messages {
		role := msg.Role
		if role == "" {
			role = "unknown"
		}
		if msg.Timestamp != "" {
			fmt.Fprintf(&b, "[%s] (%s) %s: %s\n", msg.ID, msg.Timestamp, role, msg.Content)
		} else {
			fmt.Fprintf(&b, "[%s] %s: %s\n", msg.ID, role, msg.Content)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// citationRule is appended to every structured prompt so the model cites
// message ids in a form stripSources can recover.
const citationRule = "After each item, cite the contributing message ids in the form (sources: id1, id2)."

// priorContextBlock renders a prior summary for modes that fold hierarchical
// memory into their prompt.
func priorContextBlock(prior *core.SummaryResult) string {
	if prior == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("Prior summary of this conversation so far")
	if prior.Mode != "" {
		fmt.Fprintf(&b, " (produced by the %s mode)", prior.Mode)
	}
	b.WriteString(":\n")

	if prior.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", prior.Title)
	}
	if prior.Summary != "" {
		fmt.Fprintf(&b, "%s\n", prior.Summary)
	}
	for _, p := range prior.Points {
		fmt.Fprintf(&b, "- %s\n", p.Text)
	}
	for _, d := range prior.Decisions {
		fmt.Fprintf(&b, "- Decision: %s (%s)\n", d.Decision, d.Rationale)
	}
	for _, e := range prior.Timeline {
		fmt.Fprintf(&b, "- %s: %s\n", e.Timestamp, e.Event)
	}
	for _, t := range prior.Tasks {
		fmt.Fprintf(&b, "- Task: %s\n", t.Task)
	}
	return b.String()
}
