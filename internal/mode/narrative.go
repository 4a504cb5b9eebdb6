package mode

import (
	"fmt"
	"strings"

	"github.com/summarion/summarion/internal/core"
)

// ModeNarrative is the mode name for freeform narrative summaries.
const ModeNarrative = "narrative"

// NarrativeMode produces a titled prose summary. It is context-aware: a
// prior summary at the configured memory level is folded into the prompt so
// the narrative stays continuous across calls.
type NarrativeMode struct{}

// NewNarrativeMode creates the narrative mode strategy.
func NewNarrativeMode() *NarrativeMode {
	return &NarrativeMode{}
}

func (m *NarrativeMode) ModeName() string    { return ModeNarrative }
func (m *NarrativeMode) ModeVersion() string { return DefaultModeVersion }

// Prompt asks for a title line followed by prose.
func (m *NarrativeMode) Prompt(messages []core.Message) string {
	var b strings.Builder
	b.WriteString("Write a concise narrative summary of the conversation below.\n")
	b.WriteString("Begin with a single line \"Title: <short title>\", then one or two paragraphs of prose.\n\n")
	b.WriteString("Conversation:\n")
	b.WriteString(renderTranscript(messages))
	return b.String()
}

// PromptWithContext continues a prior narrative instead of starting over.
func (m *NarrativeMode) PromptWithContext(prior *core.SummaryResult, messages []core.Message) string {
	block := priorContextBlock(prior)
	if block == "" {
		return m.Prompt(messages)
	}
	return block + "\nContinue this summary, incorporating the new conversation below.\n\n" + m.Prompt(messages)
}

// Parse takes an optional title line and treats the rest as the narrative.
// Any nonempty prose is a valid narrative, so this mode never needs the
// structured fallback.
func (m *NarrativeMode) Parse(output string, _ []core.Message) (*core.SummaryResult, error) {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyOutput, m.ModeName())
	}

	result := newResult(m, 0)
	if first, rest, found := strings.Cut(trimmed, "\n"); found || strings.HasPrefix(first, "Title:") {
		if after, ok := strings.CutPrefix(strings.TrimSpace(first), "Title:"); ok {
			result.Title = strings.TrimSpace(after)
			trimmed = strings.TrimSpace(rest)
		}
	}
	result.Summary = trimmed
	return result, nil
}
