package mode

import (
	"fmt"
	"strings"

	"github.com/summarion/summarion/internal/core"
)

// ModeKeyDecisions is the mode name for decision-log summaries.
const ModeKeyDecisions = "key_decisions"

// KeyDecisionsMode extracts the decisions a conversation arrived at,
// together with their rationale, owner, and date.
type KeyDecisionsMode struct{}

// NewKeyDecisionsMode creates the key-decisions mode strategy.
func NewKeyDecisionsMode() *KeyDecisionsMode {
	return &KeyDecisionsMode{}
}

func (m *KeyDecisionsMode) ModeName() string    { return ModeKeyDecisions }
func (m *KeyDecisionsMode) ModeVersion() string { return DefaultModeVersion }

// Prompt asks for labeled decision blocks.
func (m *KeyDecisionsMode) Prompt(messages []core.Message) string {
	var b strings.Builder
	b.WriteString("List every decision reached in the conversation below.\n")
	b.WriteString("For each decision write a block of lines:\n")
	b.WriteString("Decision: <what was decided>\n")
	b.WriteString("Rationale: <why>\n")
	b.WriteString("Owner: <who, if stated>\n")
	b.WriteString("Date: <when, if stated>\n")
	b.WriteString("Sources: <contributing message ids>\n\n")
	b.WriteString("Conversation:\n")
	b.WriteString(renderTranscript(messages))
	return b.String()
}

// Parse recovers decision blocks from labeled output. It tolerates all
// fields packed onto one line. Output with no recognizable decision degrades
// into a freeform summary.
func (m *KeyDecisionsMode) Parse(output string, messages []core.Message) (*core.SummaryResult, error) {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyOutput, m.ModeName())
	}

	idset := core.MessageIDSet(messages)
	var decisions []core.Decision
	var current *core.Decision
	var cited []string
	droppedTotal := 0
	missingRationale := 0

	flush := func() {
		if current == nil || current.Decision == "" {
			current, cited = nil, nil
			return
		}
		// Rationale is required alongside the decision. A block without one
		// is still kept, but counted as a data-quality issue like an unknown
		// source id.
		if current.Rationale == "" {
			missingRationale++
		}
		attribution := current.Decision + " " + current.Rationale + " " + current.Owner
		ids, dropped := resolveSources(attribution, cited, messages, idset)
		droppedTotal += dropped
		current.SourceMsgIDs = ids
		decisions = append(decisions, *current)
		current, cited = nil, nil
	}

	for _, field := range splitLabeledFields(trimmed) {
		switch field.label {
		case "decision":
			flush()
			current = &core.Decision{Decision: field.value}
		case "rationale":
			if current != nil {
				current.Rationale = field.value
			}
		case "owner":
			if current != nil {
				current.Owner = field.value
			}
		case "date":
			if current != nil {
				current.Date = field.value
			}
		case "sources":
			if current != nil {
				cited = append(cited, splitIDList(field.value)...)
			}
		}
	}
	flush()

	if len(decisions) == 0 {
		return fallbackResult(m, output), nil
	}

	result := newResult(m, droppedTotal)
	if missingRationale > 0 {
		result.Metadata[core.MetaMissingRationale] = missingRationale
	}
	result.Decisions = decisions
	return result, nil
}
