package mode

import (
	"fmt"
	"strings"

	"github.com/summarion/summarion/internal/core"
)

// ModeActionItems is the mode name for task extraction.
const ModeActionItems = "action_items"

// ActionItemsMode extracts tasks with owner, due date, and priority.
type ActionItemsMode struct{}

// NewActionItemsMode creates the action-items mode strategy.
func NewActionItemsMode() *ActionItemsMode {
	return &ActionItemsMode{}
}

func (m *ActionItemsMode) ModeName() string    { return ModeActionItems }
func (m *ActionItemsMode) ModeVersion() string { return DefaultModeVersion }

// Prompt asks for labeled task blocks.
func (m *ActionItemsMode) Prompt(messages []core.Message) string {
	var b strings.Builder
	b.WriteString("List every action item from the conversation below.\n")
	b.WriteString("For each one write a block of lines:\n")
	b.WriteString("Task: <what needs doing>\n")
	b.WriteString("Owner: <who, if stated>\n")
	b.WriteString("Due: <when, if stated>\n")
	b.WriteString("Priority: <high, medium, or low, if stated>\n")
	b.WriteString("Sources: <contributing message ids>\n\n")
	b.WriteString("Conversation:\n")
	b.WriteString(renderTranscript(messages))
	return b.String()
}

// Parse recovers task blocks from labeled output. Unknown priority values
// are treated as unspecified rather than rejected. Output with no
// recognizable task degrades into a freeform summary.
func (m *ActionItemsMode) Parse(output string, messages []core.Message) (*core.SummaryResult, error) {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyOutput, m.ModeName())
	}

	idset := core.MessageIDSet(messages)
	var tasks []core.Task
	var current *core.Task
	var cited []string
	droppedTotal := 0

	flush := func() {
		if current == nil || current.Task == "" {
			current, cited = nil, nil
			return
		}
		ids, dropped := resolveSources(current.Task+" "+current.Owner, cited, messages, idset)
		droppedTotal += dropped
		current.SourceMsgIDs = ids
		tasks = append(tasks, *current)
		current, cited = nil, nil
	}

	for _, field := range splitLabeledFields(trimmed) {
		switch field.label {
		case "task":
			flush()
			current = &core.Task{Task: field.value}
		case "owner":
			if current != nil {
				current.Owner = field.value
			}
		case "due", "date":
			if current != nil {
				current.Due = field.value
			}
		case "priority":
			if current != nil {
				p := strings.ToLower(field.value)
				if !core.ValidPriority(p) {
					p = ""
				}
				current.Priority = p
			}
		case "sources":
			if current != nil {
				cited = append(cited, splitIDList(field.value)...)
			}
		}
	}
	flush()

	if len(tasks) == 0 {
		return fallbackResult(m, output), nil
	}

	result := newResult(m, droppedTotal)
	result.Tasks = tasks
	return result, nil
}
