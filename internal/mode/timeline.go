package mode

import (
	"fmt"
	"strings"

	"github.com/summarion/summarion/internal/core"
)

// ModeTimeline is the mode name for chronological summaries.
const ModeTimeline = "timeline"

// TimelineMode summarizes a conversation as a sequence of timestamped
// events.
type TimelineMode struct{}

// NewTimelineMode creates the timeline mode strategy.
func NewTimelineMode() *TimelineMode {
	return &TimelineMode{}
}

func (m *TimelineMode) ModeName() string    { return ModeTimeline }
func (m *TimelineMode) ModeVersion() string { return DefaultModeVersion }

// Prompt asks for "timestamp - event" lines.
func (m *TimelineMode) Prompt(messages []core.Message) string {
	var b strings.Builder
	b.WriteString("Build a chronological timeline of the conversation below.\n")
	b.WriteString("Write one event per line as \"<timestamp> - <event>\", using the message timestamps where available. ")
	b.WriteString(citationRule)
	b.WriteString("\n\nConversation:\n")
	b.WriteString(renderTranscript(messages))
	return b.String()
}

// Parse extracts "timestamp - event" lines. The timestamp half must contain
// a digit; lines without one are ignored. Output with no events degrades
// into a freeform summary.
func (m *TimelineMode) Parse(output string, messages []core.Message) (*core.SummaryResult, error) {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyOutput, m.ModeName())
	}

	idset := core.MessageIDSet(messages)
	var events []core.Event
	droppedTotal := 0

	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(bulletPattern.ReplaceAllString(strings.TrimSpace(line), ""))
		if line == "" {
			continue
		}
		text, cited := stripSources(line)

		timestamp, event, ok := splitTimelineEntry(text)
		if !ok {
			continue
		}
		ids, dropped := resolveSources(event, cited, messages, idset)
		droppedTotal += dropped
		events = append(events, core.Event{Timestamp: timestamp, Event: event, SourceMsgIDs: ids})
	}

	if len(events) == 0 {
		return fallbackResult(m, output), nil
	}

	result := newResult(m, droppedTotal)
	result.Timeline = events
	return result, nil
}

// splitTimelineEntry divides a line into timestamp and event halves around
// the first " - " (or em/en dash) separator.
func splitTimelineEntry(line string) (timestamp, event string, ok bool) {
	for _, sep := range []string{" - ", " – ", " — "} {
		if left, right, found := strings.Cut(line, sep); found {
			timestamp = strings.TrimSpace(left)
			event = strings.TrimSpace(right)
			if timestamp != "" && event != "" && strings.ContainsAny(timestamp, "0123456789") {
				return timestamp, event, true
			}
		}
	}
	return "", "", false
}
