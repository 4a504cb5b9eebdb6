package mode

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/summarion/summarion/internal/core"
)

// ModePointwise is the mode name for bullet-point summaries.
const ModePointwise = "pointwise"

// bulletPattern matches bullet or numbered list prefixes.
var bulletPattern = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)

// PointwiseMode summarizes a conversation as attributed key points.
type PointwiseMode struct{}

// NewPointwiseMode creates the pointwise mode strategy.
func NewPointwiseMode() *PointwiseMode {
	return &PointwiseMode{}
}

func (m *PointwiseMode) ModeName() string    { return ModePointwise }
func (m *PointwiseMode) ModeVersion() string { return DefaultModeVersion }

// Prompt asks for one bullet per key point, with citations.
func (m *PointwiseMode) Prompt(messages []core.Message) string {
	var b strings.Builder
	b.WriteString("Extract the key points from the conversation below.\n")
	b.WriteString("Write one point per line, starting each line with \"- \". ")
	b.WriteString(citationRule)
	b.WriteString("\nOptionally begin with a single line \"Title: <short title>\".\n\n")
	b.WriteString("Conversation:\n")
	b.WriteString(renderTranscript(messages))
	return b.String()
}

// PromptWithContext folds a prior summary into the prompt so points carry
// over across hierarchical memory levels.
func (m *PointwiseMode) PromptWithContext(prior *core.SummaryResult, messages []core.Message) string {
	block := priorContextBlock(prior)
	if block == "" {
		return m.Prompt(messages)
	}
	return block + "\nUpdate and extend these points using the new conversation below.\n\n" + m.Prompt(messages)
}

// Parse extracts bullet lines into attributed points. Output with no bullets
// degrades into a freeform summary.
func (m *PointwiseMode) Parse(output string, messages []core.Message) (*core.SummaryResult, error) {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyOutput, m.ModeName())
	}

	idset := core.MessageIDSet(messages)
	var points []core.AttributedPoint
	var title string
	droppedTotal := 0

	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if title == "" && len(points) == 0 {
			if after, ok := strings.CutPrefix(line, "Title:"); ok {
				title = strings.TrimSpace(after)
				continue
			}
		}
		if !bulletPattern.MatchString(line) {
			continue
		}
		text, cited := stripSources(bulletPattern.ReplaceAllString(line, ""))
		if text == "" {
			continue
		}
		ids, dropped := resolveSources(text, cited, messages, idset)
		droppedTotal += dropped
		points = append(points, core.AttributedPoint{Text: text, SourceMsgIDs: ids})
	}

	if len(points) == 0 {
		return fallbackResult(m, output), nil
	}

	result := newResult(m, droppedTotal)
	result.Title = title
	result.Points = points
	return result, nil
}
