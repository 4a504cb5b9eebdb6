package mode

import (
	"regexp"
	"strings"
	"time"

	"github.com/summarion/summarion/internal/core"
)

// sourcePattern matches the citation marker prompts ask for, e.g.
// "(sources: m1, m2)" or "(source: m3)".
var sourcePattern = regexp.MustCompile(`(?i)\(sources?:\s*([^)]+)\)`)

// wordPattern splits free text into alphanumeric words for the lexical
// attribution fallback.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// stripSources removes citation markers from a line and returns the cleaned
// text plus the cited ids in order.
func stripSources(line string) (string, []string) {
	var ids []string
	for _, match := range sourcePattern.FindAllStringSubmatch(line, -1) {
		for _, id := range strings.Split(match[1], ",") {
			id = strings.TrimSpace(id)
			if id != "" {
				ids = append(ids, id)
			}
		}
	}
	cleaned := sourcePattern.ReplaceAllString(line, "")
	return strings.TrimSpace(cleaned), ids
}

// resolveSources validates cited ids against the input message set, dropping
// unknown ones (a data-quality issue, never a failure). When no valid
// citation survives, it falls back to a lexical overlap heuristic so
// attribution degrades instead of disappearing. Returns the kept ids and the
// number of cited ids that were dropped.
func resolveSources(text string, cited []string, messages []core.Message, idset map[string]struct{}) ([]string, int) {
	var kept []string
	seen := make(map[string]struct{})
	dropped := 0

	for _, id := range cited {
		if _, ok := idset[id]; !ok {
			dropped++
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		kept = append(kept, id)
	}
	if len(kept) > 0 {
		return kept, dropped
	}

	return attributeByOverlap(text, messages), dropped
}

// attributeByOverlap attributes text to messages sharing at least one
// significant word (4+ characters, case-insensitive) with it.
func attributeByOverlap(text string, messages []core.Message) []string {
	words := make(map[string]struct{})
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if len(w) >= 4 {
			words[w] = struct{}{}
		}
	}
	if len(words) == 0 {
		return nil
	}

	var ids []string
	for _, msg := range messages {
		for _, w := range wordPattern.FindAllString(strings.ToLower(msg.Content), -1) {
			if len(w) < 4 {
				continue
			}
			if _, ok := words[w]; ok {
				ids = append(ids, msg.ID)
				break
			}
		}
	}
	return ids
}

// labelPattern matches "Label:" markers used by the block-structured modes
// (key_decisions, action_items), anywhere in a line.
var labelPattern = regexp.MustCompile(`(?i)\b(decision|rationale|owner|date|due|priority|task|sources?)\s*:`)

// labeledField is one "Label: value" pair recovered from LLM output.
type labeledField struct {
	label string
	value string
}

// splitLabeledFields tears a block of text into label/value pairs. It
// tolerates fields packed onto one line ("Decision: x. Rationale: y.") as
// well as one field per line.
func splitLabeledFields(text string) []labeledField {
	var fields []labeledField
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*• \t"))
		if line == "" {
			continue
		}
		locs := labelPattern.FindAllStringSubmatchIndex(line, -1)
		for i, loc := range locs {
			label := strings.ToLower(line[loc[2]:loc[3]])
			if label == "source" {
				label = "sources"
			}
			end := len(line)
			if i+1 < len(locs) {
				end = locs[i+1][0]
			}
			value := strings.TrimSpace(line[loc[1]:end])
			value = strings.TrimRight(value, " .;,")
			fields = append(fields, labeledField{label: label, value: value})
		}
	}
	return fields
}

// splitIDList splits a "m1, m2 m3" style id list.
func splitIDList(value string) []string {
	var ids []string
	for _, id := range strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	}) {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// fallbackResult is the degrade-gracefully path shared by all modes: the raw
// output becomes the freeform summary and the structured fields stay empty.
func fallbackResult(m ModeStrategy, output string) *core.SummaryResult {
	return &core.SummaryResult{
		Mode:        m.ModeName(),
		ModeVersion: m.ModeVersion(),
		Summary:     strings.TrimSpace(output),
		Metadata:    map[string]any{core.MetaParseFallback: true},
		CreatedAt:   time.Now().UTC(),
	}
}

// newResult stamps mode identity and creation time on a structured result.
func newResult(m ModeStrategy, dropped int) *core.SummaryResult {
	result := &core.SummaryResult{
		Mode:        m.ModeName(),
		ModeVersion: m.ModeVersion(),
		Metadata:    map[string]any{},
		CreatedAt:   time.Now().UTC(),
	}
	if dropped > 0 {
		result.Metadata[core.MetaDroppedSourceIDs] = dropped
	}
	return result
}
