// Package compaction implements the context window assembly and
// token-budget enforcement used before every orchestrator iteration:
// content-aware token estimation, and the two-pass summarizing
// compaction that runs when the estimate crosses the ceiling.
package compaction

import (
	"strings"

	"github.com/beacongrid/agentd/pkg/models"
)

// Chars-per-token ratios, by content kind. Plain character-count
// estimation undercounts structured content (JSON, code) badly enough
// to blow past real provider token ceilings, so the estimate looks at
// the shape of the content rather than just its length.
const (
	charsPerTokenJSON  = 2.5
	charsPerTokenCode  = 3.0
	charsPerTokenProse = 3.5
)

// Per-message overhead added on top of the content estimate, modeling
// the role/tool-envelope tokens a provider's wire format adds.
const (
	overheadSystem       = 6
	overheadUserOrAssist = 4
	overheadToolEnvelope = 8
)

var codeKeywords = []string{
	"func ", "function ", "def ", "class ", "import ", "package ",
	"return ", "const ", "var ", "let ",
}

// EstimateTokens returns the content-aware token estimate for a string.
func EstimateTokens(s string) int {
	if s == "" {
		return 0
	}
	ratio := charsPerTokenForContent(s)
	return int(float64(len(s))/ratio + 0.999) // round up
}

func charsPerTokenForContent(s string) float64 {
	if looksLikeJSON(s) {
		return charsPerTokenJSON
	}
	if looksLikeCode(s) {
		return charsPerTokenCode
	}
	return charsPerTokenProse
}

func looksLikeJSON(s string) bool {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return false
	}
	first, last := trimmed[0], trimmed[len(trimmed)-1]
	if (first == '{' && last == '}') || (first == '[' && last == ']') {
		return true
	}
	return structuralCharFraction(s, "{}[]:") > 0.10
}

func looksLikeCode(s string) bool {
	if strings.Contains(s, "```") {
		return true
	}
	lower := strings.ToLower(s)
	for _, kw := range codeKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return structuralCharFraction(s, "{}();=<>") > 0.05
}

func structuralCharFraction(s, chars string) float64 {
	if len(s) == 0 {
		return 0
	}
	n := 0
	total := 0
	for _, r := range s {
		total++
		if strings.ContainsRune(chars, r) {
			n++
		}
	}
	return float64(n) / float64(total)
}

// MessageTokens estimates the total token cost of a message: its
// content plus every tool call/result's serialized form, plus the
// per-message role/envelope overhead.
func MessageTokens(m *models.Message) int {
	if m == nil {
		return 0
	}

	total := EstimateTokens(m.Content)
	for _, tc := range m.ToolCalls {
		total += EstimateTokens(tc.Name) + EstimateTokens(string(tc.Input))
	}
	for _, tr := range m.ToolResults {
		total += EstimateTokens(tr.Content)
	}

	total += overheadFor(m)
	return total
}

func overheadFor(m *models.Message) int {
	if len(m.ToolCalls) > 0 || len(m.ToolResults) > 0 {
		return overheadToolEnvelope
	}
	switch m.Role {
	case models.RoleSystem:
		return overheadSystem
	default:
		return overheadUserOrAssist
	}
}

// WindowTokens estimates the total token cost of an assembled context
// window: an optional compaction summary, the persisted session
// history, and the current turn's messages, concatenated in that
// order per the window assembly contract.
func WindowTokens(summary *models.Message, history []*models.Message, turn ...*models.Message) int {
	total := 0
	if summary != nil {
		total += MessageTokens(summary)
	}
	for _, m := range history {
		total += MessageTokens(m)
	}
	for _, m := range turn {
		total += MessageTokens(m)
	}
	return total
}
