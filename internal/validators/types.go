// Package validators implements a declarative, non-agentic validation
// layer that intercepts tool calls before execution and blocks
// disallowed actions using deterministic condition/action rules loaded
// from YAML rule files.
package validators

import "encoding/json"

// Priority controls validator execution order; lower runs first.
type Priority int

const (
	PriorityCritical Priority = 0
	PriorityHigh     Priority = 100
	PriorityNormal   Priority = 500
	PriorityLow      Priority = 900
)

// priorityNames maps YAML priority names to their numeric value.
var priorityNames = map[string]Priority{
	"critical": PriorityCritical,
	"high":     PriorityHigh,
	"normal":   PriorityNormal,
	"low":      PriorityLow,
}

// Context is what a validator evaluates a tool call against.
type Context struct {
	ToolName    string
	ToolArgs    json.RawMessage
	ChannelID   string
	SessionID   string
	Credentials CredentialLookup
}

// CredentialLookup resolves a credential name to its secret value. The
// Tool Registry's ToolContext implements this; validators never see
// secret values, only whether one exists.
type CredentialLookup interface {
	Lookup(name string) (value string, ok bool)
}

// Result is the outcome of running the registry against a Context.
type Result struct {
	Blocked    bool
	Reason     string
	Suggestion string
}

// Allow is the zero-value passing Result.
var Allow = Result{}

// Block builds a blocking Result.
func Block(reason string) Result { return Result{Blocked: true, Reason: reason} }

// BlockWithSuggestion builds a blocking Result carrying an alternative
// action the caller could take instead.
func BlockWithSuggestion(reason, suggestion string) Result {
	return Result{Blocked: true, Reason: reason, Suggestion: suggestion}
}

// ErrorMessage renders the result for display to the agent, or "" if
// the call is allowed.
func (r Result) ErrorMessage() string {
	if !r.Blocked {
		return ""
	}
	if r.Suggestion == "" {
		return "Blocked: " + r.Reason
	}
	return "Blocked: " + r.Reason + " Suggestion: " + r.Suggestion
}
