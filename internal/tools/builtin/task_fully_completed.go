package builtin

import (
	"context"
	"encoding/json"

	"github.com/beacongrid/agentd/internal/agent"
)

// TaskFullyCompletedTool marks the session CompletionStatus as Complete
// (§4.J termination priority 3). It takes no arguments; the orchestrator
// recognizes the call by name, not by a returned metadata flag.
type TaskFullyCompletedTool struct{}

func (TaskFullyCompletedTool) Name() string { return "task_fully_completed" }

func (TaskFullyCompletedTool) Description() string {
	return "Declare that the user's request has been fully handled and no further work remains. Ends the conversation turn."
}

func (TaskFullyCompletedTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}}`)
}

func (TaskFullyCompletedTool) SafetyLevel() agent.SafetyLevel { return agent.SafetySafeMode }

func (TaskFullyCompletedTool) Execute(context.Context, json.RawMessage) (*agent.ToolResult, error) {
	return &agent.ToolResult{Content: "task marked complete"}, nil
}
