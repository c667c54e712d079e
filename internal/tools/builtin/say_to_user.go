// Package builtin provides the small set of system tools the
// orchestrator always makes available to the model: communicating
// with the user, declaring the task complete, and managing the
// per-request task queue.
package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/beacongrid/agentd/internal/agent"
)

// SayToUserTool sends a message to the user. Setting finished_task=true
// on the call signals the orchestrator that no further tool calls are
// needed this turn (§4.J termination priority 1).
type SayToUserTool struct{}

func (SayToUserTool) Name() string { return "say_to_user" }

func (SayToUserTool) Description() string {
	return "Send a message to the user. Use this to communicate results, answers, or status updates. Set finished_task=true when this is your final response."
}

func (SayToUserTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"message": {
				"type": "string",
				"description": "The message to send to the user. Include all relevant details - this is what the user will see."
			},
			"finished_task": {
				"type": "boolean",
				"description": "Set to true if this message completes the current task and no more tool calls are needed.",
				"default": false
			}
		},
		"required": ["message"]
	}`)
}

func (SayToUserTool) SafetyLevel() agent.SafetyLevel { return agent.SafetySafeMode }

func (SayToUserTool) Execute(_ context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var in struct {
		Message      string `json:"message"`
		FinishedTask bool   `json:"finished_task"`
	}
	if err := json.Unmarshal(params, &in); err != nil {
		return nil, fmt.Errorf("say_to_user: invalid parameters: %w", err)
	}

	result := &agent.ToolResult{Content: in.Message}
	if in.FinishedTask {
		result.Metadata = map[string]any{"finished_task": true}
	}
	return result, nil
}
