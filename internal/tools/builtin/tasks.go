package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/beacongrid/agentd/internal/agent"
)

// AddTaskTool and DefineTasksTool exist only so their schemas reach the
// model via the tool registry; the orchestrator intercepts both calls
// by name before dispatch ever reaches the registry (§4.J-tool), so
// Execute here is never exercised in a correctly wired orchestrator.
type AddTaskTool struct{}

func (AddTaskTool) Name() string { return "add_task" }

func (AddTaskTool) Description() string {
	return "Add a new task to the task queue. Use 'front' to make it the next task, or 'back' to add it after all other tasks."
}

func (AddTaskTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"description": {"type": "string", "description": "Description of the task to add."},
			"position": {"type": "string", "enum": ["front", "back"], "default": "front"}
		},
		"required": ["description"]
	}`)
}

func (AddTaskTool) SafetyLevel() agent.SafetyLevel { return agent.SafetySafeMode }

func (AddTaskTool) Execute(context.Context, json.RawMessage) (*agent.ToolResult, error) {
	return nil, fmt.Errorf("add_task: reached the tool registry instead of being intercepted by the orchestrator")
}

type DefineTasksTool struct{}

func (DefineTasksTool) Name() string { return "define_tasks" }

func (DefineTasksTool) Description() string {
	return "Replace the entire task queue with a new ordered list of tasks."
}

func (DefineTasksTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"tasks": {"type": "array", "items": {"type": "string"}}
		},
		"required": ["tasks"]
	}`)
}

func (DefineTasksTool) SafetyLevel() agent.SafetyLevel { return agent.SafetySafeMode }

// Hidden matches the original's gating: wholesale queue replacement is
// available to call but not advertised alongside add_task.
func (DefineTasksTool) Hidden() bool { return true }

func (DefineTasksTool) Execute(context.Context, json.RawMessage) (*agent.ToolResult, error) {
	return nil, fmt.Errorf("define_tasks: reached the tool registry instead of being intercepted by the orchestrator")
}
