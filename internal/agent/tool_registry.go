package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ToolRegistry manages available tools with thread-safe registration and lookup.
// Tools are registered by name and can be retrieved for execution during agent conversations.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewToolRegistry creates a new empty tool registry ready for tool registration.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry by its name.
// If a tool with the same name already exists, it is replaced.
func (r *ToolRegistry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
}

// Unregister removes a tool from the registry by name.
func (r *ToolRegistry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// Get returns a tool by name and a boolean indicating if it was found.
func (r *ToolRegistry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Tool parameter limits to prevent resource exhaustion
const (
	// MaxToolNameLength is the maximum length of a tool name.
	MaxToolNameLength = 256

	// MaxToolParamsSize is the maximum size of tool parameters JSON (10MB).
	MaxToolParamsSize = 10 << 20
)

// Execute runs a tool by name with the given JSON parameters.
// Returns an error result if the tool is not found or parameters are invalid.
func (r *ToolRegistry) Execute(ctx context.Context, name string, params json.RawMessage) (*ToolResult, error) {
	if len(name) > MaxToolNameLength {
		return &ToolResult{
			Content: fmt.Sprintf("tool name exceeds maximum length of %d characters", MaxToolNameLength),
			IsError: true,
		}, nil
	}

	if len(params) > MaxToolParamsSize {
		return &ToolResult{
			Content: fmt.Sprintf("tool parameters exceed maximum size of %d bytes", MaxToolParamsSize),
			IsError: true,
		}, nil
	}

	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return &ToolResult{
			Content: "tool not found: " + name,
			IsError: true,
		}, nil
	}

	if err := validateToolParams(tool, params); err != nil {
		return &ToolResult{
			Content: fmt.Sprintf("invalid parameters for %s: %v", name, err),
			IsError: true,
		}, nil
	}

	return tool.Execute(ctx, params)
}

var toolSchemaCache sync.Map

// validateToolParams checks params against the tool's declared JSON
// Schema before Execute ever sees them, so a malformed tool call never
// reaches domain code.
func validateToolParams(tool Tool, params json.RawMessage) error {
	schemaBytes := tool.Schema()
	if len(schemaBytes) == 0 {
		return nil
	}

	compiled, err := compileToolSchema(tool.Name(), schemaBytes)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	if len(params) == 0 {
		params = json.RawMessage("{}")
	}
	var decoded any
	if err := json.Unmarshal(params, &decoded); err != nil {
		return fmt.Errorf("decode parameters: %w", err)
	}
	return compiled.Validate(decoded)
}

func compileToolSchema(name string, schemaBytes json.RawMessage) (*jsonschema.Schema, error) {
	key := name + ":" + string(schemaBytes)
	if cached, ok := toolSchemaCache.Load(key); ok {
		return cached.(*jsonschema.Schema), nil
	}
	compiled, err := jsonschema.CompileString(name+".schema.json", string(schemaBytes))
	if err != nil {
		return nil, err
	}
	toolSchemaCache.Store(key, compiled)
	return compiled, nil
}

// Hidden is implemented by tools that should be registered and callable
// but never advertised to the model (e.g. a wholesale task-queue reset
// that's only meant to be invoked deliberately).
type Hidden interface {
	Hidden() bool
}

func toolHidden(t Tool) bool {
	h, ok := t.(Hidden)
	return ok && h.Hidden()
}

// AsLLMTools returns all registered, non-hidden tools as a slice for
// passing to LLM providers. Tools whose SafetyLevel is Unsafe are
// included unless excludeUnsafe is set; the orchestrator sets that when
// a session is running in safe mode.
func (r *ToolRegistry) AsLLMTools(excludeUnsafe bool) []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tools := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		if toolHidden(t) {
			continue
		}
		if excludeUnsafe && toolSafetyLevel(t) == SafetyUnsafe {
			continue
		}
		tools = append(tools, t)
	}
	return tools
}

// normalizeToolName lowercases and trims a tool name for pattern matching.
func normalizeToolName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// matchesToolPatterns reports whether toolName matches any of the given patterns.
// Supports exact match, "mcp:*" prefix matching, and "prefix.*" suffix wildcards.
func matchesToolPatterns(patterns []string, toolName string) bool {
	if len(patterns) == 0 {
		return false
	}
	name := normalizeToolName(toolName)
	for _, pattern := range patterns {
		if matchToolPattern(normalizeToolName(pattern), name) {
			return true
		}
	}
	return false
}

func matchToolPattern(pattern, toolName string) bool {
	if pattern == "" || toolName == "" {
		return false
	}
	if pattern == "*" {
		return true
	}
	if pattern == "mcp:*" {
		return strings.HasPrefix(toolName, "mcp:")
	}
	if strings.HasSuffix(pattern, ".*") {
		prefix := strings.TrimSuffix(pattern, "*")
		return strings.HasPrefix(toolName, prefix)
	}
	return pattern == toolName
}
