package agent

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/beacongrid/agentd/internal/events"
	"github.com/beacongrid/agentd/internal/wallet"
)

// ToolContext is the per-invocation read-only bundle handed to every
// tool: channel and session identity, credential lookup, the wallet
// provider, the event broadcaster, and a typed register file tools use
// to pass outputs between calls without putting them in the LLM
// prompt. It is threaded through a call via the context.Context rather
// than a Tool interface parameter, matching the package's existing
// context-key idiom for session/model/elevated-mode values.
type ToolContext struct {
	ChannelID string
	SessionID string

	// Credentials are static, named secret values enumerable by name
	// but never surfaced to the LLM.
	Credentials map[string]string

	Wallet wallet.Provider
	Events *events.Broadcaster

	mu       sync.Mutex
	register map[string]json.RawMessage
}

// NewToolContext builds a ToolContext for one dispatcher request.
func NewToolContext(channelID, sessionID string) *ToolContext {
	return &ToolContext{
		ChannelID:   channelID,
		SessionID:   sessionID,
		Credentials: map[string]string{},
		register:    map[string]json.RawMessage{},
	}
}

// Lookup implements validators.CredentialLookup.
func (tc *ToolContext) Lookup(name string) (string, bool) {
	v, ok := tc.Credentials[name]
	return v, ok
}

// SetRegister stores a value under key for later tool calls to read.
func (tc *ToolContext) SetRegister(key string, value json.RawMessage) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.register[key] = value
}

// GetRegister retrieves a previously stored register value.
func (tc *ToolContext) GetRegister(key string) (json.RawMessage, bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	v, ok := tc.register[key]
	return v, ok
}

type toolContextKey struct{}

// WithToolContext attaches tc to ctx for the duration of a tool call.
func WithToolContext(ctx context.Context, tc *ToolContext) context.Context {
	return context.WithValue(ctx, toolContextKey{}, tc)
}

// ToolContextFromContext retrieves the ToolContext attached by
// WithToolContext, if any.
func ToolContextFromContext(ctx context.Context) (*ToolContext, bool) {
	tc, ok := ctx.Value(toolContextKey{}).(*ToolContext)
	return tc, ok
}
