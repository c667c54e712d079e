// Package confirmation tracks tool calls that require explicit user
// confirmation before execution — high-risk operations like on-chain
// transfers. At most one confirmation may be pending per channel at a
// time, and each expires after a fixed TTL if never answered.
package confirmation

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TTL is how long a pending confirmation remains answerable before it
// lazily expires.
const TTL = 5 * time.Minute

// RequiredTools are tool names that always require confirmation.
var RequiredTools = map[string]bool{
	"web3_tx": true,
}

// RequiredPatterns are substrings that, if contained in a tool name,
// require confirmation. Empty by default; callers may extend via
// RequiresConfirmation's pattern list at construction.
var RequiredPatterns []string

// RequiresConfirmation reports whether a tool name requires a
// confirmation gate before execution.
func RequiresConfirmation(toolName string) bool {
	if RequiredTools[toolName] {
		return true
	}
	for _, pattern := range RequiredPatterns {
		if strings.Contains(toolName, pattern) {
			return true
		}
	}
	return false
}

// Pending is a tool execution awaiting confirmation in a specific
// channel.
type Pending struct {
	ID          string
	ChannelID   string
	SessionID   string
	ToolName    string
	ToolCallID  string
	Arguments   json.RawMessage
	Description string
	UserID      string
	RequestedAt time.Time
}

// IsExpired reports whether the confirmation has outlived TTL.
func (p Pending) IsExpired() bool {
	return time.Since(p.RequestedAt) > TTL
}

// New builds a Pending with a fresh ID, a human-readable description,
// and RequestedAt set to now.
func New(channelID, sessionID, toolName, toolCallID string, args json.RawMessage, userID string) Pending {
	return Pending{
		ID:          uuid.NewString(),
		ChannelID:   channelID,
		SessionID:   sessionID,
		ToolName:    toolName,
		ToolCallID:  toolCallID,
		Arguments:   args,
		Description: Describe(toolName, args),
		UserID:      userID,
		RequestedAt: time.Now(),
	}
}
