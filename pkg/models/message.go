package models

import (
	"encoding/json"
	"time"
)

// ChannelType represents a messaging platform.
type ChannelType string

const (
	ChannelTelegram ChannelType = "telegram"
	ChannelDiscord  ChannelType = "discord"
	ChannelSlack    ChannelType = "slack"
)

// Direction indicates if a message is inbound or outbound.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Role indicates the message author type.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message is the unified message format across all channels.
type Message struct {
	ID          string            `json:"id"`
	SessionID   string            `json:"session_id"`
	Channel     ChannelType       `json:"channel"`
	ChannelID   string            `json:"channel_id"`   // Platform-specific message ID
	Direction   Direction         `json:"direction"`
	Role        Role              `json:"role"`
	Content     string            `json:"content"`
	Attachments []Attachment      `json:"attachments,omitempty"`
	ToolCalls   []ToolCall        `json:"tool_calls,omitempty"`
	ToolResults []ToolResult      `json:"tool_results,omitempty"`
	Metadata    map[string]any    `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Attachment represents a file or media attachment.
type Attachment struct {
	ID       string `json:"id"`
	Type     string `json:"type"` // image, audio, video, document
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// ToolCall represents an LLM's request to execute a tool.
type ToolCall struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Input    json.RawMessage `json:"input"`
}

// ToolResult represents the output of a tool execution.
type ToolResult struct {
	ToolCallID string         `json:"tool_call_id"`
	Content    string         `json:"content"`
	IsError    bool           `json:"is_error,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// CompletionStatus tracks whether a session's task has been marked done
// by the agent via the task_fully_completed tool.
type CompletionStatus string

const (
	// StatusActive is the default: the session is open for further turns.
	StatusActive CompletionStatus = "active"
	// StatusComplete means the agent called task_fully_completed.
	StatusComplete CompletionStatus = "complete"
	// StatusCancelled means the user or an operator cancelled the session.
	StatusCancelled CompletionStatus = "cancelled"
	// StatusFailed means the session could not make further progress.
	StatusFailed CompletionStatus = "failed"
)

// ResetPolicy governs when the dispatcher starts a fresh session for a
// (platform, platform_chat_id) key instead of continuing the existing one.
type ResetPolicy string

const (
	// ResetDaily starts a new session once a day at DailyResetHour.
	ResetDaily ResetPolicy = "daily"
	// ResetIdle starts a new session after IdleTimeoutMinutes of inactivity.
	ResetIdle ResetPolicy = "idle"
	// ResetManual never resets automatically; only an explicit command does.
	ResetManual ResetPolicy = "manual"
	// ResetNever keeps one session per key forever.
	ResetNever ResetPolicy = "never"
)

// Session represents a conversation thread.
type Session struct {
	ID         string      `json:"id"`
	AgentID    string      `json:"agent_id"`
	Channel    ChannelType `json:"channel"`
	ChannelID  string      `json:"channel_id"`
	Key        string      `json:"key"`
	Title      string      `json:"title,omitempty"`

	CompletionStatus CompletionStatus `json:"completion_status,omitempty"`
	SafeMode         bool             `json:"safe_mode,omitempty"`

	ResetPolicy        ResetPolicy `json:"reset_policy,omitempty"`
	IdleTimeoutMinutes int         `json:"idle_timeout_minutes,omitempty"`
	DailyResetHour     int         `json:"daily_reset_hour,omitempty"`

	ContextTokenEstimate int `json:"context_token_estimate,omitempty"`
	ContextTokenCeiling  int `json:"context_token_ceiling,omitempty"`

	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	LastActivityAt  time.Time      `json:"last_activity_at"`
}

// User represents an authenticated user.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Agent represents a configured AI agent.
type Agent struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	Name         string         `json:"name"`
	SystemPrompt string         `json:"system_prompt,omitempty"`
	Model        string         `json:"model"`
	Provider     string         `json:"provider"`
	Tools        []string       `json:"tools,omitempty"`
	Config       map[string]any `json:"config,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// APIKey represents an API key for programmatic access.
type APIKey struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	Prefix     string    `json:"prefix"` // First 8 chars for identification
	Scopes     []string  `json:"scopes,omitempty"`
	LastUsedAt time.Time `json:"last_used_at,omitempty"`
	ExpiresAt  time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
