package agent

import (
	"log/slog"
	"time"

	"github.com/beacongrid/agentd/internal/backoff"
	"github.com/beacongrid/agentd/internal/compaction"
	"github.com/beacongrid/agentd/internal/confirmation"
	"github.com/beacongrid/agentd/internal/events"
	"github.com/beacongrid/agentd/internal/sessions"
	"github.com/beacongrid/agentd/internal/txqueue"
	"github.com/beacongrid/agentd/internal/validators"
	"github.com/beacongrid/agentd/internal/wallet"
)

// OrchestratorOptions configures a single Orchestrator instance. All
// components other than the tool registry and session store are
// optional: a host that never needs payments can leave Wallet/X402/
// TxQueue nil and those dispatch branches simply never trigger.
type OrchestratorOptions struct {
	// MaxIterations bounds AskLLM/tool-dispatch rounds per request.
	MaxIterations int

	// LLMCallTimeout bounds a single LLM completion call.
	LLMCallTimeout time.Duration

	// RetryPolicy governs backoff between transient LLM call retries.
	RetryPolicy backoff.BackoffPolicy
	// RetryMaxAttempts caps LLM call retries for transient errors.
	RetryMaxAttempts int

	// RecentTail is the number of most-recent messages compaction
	// leaves unsummarized on its first pass.
	RecentTail int
	// CompactionCeiling is the token budget that triggers compaction
	// when 85% exceeded, per §4.I.
	CompactionCeiling int

	Sessions      sessions.Store
	Lanes         *sessions.LaneManager
	Registry      *ToolRegistry
	Validators    *validators.Registry
	Confirmations *confirmation.Manager
	TxQueue       *txqueue.Manager
	Wallet        wallet.Provider
	X402          *X402Router
	Events        *events.Broadcaster
	Compaction    *compaction.Engine
	Summarizer    compaction.Summarizer

	ToolResultGuard ToolResultGuard

	Logger *slog.Logger
}

// DefaultOrchestratorOptions returns the baseline configuration: a
// 30-iteration ceiling, a 120s per-call LLM timeout, and the spec's
// backoff parameters (500ms base, 8s cap, 4 attempts).
func DefaultOrchestratorOptions() OrchestratorOptions {
	return OrchestratorOptions{
		MaxIterations:  30,
		LLMCallTimeout: 120 * time.Second,
		RetryPolicy: backoff.BackoffPolicy{
			InitialMs: 500,
			MaxMs:     8000,
			Factor:    2,
			Jitter:    0.1,
		},
		RetryMaxAttempts:  4,
		RecentTail:        8,
		CompactionCeiling: compaction.DefaultConfig().Ceiling,
		Logger:            slog.Default(),
	}
}
