package compaction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/beacongrid/agentd/pkg/models"
)

// ErrContextOverflow is returned when, after the two allotted
// compaction passes, the window still exceeds the ceiling.
type ErrContextOverflow struct {
	SessionID string
	Estimated int
	Ceiling   int
}

func (e *ErrContextOverflow) Error() string {
	return fmt.Sprintf("compaction: session %s still over ceiling after two passes (estimated %d tokens, ceiling %d)",
		e.SessionID, e.Estimated, e.Ceiling)
}

// triggerFraction is the fraction of the ceiling that, once crossed,
// triggers a compaction pass before the next orchestrator iteration.
const triggerFraction = 0.85

// tailShrinkFactor scales down the recent-tail size N between
// compaction passes when a first pass wasn't enough to get under the
// ceiling: a smaller raw tail hands a larger prefix to the summarizer,
// which is what actually reduces the window further. Growing the tail
// (as a surface reading of "retry with a larger N" might suggest)
// moves the wrong direction, since it retains more raw, unsummarized
// content.
const tailShrinkFactor = 2

// SummaryModelPrompt is the fixed system prompt sent to the LLM
// adapter when asking for a compaction summary.
const SummaryModelPrompt = "Summarize the following conversation concisely, preserving any " +
	"facts, decisions, pending tasks, and tool outcomes a continuation of this " +
	"conversation would need. Do not address the user; write the summary as " +
	"third-person notes."

// Summarizer generates a short summary of a slice of messages. The LLM
// adapter backing this is an external collaborator; this package only
// depends on the narrow capability it needs.
type Summarizer interface {
	Summarize(ctx context.Context, messages []*models.Message, prompt string) (string, error)
}

// Config configures the compaction engine for one deployment.
type Config struct {
	// Ceiling is the token budget for the assembled context window.
	Ceiling int

	// RecentTail is the number of most-recent messages that are never
	// summarized away on the first compaction pass (N in the spec).
	RecentTail int
}

// DefaultConfig returns the spec's example defaults.
func DefaultConfig() Config {
	return Config{Ceiling: 150_000, RecentTail: 8}
}

// Engine assembles context windows and runs compaction when the
// content-aware token estimate crosses the trigger threshold.
type Engine struct {
	cfg        Config
	summarizer Summarizer
}

// NewEngine returns a compaction engine backed by the given summarizer.
func NewEngine(cfg Config, summarizer Summarizer) *Engine {
	if cfg.Ceiling <= 0 {
		cfg = DefaultConfig()
	}
	if cfg.RecentTail <= 0 {
		cfg.RecentTail = DefaultConfig().RecentTail
	}
	return &Engine{cfg: cfg, summarizer: summarizer}
}

// NeedsCompaction reports whether the assembled window's estimate
// exceeds the trigger threshold (ceiling * 0.85).
func (e *Engine) NeedsCompaction(summary *models.Message, history []*models.Message, turn ...*models.Message) bool {
	return WindowTokens(summary, history, turn...) > int(float64(e.cfg.Ceiling)*triggerFraction)
}

// Compact summarizes the oldest messages in history, replacing them
// with a single System message carrying the summary, until the
// resulting window fits the ceiling or two passes have been tried.
//
// Compaction is idempotent on an empty or already-short prefix: if
// history has no messages older than the recent tail, it is returned
// unchanged with a nil new summary.
func (e *Engine) Compact(
	ctx context.Context,
	sessionID string,
	existingSummary *models.Message,
	history []*models.Message,
	turn ...*models.Message,
) (newSummary *models.Message, remaining []*models.Message, err error) {
	n := e.cfg.RecentTail

	for pass := 1; pass <= 2; pass++ {
		if n >= len(history) {
			// Nothing older than the tail to summarize; no-op.
			return existingSummary, history, nil
		}

		prefix := history[:len(history)-n]
		tail := history[len(history)-n:]

		summaryText, serr := e.summarizer.Summarize(ctx, prefix, SummaryModelPrompt)
		if serr != nil {
			return nil, nil, fmt.Errorf("compaction: summarize prefix: %w", serr)
		}

		newSummary = &models.Message{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			Role:      models.RoleSystem,
			Content:   summaryText,
			CreatedAt: time.Now(),
		}

		estimated := WindowTokens(newSummary, tail, turn...)
		if estimated <= e.cfg.Ceiling {
			return newSummary, tail, nil
		}

		n /= tailShrinkFactor
		if n < 1 {
			n = 0
		}
	}

	return nil, nil, &ErrContextOverflow{
		SessionID: sessionID,
		Estimated: WindowTokens(newSummary, history, turn...),
		Ceiling:   e.cfg.Ceiling,
	}
}
