// Package dispatch implements the Message Dispatcher: the single entry
// point every channel adapter goes through to reach the orchestrator.
// It binds an inbound message to a session, applies the session's
// reset policy, acquires the session's lane, builds the ToolContext,
// and runs the orchestrator — releasing the lane automatically when
// the run ends, however it ends.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/beacongrid/agentd/internal/agent"
	"github.com/beacongrid/agentd/internal/confirmation"
	"github.com/beacongrid/agentd/internal/events"
	"github.com/beacongrid/agentd/internal/sessions"
	"github.com/beacongrid/agentd/internal/wallet"
	"github.com/beacongrid/agentd/pkg/models"
)

// Dispatcher is the only supported way to invoke the orchestrator;
// direct invocation bypasses the lane invariant and is forbidden.
type Dispatcher struct {
	Sessions      sessions.Store
	Lanes         *sessions.LaneManager
	Orchestrator  *agent.Orchestrator
	Wallet        wallet.Provider
	Events        *events.Broadcaster
	Confirmations *confirmation.Manager

	// Credentials supplies static, named secrets threaded into every
	// ToolContext (e.g. API keys for external tools).
	Credentials map[string]string
}

// Inbound is one message arriving from a channel adapter.
type Inbound struct {
	AgentID       string
	Channel       models.ChannelType
	PlatformChat  string // the platform's chat/conversation identifier
	Text          string
}

// Handle runs steps 1-5 of the Message Dispatcher for one inbound
// message: session lookup-or-create with reset policy, lane
// acquisition, ToolContext construction, orchestrator invocation, and
// lane release.
func (d *Dispatcher) Handle(ctx context.Context, in Inbound) (*agent.RunResult, error) {
	session, err := d.resolveSession(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("dispatch: resolve session: %w", err)
	}

	guard, err := d.Lanes.Acquire(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("dispatch: acquire lane: %w", err)
	}
	defer guard.Release()

	tc := agent.NewToolContext(in.PlatformChat, session.ID)
	for k, v := range d.Credentials {
		tc.Credentials[k] = v
	}
	tc.Wallet = d.Wallet
	tc.Events = d.Events

	result, err := d.Orchestrator.Run(ctx, session, tc, in.Text)
	if err != nil {
		return result, fmt.Errorf("dispatch: orchestrator run: %w", err)
	}

	session.UpdatedAt = time.Now()
	session.LastActivityAt = session.UpdatedAt
	if saveErr := d.Sessions.Update(ctx, session); saveErr != nil {
		return result, fmt.Errorf("dispatch: save session: %w", saveErr)
	}

	return result, nil
}

// HasPendingConfirmation reports whether the given channel/chat has an
// unanswered confirmation, so a channel adapter's reply handler can
// decide between routing an inbound message through HandleConfirmation
// or the normal Handle path.
func (d *Dispatcher) HasPendingConfirmation(platformChat string) bool {
	if d.Confirmations == nil {
		return false
	}
	return d.Confirmations.HasPending(platformChat)
}

// HandleConfirmation answers the pending confirmation for in's channel
// (approved=true runs the deferred tool call, false discards it)
// instead of running a fresh orchestrator turn. It acquires the same
// per-session lane as Handle, since ResumeConfirmed persists messages
// and updates the session exactly like a normal run.
func (d *Dispatcher) HandleConfirmation(ctx context.Context, in Inbound, approved bool) (*agent.RunResult, error) {
	session, err := d.resolveSession(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("dispatch: resolve session: %w", err)
	}

	guard, err := d.Lanes.Acquire(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("dispatch: acquire lane: %w", err)
	}
	defer guard.Release()

	tc := agent.NewToolContext(in.PlatformChat, session.ID)
	for k, v := range d.Credentials {
		tc.Credentials[k] = v
	}
	tc.Wallet = d.Wallet
	tc.Events = d.Events

	result, err := d.Orchestrator.ResumeConfirmed(ctx, session, tc, approved)
	if err != nil {
		return result, fmt.Errorf("dispatch: resume confirmed: %w", err)
	}
	return result, nil
}

// resolveSession looks up or creates the session for (agent, channel,
// platform chat), then applies the reset policy: if the policy says
// the existing session has expired, a fresh one replaces it at the
// same key.
func (d *Dispatcher) resolveSession(ctx context.Context, in Inbound) (*models.Session, error) {
	key := sessions.SessionKey(in.AgentID, in.Channel, in.PlatformChat)

	session, err := d.Sessions.GetOrCreate(ctx, key, in.AgentID, in.Channel, in.PlatformChat)
	if err != nil {
		return nil, err
	}

	if !shouldReset(session, time.Now()) {
		return session, nil
	}

	if err := d.Sessions.Delete(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("reset session: %w", err)
	}
	return d.Sessions.GetOrCreate(ctx, key, in.AgentID, in.Channel, in.PlatformChat)
}

// shouldReset evaluates a session's ResetPolicy against now.
func shouldReset(session *models.Session, now time.Time) bool {
	switch session.ResetPolicy {
	case models.ResetIdle:
		if session.IdleTimeoutMinutes <= 0 {
			return false
		}
		return now.Sub(session.LastActivityAt) > time.Duration(session.IdleTimeoutMinutes)*time.Minute
	case models.ResetDaily:
		last := session.LastActivityAt
		if last.IsZero() {
			return false
		}
		boundary := time.Date(last.Year(), last.Month(), last.Day(), session.DailyResetHour, 0, 0, 0, last.Location())
		if !boundary.After(last) {
			boundary = boundary.AddDate(0, 0, 1)
		}
		return !now.Before(boundary)
	case models.ResetManual, models.ResetNever, "":
		return false
	default:
		return false
	}
}
