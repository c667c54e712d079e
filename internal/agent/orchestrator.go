package agent

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/beacongrid/agentd/internal/agent/providers"
	"github.com/beacongrid/agentd/internal/backoff"
	"github.com/beacongrid/agentd/internal/compaction"
	"github.com/beacongrid/agentd/internal/confirmation"
	"github.com/beacongrid/agentd/internal/events"
	"github.com/beacongrid/agentd/internal/txqueue"
	"github.com/beacongrid/agentd/internal/validators"
	"github.com/beacongrid/agentd/pkg/models"
)

// Orchestrator runs the agent loop described in §4.J: ingest a user
// message, assemble context, iterate LLM calls and tool dispatch until
// a termination condition fires, and persist everything along the way.
// It is entered exclusively through the Message Dispatcher, which is
// responsible for acquiring the session's lane first.
type Orchestrator struct {
	llm    LLMProvider
	model  string
	system string
	opts   OrchestratorOptions

	summaries map[string]*models.Message // sessionID -> latest compaction summary
}

// NewOrchestrator builds an Orchestrator against the given LLM
// provider. Options with a zero MaxIterations get DefaultOrchestratorOptions'
// iteration ceiling and retry policy merged in.
func NewOrchestrator(llm LLMProvider, opts OrchestratorOptions) *Orchestrator {
	defaults := DefaultOrchestratorOptions()
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = defaults.MaxIterations
	}
	if opts.LLMCallTimeout <= 0 {
		opts.LLMCallTimeout = defaults.LLMCallTimeout
	}
	if opts.RetryMaxAttempts <= 0 {
		opts.RetryMaxAttempts = defaults.RetryMaxAttempts
	}
	if opts.RetryPolicy == (backoff.BackoffPolicy{}) {
		opts.RetryPolicy = defaults.RetryPolicy
	}
	if opts.RecentTail <= 0 {
		opts.RecentTail = defaults.RecentTail
	}
	if opts.CompactionCeiling <= 0 {
		opts.CompactionCeiling = defaults.CompactionCeiling
	}
	if opts.Logger == nil {
		opts.Logger = defaults.Logger
	}
	if opts.Registry == nil {
		opts.Registry = NewToolRegistry()
	}
	return &Orchestrator{
		llm:       llm,
		opts:      opts,
		summaries: make(map[string]*models.Message),
	}
}

// SetSystemPrompt sets the system prompt sent on every LLM call.
func (o *Orchestrator) SetSystemPrompt(prompt string) { o.system = prompt }

// SetModel sets the model identifier passed to the LLM provider.
func (o *Orchestrator) SetModel(model string) { o.model = model }

// RunResult summarizes one orchestrator run for the dispatcher/caller.
type RunResult struct {
	Messages         []*models.Message
	CompletionStatus models.CompletionStatus
	Iterations       int
	AwaitingConfirm  bool
}

// Run executes the full state machine for one inbound user message.
// The caller (the Message Dispatcher) must already hold the session's
// lane for the duration of this call.
func (o *Orchestrator) Run(ctx context.Context, session *models.Session, tc *ToolContext, userText string) (*RunResult, error) {
	if session.CompletionStatus == "" {
		session.CompletionStatus = models.StatusActive
	}

	userMsg := &models.Message{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Channel:   session.Channel,
		ChannelID: session.ChannelID,
		Direction: models.DirectionInbound,
		Role:      models.RoleUser,
		Content:   userText,
		CreatedAt: time.Now(),
	}
	if err := o.persist(ctx, session.ID, userMsg); err != nil {
		return nil, fmt.Errorf("orchestrator: persist user message: %w", err)
	}

	result := &RunResult{CompletionStatus: session.CompletionStatus}
	tasks := &TaskQueue{}
	detector := newLoopDetector()
	safeMode := session.SafeMode

	for iteration := 1; iteration <= o.opts.MaxIterations; iteration++ {
		result.Iterations = iteration

		history, err := o.opts.Sessions.GetHistory(ctx, session.ID, 0)
		if err != nil {
			return result, fmt.Errorf("orchestrator: load history: %w", err)
		}
		if err := o.maybeCompact(ctx, session.ID, history); err != nil {
			var overflow *compaction.ErrContextOverflow
			if errors.As(err, &overflow) {
				o.appendSystemText(result, session, "context window exceeded even after compaction; ending turn")
				return result, nil
			}
			return result, fmt.Errorf("orchestrator: compact context: %w", err)
		}

		chunks, err := o.askLLM(ctx, session.ID, safeMode)
		if err != nil {
			assistant := o.emitAssistant(result, session, fmt.Sprintf("I hit an error reaching the model and couldn't recover: %v", err))
			if err := o.persist(ctx, session.ID, assistant); err != nil {
				return result, err
			}
			return result, nil // fatal error: session stays Active (§4.J priority 5)
		}

		if len(chunks.toolCalls) == 0 {
			assistant := o.emitAssistant(result, session, chunks.text)
			if err := o.persist(ctx, session.ID, assistant); err != nil {
				return result, err
			}
			return result, nil
		}

		assistantMsg := &models.Message{
			ID:        uuid.NewString(),
			SessionID: session.ID,
			Role:      models.RoleAssistant,
			Content:   chunks.text,
			ToolCalls: chunks.toolCalls,
			CreatedAt: time.Now(),
		}
		if err := o.persist(ctx, session.ID, assistantMsg); err != nil {
			return result, err
		}
		result.Messages = append(result.Messages, assistantMsg)

		outcome, err := o.dispatchToolCalls(ctx, session, tc, tasks, detector, safeMode, chunks.toolCalls)
		if err != nil {
			return result, err
		}
		result.Messages = append(result.Messages, outcome.resultMessages...)
		if outcome.completionStatus != "" {
			session.CompletionStatus = outcome.completionStatus
			result.CompletionStatus = outcome.completionStatus
		}
		if outcome.terminate || outcome.awaitingConfirm {
			result.AwaitingConfirm = outcome.awaitingConfirm
			return result, nil
		}
		// otherwise loop: ask the LLM again with the new tool results in context
	}

	o.appendSystemText(result, session, "iteration limit reached")
	// §4.J: exceeding the ceiling does not fail the session; it stays Active.
	return result, nil
}

// maybeCompact runs one compaction pass if the assembled window is
// over the trigger threshold, persisting the new summary in place of
// the old one.
func (o *Orchestrator) maybeCompact(ctx context.Context, sessionID string, history []*models.Message) error {
	if o.opts.Compaction == nil {
		return nil
	}
	summary := o.summaries[sessionID]
	if !o.opts.Compaction.NeedsCompaction(summary, history) {
		return nil
	}
	newSummary, _, err := o.opts.Compaction.Compact(ctx, sessionID, summary, history)
	if err != nil {
		return err
	}
	o.summaries[sessionID] = newSummary
	return nil
}

type llmTurn struct {
	text      string
	toolCalls []models.ToolCall
}

// askLLM issues one completion request, retrying only on transient
// provider errors per §4.J's backoff policy; a non-retryable error
// returns immediately without burning the remaining attempts.
func (o *Orchestrator) askLLM(ctx context.Context, sessionID string, safeMode bool) (*llmTurn, error) {
	req := o.buildRequest(sessionID, safeMode)

	var lastErr error
	for attempt := 1; attempt <= o.opts.RetryMaxAttempts; attempt++ {
		turn, err := o.completeOnce(ctx, req)
		if err == nil {
			return turn, nil
		}
		lastErr = err
		if !providers.IsRetryable(err) {
			return nil, err
		}
		if attempt == o.opts.RetryMaxAttempts {
			break
		}
		if sleepErr := backoff.SleepWithBackoff(ctx, o.opts.RetryPolicy, attempt); sleepErr != nil {
			return nil, sleepErr
		}
	}
	return nil, fmt.Errorf("llm call failed after %d attempts: %w", o.opts.RetryMaxAttempts, lastErr)
}

func (o *Orchestrator) completeOnce(ctx context.Context, req *CompletionRequest) (*llmTurn, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.opts.LLMCallTimeout)
	defer cancel()

	chunkCh, err := o.llm.Complete(callCtx, req)
	if err != nil {
		return nil, err
	}

	turn := &llmTurn{}
	for chunk := range chunkCh {
		if chunk.Error != nil {
			return nil, chunk.Error
		}
		if chunk.Text != "" {
			turn.text += chunk.Text
		}
		if chunk.ToolCall != nil {
			turn.toolCalls = append(turn.toolCalls, *chunk.ToolCall)
		}
	}
	return turn, nil
}

func (o *Orchestrator) buildRequest(sessionID string, safeMode bool) *CompletionRequest {
	history, _ := o.opts.Sessions.GetHistory(context.Background(), sessionID, 0)
	messages := make([]CompletionMessage, 0, len(history)+1)
	if summary := o.summaries[sessionID]; summary != nil {
		messages = append(messages, CompletionMessage{Role: "system", Content: summary.Content})
	}
	for _, m := range history {
		messages = append(messages, toCompletionMessage(m))
	}

	return &CompletionRequest{
		Model:    o.model,
		System:   o.system,
		Messages: messages,
		Tools:    o.opts.Registry.AsLLMTools(safeMode),
	}
}

func toCompletionMessage(m *models.Message) CompletionMessage {
	return CompletionMessage{
		Role:        string(m.Role),
		Content:     m.Content,
		ToolCalls:   m.ToolCalls,
		ToolResults: m.ToolResults,
		Attachments: m.Attachments,
	}
}

func (o *Orchestrator) persist(ctx context.Context, sessionID string, msg *models.Message) error {
	return o.opts.Sessions.AppendMessage(ctx, sessionID, msg)
}

func (o *Orchestrator) emitAssistant(result *RunResult, session *models.Session, text string) *models.Message {
	msg := &models.Message{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Role:      models.RoleAssistant,
		Content:   text,
		CreatedAt: time.Now(),
	}
	result.Messages = append(result.Messages, msg)
	return msg
}

func (o *Orchestrator) appendSystemText(result *RunResult, session *models.Session, text string) {
	msg := &models.Message{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Role:      models.RoleSystem,
		Content:   text,
		CreatedAt: time.Now(),
	}
	if err := o.persist(context.Background(), session.ID, msg); err != nil {
		o.opts.Logger.Warn("failed to persist system message", "error", err, "session_id", session.ID)
	}
	result.Messages = append(result.Messages, msg)
}

// toolDispatchOutcome is the result of running a full round of tool
// calls returned by one LLM turn.
type toolDispatchOutcome struct {
	resultMessages   []*models.Message
	terminate        bool
	awaitingConfirm  bool
	completionStatus models.CompletionStatus
}

// dispatchToolCalls runs each call in returned order through the
// §4.J-tool inner state machine, stopping early if a call registers a
// pending confirmation (control returns to the user) or if any of the
// three tool-driven termination conditions fire.
func (o *Orchestrator) dispatchToolCalls(
	ctx context.Context,
	session *models.Session,
	tc *ToolContext,
	tasks *TaskQueue,
	detector *loopDetector,
	safeMode bool,
	calls []models.ToolCall,
) (*toolDispatchOutcome, error) {
	outcome := &toolDispatchOutcome{}

	for _, call := range calls {
		sig := toolCallSignature(call.Name, call.Input)
		if detector.observe(sig) {
			forceStop := detector.warn()
			o.opts.Logger.Warn("repeated tool call detected", "tool", call.Name, "session_id", session.ID)
			sysMsg := &models.Message{
				ID:        uuid.NewString(),
				SessionID: session.ID,
				Role:      models.RoleSystem,
				Content:   "Detected repeated tool call; consider terminating or changing approach",
				CreatedAt: time.Now(),
			}
			if err := o.persist(ctx, session.ID, sysMsg); err != nil {
				return outcome, err
			}
			outcome.resultMessages = append(outcome.resultMessages, sysMsg)
			if forceStop {
				final := o.emitAssistant(outcome.toResult(), session, "Stopping after repeated identical tool calls without progress.")
				if err := o.persist(ctx, session.ID, final); err != nil {
					return outcome, err
				}
				outcome.resultMessages = append(outcome.resultMessages, final)
				outcome.terminate = true
				return outcome, nil
			}
		}

		result, metaTerminate, err := o.dispatchOne(ctx, session, tc, tasks, safeMode, call)
		if err != nil {
			return outcome, err
		}

		resultMsg := &models.Message{
			ID:          uuid.NewString(),
			SessionID:   session.ID,
			Role:        models.RoleTool,
			Content:     result.Content,
			ToolResults: []models.ToolResult{*result},
			CreatedAt:   time.Now(),
		}
		if err := o.persist(ctx, session.ID, resultMsg); err != nil {
			return outcome, err
		}
		outcome.resultMessages = append(outcome.resultMessages, resultMsg)
		o.emitToolEvent(session, call, result)

		if metaTerminate.awaitingConfirm {
			outcome.awaitingConfirm = true
			return outcome, nil
		}
		if metaTerminate.finished {
			outcome.terminate = true
			if metaTerminate.completionStatus != "" {
				outcome.completionStatus = metaTerminate.completionStatus
			}
			return outcome, nil
		}
	}

	return outcome, nil
}

func (o *toolDispatchOutcome) toResult() *RunResult {
	return &RunResult{Messages: o.resultMessages}
}

type dispatchSignal struct {
	awaitingConfirm  bool
	finished         bool
	completionStatus models.CompletionStatus
}

// dispatchOne runs the §4.J-tool inner state machine for a single
// tool call.
func (o *Orchestrator) dispatchOne(
	ctx context.Context,
	session *models.Session,
	tc *ToolContext,
	tasks *TaskQueue,
	safeMode bool,
	call models.ToolCall,
) (*models.ToolResult, dispatchSignal, error) {
	switch call.Name {
	case toolAddTask:
		msg, err := tasks.applyAddTask(call.Input)
		return synthResult(call.ID, msg, err), dispatchSignal{}, nil
	case toolDefineTasks:
		msg, err := tasks.applyDefineTasks(call.Input)
		return synthResult(call.ID, msg, err), dispatchSignal{}, nil
	}

	if safeMode && o.opts.Registry != nil {
		if t, ok := o.opts.Registry.Get(call.Name); ok && toolSafetyLevel(t) == SafetyUnsafe {
			return &models.ToolResult{
				ToolCallID: call.ID,
				Content:    fmt.Sprintf("refused: %q is not permitted in safe mode", call.Name),
				IsError:    true,
			}, dispatchSignal{}, nil
		}
	}

	if o.opts.Validators != nil {
		vctx := validators.Context{
			ToolName:    call.Name,
			ToolArgs:    call.Input,
			ChannelID:   tc.ChannelID,
			SessionID:   session.ID,
			Credentials: tc,
		}
		if verdict := o.opts.Validators.Validate(vctx); verdict.Blocked {
			return &models.ToolResult{
				ToolCallID: call.ID,
				Content:    verdict.ErrorMessage(),
				IsError:    true,
			}, dispatchSignal{}, nil
		}
	}

	if o.opts.Confirmations != nil && confirmation.RequiresConfirmation(call.Name) {
		if o.opts.Confirmations.HasPending(tc.ChannelID) {
			return &models.ToolResult{
				ToolCallID: call.ID,
				Content:    "another confirmation is already pending for this channel; resolve it first",
				IsError:    true,
			}, dispatchSignal{}, nil
		}
		pending := confirmation.New(tc.ChannelID, session.ID, call.Name, call.ID, call.Input, "")
		o.opts.Confirmations.AddPending(pending)
		return &models.ToolResult{
			ToolCallID: call.ID,
			Content:    "awaiting confirmation: " + pending.Description,
		}, dispatchSignal{awaitingConfirm: true}, nil
	}

	return o.executeToolCall(ctx, tc, call)
}

// executeToolCall runs the actual tool, bypassing every gate already
// resolved by the caller (safe mode, validators, confirmation): the
// queued-tx path, the x402-metered path, or a plain registry
// execution. Both dispatchOne (first attempt) and ResumeConfirmed
// (after the user answers a pending confirmation) funnel into this.
func (o *Orchestrator) executeToolCall(ctx context.Context, tc *ToolContext, call models.ToolCall) (*models.ToolResult, dispatchSignal, error) {
	if txTool(call.Name) {
		result, err := o.dispatchQueuedTx(ctx, tc, call)
		if err != nil {
			return errResult(call.ID, err), dispatchSignal{}, nil
		}
		return result, dispatchSignal{}, nil
	}

	if o.opts.X402 != nil && o.opts.X402.IsX402Tool(call.Name) {
		content, err := o.opts.X402.Call(ctx, call.Name, call.Input)
		if err != nil {
			return errResult(call.ID, err), dispatchSignal{}, nil
		}
		return &models.ToolResult{ToolCallID: call.ID, Content: content}, dispatchSignal{}, nil
	}

	callCtx := WithToolContext(ctx, tc)
	result, err := o.opts.Registry.Execute(callCtx, call.Name, call.Input)
	if err != nil {
		return errResult(call.ID, err), dispatchSignal{}, nil
	}

	guarded := o.opts.ToolResultGuard.Apply(call.Name, models.ToolResult{
		ToolCallID: call.ID,
		Content:    result.Content,
		IsError:    result.IsError,
		Metadata:   result.Metadata,
	})

	signal := dispatchSignal{}
	if call.Name == "say_to_user" {
		var args struct {
			FinishedTask bool `json:"finished_task"`
		}
		_ = json.Unmarshal(call.Input, &args)
		if args.FinishedTask {
			signal.finished = true
		}
	}
	if v, ok := guarded.Metadata["finished_task"].(bool); ok && v {
		signal.finished = true
	}
	if call.Name == "task_fully_completed" {
		signal.finished = true
		signal.completionStatus = models.StatusComplete
	}

	return &guarded, signal, nil
}

// ResumeConfirmed answers the single pending confirmation for a
// channel, if any, and runs the deferred tool call when approved. The
// caller (the Message Dispatcher, on recognizing a confirm/cancel
// reply) must already hold the session's lane, exactly as for Run.
func (o *Orchestrator) ResumeConfirmed(ctx context.Context, session *models.Session, tc *ToolContext, approved bool) (*RunResult, error) {
	if o.opts.Confirmations == nil {
		return nil, fmt.Errorf("orchestrator: no confirmation manager configured")
	}

	var pending confirmation.Pending
	var ok bool
	if approved {
		pending, ok = o.opts.Confirmations.Confirm(tc.ChannelID)
	} else {
		pending, ok = o.opts.Confirmations.Cancel(tc.ChannelID)
	}
	if !ok {
		return nil, fmt.Errorf("orchestrator: no pending confirmation for this channel")
	}

	result := &RunResult{CompletionStatus: session.CompletionStatus}
	call := models.ToolCall{ID: pending.ToolCallID, Name: pending.ToolName, Input: pending.Arguments}

	var toolResult *models.ToolResult
	var signal dispatchSignal
	var err error
	if pending.IsExpired() {
		toolResult = &models.ToolResult{
			ToolCallID: call.ID,
			Content:    "confirmation expired before it was answered",
			IsError:    true,
		}
	} else if !approved {
		toolResult = &models.ToolResult{
			ToolCallID: call.ID,
			Content:    "user cancelled: " + pending.Description,
		}
	} else {
		toolResult, signal, err = o.executeToolCall(ctx, tc, call)
		if err != nil {
			return result, err
		}
	}

	resultMsg := &models.Message{
		ID:          uuid.NewString(),
		SessionID:   session.ID,
		Role:        models.RoleTool,
		Content:     toolResult.Content,
		ToolResults: []models.ToolResult{*toolResult},
		CreatedAt:   time.Now(),
	}
	if err := o.persist(ctx, session.ID, resultMsg); err != nil {
		return result, err
	}
	result.Messages = append(result.Messages, resultMsg)
	o.emitToolEvent(session, call, toolResult)

	if signal.completionStatus != "" {
		session.CompletionStatus = signal.completionStatus
		result.CompletionStatus = signal.completionStatus
	}

	session.UpdatedAt = time.Now()
	session.LastActivityAt = session.UpdatedAt
	if err := o.opts.Sessions.Update(ctx, session); err != nil {
		return result, fmt.Errorf("orchestrator: save session after confirmation: %w", err)
	}

	return result, nil
}

// txTool reports whether name is the queued-transaction tool: signed
// off-line and submitted to the queue rather than broadcast inline.
func txTool(name string) bool { return name == "web3_tx" }

func (o *Orchestrator) dispatchQueuedTx(ctx context.Context, tc *ToolContext, call models.ToolCall) (*models.ToolResult, error) {
	if o.opts.Wallet == nil {
		return nil, fmt.Errorf("wallet provider unavailable for %q", call.Name)
	}
	if o.opts.TxQueue == nil {
		return nil, fmt.Errorf("transaction queue unavailable for %q", call.Name)
	}

	var args struct {
		Network  string `json:"network"`
		To       string `json:"to"`
		Value    string `json:"value"`
		Data     string `json:"data"`
		GasLimit string `json:"gas_limit"`
	}
	if err := json.Unmarshal(call.Input, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	signer, err := o.opts.Wallet.GetWallet(ctx)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}

	tx := txqueue.QueuedTransaction{
		UUID:      uuid.NewString(),
		Network:   args.Network,
		From:      o.opts.Wallet.Address(),
		To:        args.To,
		Value:     args.Value,
		Data:      args.Data,
		GasLimit:  args.GasLimit,
		Status:    txqueue.StatusPending,
		CreatedAt: time.Now(),
		ChannelID: tc.ChannelID,
	}

	digest := sha256OfCall(call)
	sig, err := signer.SignHash(digest)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	tx.SignedTxHex = fmt.Sprintf("0x%x", sig)

	id := o.opts.TxQueue.Submit(tx)
	return &models.ToolResult{
		ToolCallID: call.ID,
		Content:    fmt.Sprintf("transaction queued: %s", id),
	}, nil
}

func (o *Orchestrator) emitToolEvent(session *models.Session, call models.ToolCall, result *models.ToolResult) {
	if o.opts.Events == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"session_id": session.ID,
		"tool":       call.Name,
		"is_error":   result.IsError,
	})
	if err != nil {
		return
	}
	o.opts.Events.Broadcast(events.Event{Event: "tool.result", Data: payload})
}

func synthResult(callID, content string, err error) *models.ToolResult {
	if err != nil {
		return &models.ToolResult{ToolCallID: callID, Content: err.Error(), IsError: true}
	}
	return &models.ToolResult{ToolCallID: callID, Content: content}
}

func errResult(callID string, err error) *models.ToolResult {
	return &models.ToolResult{ToolCallID: callID, Content: err.Error(), IsError: true}
}

// sha256OfCall derives a deterministic digest for a queued transaction
// from its tool call, standing in for the proper EIP-712/RLP transaction
// hash a live chain integration would sign.
func sha256OfCall(call models.ToolCall) [32]byte {
	return sha256.Sum256(append([]byte(call.Name+":"), call.Input...))
}
