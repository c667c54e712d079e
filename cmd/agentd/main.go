// Package main provides the CLI entry point for agentd, a single-agent
// host that bridges one messaging channel to an LLM provider with
// on-chain payment and transaction-signing tool support.
//
// # Basic Usage
//
// Start the agent:
//
//	agentd serve --config agentd.yaml
//
// # Environment Variables
//
//   - AGENTD_CONFIG: path to the YAML configuration file (default: agentd.yaml)
//   - ANTHROPIC_API_KEY / OPENAI_API_KEY: LLM provider credentials, named by
//     the provider's api_key_env config field
//   - AGENTD_WALLET_PRIVATE_KEY: local wallet signing key, named by
//     wallet.private_key_env
//   - TELEGRAM_BOT_TOKEN: Telegram bot token, when channels.telegram is enabled
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/beacongrid/agentd/internal/agent"
	"github.com/beacongrid/agentd/internal/agent/providers"
	"github.com/beacongrid/agentd/internal/channels"
	"github.com/beacongrid/agentd/internal/channels/telegram"
	"github.com/beacongrid/agentd/internal/compaction"
	"github.com/beacongrid/agentd/internal/confirmation"
	"github.com/beacongrid/agentd/internal/config"
	"github.com/beacongrid/agentd/internal/dispatch"
	"github.com/beacongrid/agentd/internal/events"
	"github.com/beacongrid/agentd/internal/observability"
	"github.com/beacongrid/agentd/internal/sessions"
	"github.com/beacongrid/agentd/internal/tools/builtin"
	"github.com/beacongrid/agentd/internal/txqueue"
	"github.com/beacongrid/agentd/internal/validators"
	"github.com/beacongrid/agentd/internal/wallet"
	"github.com/beacongrid/agentd/internal/x402"
	"github.com/beacongrid/agentd/pkg/models"
)

// Build information - populated by ldflags during build.
//
// Example build command:
//
//	go build -ldflags "-X main.version=v1.0.0 -X main.commit=$(git rev-parse HEAD)"
var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "agentd",
		Short:        "agentd - single-channel AI agent host with on-chain payment tools",
		Version:      fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage: true,
	}
	rootCmd.AddCommand(buildServeCmd())
	return rootCmd
}

func buildServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the agent host",
		Long: `Start the agent host with the configured channel, LLM provider, wallet,
and x402 payment client.

The server will:
1. Load and validate configuration
2. Construct the wallet, validators, confirmation manager, tx queue, and
   event broadcaster
3. Build the orchestrator and register its tools
4. Start the configured channel adapter and dispatch its inbound messages
5. Serve Prometheus metrics

Graceful shutdown is handled on SIGINT/SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				configPath = os.Getenv("AGENTD_CONFIG")
			}
			if configPath == "" {
				configPath = "agentd.yaml"
			}
			return runServe(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file (default: $AGENTD_CONFIG or agentd.yaml)")
	return cmd
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.MustNewLogger(observability.LogConfig{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: true,
	})
	metrics := observability.NewMetrics()

	logger.Info(ctx, "configuration loaded",
		"llm_provider", cfg.LLM.DefaultProvider,
		"wallet_mode", cfg.Wallet.Mode,
	)

	host, err := buildHost(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	metricsSrv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler: promhttp.Handler(),
	}
	go func() {
		logger.Info(ctx, "metrics server listening", "addr", metricsSrv.Addr)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "metrics server failed", "error", err)
		}
	}()

	if err := host.start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info(ctx, "shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	host.stop(shutdownCtx)

	return nil
}

// agentHost wires every component onto the Message Dispatcher and drives
// the configured channel adapters' inbound loop through a channel
// registry, so adding a second adapter later is a registration, not a
// rewrite of the pump loop.
type agentHost struct {
	dispatcher *dispatch.Dispatcher
	registry   *channels.Registry
	logger     *observability.Logger
	metrics    *observability.Metrics
	agentID    string
}

func buildHost(ctx context.Context, cfg *config.Config, logger *observability.Logger, metrics *observability.Metrics) (*agentHost, error) {
	w, err := buildWallet(ctx, cfg.Wallet)
	if err != nil {
		return nil, fmt.Errorf("build wallet: %w", err)
	}

	signer := x402.NewSigner(w, cfg.X402.ChainID, cfg.X402.DomainName, cfg.X402.DomainVersion)
	limiter := rate.NewLimiter(rate.Limit(cfg.X402.RatePerSecond), cfg.X402.RateBurst)
	x402Client := x402.NewClient(signer, limiter, cfg.X402.Endpoints)
	x402Router := agent.NewX402Router(x402Client, map[string]string{})

	validatorRegistry := validators.NewRegistry()
	if cfg.Tools.ValidatorRulesFile != "" {
		if err := validatorRegistry.LoadFile(cfg.Tools.ValidatorRulesFile); err != nil {
			logger.Warn(ctx, "no validator rules loaded", "file", cfg.Tools.ValidatorRulesFile, "error", err)
		}
	}

	confirmations := confirmation.NewManager()
	txQueue := txqueue.NewManager()
	broadcaster := events.New()
	store := sessions.NewMemoryStore()
	lanes := sessions.NewLaneManager()

	llmProvider, model, err := buildLLMProvider(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("build llm provider: %w", err)
	}

	summarizer := &agent.LLMSummarizer{LLM: llmProvider, Model: model}
	compactionEngine := compaction.NewEngine(compaction.Config{
		Ceiling:    cfg.Session.ContextTokenCeiling,
		RecentTail: cfg.Session.RecentTail,
	}, summarizer)

	registry := agent.NewToolRegistry()
	registry.Register(builtin.SayToUserTool{})
	registry.Register(builtin.TaskFullyCompletedTool{})
	registry.Register(builtin.AddTaskTool{})
	registry.Register(builtin.DefineTasksTool{})
	registry.Register(builtin.Web3TxTool{})

	orchestrator := agent.NewOrchestrator(llmProvider, agent.OrchestratorOptions{
		RecentTail:        cfg.Session.RecentTail,
		CompactionCeiling: cfg.Session.ContextTokenCeiling,
		Sessions:          store,
		Lanes:             lanes,
		Registry:          registry,
		Validators:        validatorRegistry,
		Confirmations:     confirmations,
		TxQueue:           txQueue,
		Wallet:            w,
		X402:              x402Router,
		Events:            broadcaster,
		Compaction:        compactionEngine,
		Summarizer:        summarizer,
	})
	orchestrator.SetSystemPrompt(cfg.Agent.SystemPrompt)
	orchestrator.SetModel(model)

	dispatcher := &dispatch.Dispatcher{
		Sessions:      store,
		Lanes:         lanes,
		Orchestrator:  orchestrator,
		Wallet:        w,
		Events:        broadcaster,
		Confirmations: confirmations,
	}

	channelRegistry := channels.NewRegistry()
	if cfg.Channels.Telegram.Enabled {
		adapter, err := telegram.NewAdapter(telegram.Config{
			Token: cfg.Channels.Telegram.BotToken,
		})
		if err != nil {
			return nil, fmt.Errorf("build telegram adapter: %w", err)
		}
		channelRegistry.Register(adapter)
	}

	return &agentHost{
		dispatcher: dispatcher,
		registry:   channelRegistry,
		logger:     logger,
		metrics:    metrics,
		agentID:    cfg.Session.DefaultAgentID,
	}, nil
}

func (h *agentHost) start(ctx context.Context) error {
	if len(h.registry.All()) == 0 {
		h.logger.Warn(ctx, "no channel adapter enabled; agent host is idle")
		return nil
	}
	if err := h.registry.StartAll(ctx); err != nil {
		return fmt.Errorf("start channel adapters: %w", err)
	}
	go h.pump(ctx)
	return nil
}

func (h *agentHost) stop(ctx context.Context) {
	if err := h.registry.StopAll(ctx); err != nil {
		h.logger.Error(ctx, "channel adapter shutdown error", "error", err)
	}
}

// pump fans inbound messages in from every registered channel adapter
// and runs each through the Message Dispatcher, sending the
// orchestrator's reply back out on the adapter the message arrived on.
func (h *agentHost) pump(ctx context.Context) {
	for msg := range h.registry.AggregateMessages(ctx) {
		h.handleInbound(ctx, msg)
	}
}

// confirmReplies/cancelReplies are the plain-text replies recognized as
// answers to a pending confirmation, checked case-insensitively against
// the trimmed message body.
var confirmReplies = map[string]bool{"confirm": true, "yes": true, "y": true}
var cancelReplies = map[string]bool{"cancel": true, "no": true, "n": true}

func (h *agentHost) handleInbound(ctx context.Context, msg *models.Message) {
	chatID, _ := msg.Metadata["chat_id"]
	platformChat := fmt.Sprintf("%v", chatID)

	h.metrics.MessageReceived(string(msg.Channel), "inbound")

	in := dispatch.Inbound{
		AgentID:      h.agentID,
		Channel:      msg.Channel,
		PlatformChat: platformChat,
		Text:         msg.Content,
	}

	reply := strings.ToLower(strings.TrimSpace(msg.Content))
	if confirmed, cancelled := confirmReplies[reply], cancelReplies[reply]; (confirmed || cancelled) && h.dispatcher.HasPendingConfirmation(platformChat) {
		result, err := h.dispatcher.HandleConfirmation(ctx, in, confirmed)
		if err != nil {
			h.logger.Error(ctx, "confirmation dispatch failed", "error", err)
			h.metrics.RecordError("dispatch", "confirmation_failed")
			return
		}
		h.sendToolReplies(ctx, msg.Channel, chatID, result.Messages)
		return
	}

	result, err := h.dispatcher.Handle(ctx, in)
	if err != nil {
		h.logger.Error(ctx, "dispatch failed", "error", err)
		h.metrics.RecordError("dispatch", "handle_failed")
		return
	}

	outbound, ok := h.registry.GetOutbound(msg.Channel)
	if !ok {
		h.logger.Error(ctx, "no outbound adapter for channel", "channel", msg.Channel)
		return
	}

	for _, out := range result.Messages {
		if out.Role != models.RoleAssistant || out.Content == "" {
			continue
		}
		reply := &models.Message{
			Channel:  msg.Channel,
			Content:  out.Content,
			Metadata: map[string]any{"chat_id": chatID},
		}
		if err := outbound.Send(ctx, reply); err != nil {
			h.logger.Error(ctx, "send reply failed", "error", err)
			continue
		}
		h.metrics.MessageSent(string(msg.Channel))
	}
}

// sendToolReplies forwards the tool-result message ResumeConfirmed
// produces back to the user: a confirmation reply never goes through
// another LLM turn, so there is no assistant message to wait for.
func (h *agentHost) sendToolReplies(ctx context.Context, channel models.ChannelType, chatID any, messages []*models.Message) {
	outbound, ok := h.registry.GetOutbound(channel)
	if !ok {
		h.logger.Error(ctx, "no outbound adapter for channel", "channel", channel)
		return
	}
	for _, out := range messages {
		if out.Content == "" {
			continue
		}
		reply := &models.Message{
			Channel:  channel,
			Content:  out.Content,
			Metadata: map[string]any{"chat_id": chatID},
		}
		if err := outbound.Send(ctx, reply); err != nil {
			h.logger.Error(ctx, "send reply failed", "error", err)
			continue
		}
		h.metrics.MessageSent(string(channel))
	}
}

func buildWallet(ctx context.Context, cfg config.WalletConfig) (wallet.Provider, error) {
	switch cfg.Mode {
	case "remote":
		return nil, fmt.Errorf("wallet mode %q requires an external key-fetcher wired by the caller of config.Load; not available from this CLI", cfg.Mode)
	default:
		if key := os.Getenv(cfg.PrivateKeyEnv); key != "" {
			return wallet.NewLocalFromHex(key)
		}
		return wallet.NewLocal()
	}
}

func buildLLMProvider(cfg config.LLMConfig) (agent.LLMProvider, string, error) {
	providerCfg, ok := cfg.Providers[cfg.DefaultProvider]
	if !ok {
		return nil, "", fmt.Errorf("no provider config for %q", cfg.DefaultProvider)
	}

	switch cfg.DefaultProvider {
	case "anthropic":
		p, err := providers.NewAnthropicProvider(providers.AnthropicConfig{
			APIKey:       os.Getenv(providerCfg.APIKeyEnv),
			BaseURL:      providerCfg.BaseURL,
			DefaultModel: providerCfg.DefaultModel,
		})
		if err != nil {
			return nil, "", err
		}
		return p, providerCfg.DefaultModel, nil
	case "openai":
		p := providers.NewOpenAIProvider(os.Getenv(providerCfg.APIKeyEnv))
		return p, providerCfg.DefaultModel, nil
	default:
		return nil, "", fmt.Errorf("unsupported llm provider %q", cfg.DefaultProvider)
	}
}
