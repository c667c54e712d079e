// Package config loads and validates the agentd configuration file: a
// single YAML document (optionally split across includes via
// LoadRaw's $include resolution) describing the LLM provider, session
// defaults, the one wired channel adapter, tool/validator/confirmation
// policy, and the wallet/x402 payment stack.
package config

import (
	"fmt"
	"strings"
)

// Config is the root configuration structure for agentd.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	LLM      LLMConfig      `yaml:"llm"`
	Session  SessionConfig  `yaml:"session"`
	Channels ChannelsConfig `yaml:"channels"`
	Tools    ToolsConfig    `yaml:"tools"`
	Wallet   WalletConfig   `yaml:"wallet"`
	X402     X402Config     `yaml:"x402"`
	Logging  LoggingConfig  `yaml:"logging"`
	Agent    AgentConfig    `yaml:"agent"`
}

// ServerConfig configures the process's own health/metrics surface.
type ServerConfig struct {
	Host        string `yaml:"host"`
	MetricsPort int    `yaml:"metrics_port"`
}

// Load reads path (resolving $include directives), decodes it against
// the known field set, applies defaults, and validates the result.
func Load(path string) (*Config, error) {
	raw, err := LoadRaw(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg, err := decodeRawConfig(raw)
	if err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyLLMDefaults(&cfg.LLM)
	applySessionDefaults(&cfg.Session)
	applyToolsDefaults(&cfg.Tools)
	applyWalletDefaults(&cfg.Wallet)
	applyX402Defaults(&cfg.X402)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.MetricsPort == 0 {
		cfg.MetricsPort = 9090
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format == "" {
		cfg.Format = "json"
	}
}

// ConfigValidationError collects every validation issue found in one
// pass rather than failing on the first, so a misconfigured deploy
// only needs one round trip to fix.
type ConfigValidationError struct {
	Issues []string
}

func (e *ConfigValidationError) Error() string {
	if e == nil || len(e.Issues) == 0 {
		return ""
	}
	return "invalid config: " + strings.Join(e.Issues, "; ")
}

func validateConfig(cfg *Config) error {
	var issues []string

	if cfg.LLM.DefaultProvider == "" {
		issues = append(issues, "llm.default_provider is required")
	} else if _, ok := cfg.LLM.Providers[cfg.LLM.DefaultProvider]; !ok {
		issues = append(issues, fmt.Sprintf("llm.default_provider %q has no matching entry under llm.providers", cfg.LLM.DefaultProvider))
	}

	switch cfg.Session.Reset.Mode {
	case "", "daily", "idle", "daily+idle", "never":
	default:
		issues = append(issues, fmt.Sprintf("session.reset.mode %q is not one of daily, idle, daily+idle, never", cfg.Session.Reset.Mode))
	}

	if cfg.Channels.Telegram.Enabled && strings.TrimSpace(cfg.Channels.Telegram.BotToken) == "" {
		issues = append(issues, "channels.telegram.bot_token is required when channels.telegram.enabled is true")
	}

	switch strings.ToLower(cfg.Wallet.Mode) {
	case "local", "remote":
	default:
		issues = append(issues, fmt.Sprintf("wallet.mode %q is not one of local, remote", cfg.Wallet.Mode))
	}

	if len(issues) > 0 {
		return &ConfigValidationError{Issues: issues}
	}
	return nil
}

// resetModeToPolicy maps the YAML-facing reset mode string to the
// models.ResetPolicy the dispatcher understands. "daily+idle" resolves
// to ResetIdle: idle timeouts fire far more often than the daily
// boundary, so the idle check is the one worth enforcing if only one
// can be represented per session.
func resetModeToPolicy(mode string) (policy string, ok bool) {
	switch mode {
	case "daily":
		return "daily", true
	case "idle", "daily+idle":
		return "idle", true
	case "never", "":
		return "never", true
	default:
		return "", false
	}
}

// ResetPolicy returns the session reset policy and its parameters
// derived from the session's reset configuration.
func (c *SessionConfig) ResetPolicy() (policy string, atHour, idleMinutes int) {
	p, _ := resetModeToPolicy(c.Reset.Mode)
	return p, c.Reset.AtHour, c.Reset.IdleMinutes
}

// DefaultContextCeiling is used when session.context_token_ceiling is unset.
const DefaultContextCeiling = 150_000

// DefaultRecentTail is the compaction recent-tail size used when
// session.recent_tail is unset.
const DefaultRecentTail = 12
