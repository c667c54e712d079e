package config

import "time"

// LLMConfig selects the default LLM provider/model and the
// orchestrator's retry policy for transient provider errors.
type LLMConfig struct {
	DefaultProvider string                       `yaml:"default_provider"`
	Providers       map[string]LLMProviderConfig `yaml:"providers"`

	MaxIterations int           `yaml:"max_iterations"`
	CallTimeout   time.Duration `yaml:"call_timeout"`
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryBaseMS   int           `yaml:"retry_base_ms"`
	RetryMaxMS    int           `yaml:"retry_max_ms"`
}

// LLMProviderConfig names one entry in llm.providers. APIKey is
// normally left blank in the file and supplied via APIKeyEnv so the
// key itself never lands in a committed config.
type LLMProviderConfig struct {
	APIKeyEnv    string `yaml:"api_key_env"`
	DefaultModel string `yaml:"default_model"`
	BaseURL      string `yaml:"base_url"`
	APIVersion   string `yaml:"api_version"`
}

func applyLLMDefaults(cfg *LLMConfig) {
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = 30
	}
	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = 120 * time.Second
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 4
	}
	if cfg.RetryBaseMS == 0 {
		cfg.RetryBaseMS = 500
	}
	if cfg.RetryMaxMS == 0 {
		cfg.RetryMaxMS = 8000
	}
}
