package config

// ToolsConfig points at the declarative validator rule set consulted
// by the Validator Registry before a tool call is allowed to proceed.
type ToolsConfig struct {
	ValidatorRulesFile string `yaml:"validator_rules_file"`
}

func applyToolsDefaults(cfg *ToolsConfig) {
	if cfg.ValidatorRulesFile == "" {
		cfg.ValidatorRulesFile = "validators.yaml"
	}
}
