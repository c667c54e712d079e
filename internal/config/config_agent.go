package config

// AgentConfig carries the orchestrator's system prompt and the model
// alias to request from the default LLM provider.
type AgentConfig struct {
	SystemPrompt string `yaml:"system_prompt"`
	Model        string `yaml:"model"`
}
