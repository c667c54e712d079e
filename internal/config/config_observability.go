package config

// LoggingConfig configures the structured logger built on
// internal/observability.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}
