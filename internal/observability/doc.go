// Package observability provides metrics and structured logging for agentd.
//
// # Overview
//
// The package covers two pillars:
//
//  1. Metrics - Quantitative measurements using Prometheus
//  2. Logging - Structured logs with sensitive data redaction
//
// # Metrics
//
// Metrics are implemented using the Prometheus client libraries and track:
//   - Message flow through channels
//   - LLM request latency and token usage
//   - Tool execution performance
//   - Error rates by component and type
//   - Active session counts and run attempts
//
// Example usage:
//
//	metrics := observability.NewMetrics()
//
//	metrics.MessageReceived("telegram", "inbound")
//
//	start := time.Now()
//	// ... make LLM request ...
//	metrics.RecordLLMRequest("anthropic", "claude-3-opus", "success",
//	    time.Since(start).Seconds(), promptTokens, completionTokens)
//
//	start = time.Now()
//	// ... execute tool ...
//	metrics.RecordToolExecution("transfer_funds", "success", time.Since(start).Seconds())
//
// # Logging
//
// Logging is built on Go's slog package with enhancements for:
//   - Automatic request ID correlation from context
//   - Sensitive data redaction (API keys, passwords, tokens)
//   - JSON output for production, text for development
//   - Configurable log levels
//
// Example usage:
//
//	logger := observability.NewLogger(observability.LogConfig{
//	    Level:     "info",
//	    Format:    "json",
//	    AddSource: true,
//	})
//
//	ctx := observability.AddRequestID(ctx, requestID)
//	ctx = observability.AddSessionID(ctx, sessionID)
//
//	logger.Info(ctx, "processing message",
//	    "channel", "telegram",
//	    "user_id", userID,
//	)
//
//	logger.Error(ctx, "llm request failed",
//	    "error", err,
//	    "provider", "anthropic",
//	    "api_key", apiKey, // automatically redacted
//	)
//
// # Security Considerations
//
// The logging component automatically redacts:
//   - API keys (Anthropic, OpenAI, generic)
//   - Passwords and secrets
//   - JWT tokens
//   - Bearer tokens
//   - Custom patterns via configuration
package observability
