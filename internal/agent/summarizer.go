package agent

import (
	"context"
	"fmt"

	"github.com/beacongrid/agentd/pkg/models"
)

// LLMSummarizer adapts an LLMProvider into a compaction.Summarizer: it
// issues a single, non-streaming completion request asking the model
// to summarize the given message slice under the supplied prompt.
type LLMSummarizer struct {
	LLM       LLMProvider
	Model     string
	MaxTokens int
}

// Summarize implements compaction.Summarizer.
func (s *LLMSummarizer) Summarize(ctx context.Context, messages []*models.Message, prompt string) (string, error) {
	req := &CompletionRequest{
		Model:     s.Model,
		System:    prompt,
		Messages:  make([]CompletionMessage, 0, len(messages)),
		MaxTokens: s.MaxTokens,
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = 1024
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, toCompletionMessage(m))
	}

	chunkCh, err := s.LLM.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}

	var summary string
	for chunk := range chunkCh {
		if chunk.Error != nil {
			return "", fmt.Errorf("summarize: %w", chunk.Error)
		}
		summary += chunk.Text
	}
	return summary, nil
}
