package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fofrafo/dynamic-form/internal/config"
	"github.com/fofrafo/dynamic-form/internal/models"
)

const (
	roleSystem    = "system"
	roleUser      = "user"
	roleAssistant = "assistant"
)

type CompletionOptions struct {
	JSON        bool
	Temperature float32
	MaxTokens   int
}

// LLMProvider turns a chat transcript into the model's next message.
type LLMProvider interface {
	Complete(ctx context.Context, messages []models.ChatMessage, opts CompletionOptions) (string, error)
	Name() string
}

// NewLLMProvider builds the provider selected by LLM_PROVIDER.
func NewLLMProvider(ctx context.Context, cfg *config.Config) (LLMProvider, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.OpenAIModel,
			Concurrency: cfg.LLMConcurrency,
		}), nil
	case config.ProviderGemini:
		return NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.LLMConcurrency)
	}
	return nil, fmt.Errorf("unsupported LLM provider %q", cfg.LLMProvider)
}

// limiter is a token bucket bounding concurrent model calls.
type limiter chan struct{}

func newLimiter(n int) limiter {
	if n <= 0 {
		n = 1
	}
	l := make(limiter, n)
	for i := 0; i < n; i++ {
		l <- struct{}{}
	}
	return l
}

func (l limiter) acquire(ctx context.Context) error {
	select {
	case <-l:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(2 * time.Minute):
		return fmt.Errorf("timeout waiting for LLM rate slot")
	}
}

func (l limiter) release() {
	l <- struct{}{}
}

// cleanJSON strips markdown code fences and any prose around the outermost
// JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}
