package services

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/fofrafo/dynamic-form/internal/models"
)

type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Concurrency int
}

type OpenAIProvider struct {
	client *openai.Client
	model  string
	rate   limiter
}

func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
		rate:   newLimiter(cfg.Concurrency),
	}
}

func (p *OpenAIProvider) Name() string { return "openai/" + p.model }

func (p *OpenAIProvider) Complete(ctx context.Context, messages []models.ChatMessage, opts CompletionOptions) (string, error) {
	if err := p.rate.acquire(ctx); err != nil {
		return "", err
	}
	defer p.rate.release()

	req := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	if opts.JSON {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("OpenAI returned no content")
	}
	return resp.Choices[0].Message.Content, nil
}
