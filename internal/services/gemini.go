package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/fofrafo/dynamic-form/internal/models"
)

type GeminiProvider struct {
	client *genai.Client
	model  string
	rate   limiter
}

func NewGeminiProvider(ctx context.Context, apiKey, model string, concurrentReqs int) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
		model:  model,
		rate:   newLimiter(concurrentReqs),
	}, nil
}

func (p *GeminiProvider) Close() {
	p.client.Close()
}

func (p *GeminiProvider) Name() string { return "gemini/" + p.model }

func (p *GeminiProvider) Complete(ctx context.Context, messages []models.ChatMessage, opts CompletionOptions) (string, error) {
	system, history, last, err := geminiTranscript(messages)
	if err != nil {
		return "", err
	}

	if err := p.rate.acquire(ctx); err != nil {
		return "", err
	}
	defer p.rate.release()

	// A model handle carries per-call settings, so each call gets its own.
	model := p.client.GenerativeModel(p.model)
	model.SetTemperature(opts.Temperature)
	model.SetTopP(0.95)
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxTokens))
	}
	if opts.JSON {
		model.ResponseMIMEType = "application/json"
	}
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	chat := model.StartChat()
	chat.History = history

	resp, err := chat.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	text := extractText(resp)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("Gemini returned no content")
	}
	return text, nil
}

// geminiTranscript splits a chat into the system instruction, the prior turns
// and the final user message Gemini expects as the new input.
func geminiTranscript(messages []models.ChatMessage) (string, []*genai.Content, string, error) {
	var system []string
	var turns []models.ChatMessage
	for _, m := range messages {
		if m.Role == roleSystem {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	if len(turns) == 0 || turns[len(turns)-1].Role != roleUser {
		return "", nil, "", fmt.Errorf("conversation must end with a user message")
	}

	history := make([]*genai.Content, 0, len(turns)-1)
	for _, m := range turns[:len(turns)-1] {
		role := "user"
		if m.Role == roleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}
	return strings.Join(system, "\n\n"), history, turns[len(turns)-1].Content, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
