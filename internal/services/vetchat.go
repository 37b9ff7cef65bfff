package services

import (
	"context"
	"strings"

	"github.com/fofrafo/dynamic-form/internal/models"
)

// VetChatService answers follow-up questions of an owner once the intake is done.
type VetChatService struct {
	llm LLMProvider
}

func NewVetChatService(llm LLMProvider) *VetChatService {
	return &VetChatService{llm: llm}
}

func (s *VetChatService) VetChat(ctx context.Context, req models.VetChatRequest) (*models.VetChatResponse, error) {
	fields := map[string]string{}
	if strings.TrimSpace(req.Message) == "" {
		fields["message"] = "Message is required"
	}
	if req.Context == nil {
		fields["context"] = "Context is required"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	reply, err := s.llm.Complete(ctx, vetChatMessages(req), CompletionOptions{
		Temperature: intakeTemperature,
		MaxTokens:   intakeMaxTokens,
	})
	if err != nil {
		return nil, &UpstreamError{Message: "AI service temporarily unavailable", Err: err}
	}
	return &models.VetChatResponse{Response: reply}, nil
}

func vetChatMessages(req models.VetChatRequest) []models.ChatMessage {
	messages := []models.ChatMessage{{Role: roleSystem, Content: vetChatSystemPrompt(req.Context)}}
	for _, turn := range req.Context.ChatHistory {
		role := roleAssistant
		if turn.Type == roleUser {
			role = roleUser
		}
		messages = append(messages, models.ChatMessage{Role: role, Content: turn.Content})
	}
	return append(messages, models.ChatMessage{Role: roleUser, Content: req.Message})
}
