package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/fofrafo/dynamic-form/internal/models"
)

const (
	LangEnglish = "en"
	LangGerman  = "de"

	widgetMaxTokens = 300
)

// DetectLanguage picks German when the Accept-Language header mentions it.
func DetectLanguage(acceptLanguage string) string {
	if strings.Contains(strings.ToLower(acceptLanguage), LangGerman) {
		return LangGerman
	}
	return LangEnglish
}

// WidgetService produces the opening question of the embeddable form.
type WidgetService struct {
	llm LLMProvider
}

func NewWidgetService(llm LLMProvider) *WidgetService {
	return &WidgetService{llm: llm}
}

type widgetQuestion struct {
	Question string   `json:"question"`
	Type     string   `json:"type"`
	Options  []string `json:"options"`
}

func (s *WidgetService) FirstQuestion(ctx context.Context, intake models.IntakeData, lang string) (*models.Question, error) {
	intake = intake.Trimmed()
	if fields := intake.MissingFields(); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	raw, err := s.llm.Complete(ctx, []models.ChatMessage{
		{Role: roleSystem, Content: widgetSystemPrompt(lang)},
		{Role: roleUser, Content: widgetUserLine(intake, lang)},
	}, CompletionOptions{JSON: true, Temperature: intakeTemperature, MaxTokens: widgetMaxTokens})
	if err != nil {
		return nil, &UpstreamError{Message: "AI service unavailable", Err: err}
	}
	return parseWidgetQuestion(raw), nil
}

// parseWidgetQuestion never fails: output that is not the expected JSON
// becomes a free text question carrying the raw content.
func parseWidgetQuestion(raw string) *models.Question {
	q := &models.Question{Emoji: defaultEmoji, GoalsChecked: []string{}}

	var w widgetQuestion
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &w); err != nil || strings.TrimSpace(w.Question) == "" {
		q.Question = strings.TrimSpace(raw)
		q.ResponseType = models.ResponseText
		return q
	}

	q.Question = w.Question
	if w.Type == "multiple_choice" && len(w.Options) > 0 {
		q.ResponseType = models.ResponseSingleChoice
		q.Options = w.Options
	} else {
		q.ResponseType = models.ResponseText
	}
	return q
}
