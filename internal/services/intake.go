package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fofrafo/dynamic-form/internal/models"
	"github.com/fofrafo/dynamic-form/internal/repository"
)

const (
	defaultEmoji      = "🤔"
	intakeTemperature = 0.7
	intakeMaxTokens   = 800
	jobMaxRetries     = 3
)

type SessionStore interface {
	Create(ctx context.Context, s *models.FormSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.FormSession, error)
	Complete(ctx context.Context, id uuid.UUID, c models.Completion) error
}

type AnswerStore interface {
	SaveHistory(ctx context.Context, sessionID uuid.UUID, history []models.QAPair) (int, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*models.FormAnswer, error)
}

// IntakeService drives one question round of an intake session against the
// language model and records the session as it goes.
type IntakeService struct {
	sessions SessionStore
	answers  AnswerStore
	llm      LLMProvider
	queue    JobQueue
	events   EventPublisher
}

// NewIntakeService wires the service. queue and events may be nil.
func NewIntakeService(sessions SessionStore, answers AnswerStore, llm LLMProvider, queue JobQueue, events EventPublisher) *IntakeService {
	return &IntakeService{
		sessions: sessions,
		answers:  answers,
		llm:      llm,
		queue:    queue,
		events:   events,
	}
}

func (s *IntakeService) GenerateQuestion(ctx context.Context, req models.GenerateQuestionRequest) (*models.Response, error) {
	intake := req.IntakeData.Trimmed()
	fields := map[string]string{}
	// follow-up rounds only need session_id and history
	if req.SessionID == "" {
		fields = intake.MissingFields()
	}
	for i, qa := range req.History {
		if strings.TrimSpace(qa.Question) == "" || strings.TrimSpace(qa.Answer) == "" {
			fields[fmt.Sprintf("history[%d]", i)] = "Question and answer are required"
		}
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	session, err := s.openSession(ctx, req.SessionID, intake)
	if err != nil {
		return nil, err
	}
	intake = storedIntake(session, intake)

	if len(req.History) > 0 {
		if _, err := s.answers.SaveHistory(ctx, session.ID, req.History); err != nil {
			return nil, fmt.Errorf("failed to save answers: %w", err)
		}
	}

	raw, err := s.llm.Complete(ctx, intakeMessages(intake, req.History), CompletionOptions{
		JSON:        true,
		Temperature: intakeTemperature,
		MaxTokens:   intakeMaxTokens,
	})
	if err != nil {
		return nil, &UpstreamError{Message: "AI service unavailable", Err: err}
	}

	resp, err := decodeModelResponse(raw)
	if err != nil {
		log.Printf("Invalid AI response for session %s: %v", session.ID, err)
		return nil, &UpstreamError{Message: "Invalid AI response format", Err: err}
	}
	resp.SessionID = session.ID.String()

	if resp.IsCompleted() {
		if err := s.complete(ctx, session.ID, *resp.Completion); err != nil {
			return nil, err
		}
		return resp, nil
	}

	s.publish(ctx, models.SessionEvent{Type: models.EventQuestion, SessionID: session.ID, Payload: resp.Question})
	return resp, nil
}

func (s *IntakeService) openSession(ctx context.Context, sessionID string, intake models.IntakeData) (*models.FormSession, error) {
	if sessionID == "" {
		session := &models.FormSession{
			Species: intake.Species,
			Age:     intake.Age,
			Name:    intake.Name,
			Reason:  intake.Reason,
		}
		if err := s.sessions.Create(ctx, session); err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		log.Printf("Created intake session %s", session.ID)
		return session, nil
	}

	id, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"session_id": "Session ID must be a UUID"}}
	}
	session, err := s.sessions.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Message: "Session not found"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session.Status == models.SessionCompleted {
		return nil, &ConflictError{Message: "Session already completed"}
	}
	return session, nil
}

// storedIntake prefers the pet data saved with the session; request fields
// only fill blanks.
func storedIntake(session *models.FormSession, fallback models.IntakeData) models.IntakeData {
	d := session.Intake().Trimmed()
	if d.Species == "" {
		d.Species = fallback.Species
	}
	if d.Age == "" {
		d.Age = fallback.Age
	}
	if d.Name == "" {
		d.Name = fallback.Name
	}
	if d.Reason == "" {
		d.Reason = fallback.Reason
	}
	return d
}

func (s *IntakeService) complete(ctx context.Context, sessionID uuid.UUID, c models.Completion) error {
	err := s.sessions.Complete(ctx, sessionID, c)
	if errors.Is(err, repository.ErrNotFound) {
		return &ConflictError{Message: "Session already completed"}
	}
	if err != nil {
		return fmt.Errorf("failed to complete session: %w", err)
	}

	if s.queue != nil {
		job := &models.Job{
			ID:         uuid.New(),
			Type:       JobIntakeCompleted,
			SessionID:  sessionID,
			Summary:    c.Summary,
			Goals:      c.Goals,
			MaxRetries: jobMaxRetries,
			CreatedAt:  time.Now(),
		}
		if err := s.queue.Enqueue(ctx, job); err != nil {
			log.Printf("Failed to enqueue %s job for session %s: %v", JobIntakeCompleted, sessionID, err)
		}
	}

	s.publish(ctx, models.SessionEvent{Type: models.EventCompleted, SessionID: sessionID, Payload: c})
	return nil
}

func (s *IntakeService) publish(ctx context.Context, event models.SessionEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		log.Printf("Failed to publish %s for session %s: %v", event.Type, event.SessionID, err)
	}
}

// GetSession returns a session together with its recorded answers.
func (s *IntakeService) GetSession(ctx context.Context, id uuid.UUID) (*models.SessionDetail, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Message: "Session not found"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	answers, err := s.answers.ListBySession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}
	if answers == nil {
		answers = []*models.FormAnswer{}
	}
	return &models.SessionDetail{Session: session, Answers: answers}, nil
}

// decodeModelResponse parses the model output into a validated response,
// filling the question fields models tend to leave out.
func decodeModelResponse(raw string) (*models.Response, error) {
	var resp models.Response
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	if resp.Kind == models.KindQuestion && resp.Question != nil {
		applyQuestionDefaults(resp.Question)
		if err := resp.Question.CheckOptions(); err != nil {
			return nil, err
		}
	}
	if err := resp.Validate(); err != nil {
		return nil, err
	}
	return &resp, nil
}

func applyQuestionDefaults(q *models.Question) {
	if q.ResponseType == "" {
		q.ResponseType = models.ResponseSingleChoice
		if len(q.Categories) > 0 {
			q.ResponseType = models.ResponseCategorizedChoice
		}
	}
	if q.Emoji == "" {
		q.Emoji = defaultEmoji
	}
	if q.GoalsChecked == nil {
		q.GoalsChecked = []string{}
	}
}
