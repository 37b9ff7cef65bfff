package models

import (
	"time"

	"github.com/google/uuid"
)

// Job is queued on completion of an intake session and picked up by the worker pool.
type Job struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"` // "intake-completed"
	SessionID  uuid.UUID `json:"session_id"`
	Summary    string    `json:"summary"`
	Goals      Goals     `json:"goals"`
	RetryCount int       `json:"retry_count"`
	MaxRetries int       `json:"max_retries"`
	CreatedAt  time.Time `json:"created_at"`
}

// Session event types pushed over the websocket
const (
	EventQuestion        = "session.question"
	EventCompleted       = "session.completed"
	EventCallbackCreated = "callback.created"
)

type SessionEvent struct {
	Type      string      `json:"type"`
	SessionID uuid.UUID   `json:"session_id"`
	Payload   interface{} `json:"payload"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
