package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	SessionInProgress = "in_progress"
	SessionCompleted  = "completed"
)

type FormSession struct {
	ID        uuid.UUID `json:"id"`
	Species   string    `json:"species"`
	Age       string    `json:"age"`
	Name      string    `json:"name"`
	Reason    string    `json:"reason"`
	Status    string    `json:"status"` // "in_progress" | "completed"
	Summary   *string   `json:"summary"`
	Goals     *Goals    `json:"goals"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *FormSession) Intake() IntakeData {
	return IntakeData{Species: s.Species, Age: s.Age, Name: s.Name, Reason: s.Reason}
}

type FormAnswer struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	Position  int       `json:"position"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

type SessionDetail struct {
	Session *FormSession  `json:"session"`
	Answers []*FormAnswer `json:"answers"`
}

const (
	CallbackOpen = "open"
	CallbackDone = "done"
)

type CallbackRequest struct {
	ID        uuid.UUID  `json:"id"`
	SessionID uuid.UUID  `json:"session_id"`
	Reason    string     `json:"reason"` // "callback" | "confirmation"
	Status    string     `json:"status"` // "open" | "done"
	Summary   string     `json:"summary"`
	Duration  Duration   `json:"duration"`
	CreatedAt time.Time  `json:"created_at"`
	DoneAt    *time.Time `json:"done_at"`
}
