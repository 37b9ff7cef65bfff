package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fofrafo/dynamic-form/internal/models"
	"github.com/fofrafo/dynamic-form/internal/services"
)

// questionGenerator is served by the intake service or, in demo mode, by the
// scenario client.
type questionGenerator interface {
	GenerateQuestion(ctx context.Context, req models.GenerateQuestionRequest) (*models.Response, error)
}

type sessionReader interface {
	GetSession(ctx context.Context, id uuid.UUID) (*models.SessionDetail, error)
}

type IntakeHandler struct {
	generator questionGenerator
	sessions  sessionReader
}

func NewIntakeHandler(generator questionGenerator, sessions sessionReader) *IntakeHandler {
	return &IntakeHandler{generator: generator, sessions: sessions}
}

func (h *IntakeHandler) GenerateQuestion(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	// follow-up rounds carry session_id and history only
	if fields := req.IntakeData.MissingFields(); req.SessionID == "" && len(fields) > 0 {
		handleServiceError(w, r, &services.ValidationError{Fields: fields})
		return
	}

	resp, err := h.generator.GenerateQuestion(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *IntakeHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	detail, err := h.sessions.GetSession(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}
