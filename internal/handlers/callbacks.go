package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fofrafo/dynamic-form/internal/models"
	"github.com/fofrafo/dynamic-form/internal/repository"
)

type callbackRepository interface {
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*models.CallbackRequest, error)
	MarkDone(ctx context.Context, id uuid.UUID) error
}

// CallbackHandler is the clinic side list of owners to call back.
type CallbackHandler struct {
	callbackRepo callbackRepository
}

func NewCallbackHandler(callbackRepo callbackRepository) *CallbackHandler {
	return &CallbackHandler{callbackRepo: callbackRepo}
}

func (h *CallbackHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = models.CallbackOpen
	}
	if status != models.CallbackOpen && status != models.CallbackDone {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Status must be open or done", r))
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	callbacks, err := h.callbackRepo.ListByStatus(r.Context(), status, limit, offset)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch callbacks", r))
		return
	}
	if callbacks == nil {
		callbacks = []*models.CallbackRequest{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"callbacks": callbacks,
		"limit":     limit,
		"offset":    offset,
	})
}

func (h *CallbackHandler) MarkDone(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid callback ID", r))
		return
	}

	err = h.callbackRepo.MarkDone(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Open callback not found", r))
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update callback", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Callback marked as done"})
}
