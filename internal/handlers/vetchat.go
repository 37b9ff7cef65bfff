package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fofrafo/dynamic-form/internal/models"
)

type vetChatter interface {
	VetChat(ctx context.Context, req models.VetChatRequest) (*models.VetChatResponse, error)
}

type VetChatHandler struct {
	chat vetChatter
}

func NewVetChatHandler(chat vetChatter) *VetChatHandler {
	return &VetChatHandler{chat: chat}
}

func (h *VetChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.VetChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if strings.TrimSpace(req.Message) == "" || req.Context == nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Message and context are required", r))
		return
	}

	resp, err := h.chat.VetChat(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
