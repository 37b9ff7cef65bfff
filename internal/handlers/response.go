package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"strings"

	"github.com/fofrafo/dynamic-form/internal/middleware"
	"github.com/fofrafo/dynamic-form/internal/models"
	"github.com/fofrafo/dynamic-form/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get(middleware.RequestIDHeader),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get(middleware.RequestIDHeader),
		},
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch e := err.(type) {
	case *services.ValidationError:
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", validationMessage(e.Fields), e.Fields, r))
	case *services.ConflictError:
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", e.Message, r))
	case *services.NotFoundError:
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", e.Message, r))
	case *services.RateLimitError:
		writeJSON(w, http.StatusTooManyRequests, errorResp("RATE_LIMITED", e.Message, r))
	case *services.UpstreamError:
		log.Printf("Upstream failure on %s: %v", r.URL.Path, e)
		writeJSON(w, http.StatusBadGateway, errorResp("UPSTREAM_ERROR", e.Message, r))
	default:
		log.Printf("Unexpected error on %s: %v", r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}

// validationMessage names the fields in a stable order when all of them are
// missing, e.g. "Missing required fields: age, reason".
func validationMessage(fields map[string]string) string {
	names := make([]string, 0, len(fields))
	for k, msg := range fields {
		if !strings.HasSuffix(msg, "is required") {
			return "Validation failed"
		}
		names = append(names, k)
	}
	sort.Strings(names)
	return "Missing required fields: " + strings.Join(names, ", ")
}
