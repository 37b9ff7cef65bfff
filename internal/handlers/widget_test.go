package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fofrafo/dynamic-form/internal/demo"
	"github.com/fofrafo/dynamic-form/internal/models"
	"github.com/fofrafo/dynamic-form/internal/services"
)

func TestDynamicForm_MissingParameters(t *testing.T) {
	h := NewWidgetHandler(&stubQuestioner{})

	rr := httptest.NewRecorder()
	h.DynamicForm(rr, httptest.NewRequest(http.MethodGet, "/api/v1/dynamic-form?species=Dog&name=Buddy", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "Missing Parameters")
	assert.Contains(t, rr.Body.String(), "Required parameters")
}

func TestDynamicForm_RendersChoices(t *testing.T) {
	q := &stubQuestioner{q: &models.Question{
		Question:     "Since when is <Buddy> limping?",
		ResponseType: models.ResponseSingleChoice,
		Options:      []string{"Today", "Since yesterday"},
		Emoji:        "🤔",
	}}
	h := NewWidgetHandler(q)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dynamic-form?tierart=Hund&alter=2&name=Buddy&anlass=Humpeln", nil)
	req.Header.Set("Accept-Language", "de-DE,de;q=0.9")
	rr := httptest.NewRecorder()
	h.DynamicForm(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "no-cache, no-store, must-revalidate", rr.Header().Get("Cache-Control"))
	assert.Equal(t, services.LangGerman, q.lastLang)

	body := rr.Body.String()
	assert.Contains(t, body, `<html lang="de">`)
	assert.Contains(t, body, "Tierinformationen")
	assert.Contains(t, body, "Hund")
	assert.Contains(t, body, `value="Since yesterday"`)
	assert.Contains(t, body, "&lt;Buddy&gt;")
	assert.NotContains(t, body, `id="textAnswer"`)
}

func TestDynamicForm_TextQuestionInEnglish(t *testing.T) {
	q := &stubQuestioner{q: &models.Question{Question: "Describe it", ResponseType: models.ResponseText, Emoji: "🤔"}}
	h := NewWidgetHandler(q)

	rr := httptest.NewRecorder()
	h.DynamicForm(rr, httptest.NewRequest(http.MethodGet, "/api/v1/dynamic-form?species=Cat&age=4&name=Mia&reason=sneezing", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, services.LangEnglish, q.lastLang)
	assert.Contains(t, rr.Body.String(), "Pet Information")
	assert.Contains(t, rr.Body.String(), `id="textAnswer"`)
}

func TestDynamicForm_UpstreamError(t *testing.T) {
	h := NewWidgetHandler(&stubQuestioner{err: errors.New("down")})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dynamic-form?species=Cat&age=4&name=Mia&reason=sneezing", nil)
	req.Header.Set("X-Request-ID", "req-7")
	rr := httptest.NewRecorder()
	h.DynamicForm(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "Service Error")
	assert.Contains(t, rr.Body.String(), "req-7")
}

func TestDynamicForm_DemoCategories(t *testing.T) {
	d, err := demo.New()
	require.NoError(t, err)
	h := NewWidgetHandler(d)

	rr := httptest.NewRecorder()
	h.DynamicForm(rr, httptest.NewRequest(http.MethodGet, "/api/v1/dynamic-form?species=Dog&age=2&name=Buddy&reason=coughing", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "General condition")
	assert.Contains(t, body, `type="checkbox"`)
	assert.Contains(t, body, "&#34;coughing&#34;")
}
