package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fofrafo/dynamic-form/internal/demo"
	"github.com/fofrafo/dynamic-form/internal/handlers"
	"github.com/fofrafo/dynamic-form/internal/middleware"
	"github.com/fofrafo/dynamic-form/internal/models"
)

type stubSessions struct{}

func (stubSessions) GetSession(ctx context.Context, id uuid.UUID) (*models.SessionDetail, error) {
	return &models.SessionDetail{}, nil
}

func demoRouter(t *testing.T) (http.Handler, *middleware.JWTAuth) {
	t.Helper()
	demoClient, err := demo.New()
	require.NoError(t, err)

	auth := middleware.NewJWTAuth("secret")
	return New(Deps{
		JWTAuth:     auth,
		Intake:      handlers.NewIntakeHandler(demoClient, nil),
		VetChat:     handlers.NewVetChatHandler(demoClient),
		Widget:      handlers.NewWidgetHandler(demoClient),
		FrontendURL: "*",
		DemoMode:    true,
	}), auth
}

func token(t *testing.T, auth *middleware.JWTAuth, role string) string {
	t.Helper()
	tok, err := auth.GenerateToken("tester", role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestRoutes(t *testing.T) {
	h, auth := demoRouter(t)
	intakeToken := token(t, auth, middleware.RoleIntake)
	clinicToken := token(t, auth, middleware.RoleClinic)

	body := `{"species":"Dog","age":"2","name":"Buddy","reason":"limping"}`

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		body   string
		status int
	}{
		{"health", "GET", "/health", "", "", 200},
		{"widget is public", "GET", "/api/v1/dynamic-form?species=Dog&age=2&name=Buddy&reason=limping", "", "", 200},
		{"widget missing params", "GET", "/api/v1/dynamic-form", "", "", 400},
		{"generate requires token", "POST", "/api/v1/generate-question", "", body, 401},
		{"generate", "POST", "/api/v1/generate-question", intakeToken, body, 200},
		{"vet chat", "POST", "/api/v1/vet-chat", intakeToken, `{"message":"hi","context":{"name":"Buddy"}}`, 200},
		{"no callbacks in demo mode", "GET", "/api/v1/callbacks", clinicToken, "", 404},
		{"no websocket in demo mode", "GET", "/ws/sessions/abc", "", "", 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
		})
	}
}

func TestClinicRoutesRequireClinicRole(t *testing.T) {
	demoClient, err := demo.New()
	require.NoError(t, err)
	auth := middleware.NewJWTAuth("secret")
	h := New(Deps{
		JWTAuth: auth,
		Intake:  handlers.NewIntakeHandler(demoClient, stubSessions{}),
		VetChat: handlers.NewVetChatHandler(demoClient),
		Widget:  handlers.NewWidgetHandler(demoClient),
	})
	path := "/api/v1/sessions/" + uuid.NewString()

	for role, status := range map[string]int{
		middleware.RoleIntake: http.StatusForbidden,
		middleware.RoleClinic: http.StatusOK,
	} {
		req := httptest.NewRequest("GET", path, nil)
		req.Header.Set("Authorization", token(t, auth, role))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, status, rr.Code, role)
	}
}

func TestHealthReportsDemoMode(t *testing.T) {
	h, _ := demoRouter(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))
	assert.JSONEq(t, `{"status":"ok","mode":"demo"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))
}
