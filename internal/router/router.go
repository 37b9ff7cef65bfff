package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/fofrafo/dynamic-form/internal/handlers"
	"github.com/fofrafo/dynamic-form/internal/middleware"
	"github.com/fofrafo/dynamic-form/internal/websocket"
)

// Deps holds everything the router mounts. Sessions, Callbacks and Hub are
// nil in demo mode and their routes are left out.
type Deps struct {
	JWTAuth     *middleware.JWTAuth
	RateLimiter *middleware.RateLimiter

	Intake    *handlers.IntakeHandler
	VetChat   *handlers.VetChatHandler
	Widget    *handlers.WidgetHandler
	Callbacks *handlers.CallbackHandler
	Hub       *websocket.Hub

	FrontendURL string
	DemoMode    bool
}

func New(d Deps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(d.FrontendURL))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if d.DemoMode {
			w.Write([]byte(`{"status":"ok","mode":"demo"}`))
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Embeddable widget (public) ────
		r.Get("/dynamic-form", d.Widget.DynamicForm)

		// ──── Intake Routes ────
		r.Group(func(r chi.Router) {
			r.Use(d.JWTAuth.Middleware)
			if d.RateLimiter != nil {
				r.Use(d.RateLimiter.Middleware)
			}
			r.Post("/generate-question", d.Intake.GenerateQuestion)
			r.Post("/vet-chat", d.VetChat.Chat)
		})

		// ──── Clinic Routes ────
		r.Group(func(r chi.Router) {
			r.Use(d.JWTAuth.Middleware)
			r.Use(middleware.RequireRole(middleware.RoleClinic))
			if !d.DemoMode {
				r.Get("/sessions/{id}", d.Intake.GetSession)
			}
			if d.Callbacks != nil {
				r.Get("/callbacks", d.Callbacks.List)
				r.Patch("/callbacks/{id}/done", d.Callbacks.MarkDone)
			}
		})
	})

	// ──── WebSocket ────
	if d.Hub != nil {
		r.Get("/ws/sessions/{id}", d.Hub.HandleWebSocket)
	}

	return r
}
