package client

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/fofrafo/dynamic-form/internal/models"
)

type RequestEvent struct {
	Endpoint      string
	SessionID     string
	HistoryLength int
}

type ResponseEvent struct {
	Endpoint   string
	SessionID  string
	StatusCode int
	Kind       models.ResponseKind
	Duration   time.Duration
}

type FailureEvent struct {
	Endpoint   string
	SessionID  string
	StatusCode int
	Err        error
	Duration   time.Duration
}

// Telemetry observes every call the client makes.
type Telemetry interface {
	RequestSent(ctx context.Context, ev RequestEvent)
	ResponseReceived(ctx context.Context, ev ResponseEvent)
	RequestFailed(ctx context.Context, ev FailureEvent)
}

type Nop struct{}

func (Nop) RequestSent(context.Context, RequestEvent)       {}
func (Nop) ResponseReceived(context.Context, ResponseEvent) {}
func (Nop) RequestFailed(context.Context, FailureEvent)     {}

// LogTelemetry writes one line per event to a standard logger.
type LogTelemetry struct {
	Logger *log.Logger
}

func (t LogTelemetry) logger() *log.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return log.Default()
}

func (t LogTelemetry) RequestSent(_ context.Context, ev RequestEvent) {
	t.logger().Printf("→ POST %s session=%q history=%d", ev.Endpoint, ev.SessionID, ev.HistoryLength)
}

func (t LogTelemetry) ResponseReceived(_ context.Context, ev ResponseEvent) {
	t.logger().Printf("✓ %s %d %s session=%q in %s", ev.Endpoint, ev.StatusCode, ev.Kind, ev.SessionID, ev.Duration.Round(time.Millisecond))
}

func (t LogTelemetry) RequestFailed(_ context.Context, ev FailureEvent) {
	t.logger().Printf("✗ %s failed after %s: %v", ev.Endpoint, ev.Duration.Round(time.Millisecond), ev.Err)
}

type Entry struct {
	At       time.Time
	Phase    string // "request" | "response" | "error"
	Endpoint string
	Session  string
	Kind     models.ResponseKind
	Status   int
	Error    string
	Duration time.Duration
}

type Summary struct {
	APICalls    int `json:"apiCalls"`
	Questions   int `json:"questions"`
	Completions int `json:"completions"`
	Errors      int `json:"errors"`
}

// Recorder keeps the most recent entries in memory for debugging and tests.
type Recorder struct {
	mu      sync.Mutex
	limit   int
	entries []Entry
	summary Summary
}

func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = 100
	}
	return &Recorder{limit: limit}
}

func (r *Recorder) add(e Entry) {
	e.At = time.Now()
	r.entries = append(r.entries, e)
	if len(r.entries) > r.limit {
		r.entries = r.entries[len(r.entries)-r.limit:]
	}
}

func (r *Recorder) RequestSent(_ context.Context, ev RequestEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary.APICalls++
	r.add(Entry{Phase: "request", Endpoint: ev.Endpoint, Session: ev.SessionID})
}

func (r *Recorder) ResponseReceived(_ context.Context, ev ResponseEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch ev.Kind {
	case models.KindQuestion:
		r.summary.Questions++
	case models.KindCompletion:
		r.summary.Completions++
	}
	r.add(Entry{Phase: "response", Endpoint: ev.Endpoint, Session: ev.SessionID, Kind: ev.Kind, Status: ev.StatusCode, Duration: ev.Duration})
}

func (r *Recorder) RequestFailed(_ context.Context, ev FailureEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary.Errors++
	msg := ""
	if ev.Err != nil {
		msg = ev.Err.Error()
	}
	r.add(Entry{Phase: "error", Endpoint: ev.Endpoint, Session: ev.SessionID, Status: ev.StatusCode, Error: msg, Duration: ev.Duration})
}

func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

func (r *Recorder) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summary
}

func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
	r.summary = Summary{}
}
