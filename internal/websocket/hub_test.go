package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fofrafo/dynamic-form/internal/middleware"
)

type fakeSubscriber struct {
	mu       sync.Mutex
	channels map[string]chan string
	ready    chan string
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{channels: map[string]chan string{}, ready: make(chan string, 4)}
}

func (f *fakeSubscriber) Subscribe(ctx context.Context, channel string) <-chan string {
	ch := make(chan string, 4)
	f.mu.Lock()
	f.channels[channel] = ch
	f.mu.Unlock()
	go func() {
		<-ctx.Done()
		f.mu.Lock()
		close(ch)
		f.mu.Unlock()
	}()
	f.ready <- channel
	return ch
}

func (f *fakeSubscriber) publish(channel, payload string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels[channel] <- payload
}

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/ws/sessions/{id}", hub.HandleWebSocket)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func TestHubForwardsSessionEvents(t *testing.T) {
	auth := middleware.NewJWTAuth("secret")
	sub := newFakeSubscriber()
	hub := NewHub(sub, auth)
	defer hub.Close()
	srv := newTestServer(t, hub)

	token, err := auth.GenerateToken("clinic-1", middleware.RoleClinic, time.Hour)
	require.NoError(t, err)

	sessionID := uuid.New()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/sessions/"+sessionID.String()+"?token="+token), nil)
	require.NoError(t, err)
	defer conn.Close()

	var channel string
	select {
	case channel = <-sub.ready:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not subscribe")
	}
	assert.Equal(t, "session_updates:"+sessionID.String(), channel)

	sub.publish(channel, `{"type":"session.completed"}`)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"session.completed"}`, string(data))
}

func TestHubRejectsBadRequests(t *testing.T) {
	auth := middleware.NewJWTAuth("secret")
	hub := NewHub(newFakeSubscriber(), auth)
	srv := newTestServer(t, hub)

	token, err := auth.GenerateToken("clinic-1", middleware.RoleClinic, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"no token", "/ws/sessions/" + uuid.NewString(), 401},
		{"bad token", "/ws/sessions/" + uuid.NewString() + "?token=nope", 401},
		{"bad session id", "/ws/sessions/nope?token=" + token, 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, tt.path), nil)
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
