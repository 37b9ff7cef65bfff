package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/fofrafo/dynamic-form/internal/models"
)

const (
	callbackStaleAfter       = 2 * time.Hour
	callbackDigestInterval   = 4 * time.Hour
	notificationPollInterval = 1 * time.Hour
	digestListLimit          = 100
)

type openCallbackLister interface {
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*models.CallbackRequest, error)
}

type digestSender interface {
	SendOpenCallbackDigest(open []*models.CallbackRequest) error
}

// CallbackReminder mails the clinic a digest of callback requests that stayed
// open for too long.
type CallbackReminder struct {
	callbacks openCallbackLister
	email     digestSender
	stopChan  chan struct{}

	mu       sync.Mutex
	lastSent time.Time
}

func NewCallbackReminder(callbacks openCallbackLister, email digestSender) *CallbackReminder {
	return &CallbackReminder{
		callbacks: callbacks,
		email:     email,
		stopChan:  make(chan struct{}),
	}
}

func (s *CallbackReminder) Start() {
	if s.callbacks == nil || s.email == nil {
		return
	}

	go s.loop(s.sendDigest)

	log.Printf("Callback reminder started")
}

func (s *CallbackReminder) Stop() {
	select {
	case <-s.stopChan:
		return
	default:
		close(s.stopChan)
	}
}

func (s *CallbackReminder) loop(runFn func(ctx context.Context, now time.Time)) {
	// Run on startup as well as by interval.
	runFn(context.Background(), time.Now().UTC())

	ticker := time.NewTicker(notificationPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			runFn(context.Background(), time.Now().UTC())
		}
	}
}

func (s *CallbackReminder) sendDigest(ctx context.Context, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !shouldSendSince(s.lastSent, callbackDigestInterval, now) {
		return
	}

	open, err := s.callbacks.ListByStatus(ctx, models.CallbackOpen, digestListLimit, 0)
	if err != nil {
		log.Printf("callback digest: failed to list open requests: %v", err)
		return
	}

	stale := staleCallbacks(open, callbackStaleAfter, now)
	if len(stale) == 0 {
		return
	}

	if err := s.email.SendOpenCallbackDigest(stale); err != nil {
		log.Printf("callback digest: failed to send: %v", err)
		return
	}
	s.lastSent = now
}

func shouldSendSince(lastSent time.Time, minInterval time.Duration, now time.Time) bool {
	if lastSent.IsZero() {
		return true
	}
	return now.Sub(lastSent) >= minInterval
}

func staleCallbacks(open []*models.CallbackRequest, age time.Duration, now time.Time) []*models.CallbackRequest {
	var stale []*models.CallbackRequest
	for _, c := range open {
		if now.Sub(c.CreatedAt.UTC()) >= age {
			stale = append(stale, c)
		}
	}
	return stale
}
