package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fofrafo/dynamic-form/internal/models"
	"github.com/fofrafo/dynamic-form/internal/services"
)

type memCallbacks struct {
	rows map[string]*models.CallbackRequest
	err  error
}

func (m *memCallbacks) Create(ctx context.Context, c *models.CallbackRequest) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	key := c.SessionID.String() + "/" + c.Reason
	if _, ok := m.rows[key]; ok {
		return false, nil
	}
	c.ID = uuid.New()
	c.Status = models.CallbackOpen
	m.rows[key] = c
	return true, nil
}

type recordingNotifier struct{ sent []*models.CallbackRequest }

func (n *recordingNotifier) SendCallbackRequest(c *models.CallbackRequest) error {
	n.sent = append(n.sent, c)
	return nil
}

type recordingQueue struct{ jobs []*models.Job }

func (q *recordingQueue) Enqueue(ctx context.Context, job *models.Job) error {
	q.jobs = append(q.jobs, job)
	return nil
}

type recordingPublisher struct{ events []models.SessionEvent }

func (p *recordingPublisher) Publish(ctx context.Context, e models.SessionEvent) error {
	p.events = append(p.events, e)
	return nil
}

type fixture struct {
	pool      *Pool
	callbacks *memCallbacks
	notifier  *recordingNotifier
	queue     *recordingQueue
	events    *recordingPublisher
	delays    []time.Duration
}

func newFixture() *fixture {
	f := &fixture{
		callbacks: &memCallbacks{rows: map[string]*models.CallbackRequest{}},
		notifier:  &recordingNotifier{},
		queue:     &recordingQueue{},
		events:    &recordingPublisher{},
	}
	f.pool = NewPool(nil, f.callbacks, f.notifier, f.queue, f.events, 1)
	f.pool.afterFunc = func(d time.Duration, fn func()) {
		f.delays = append(f.delays, d)
		fn()
	}
	return f
}

func completedJob(goals models.Goals) *models.Job {
	return &models.Job{
		ID:         uuid.New(),
		Type:       services.JobIntakeCompleted,
		SessionID:  uuid.New(),
		Summary:    "Buddy limps since Monday",
		Goals:      goals,
		MaxRetries: 3,
	}
}

func TestProcessIntakeCompletedCreatesRequests(t *testing.T) {
	f := newFixture()
	job := completedJob(models.Goals{Duration: models.Duration30, CallbackNeeded: true, ConfirmationNeeded: true})

	f.pool.run(context.Background(), job)

	require.Len(t, f.callbacks.rows, 2)
	cb := f.callbacks.rows[job.SessionID.String()+"/"+ReasonCallback]
	require.NotNil(t, cb)
	assert.Equal(t, models.Duration30, cb.Duration)
	assert.Equal(t, "Buddy limps since Monday", cb.Summary)

	require.Len(t, f.events.events, 2)
	for _, e := range f.events.events {
		assert.Equal(t, models.EventCallbackCreated, e.Type)
		assert.Equal(t, job.SessionID, e.SessionID)
	}
	assert.Len(t, f.notifier.sent, 2)
	assert.Empty(t, f.queue.jobs)
}

func TestProcessIntakeCompletedIsIdempotent(t *testing.T) {
	f := newFixture()
	job := completedJob(models.Goals{Duration: models.Duration15, CallbackNeeded: true})

	f.pool.run(context.Background(), job)
	f.pool.run(context.Background(), job)

	assert.Len(t, f.callbacks.rows, 1)
	assert.Len(t, f.notifier.sent, 1)
	assert.Len(t, f.events.events, 1)
}

func TestProcessIntakeCompletedWithoutGoals(t *testing.T) {
	f := newFixture()
	f.pool.run(context.Background(), completedJob(models.Goals{Duration: models.Duration15}))

	assert.Empty(t, f.callbacks.rows)
	assert.Empty(t, f.events.events)
}

func TestFailedJobIsRetriedWithBackoff(t *testing.T) {
	f := newFixture()
	f.callbacks.err = errors.New("db down")
	job := completedJob(models.Goals{Duration: models.Duration15, CallbackNeeded: true})

	f.pool.run(context.Background(), job)
	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, 1, f.queue.jobs[0].RetryCount)

	f.pool.run(context.Background(), f.queue.jobs[0])
	require.Len(t, f.queue.jobs, 2)
	assert.Equal(t, 2, f.queue.jobs[1].RetryCount)

	// third failure reaches MaxRetries
	f.pool.run(context.Background(), f.queue.jobs[1])
	assert.Len(t, f.queue.jobs, 2)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, f.delays)
}

func TestUnknownJobType(t *testing.T) {
	f := newFixture()
	job := completedJob(models.Goals{})
	job.Type = "summary-generation"
	job.MaxRetries = 1

	f.pool.run(context.Background(), job)
	assert.Empty(t, f.queue.jobs)
	assert.Empty(t, f.callbacks.rows)
}
