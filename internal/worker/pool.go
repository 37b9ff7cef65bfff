package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fofrafo/dynamic-form/internal/models"
	"github.com/fofrafo/dynamic-form/internal/services"
)

const (
	ReasonCallback     = "callback"
	ReasonConfirmation = "confirmation"
)

type callbackCreator interface {
	Create(ctx context.Context, c *models.CallbackRequest) (bool, error)
}

type callbackNotifier interface {
	SendCallbackRequest(c *models.CallbackRequest) error
}

// Pool drains the intake-completed queue and turns session goals into
// callback requests for the clinic.
type Pool struct {
	redis       *redis.Client
	callbacks   callbackCreator
	notifier    callbackNotifier
	queue       services.JobQueue
	events      services.EventPublisher
	workerCount int
	stopChan    chan struct{}

	afterFunc func(d time.Duration, f func())
}

func NewPool(
	redisClient *redis.Client,
	callbacks callbackCreator,
	notifier callbackNotifier,
	queue services.JobQueue,
	events services.EventPublisher,
	workerCount int,
) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &Pool{
		redis:       redisClient,
		callbacks:   callbacks,
		notifier:    notifier,
		queue:       queue,
		events:      events,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
}

func (p *Pool) Start() {
	queues := []string{services.QueueName(services.JobIntakeCompleted)}

	for i := 0; i < p.workerCount; i++ {
		go p.worker(i, queues)
	}

	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int, queues []string) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, queues...).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse job: %v", id, err)
			continue
		}

		// Try to acquire lock
		lockKey := fmt.Sprintf("job_lock:%s:%d", job.ID.String(), job.RetryCount)
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this job
		}

		log.Printf("Worker %d: processing job %s (type: %s)", id, job.ID, job.Type)
		p.run(ctx, &job)

		p.redis.Del(ctx, lockKey)
	}
}

func (p *Pool) run(ctx context.Context, job *models.Job) {
	var err error
	switch job.Type {
	case services.JobIntakeCompleted:
		err = p.processIntakeCompleted(ctx, job)
	default:
		err = fmt.Errorf("unknown job type: %s", job.Type)
	}

	if err != nil {
		p.handleFailure(job, err)
		return
	}
	log.Printf("Job %s completed successfully", job.ID)
}

// processIntakeCompleted opens one callback request per goal flag. Creation is
// idempotent per session and reason so a retried job does not duplicate rows.
func (p *Pool) processIntakeCompleted(ctx context.Context, job *models.Job) error {
	var reasons []string
	if job.Goals.CallbackNeeded {
		reasons = append(reasons, ReasonCallback)
	}
	if job.Goals.ConfirmationNeeded {
		reasons = append(reasons, ReasonConfirmation)
	}

	for _, reason := range reasons {
		c := &models.CallbackRequest{
			SessionID: job.SessionID,
			Reason:    reason,
			Summary:   job.Summary,
			Duration:  job.Goals.Duration,
		}
		created, err := p.callbacks.Create(ctx, c)
		if err != nil {
			return fmt.Errorf("failed to create %s request: %w", reason, err)
		}
		if !created {
			continue
		}

		if p.notifier != nil {
			if err := p.notifier.SendCallbackRequest(c); err != nil {
				log.Printf("Failed to notify clinic about session %s: %v", job.SessionID, err)
			}
		}
		if p.events == nil {
			continue
		}
		if err := p.events.Publish(ctx, models.SessionEvent{
			Type:      models.EventCallbackCreated,
			SessionID: job.SessionID,
			Payload:   c,
		}); err != nil {
			log.Printf("Failed to publish callback event for session %s: %v", job.SessionID, err)
		}
	}
	return nil
}

func (p *Pool) handleFailure(job *models.Job, err error) {
	job.RetryCount++
	maxRetries := job.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	if job.RetryCount >= maxRetries || p.queue == nil {
		log.Printf("Job %s failed permanently: %v", job.ID, err)
		return
	}

	log.Printf("Job %s failed (attempt %d): %v, retrying", job.ID, job.RetryCount, err)
	retry := *job
	backoff := time.Duration(1<<uint(job.RetryCount)) * time.Second
	p.afterFunc(backoff, func() {
		if err := p.queue.Enqueue(context.Background(), &retry); err != nil {
			log.Printf("Failed to requeue job %s: %v", retry.ID, err)
		}
	})
}
