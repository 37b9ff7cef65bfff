package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/fofrafo/dynamic-form/internal/models"
)

const JobIntakeCompleted = "intake-completed"

// QueueName is the redis list a job type is pushed to.
func QueueName(jobType string) string {
	return "queue:" + jobType
}

// SessionChannel is the pub/sub channel carrying events of one session.
func SessionChannel(sessionID uuid.UUID) string {
	return fmt.Sprintf("session_updates:%s", sessionID.String())
}

type EventPublisher interface {
	Publish(ctx context.Context, event models.SessionEvent) error
}

type JobQueue interface {
	Enqueue(ctx context.Context, job *models.Job) error
}

type RedisPublisher struct {
	redis *redis.Client
}

func NewRedisPublisher(redisClient *redis.Client) *RedisPublisher {
	return &RedisPublisher{redis: redisClient}
}

// Publish sends a websocket update via Redis pub/sub
func (p *RedisPublisher) Publish(ctx context.Context, event models.SessionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.redis.Publish(ctx, SessionChannel(event.SessionID), string(data)).Err()
}

type RedisQueue struct {
	redis *redis.Client
}

func NewRedisQueue(redisClient *redis.Client) *RedisQueue {
	return &RedisQueue{redis: redisClient}
}

func (q *RedisQueue) Enqueue(ctx context.Context, job *models.Job) error {
	jobBytes, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.redis.LPush(ctx, QueueName(job.Type), string(jobBytes)).Err()
}
