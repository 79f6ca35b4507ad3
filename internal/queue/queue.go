// Package queue is the durable email pipeline: producers enqueue confirmation
// jobs onto a Redis list and a single worker drains it, retrying failed sends
// with exponential backoff. Delivery is at-least-once; jobs that exhaust
// their attempts are logged and discarded.
package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/lightit/patientreg/config"
)

// Queue enqueues email jobs for later delivery by the worker.
type Queue struct {
	store store
	log   *slog.Logger
}

// New builds a Queue backed by the Redis list named in cfg.
func New(client *goredis.Client, cfg config.QueueConfig, log *slog.Logger) *Queue {
	return &Queue{
		store: newRedisStore(client, cfg.Name),
		log:   log,
	}
}

// Enqueue persists a confirmation email job and returns its id. The job is
// durable once this returns: a process restart will not lose it.
func (q *Queue) Enqueue(ctx context.Context, email, patientName, message string) (string, error) {
	job := Job{
		ID:          uuid.NewString(),
		Email:       email,
		PatientName: patientName,
		Message:     message,
	}
	payload, err := job.encode()
	if err != nil {
		return "", err
	}
	if err := q.store.push(ctx, payload); err != nil {
		return "", fmt.Errorf("enqueue email job: %w", err)
	}
	q.log.Info("email job enqueued", "jobId", job.ID, "email", email)
	return job.ID, nil
}
