package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/lightit/patientreg/config"
	"github.com/lightit/patientreg/internal/service/notification"
)

const popTimeout = 2 * time.Second

// Worker is the single consumer of the email queue. It promotes due retries,
// pops ready jobs, and hands them to the notifier. A send failure reschedules
// the job with exponential backoff until the attempt budget runs out.
type Worker struct {
	store       store
	notifier    notification.Notifier
	maxAttempts int
	backoffBase time.Duration
	log         *slog.Logger
	now         func() time.Time
}

// NewWorker builds the queue consumer.
func NewWorker(client *goredis.Client, notifier notification.Notifier, cfg config.QueueConfig, log *slog.Logger) *Worker {
	return newWorker(newRedisStore(client, cfg.Name), notifier, cfg, log)
}

func newWorker(s store, notifier notification.Notifier, cfg config.QueueConfig, log *slog.Logger) *Worker {
	return &Worker{
		store:       s,
		notifier:    notifier,
		maxAttempts: cfg.MaxAttempts,
		backoffBase: time.Duration(cfg.BackoffBaseMs) * time.Millisecond,
		log:         log,
		now:         time.Now,
	}
}

// Run consumes jobs until ctx is cancelled. Broker errors are logged and the
// loop keeps going; the queue outlives a flaky Redis connection.
func (w *Worker) Run(ctx context.Context) {
	w.log.Info("email worker started", "maxAttempts", w.maxAttempts, "backoffBase", w.backoffBase)
	for {
		if ctx.Err() != nil {
			w.log.Info("email worker stopped")
			return
		}
		if _, err := w.store.promoteDue(ctx, w.now()); err != nil && ctx.Err() == nil {
			w.log.Error("promoting due retries failed", "error", err)
		}
		payload, err := w.store.pop(ctx, popTimeout)
		if err != nil {
			if ctx.Err() == nil {
				w.log.Error("popping email job failed", "error", err)
				time.Sleep(popTimeout)
			}
			continue
		}
		if payload == nil {
			continue
		}
		w.process(ctx, payload)
	}
}

func (w *Worker) process(ctx context.Context, payload []byte) {
	job, err := decodeJob(payload)
	if err != nil {
		w.log.Error("discarding undecodable email job", "error", err)
		return
	}

	job.Attempt++
	if err := w.deliver(ctx, job); err != nil {
		w.retryOrDrop(ctx, job, err)
		return
	}
	w.log.Info("email job delivered", "jobId", job.ID, "email", job.Email, "attempt", job.Attempt)
}

func (w *Worker) deliver(ctx context.Context, job Job) error {
	body := fmt.Sprintf("%s\n\nRecipient: %s", job.Message, job.Email)
	return w.notifier.Send(ctx, job.Email, body)
}

func (w *Worker) retryOrDrop(ctx context.Context, job Job, cause error) {
	if job.Attempt >= w.maxAttempts {
		w.log.Error("email job failed permanently",
			"jobId", job.ID, "email", job.Email, "attempts", job.Attempt, "error", cause)
		return
	}

	payload, err := job.encode()
	if err != nil {
		w.log.Error("dropping unencodable email job", "jobId", job.ID, "error", err)
		return
	}
	delay := w.backoff(job.Attempt)
	if err := w.store.scheduleRetry(ctx, payload, w.now().Add(delay)); err != nil {
		w.log.Error("scheduling email retry failed", "jobId", job.ID, "error", err)
		return
	}
	w.log.Warn("email job rescheduled",
		"jobId", job.ID, "email", job.Email, "attempt", job.Attempt, "delay", delay, "error", cause)
}

// backoff doubles per failed attempt: base after the first failure, twice the
// base after the second, and so on.
func (w *Worker) backoff(attempt int) time.Duration {
	return w.backoffBase << (attempt - 1)
}
