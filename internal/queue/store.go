package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// store is the broker behind the queue: a ready list plus a delayed set for
// jobs waiting out a retry backoff.
type store interface {
	// push appends a payload to the ready list.
	push(ctx context.Context, payload []byte) error
	// pop blocks up to timeout for the next ready payload. A nil payload
	// with a nil error means the timeout elapsed with nothing to do.
	pop(ctx context.Context, timeout time.Duration) ([]byte, error)
	// scheduleRetry parks a payload until its due time.
	scheduleRetry(ctx context.Context, payload []byte, due time.Time) error
	// promoteDue moves every parked payload whose due time has passed back
	// onto the ready list.
	promoteDue(ctx context.Context, now time.Time) (int, error)
}

type redisStore struct {
	client *goredis.Client
	ready  string
	retry  string
}

func newRedisStore(client *goredis.Client, name string) *redisStore {
	return &redisStore{
		client: client,
		ready:  name,
		retry:  name + ":retry",
	}
}

func (s *redisStore) push(ctx context.Context, payload []byte) error {
	if err := s.client.LPush(ctx, s.ready, payload).Err(); err != nil {
		return fmt.Errorf("push to %s: %w", s.ready, err)
	}
	return nil
}

func (s *redisStore) pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	res, err := s.client.BRPop(ctx, timeout, s.ready).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("pop from %s: %w", s.ready, err)
	}
	// BRPop returns [key, value].
	if len(res) != 2 {
		return nil, nil
	}
	return []byte(res[1]), nil
}

func (s *redisStore) scheduleRetry(ctx context.Context, payload []byte, due time.Time) error {
	err := s.client.ZAdd(ctx, s.retry, goredis.Z{
		Score:  float64(due.UnixMilli()),
		Member: payload,
	}).Err()
	if err != nil {
		return fmt.Errorf("schedule retry on %s: %w", s.retry, err)
	}
	return nil
}

func (s *redisStore) promoteDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.client.ZRangeByScore(ctx, s.retry, &goredis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("read due retries from %s: %w", s.retry, err)
	}
	promoted := 0
	for _, payload := range due {
		if err := s.client.LPush(ctx, s.ready, payload).Err(); err != nil {
			return promoted, fmt.Errorf("promote retry to %s: %w", s.ready, err)
		}
		if err := s.client.ZRem(ctx, s.retry, payload).Err(); err != nil {
			return promoted, fmt.Errorf("clear promoted retry from %s: %w", s.retry, err)
		}
		promoted++
	}
	return promoted, nil
}
