package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"feedback-hub/internal/domain"
)

// RedisPushQueue реализует очередь push-задач на базе Redis lists.
type RedisPushQueue struct {
	client *redis.Client
	key    string
}

var _ domain.PushQueue = (*RedisPushQueue)(nil)

// NewRedisPushQueue создаёт очередь по указанному ключу.
func NewRedisPushQueue(client *redis.Client, key string) *RedisPushQueue {
	return &RedisPushQueue{client: client, key: key}
}

// Enqueue публикует задачу в очередь.
func (q *RedisPushQueue) Enqueue(ctx context.Context, job domain.PushJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("push job: %w", err)
	}
	return nil
}

// Pop блокирующе читает задачу из очереди.
func (q *RedisPushQueue) Pop(ctx context.Context) (domain.PushJob, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.PushJob{}, err
		}

		res, err := q.client.BRPop(ctx, time.Second, q.key).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return domain.PushJob{}, ctx.Err()
				}
				continue
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			return domain.PushJob{}, err
		}
		if len(res) != 2 {
			return domain.PushJob{}, errors.New("redis queue: unexpected response")
		}
		var job domain.PushJob
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			return domain.PushJob{}, fmt.Errorf("decode job: %w", err)
		}
		return job, nil
	}
}
