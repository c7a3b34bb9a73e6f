package persistence

import (
	"context"
	"encoding/json"

	"github.com/spec-kit/sla-monitor/internal/domain"
	apperrors "github.com/spec-kit/sla-monitor/pkg/util/errorutil"
)

// RedisNotificationQueue hands notification requests to the external notifier
// via a Redis list. LPUSH keeps the handoff O(1); the notifier drains with
// BRPOP on its side.
type RedisNotificationQueue struct {
	redis    *Redis
	queueKey string
}

// NewRedisNotificationQueue builds a queue over the shared Redis client.
func NewRedisNotificationQueue(redis *Redis, queueKey string) *RedisNotificationQueue {
	return &RedisNotificationQueue{redis: redis, queueKey: queueKey}
}

// Enqueue serializes the request and pushes it onto the outbound list.
func (q *RedisNotificationQueue) Enqueue(ctx context.Context, req domain.NotificationRequest) error {
	if q.redis == nil || q.redis.Client == nil {
		return apperrors.NewNotificationDispatchError(nil)
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return apperrors.NewNotificationDispatchError(err)
	}
	if err := q.redis.Client.LPush(ctx, q.queueKey, payload).Err(); err != nil {
		return apperrors.NewNotificationDispatchError(err)
	}
	return nil
}
