package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"meostore/internal/metrics"
	"meostore/internal/model"
)

const redisPublishTimeout = 3 * time.Second

// RedisPublisher sends events to a pub/sub channel so every instance can
// relay them to its own subscribers.
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
	metrics *metrics.Metrics
}

func NewRedisPublisher(client redis.UniversalClient, channel string, m *metrics.Metrics) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel, metrics: m}
}

func (r *RedisPublisher) NotifyPaymentSuccess(ctx context.Context, event model.PaymentEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("marshal payment event", "order_code", event.OrderCode, "error", err)
		return
	}

	go func() {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), redisPublishTimeout)
		defer cancel()
		if err := r.client.Publish(pubCtx, r.channel, payload).Err(); err != nil {
			r.metrics.NotificationsDroppedTotal.WithLabelValues("redis").Inc()
			slog.Error("redis publish failed", "order_code", event.OrderCode, "error", err)
		}
	}()
}
