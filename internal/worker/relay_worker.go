package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"meostore/internal/model"
)

type paymentNotifier interface {
	NotifyPaymentSuccess(ctx context.Context, event model.PaymentEvent)
}

// RelayWorker copies payment events from a Redis pub/sub channel to the
// local subscribers of this instance.
type RelayWorker struct {
	client     redis.UniversalClient
	channel    string
	target     paymentNotifier
	retryDelay time.Duration
}

func NewRelayWorker(client redis.UniversalClient, channel string, target paymentNotifier) *RelayWorker {
	return &RelayWorker{
		client:     client,
		channel:    channel,
		target:     target,
		retryDelay: 2 * time.Second,
	}
}

func (w *RelayWorker) Start(ctx context.Context) {
	slog.Info("starting relay worker", "channel", w.channel)

	for {
		if err := w.run(ctx); err != nil {
			slog.Error("relay subscription failed", "error", err)
		}

		select {
		case <-ctx.Done():
			slog.Info("relay worker stopped")
			return
		case <-time.After(w.retryDelay):
		}
	}
}

func (w *RelayWorker) run(ctx context.Context) error {
	pubsub := w.client.Subscribe(ctx, w.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			w.handle(ctx, msg.Payload)
		}
	}
}

func (w *RelayWorker) handle(ctx context.Context, payload string) {
	var event model.PaymentEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		slog.Error("relay: malformed event", "error", err)
		return
	}
	w.target.NotifyPaymentSuccess(ctx, event)
}
