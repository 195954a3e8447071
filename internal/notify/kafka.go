package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"meostore/internal/metrics"
	"meostore/internal/model"
)

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher forwards paid-order events to a topic for downstream
// consumers. Writes are asynchronous.
type KafkaPublisher struct {
	writer  kafkaWriter
	metrics *metrics.Metrics
}

func NewKafkaPublisher(brokers []string, topic string, m *metrics.Metrics) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		Async:                  true,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				m.NotificationsDroppedTotal.WithLabelValues("kafka").Add(float64(len(messages)))
				slog.Error("kafka publish failed", "count", len(messages), "error", err)
			}
		},
	}
	return &KafkaPublisher{writer: w, metrics: m}
}

func (k *KafkaPublisher) NotifyPaymentSuccess(ctx context.Context, event model.PaymentEvent) {
	value, err := json.Marshal(event)
	if err != nil {
		slog.Error("marshal payment event", "order_code", event.OrderCode, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderCode),
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(model.EventPaymentSuccess)},
		},
	}
	if err := k.writer.WriteMessages(context.WithoutCancel(ctx), msg); err != nil {
		k.metrics.NotificationsDroppedTotal.WithLabelValues("kafka").Inc()
		slog.Error("kafka enqueue failed", "order_code", event.OrderCode, "error", err)
	}
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}
