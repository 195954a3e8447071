package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"

	"meostore/internal/metrics"
	"meostore/internal/model"
)

const defaultSubscriberBuffer = 16

// Message is one event as delivered to a subscriber.
type Message struct {
	ID    string
	Event string
	Data  model.PaymentEvent
}

type Subscription struct {
	ID string
	C  <-chan Message
}

// Hub broadcasts events to the subscribers connected to this process.
// Slow subscribers lose events instead of stalling the publisher.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]chan Message
	buffer  int
	metrics *metrics.Metrics
	newID   func() string
}

func NewHub(m *metrics.Metrics) *Hub {
	newID, err := nanoid.Standard(21)
	if err != nil {
		panic(err)
	}
	return &Hub{
		subs:    make(map[string]chan Message),
		buffer:  defaultSubscriberBuffer,
		metrics: m,
		newID:   newID,
	}
}

// Subscribe registers a new observer. The returned cancel func must be
// called once the observer goes away; it closes the channel.
func (h *Hub) Subscribe() (Subscription, func()) {
	id := uuid.NewString()
	ch := make(chan Message, h.buffer)

	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()
	h.metrics.EventSubscribers.Inc()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
			h.metrics.EventSubscribers.Dec()
		})
	}
	return Subscription{ID: id, C: ch}, cancel
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) NotifyPaymentSuccess(_ context.Context, event model.PaymentEvent) {
	h.Broadcast(Message{ID: h.newID(), Event: model.EventPaymentSuccess, Data: event})
}

func (h *Hub) Broadcast(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs {
		select {
		case ch <- msg:
		default:
			h.metrics.NotificationsDroppedTotal.WithLabelValues("hub").Inc()
			slog.Warn("subscriber buffer full, dropping event", "subscriber", id, "event_id", msg.ID)
		}
	}
}
