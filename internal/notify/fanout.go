package notify

import (
	"context"

	"meostore/internal/model"
)

type notifier interface {
	NotifyPaymentSuccess(ctx context.Context, event model.PaymentEvent)
}

// Fanout hands every event to each backend in order.
type Fanout []notifier

func (f Fanout) NotifyPaymentSuccess(ctx context.Context, event model.PaymentEvent) {
	for _, n := range f {
		n.NotifyPaymentSuccess(ctx, event)
	}
}
