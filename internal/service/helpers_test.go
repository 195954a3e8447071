package service

import (
	"context"
	"sync"

	"meostore/internal/model"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []model.PaymentEvent
}

func (n *recordingNotifier) NotifyPaymentSuccess(_ context.Context, event model.PaymentEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) Events() []model.PaymentEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.PaymentEvent(nil), n.events...)
}

// failingStore returns err from every call.
type failingStore struct {
	err error
}

func (s failingStore) Insert(context.Context, *model.Order) error { return s.err }

func (s failingStore) FindByCode(context.Context, string) (*model.Order, error) {
	return nil, s.err
}

func (s failingStore) CompareAndSetPaid(context.Context, []string, model.Payment) (*model.Order, error) {
	return nil, s.err
}

// sequenceCodes yields codes in order, then repeats the last one.
func sequenceCodes(codes ...string) CodeGenerator {
	var mu sync.Mutex
	i := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		c := codes[i]
		if i < len(codes)-1 {
			i++
		}
		return c
	}
}
