package repository

import (
	"context"
	"sync"

	"meostore/internal/model"
)

// MemoryOrderRepository keeps orders in process memory. Contents are lost
// on restart.
type MemoryOrderRepository struct {
	mu     sync.Mutex
	orders map[string]model.Order
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[string]model.Order)}
}

func (r *MemoryOrderRepository) Insert(_ context.Context, order *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[order.OrderCode]; ok {
		return model.ErrDuplicateKey
	}
	r.orders[order.OrderCode] = cloneOrder(*order)
	return nil
}

func (r *MemoryOrderRepository) FindByCode(_ context.Context, code string) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[code]
	if !ok {
		return nil, model.ErrNotFound
	}
	out := cloneOrder(o)
	return &out, nil
}

func (r *MemoryOrderRepository) CompareAndSetPaid(_ context.Context, codes []string, p model.Payment) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, code := range codes {
		o, ok := r.orders[code]
		if !ok || o.Status != model.StatusPending {
			continue
		}
		paidAt := p.PaidAt
		o.Status = model.StatusPaid
		o.PaidAt = &paidAt
		o.TxID = p.TxID
		o.BankDescription = p.Description
		r.orders[code] = o

		out := cloneOrder(o)
		return &out, nil
	}
	return nil, model.ErrNotFound
}

func (r *MemoryOrderRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

func cloneOrder(o model.Order) model.Order {
	if o.PaidAt != nil {
		t := *o.PaidAt
		o.PaidAt = &t
	}
	return o
}
