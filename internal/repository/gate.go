package repository

import (
	"context"
	"sync/atomic"

	"meostore/internal/model"
)

type OrderRepository interface {
	Insert(ctx context.Context, order *model.Order) error
	FindByCode(ctx context.Context, code string) (*model.Order, error)
	CompareAndSetPaid(ctx context.Context, codes []string, p model.Payment) (*model.Order, error)
}

// Gate forwards to the attached repository and fails every call with
// model.ErrStorageUnavailable until Attach is called.
type Gate struct {
	repo atomic.Pointer[repoHolder]
}

type repoHolder struct {
	OrderRepository
}

func NewGate() *Gate {
	return &Gate{}
}

func (g *Gate) Attach(repo OrderRepository) {
	g.repo.Store(&repoHolder{repo})
}

func (g *Gate) Ready() bool {
	return g.repo.Load() != nil
}

func (g *Gate) Insert(ctx context.Context, order *model.Order) error {
	h := g.repo.Load()
	if h == nil {
		return model.ErrStorageUnavailable
	}
	return h.Insert(ctx, order)
}

func (g *Gate) FindByCode(ctx context.Context, code string) (*model.Order, error) {
	h := g.repo.Load()
	if h == nil {
		return nil, model.ErrStorageUnavailable
	}
	return h.FindByCode(ctx, code)
}

func (g *Gate) CompareAndSetPaid(ctx context.Context, codes []string, p model.Payment) (*model.Order, error) {
	h := g.repo.Load()
	if h == nil {
		return nil, model.ErrStorageUnavailable
	}
	return h.CompareAndSetPaid(ctx, codes, p)
}
