package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"meostore/internal/metrics"
	"meostore/internal/model"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrOrderCreationFailed = errors.New("order creation failed")
)

type OrderStore interface {
	Insert(ctx context.Context, order *model.Order) error
	FindByCode(ctx context.Context, code string) (*model.Order, error)
	CompareAndSetPaid(ctx context.Context, codes []string, p model.Payment) (*model.Order, error)
}

type CreatedOrder struct {
	Order        *model.Order
	TransferDesc string
	QRURL        string
}

type OrderService struct {
	store       OrderStore
	qr          *QRBuilder
	metrics     *metrics.Metrics
	newCode     CodeGenerator
	maxAttempts int
	now         func() time.Time
}

type OrderServiceOption func(*OrderService)

func WithCodeGenerator(gen CodeGenerator) OrderServiceOption {
	return func(s *OrderService) { s.newCode = gen }
}

func WithMaxAttempts(n int) OrderServiceOption {
	return func(s *OrderService) { s.maxAttempts = n }
}

func WithOrderClock(now func() time.Time) OrderServiceOption {
	return func(s *OrderService) { s.now = now }
}

func NewOrderService(store OrderStore, qr *QRBuilder, m *metrics.Metrics, opts ...OrderServiceOption) *OrderService {
	s := &OrderService{
		store:       store,
		qr:          qr,
		metrics:     m,
		newCode:     RandomOrderCode,
		maxAttempts: 5,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new pending order. A generated code that collides with an
// existing one is replaced and the insert retried, up to maxAttempts times.
func (s *OrderService) Create(ctx context.Context, uid string, amount decimal.Decimal) (*CreatedOrder, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: uid is required", ErrValidation)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		order := &model.Order{
			OrderCode: s.newCode(),
			UID:       uid,
			Amount:    amount,
			Status:    model.StatusPending,
			CreatedAt: s.now().UTC(),
		}

		err := s.store.Insert(ctx, order)
		if err == nil {
			s.metrics.OrdersCreatedTotal.Inc()
			slog.InfoContext(ctx, "order created", "order_code", order.OrderCode, "uid", uid, "amount", amount.String())
			return &CreatedOrder{
				Order:        order,
				TransferDesc: TransferDescription(order.OrderCode, uid),
				QRURL:        s.qr.Build(amount, order.OrderCode, uid),
			}, nil
		}
		if !errors.Is(err, model.ErrDuplicateKey) {
			return nil, fmt.Errorf("insert order: %w", err)
		}

		s.metrics.OrderCodeCollisionsTotal.Inc()
		slog.WarnContext(ctx, "order code collision, regenerating", "order_code", order.OrderCode, "attempt", attempt)
	}

	s.metrics.OrderCreateFailuresTotal.Inc()
	return nil, fmt.Errorf("%w: no unique order code after %d attempts", ErrOrderCreationFailed, s.maxAttempts)
}

func (s *OrderService) Get(ctx context.Context, code string) (*model.Order, error) {
	order, err := s.store.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return order, nil
}
