package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"meostore/internal/metrics"
	"meostore/internal/model"
)

var (
	ErrSignatureInvalid    = errors.New("invalid webhook signature")
	ErrUnattributedPayment = errors.New("payment could not be attributed to an order")
)

type ReconcileResult string

const (
	ResultPaid             ReconcileResult = "paid"
	ResultIgnored          ReconcileResult = "ignored"
	ResultInvalidSignature ReconcileResult = "invalid_signature"
	ResultMalformed        ReconcileResult = "malformed"
	ResultUnattributed     ReconcileResult = "unattributed"
	ResultReplay           ReconcileResult = "replay"
	ResultConflict         ReconcileResult = "conflict"
	ResultError            ReconcileResult = "error"
)

// Notifier receives payment events. Implementations must not block.
type Notifier interface {
	NotifyPaymentSuccess(ctx context.Context, event model.PaymentEvent)
}

// CassoWebhook is the Casso V2 webhook body.
type CassoWebhook struct {
	Error int               `json:"error"`
	Data  *CassoTransaction `json:"data"`
}

type CassoTransaction struct {
	ID                  TransactionID   `json:"id"`
	Reference           string          `json:"reference"`
	Description         string          `json:"description"`
	Amount              decimal.Decimal `json:"amount"`
	AccountNumber       string          `json:"accountNumber"`
	BankName            string          `json:"bankName"`
	TransactionDateTime string          `json:"transactionDateTime"`
}

// TransactionID accepts both numeric and string ids.
type TransactionID string

func (id *TransactionID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = TransactionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("transaction id: %w", err)
	}
	*id = TransactionID(n.String())
	return nil
}

type WebhookService struct {
	store    OrderStore
	verifier *SignatureVerifier
	notifier Notifier
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewWebhookService(store OrderStore, verifier *SignatureVerifier, notifier Notifier, m *metrics.Metrics) *WebhookService {
	return &WebhookService{
		store:    store,
		verifier: verifier,
		notifier: notifier,
		metrics:  m,
		now:      time.Now,
	}
}

func (s *WebhookService) SetClock(now func() time.Time) {
	s.now = now
}

// Handle verifies and reconciles one webhook delivery. The returned error is
// informational: the aggregator must be acknowledged regardless.
func (s *WebhookService) Handle(ctx context.Context, rawBody []byte, signature string) (ReconcileResult, error) {
	result, err := s.handle(ctx, rawBody, signature)
	s.metrics.WebhooksTotal.WithLabelValues(string(result)).Inc()
	return result, err
}

func (s *WebhookService) handle(ctx context.Context, rawBody []byte, signature string) (ReconcileResult, error) {
	if !s.verifier.Verify(rawBody, signature) {
		s.metrics.SignatureFailuresTotal.Inc()
		slog.WarnContext(ctx, "invalid casso signature", "signature_present", signature != "", "body_size", len(rawBody))
		return ResultInvalidSignature, ErrSignatureInvalid
	}

	var payload CassoWebhook
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		slog.ErrorContext(ctx, "malformed casso webhook", "error", err)
		return ResultMalformed, fmt.Errorf("decode webhook: %w", err)
	}
	if payload.Error != 0 || payload.Data == nil {
		slog.InfoContext(ctx, "casso webhook ignored", "error_code", payload.Error, "has_data", payload.Data != nil)
		return ResultIgnored, nil
	}

	return s.Reconcile(ctx, *payload.Data)
}

// Reconcile matches a transaction to a pending order and marks it paid.
func (s *WebhookService) Reconcile(ctx context.Context, tx CassoTransaction) (ReconcileResult, error) {
	txID := string(tx.ID)
	log := slog.With("tx_id", txID, "amount", tx.Amount.String(), "description", tx.Description)

	canonical, matched, ok := ExtractOrderCode(tx.Description)
	if !ok {
		s.metrics.UnattributedPaymentsTotal.Inc()
		log.ErrorContext(ctx, "unattributed payment: no order code in description")
		return ResultUnattributed, ErrUnattributedPayment
	}

	codes := []string{canonical}
	if matched != canonical {
		codes = append(codes, matched)
	}

	order, err := s.store.CompareAndSetPaid(ctx, codes, model.Payment{
		TxID:        txID,
		Description: tx.Description,
		PaidAt:      s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return s.classifyMiss(ctx, log, codes, txID)
		}
		log.ErrorContext(ctx, "mark order paid failed", "order_code", canonical, "error", err)
		return ResultError, fmt.Errorf("mark order %s paid: %w", canonical, err)
	}

	s.metrics.OrdersPaidTotal.Inc()
	log.InfoContext(ctx, "order paid", "order_code", order.OrderCode)

	s.notifier.NotifyPaymentSuccess(ctx, model.PaymentEvent{
		OrderCode:   order.OrderCode,
		TxID:        txID,
		Amount:      tx.Amount,
		Description: tx.Description,
	})
	return ResultPaid, nil
}

func (s *WebhookService) classifyMiss(ctx context.Context, log *slog.Logger, codes []string, txID string) (ReconcileResult, error) {
	var existing *model.Order
	for _, code := range codes {
		o, err := s.store.FindByCode(ctx, code)
		if errors.Is(err, model.ErrNotFound) {
			continue
		}
		if err != nil {
			log.ErrorContext(ctx, "lookup after missed transition failed", "order_code", code, "error", err)
			return ResultError, fmt.Errorf("find order %s: %w", code, err)
		}
		existing = o
		break
	}

	switch {
	case existing == nil:
		s.metrics.UnattributedPaymentsTotal.Inc()
		log.ErrorContext(ctx, "unattributed payment: order not found", "order_code", codes[0])
		return ResultUnattributed, ErrUnattributedPayment
	case existing.TxID == txID:
		log.InfoContext(ctx, "duplicate webhook for paid order", "order_code", existing.OrderCode)
		return ResultReplay, nil
	default:
		s.metrics.PaymentConflictsTotal.Inc()
		log.ErrorContext(ctx, "payment for order already paid by another transaction",
			"order_code", existing.OrderCode, "status", existing.Status, "paid_tx_id", existing.TxID)
		return ResultConflict, nil
	}
}
