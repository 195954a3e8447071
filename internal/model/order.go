package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending OrderStatus = "pending"
	StatusPaid    OrderStatus = "paid"
)

type Order struct {
	OrderCode       string          `json:"orderCode"`
	UID             string          `json:"uid"`
	Amount          decimal.Decimal `json:"amount"`
	Status          OrderStatus     `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	TxID            string          `json:"txId,omitempty"`
	BankDescription string          `json:"bankDescription,omitempty"`
}

// Payment holds the fields written by the pending -> paid transition.
type Payment struct {
	TxID        string
	Description string
	PaidAt      time.Time
}

func (o Order) MarshalJSON() ([]byte, error) {
	type Alias Order
	return json.Marshal(&struct {
		Amount    json.Number `json:"amount"`
		CreatedAt string      `json:"createdAt"`
		PaidAt    string      `json:"paidAt,omitempty"`
		*Alias
	}{
		Amount:    json.Number(o.Amount.String()),
		CreatedAt: o.CreatedAt.UTC().Format(time.RFC3339),
		PaidAt:    formatOptional(o.PaidAt),
		Alias:     (*Alias)(&o),
	})
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
