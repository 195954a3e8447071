package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

const EventPaymentSuccess = "payment_success"

type PaymentEvent struct {
	OrderCode   string          `json:"orderCode"`
	TxID        string          `json:"txId"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

func (e PaymentEvent) MarshalJSON() ([]byte, error) {
	type Alias PaymentEvent
	return json.Marshal(&struct {
		Amount json.Number `json:"amount"`
		*Alias
	}{
		Amount: json.Number(e.Amount.String()),
		Alias:  (*Alias)(&e),
	})
}
