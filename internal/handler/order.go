package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"meostore/internal/model"
	"meostore/internal/service"
)

const maxCreateOrderBody = 16 << 10

var validate = validator.New(validator.WithRequiredStructEnabled())

type createOrderRequest struct {
	UID    string   `json:"uid" validate:"required"`
	Amount *float64 `json:"amount" validate:"required,gt=0"`
}

type createOrderResponse struct {
	Success      bool        `json:"success"`
	OrderCode    string      `json:"orderCode"`
	TransferDesc string      `json:"transferDesc"`
	Amount       json.Number `json:"amount"`
	QRURL        string      `json:"qrUrl"`
}

func CreateOrderHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCreateOrderBody))
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "uid and a positive amount are required")
			return
		}

		created, err := orderSvc.Create(r.Context(), req.UID, decimal.NewFromFloat(*req.Amount))
		if err != nil {
			switch {
			case errors.Is(err, service.ErrValidation):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, model.ErrStorageUnavailable):
				writeError(w, http.StatusServiceUnavailable, "storage unavailable")
			default:
				slog.ErrorContext(r.Context(), "order create failed", "error", err)
				writeError(w, http.StatusInternalServerError, "Failed to create order")
			}
			return
		}

		writeJSON(w, http.StatusOK, createOrderResponse{
			Success:      true,
			OrderCode:    created.Order.OrderCode,
			TransferDesc: created.TransferDesc,
			Amount:       json.Number(created.Order.Amount.String()),
			QRURL:        created.QRURL,
		})
	}
}

func GetOrderHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "orderCode")

		order, err := orderSvc.Get(r.Context(), code)
		if err != nil {
			switch {
			case errors.Is(err, model.ErrNotFound):
				writeError(w, http.StatusNotFound, "Order not found")
			case errors.Is(err, model.ErrStorageUnavailable):
				writeError(w, http.StatusServiceUnavailable, "storage unavailable")
			default:
				slog.ErrorContext(r.Context(), "get order failed", "order_code", code, "error", err)
				writeError(w, http.StatusInternalServerError, "Failed to get order")
			}
			return
		}

		writeJSON(w, http.StatusOK, order)
	}
}
