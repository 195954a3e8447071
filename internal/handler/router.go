package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"meostore/internal/mw"
	"meostore/internal/notify"
	"meostore/internal/service"
)

type RouterDeps struct {
	Orders         *service.OrderService
	Webhooks       *service.WebhookService
	Hub            *notify.Hub
	Storage        readiness
	Metrics        http.Handler
	AllowedOrigins []string
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Casso-Signature"},
		MaxAge:         300,
	}))

	r.Post("/create-order", CreateOrderHandler(d.Orders))
	r.Get("/order/{orderCode}", GetOrderHandler(d.Orders))
	r.Post("/casso-webhook", CassoWebhookHandler(d.Webhooks))
	r.Get("/events", EventsHandler(d.Hub))

	r.Get("/healthz", HealthHandler(d.Storage))
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	return r
}
