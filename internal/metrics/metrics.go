package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service counters. Each instance owns its registry so
// tests can build as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	OrdersCreatedTotal        prometheus.Counter
	OrderCodeCollisionsTotal  prometheus.Counter
	OrderCreateFailuresTotal  prometheus.Counter
	OrdersPaidTotal           prometheus.Counter
	WebhooksTotal             *prometheus.CounterVec
	SignatureFailuresTotal    prometheus.Counter
	UnattributedPaymentsTotal prometheus.Counter
	PaymentConflictsTotal     prometheus.Counter
	NotificationsDroppedTotal *prometheus.CounterVec
	EventSubscribers          prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		OrdersCreatedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders created",
		}),
		OrderCodeCollisionsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "order_code_collisions_total",
			Help: "Generated order codes rejected by the uniqueness constraint",
		}),
		OrderCreateFailuresTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "order_create_failures_total",
			Help: "Order creations that gave up after exhausting code retries",
		}),
		OrdersPaidTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "orders_paid_total",
			Help: "Orders transitioned from pending to paid",
		}),
		WebhooksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "casso_webhooks_total",
			Help: "Casso webhook deliveries by reconciliation result",
		}, []string{"result"}),
		SignatureFailuresTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "casso_webhook_signature_failures_total",
			Help: "Webhook deliveries rejected by signature verification",
		}),
		UnattributedPaymentsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "unattributed_payments_total",
			Help: "Incoming transfers that could not be matched to an order",
		}),
		PaymentConflictsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "payment_conflicts_total",
			Help: "Transfers for orders already paid by a different transaction",
		}),
		NotificationsDroppedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_dropped_total",
			Help: "Payment notifications that could not be delivered",
		}, []string{"backend"}),
		EventSubscribers: f.NewGauge(prometheus.GaugeOpts{
			Name: "event_subscribers",
			Help: "Currently connected real-time subscribers",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
