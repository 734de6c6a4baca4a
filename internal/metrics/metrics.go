package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Invoices = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftpay_invoices_total",
			Help: "Invoice creation attempts by result",
		},
		[]string{"result"},
	)

	GatewayRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "giftpay_gateway_request_duration_seconds",
			Help:    "Time taken by payment gateway invoice calls",
			Buckets: prometheus.DefBuckets,
		},
	)

	Webhooks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftpay_webhooks_total",
			Help: "Gateway webhooks by outcome",
		},
		[]string{"outcome"},
	)

	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftpay_notifications_total",
			Help: "Admin notifications by result",
		},
		[]string{"result"},
	)
)

// Register must be called once per process.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(Invoices, GatewayRequestDuration, Webhooks, Notifications)
}
