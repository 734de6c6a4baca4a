package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	AdminToken   string
	InvoiceRPS   float64
	InvoiceBurst int
	// TrustProxy takes the client address from X-Forwarded-For/X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxy   bool
	Metrics      http.Handler
}

func NewRouter(h *HTTPHandler, webhook *WebhookHandler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HealthCheck)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Method(http.MethodPost, "/webhooks/payment", webhook)

	limiter := NewRateLimiter(cfg.InvoiceRPS, cfg.InvoiceBurst)
	r.Route("/api", func(r chi.Router) {
		r.Get("/gifts", h.Gifts)
		r.With(limiter.Middleware).Post("/invoices", h.Purchase)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuth(cfg.AdminToken))
			r.Get("/stats", h.Stats)
			r.Get("/transactions", h.Transactions)
		})
	})

	return r
}
