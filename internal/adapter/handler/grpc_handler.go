package handler

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	ServiceName           = "giftpay"
	defaultHealthInterval = 15 * time.Second
)

// HealthCheck pings one backing dependency.
type HealthCheck func(ctx context.Context) error

// HealthReporter publishes backend health over grpc.health.v1.Health.
type HealthReporter struct {
	server  *health.Server
	checks  map[string]HealthCheck
	timeout time.Duration
	log     *slog.Logger
}

func NewHealthReporter(checks map[string]HealthCheck, timeout time.Duration, log *slog.Logger) *HealthReporter {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthReporter{
		server:  health.NewServer(),
		checks:  checks,
		timeout: timeout,
		log:     log.With(slog.String("component", "health")),
	}
}

func (h *HealthReporter) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

// Check pings every backend once and returns the resulting status.
func (h *HealthReporter) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	for name, check := range h.checks {
		checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
		err := check(checkCtx)
		cancel()
		if err != nil {
			h.log.Warn("health check failed", slog.String("backend", name), slog.Any("error", err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}

	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
	return status
}

// Run re-checks on every tick until ctx is done, then reports NOT_SERVING.
func (h *HealthReporter) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultHealthInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}
