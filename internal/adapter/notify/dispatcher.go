package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/avast/retry-go"

	"github.com/rl1809/giftpay/internal/core/domain"
	"github.com/rl1809/giftpay/internal/metrics"
	"github.com/rl1809/giftpay/internal/port"
)

type DeadLetterSink interface {
	Send(ctx context.Context, message []byte, err error) error
}

type DispatcherConfig struct {
	WorkerCount int
	Attempts    uint
	Delay       time.Duration
	MaxDelay    time.Duration
	SendTimeout time.Duration
}

// Dispatcher delivers notifications in the background through a bounded pool
// of workers. Delivery failures never reach the caller.
type Dispatcher struct {
	notifier   port.Notifier
	dlq        DeadLetterSink
	cfg        DispatcherConfig
	log        *slog.Logger
	workerPool chan struct{}
	wg         sync.WaitGroup
	mu         sync.RWMutex
	closed     bool
}

// NewDispatcher accepts a nil dlq; undeliverable notifications are then only logged.
func NewDispatcher(notifier port.Notifier, dlq DeadLetterSink, cfg DispatcherConfig, log *slog.Logger) *Dispatcher {
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}

	return &Dispatcher{
		notifier:   notifier,
		dlq:        dlq,
		cfg:        cfg,
		log:        log.With(slog.String("component", "dispatcher")),
		workerPool: make(chan struct{}, cfg.WorkerCount),
	}
}

func (d *Dispatcher) Dispatch(n domain.Notification) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.log.Warn("dispatcher is shut down, dropping notification",
			slog.String("kind", string(n.Kind)),
			slog.String("order_ref", n.OrderRef),
		)
		metrics.Notifications.WithLabelValues("dropped").Inc()
		return
	}

	d.wg.Add(1)
	go func(n domain.Notification) {
		defer d.handleWorkerCleanup()

		// block if the workers are busy
		d.workerPool <- struct{}{}

		if err := d.deliver(n); err != nil {
			d.handleFinalFailure(n, err)
			return
		}
		metrics.Notifications.WithLabelValues("sent").Inc()
	}(n)
}

// Shutdown stops accepting notifications and waits for in-flight deliveries.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) deliver(n domain.Notification) error {
	return retry.Do(
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
			defer cancel()
			return d.notifier.Notify(ctx, n)
		},
		retry.Attempts(d.cfg.Attempts),
		retry.Delay(d.cfg.Delay),
		retry.MaxDelay(d.cfg.MaxDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			d.log.Warn("notification attempt failed",
				slog.Uint64("attempt", uint64(attempt)),
				slog.String("order_ref", n.OrderRef),
				slog.Any("error", err),
			)
		}),
	)
}

func (d *Dispatcher) handleWorkerCleanup() {
	if r := recover(); r != nil {
		d.log.Error("panic in worker", slog.Any("recover", r))
		metrics.Notifications.WithLabelValues("failed").Inc()
	}

	<-d.workerPool
	d.wg.Done()
}

func (d *Dispatcher) handleFinalFailure(n domain.Notification, err error) {
	metrics.Notifications.WithLabelValues("failed").Inc()
	d.log.Error("notification failed after retries",
		slog.String("kind", string(n.Kind)),
		slog.String("order_ref", n.OrderRef),
		slog.Any("final_error", err),
	)

	if d.dlq == nil {
		return
	}

	message, mErr := json.Marshal(n)
	if mErr != nil {
		d.log.Error("failed to marshal notification for DLQ", slog.Any("error", mErr))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
	defer cancel()
	if sErr := d.dlq.Send(ctx, message, err); sErr != nil {
		d.log.Error("failed to send notification to DLQ",
			slog.String("order_ref", n.OrderRef),
			slog.Any("error", sErr),
		)
	}
}
