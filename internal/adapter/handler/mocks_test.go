package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/giftpay/internal/adapter/gateway"
	"github.com/rl1809/giftpay/internal/core/domain"
	"github.com/rl1809/giftpay/internal/core/service"
	"github.com/rl1809/giftpay/internal/port"
)

const (
	testSecret     = "test-secret"
	testAdminToken = "admin-token"
)

var errStorage = errors.New("storage unavailable")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memRepo struct {
	mu            sync.Mutex
	rows          map[string]*domain.Transaction
	transitionErr error
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[string]*domain.Transaction)}
}

func (m *memRepo) RecordPending(ctx context.Context, tx domain.Transaction) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.rows[tx.OrderRef]; ok {
		return existing.ID, false, nil
	}
	row := tx
	m.rows[tx.OrderRef] = &row
	return tx.ID, true, nil
}

func (m *memRepo) Transition(ctx context.Context, orderRef string, status domain.TransactionStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.transitionErr != nil {
		return false, m.transitionErr
	}
	row, ok := m.rows[orderRef]
	if !ok || row.Status != domain.TransactionStatusPending {
		return false, nil
	}
	row.Status = status
	return true, nil
}

func (m *memRepo) GetByOrderRef(ctx context.Context, orderRef string) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[orderRef]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (m *memRepo) ListAll(ctx context.Context) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Transaction, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, *row)
	}
	return out, nil
}

func (m *memRepo) ListByUser(ctx context.Context, buyerID int64) ([]domain.Transaction, error) {
	all, _ := m.ListAll(ctx)
	var out []domain.Transaction
	for _, tx := range all {
		if tx.BuyerID == buyerID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (m *memRepo) seedPending(orderRef string, buyerID int64, gross string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	price := decimal.RequireFromString(gross)
	m.rows[orderRef] = &domain.Transaction{
		ID:       orderRef,
		OrderRef: orderRef,
		BuyerID:  buyerID,
		ItemName: "Coffee",
		Gross:    price,
		Fee:      domain.ComputeFee(price, decimal.RequireFromString("0.10")),
		Status:   domain.TransactionStatusPending,
	}
}

func (m *memRepo) status(orderRef string) domain.TransactionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.rows[orderRef]; ok {
		return row.Status
	}
	return ""
}

type staticCatalog struct {
	gifts []domain.Gift
}

func (s staticCatalog) ActiveGifts(ctx context.Context) ([]domain.Gift, error) {
	return append([]domain.Gift(nil), s.gifts...), nil
}

type noCache struct{}

func (noCache) GetGifts(ctx context.Context) ([]domain.Gift, bool, error) { return nil, false, nil }
func (noCache) SetGifts(ctx context.Context, gifts []domain.Gift) error { return nil }
func (noCache) InvalidateGifts(ctx context.Context) error { return nil }

type stubGateway struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (s *stubGateway) CreateInvoice(ctx context.Context, req port.InvoiceRequest) (port.InvoiceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return port.InvoiceResult{}, s.err
	}
	return port.InvoiceResult{PayURL: "https://pay.example/i/" + req.OrderRef, InvoiceID: "inv-1"}, nil
}

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (r *recordingDispatcher) Dispatch(n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingDispatcher) ofKind(kind domain.NotificationKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, n := range r.sent {
		if n.Kind == kind {
			count++
		}
	}
	return count
}

type fixture struct {
	repo       *memRepo
	gateway    *stubGateway
	dispatcher *recordingDispatcher
	verifier   *gateway.HMACVerifier
	reconciler *service.ReconcileService
	router     http.Handler
}

func newFixture(t *testing.T, cfg RouterConfig) *fixture {
	t.Helper()

	f := &fixture{
		repo:       newMemRepo(),
		gateway:    &stubGateway{},
		dispatcher: &recordingDispatcher{},
		verifier:   gateway.NewHMACVerifier(testSecret),
	}

	log := testLogger()
	catalog := service.NewCatalogService(staticCatalog{gifts: []domain.Gift{
		{ID: 7, Name: "Coffee", Price: decimal.RequireFromString("300.00"), Active: true},
		{ID: 9, Name: "Flowers", Price: decimal.RequireFromString("1500.00"), Active: true},
	}}, noCache{}, log)
	checkout := service.NewCheckoutService(catalog, f.repo, f.gateway, f.dispatcher, service.CheckoutConfig{
		Currency:       "RUB",
		FeeRate:        decimal.RequireFromString("0.10"),
		GatewayTimeout: time.Second,
	}, log)
	f.reconciler = service.NewReconcileService(f.verifier, f.repo, f.dispatcher, log)
	reports := service.NewReportService(f.repo)

	if cfg.AdminToken == "" {
		cfg.AdminToken = testAdminToken
	}
	f.router = NewRouter(
		NewHTTPHandler(checkout, catalog, reports, log),
		NewWebhookHandler(f.reconciler, "", log),
		cfg,
	)
	return f
}
