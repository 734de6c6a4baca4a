package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/rl1809/giftpay/internal/core/domain"
	"github.com/rl1809/giftpay/internal/port"
)

var errStorage = errors.New("storage unavailable")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Mock TransactionRepository with the same compare-and-set semantics as the
// MySQL adapter
type mockTxRepo struct {
	mu            sync.Mutex
	rows          map[string]*domain.Transaction
	transitionErr error
	getErr        error
	transitions   int
}

func newMockTxRepo() *mockTxRepo {
	return &mockTxRepo{rows: make(map[string]*domain.Transaction)}
}

func (m *mockTxRepo) RecordPending(ctx context.Context, tx domain.Transaction) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.rows[tx.OrderRef]; ok {
		return existing.ID, false, nil
	}
	row := tx
	m.rows[tx.OrderRef] = &row
	return tx.ID, true, nil
}

func (m *mockTxRepo) Transition(ctx context.Context, orderRef string, status domain.TransactionStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.transitions++
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

func (m *mockTxRepo) GetByOrderRef(ctx context.Context, orderRef string) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	row, ok := m.rows[orderRef]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (m *mockTxRepo) ListAll(ctx context.Context) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Transaction, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, *row)
	}
	return out, nil
}

func (m *mockTxRepo) ListByUser(ctx context.Context, buyerID int64) ([]domain.Transaction, error) {
	all, _ := m.ListAll(ctx)
	var out []domain.Transaction
	for _, tx := range all {
		if tx.BuyerID == buyerID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (m *mockTxRepo) status(orderRef string) domain.TransactionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.rows[orderRef]; ok {
		return row.Status
	}
	return ""
}

func (m *mockTxRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type mockCatalogRepo struct {
	mu    sync.Mutex
	gifts []domain.Gift
	err   error
	calls int
}

func (m *mockCatalogRepo) ActiveGifts(ctx context.Context) ([]domain.Gift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return append([]domain.Gift(nil), m.gifts...), nil
}

type mockCache struct {
	mu     sync.Mutex
	gifts  []domain.Gift
	cached bool
	err    error
}

func (m *mockCache) GetGifts(ctx context.Context) ([]domain.Gift, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, false, m.err
	}
	return m.gifts, m.cached, nil
}

func (m *mockCache) SetGifts(ctx context.Context, gifts []domain.Gift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.gifts = gifts
	m.cached = true
	return nil
}

func (m *mockCache) InvalidateGifts(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cached = false
	m.gifts = nil
	return nil
}

type mockGateway struct {
	mu       sync.Mutex
	result   port.InvoiceResult
	err      error
	requests []port.InvoiceRequest
	block    bool
}

func (m *mockGateway) CreateInvoice(ctx context.Context, req port.InvoiceRequest) (port.InvoiceResult, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	block, result, err := m.block, m.result, m.err
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return port.InvoiceResult{}, &domain.GatewayError{Err: ctx.Err()}
	}
	return result, err
}

type mockDispatcher struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (m *mockDispatcher) Dispatch(n domain.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, n)
}

func (m *mockDispatcher) ofKind(kind domain.NotificationKind) []domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Notification
	for _, n := range m.sent {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

type stubVerifier struct {
	valid string
}

func (v stubVerifier) Verify(n domain.WebhookNotification, signature string) bool {
	return signature == v.valid
}
