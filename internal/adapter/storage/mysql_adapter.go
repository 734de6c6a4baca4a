package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go"

	"github.com/rl1809/giftpay/internal/core/domain"
)

type RetryConfig struct {
	Attempts uint
	Delay    time.Duration
	MaxDelay time.Duration
}

type MySQLAdapter struct {
	db    *sql.DB
	retry RetryConfig
	now   func() time.Time
}

func NewMySQLAdapter(db *sql.DB, retryCfg RetryConfig) *MySQLAdapter {
	if retryCfg.Attempts == 0 {
		retryCfg.Attempts = 1
	}
	return &MySQLAdapter{db: db, retry: retryCfg, now: time.Now}
}

const transactionColumns = `id, order_ref, buyer_id, item_name, gross, fee, status, created_at, updated_at`

func (m *MySQLAdapter) RecordPending(ctx context.Context, tx domain.Transaction) (string, bool, error) {
	err := m.withRetry(ctx, func() error {
		_, err := m.db.ExecContext(ctx, `
			INSERT INTO transactions (`+transactionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			tx.ID, tx.OrderRef, tx.BuyerID, tx.ItemName,
			tx.Gross.StringFixed(2), tx.Fee.StringFixed(2), tx.Status,
			tx.CreatedAt, tx.UpdatedAt,
		)
		return err
	})
	if err == nil {
		return tx.ID, true, nil
	}
	if !IsDuplicateKey(err) {
		return "", false, fmt.Errorf("insert transaction: %w", err)
	}

	var id string
	err = m.db.QueryRowContext(ctx, `SELECT id FROM transactions WHERE order_ref = ?`, tx.OrderRef).Scan(&id)
	if err != nil {
		return "", false, fmt.Errorf("query existing transaction: %w", err)
	}
	return id, false, nil
}

// Transition is a single conditional UPDATE so concurrent deliveries of the
// same webhook race inside MySQL, and exactly one of them sees a changed row.
func (m *MySQLAdapter) Transition(ctx context.Context, orderRef string, status domain.TransactionStatus) (bool, error) {
	if !status.Terminal() {
		return false, fmt.Errorf("%w: to %q", domain.ErrInvalidTransition, status)
	}

	var rows int64
	err := m.withRetry(ctx, func() error {
		result, err := m.db.ExecContext(ctx, `
			UPDATE transactions
			SET status = ?, updated_at = ?
			WHERE order_ref = ? AND status = ?`,
			status, m.now().UTC(), orderRef, domain.TransactionStatusPending,
		)
		if err != nil {
			return err
		}
		rows, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return false, fmt.Errorf("update transaction status: %w", err)
	}

	return rows == 1, nil
}

func (m *MySQLAdapter) GetByOrderRef(ctx context.Context, orderRef string) (*domain.Transaction, error) {
	row := m.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions WHERE order_ref = ?`, orderRef)

	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query transaction: %w", err)
	}
	return tx, nil
}

func (m *MySQLAdapter) ListAll(ctx context.Context) ([]domain.Transaction, error) {
	return m.listTransactions(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions ORDER BY created_at DESC, id DESC`)
}

func (m *MySQLAdapter) ListByUser(ctx context.Context, buyerID int64) ([]domain.Transaction, error) {
	return m.listTransactions(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions WHERE buyer_id = ? ORDER BY created_at DESC, id DESC`, buyerID)
}

func (m *MySQLAdapter) ActiveGifts(ctx context.Context) ([]domain.Gift, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, name, price, description, is_active
		FROM gifts WHERE is_active = TRUE ORDER BY price ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query gifts: %w", err)
	}
	defer rows.Close()

	var gifts []domain.Gift
	for rows.Next() {
		var g domain.Gift
		if err := rows.Scan(&g.ID, &g.Name, &g.Price, &g.Description, &g.Active); err != nil {
			return nil, fmt.Errorf("scan gift: %w", err)
		}
		gifts = append(gifts, g)
	}
	return gifts, rows.Err()
}

func (m *MySQLAdapter) listTransactions(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, *tx)
	}
	return txs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var tx domain.Transaction
	err := row.Scan(&tx.ID, &tx.OrderRef, &tx.BuyerID, &tx.ItemName,
		&tx.Gross, &tx.Fee, &tx.Status, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (m *MySQLAdapter) withRetry(ctx context.Context, fn func() error) error {
	return retry.Do(fn,
		retry.Context(ctx),
		retry.Attempts(m.retry.Attempts),
		retry.Delay(m.retry.Delay),
		retry.MaxDelay(m.retry.MaxDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(IsRetryableError),
	)
}
