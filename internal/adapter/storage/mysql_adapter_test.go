package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/giftpay/internal/core/domain"
)

func getMySQLDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/giftpay?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

// pendingTx builds a transaction with a buyer id unique to this run.
func pendingTx(t *testing.T, itemID int64, gross string) domain.Transaction {
	t.Helper()

	price := decimal.RequireFromString(gross)
	minor, err := domain.MinorUnits(price)
	require.NoError(t, err)
	ref, err := domain.NewOrderRef(time.Now().UnixNano(), itemID, minor)
	require.NoError(t, err)

	return domain.NewPendingTransaction(ref, "Coffee", price, decimal.RequireFromString("0.10"), time.Now().UTC())
}

func cleanup(db *sql.DB, orderRef string) {
	db.ExecContext(context.Background(), `DELETE FROM transactions WHERE order_ref = ?`, orderRef)
}

func TestRecordPending_Success(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db, RetryConfig{Attempts: 3})
	tx := pendingTx(t, 2, "300.00")
	defer cleanup(db, tx.OrderRef)

	id, created, err := adapter.RecordPending(ctx, tx)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, tx.ID, id)

	stored, err := adapter.GetByOrderRef(ctx, tx.OrderRef)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, domain.TransactionStatusPending, stored.Status)
	assert.Equal(t, "300.00", stored.Gross.StringFixed(2))
	assert.Equal(t, "30.00", stored.Fee.StringFixed(2))
	assert.Equal(t, tx.BuyerID, stored.BuyerID)
}

func TestRecordPending_DuplicateReference(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db, RetryConfig{Attempts: 3})
	tx := pendingTx(t, 2, "300.00")
	defer cleanup(db, tx.OrderRef)

	firstID, _, err := adapter.RecordPending(ctx, tx)
	require.NoError(t, err)

	again := tx
	again.ID = "00000000-0000-0000-0000-000000000000"
	id, created, err := adapter.RecordPending(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, firstID, id)

	var count int
	db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE order_ref = ?`, tx.OrderRef).Scan(&count)
	assert.Equal(t, 1, count)
}

func TestTransition_AppliesOnce(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db, RetryConfig{Attempts: 3})
	tx := pendingTx(t, 2, "300.00")
	defer cleanup(db, tx.OrderRef)

	_, _, err := adapter.RecordPending(ctx, tx)
	require.NoError(t, err)

	applied, err := adapter.Transition(ctx, tx.OrderRef, domain.TransactionStatusPaid)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = adapter.Transition(ctx, tx.OrderRef, domain.TransactionStatusPaid)
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = adapter.Transition(ctx, tx.OrderRef, domain.TransactionStatusFailed)
	require.NoError(t, err)
	assert.False(t, applied)

	stored, err := adapter.GetByOrderRef(ctx, tx.OrderRef)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusPaid, stored.Status)
	assert.Equal(t, "30.00", stored.Fee.StringFixed(2))
}

func TestTransition_UnknownReference(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db, RetryConfig{Attempts: 3})
	ref := "999999_1_100"
	cleanup(db, ref)

	applied, err := adapter.Transition(ctx, ref, domain.TransactionStatusPaid)
	require.NoError(t, err)
	assert.False(t, applied)

	stored, err := adapter.GetByOrderRef(ctx, ref)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestTransition_RejectsPendingTarget(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	adapter := NewMySQLAdapter(db, RetryConfig{Attempts: 3})
	_, err := adapter.Transition(context.Background(), "1_1_100", domain.TransactionStatusPending)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTransition_Concurrent(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db, RetryConfig{Attempts: 5, Delay: 10 * time.Millisecond})
	tx := pendingTx(t, 2, "300.00")
	defer cleanup(db, tx.OrderRef)

	_, _, err := adapter.RecordPending(ctx, tx)
	require.NoError(t, err)

	var appliedCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			applied, err := adapter.Transition(ctx, tx.OrderRef, domain.TransactionStatusPaid)
			if err == nil && applied {
				appliedCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), appliedCount.Load())
}

func TestListByUser_NewestFirst(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db, RetryConfig{Attempts: 3})

	older := pendingTx(t, 2, "300.00")
	ref, err := domain.ParseOrderRef(older.OrderRef)
	require.NoError(t, err)
	ref.ItemID = 3
	ref.PriceMinor = 50000
	newer := domain.NewPendingTransaction(ref, "Cozy evening", decimal.NewFromInt(500), decimal.RequireFromString("0.10"), older.CreatedAt.Add(time.Second))
	defer cleanup(db, older.OrderRef)
	defer cleanup(db, newer.OrderRef)

	_, _, err = adapter.RecordPending(ctx, older)
	require.NoError(t, err)
	_, _, err = adapter.RecordPending(ctx, newer)
	require.NoError(t, err)

	txs, err := adapter.ListByUser(ctx, older.BuyerID)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, newer.OrderRef, txs[0].OrderRef)
	assert.Equal(t, older.OrderRef, txs[1].OrderRef)
}

func TestActiveGifts_SeededAndOrdered(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	adapter := NewMySQLAdapter(db, RetryConfig{})
	gifts, err := adapter.ActiveGifts(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, gifts)

	for i := 1; i < len(gifts); i++ {
		assert.False(t, gifts[i].Price.LessThan(gifts[i-1].Price), "gifts not ordered by price")
	}
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, IsRetryableError(&mysql.MySQLError{Number: 1213}))
	assert.True(t, IsRetryableError(mysql.ErrInvalidConn))
	assert.False(t, IsRetryableError(&mysql.MySQLError{Number: 1062}))
	assert.False(t, IsRetryableError(errors.New("boom")))

	assert.True(t, IsDuplicateKey(&mysql.MySQLError{Number: 1062}))
	assert.False(t, IsDuplicateKey(sql.ErrNoRows))
}
