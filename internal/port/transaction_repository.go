package port

import (
	"context"

	"github.com/rl1809/giftpay/internal/core/domain"
)

type TransactionRepository interface {
	// RecordPending inserts a pending transaction. If a row for the same order
	// reference exists, it returns that row's ID and created=false.
	RecordPending(ctx context.Context, tx domain.Transaction) (id string, created bool, err error)

	// Transition moves a pending row to a terminal status; applied=false when
	// the row is already terminal or does not exist
	Transition(ctx context.Context, orderRef string, status domain.TransactionStatus) (applied bool, err error)

	// GetByOrderRef returns nil, nil when no row exists
	GetByOrderRef(ctx context.Context, orderRef string) (*domain.Transaction, error)

	ListAll(ctx context.Context) ([]domain.Transaction, error)
	ListByUser(ctx context.Context, buyerID int64) ([]domain.Transaction, error)
}
