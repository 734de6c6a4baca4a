package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "pending"
	TransactionStatusPaid    TransactionStatus = "paid"
	TransactionStatusFailed  TransactionStatus = "failed"
)

func (s TransactionStatus) Terminal() bool {
	return s == TransactionStatusPaid || s == TransactionStatusFailed
}

type Transaction struct {
	ID        string
	OrderRef  string
	BuyerID   int64
	ItemName  string
	Gross     decimal.Decimal
	Fee       decimal.Decimal // fixed at creation, never recomputed
	Status    TransactionStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewPendingTransaction(ref OrderRef, itemName string, gross, feeRate decimal.Decimal, now time.Time) Transaction {
	return Transaction{
		ID:        uuid.NewString(),
		OrderRef:  ref.Encode(),
		BuyerID:   ref.BuyerID,
		ItemName:  itemName,
		Gross:     gross,
		Fee:       ComputeFee(gross, feeRate),
		Status:    TransactionStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
