package service

import (
	"context"
	"fmt"

	"github.com/rl1809/giftpay/internal/core/domain"
	"github.com/rl1809/giftpay/internal/port"
)

type ReportService struct {
	repo port.TransactionRepository
}

func NewReportService(repo port.TransactionRepository) *ReportService {
	return &ReportService{repo: repo}
}

func (s *ReportService) Transactions(ctx context.Context) ([]domain.Transaction, error) {
	txs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (s *ReportService) UserTransactions(ctx context.Context, buyerID int64) ([]domain.Transaction, error) {
	txs, err := s.repo.ListByUser(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions for user %d: %w", buyerID, err)
	}
	return txs, nil
}

func (s *ReportService) Summary(ctx context.Context) (domain.Summary, error) {
	txs, err := s.Transactions(ctx)
	if err != nil {
		return domain.Summary{}, err
	}
	return domain.Summarize(txs), nil
}
