package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/rl1809/giftpay/internal/core/domain"
	"github.com/rl1809/giftpay/internal/port"
)

type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
)

type ReconcileService struct {
	verifier   port.SignatureVerifier
	repo       port.TransactionRepository
	dispatcher port.NotificationDispatcher
	log        *slog.Logger
}

func NewReconcileService(
	verifier port.SignatureVerifier,
	repo port.TransactionRepository,
	dispatcher port.NotificationDispatcher,
	log *slog.Logger,
) *ReconcileService {
	return &ReconcileService{
		verifier:   verifier,
		repo:       repo,
		dispatcher: dispatcher,
		log:        log.With(slog.String("component", "reconcile")),
	}
}

// Reconcile applies one gateway notification. Every returned error leaves the
// store untouched except a failed Transition, which the gateway should retry.
func (s *ReconcileService) Reconcile(ctx context.Context, n domain.WebhookNotification, signature string) (Outcome, error) {
	if !s.verifier.Verify(n, signature) {
		s.log.Warn("webhook signature rejected",
			slog.String("order_ref", n.OrderRef),
			slog.String("amount", n.Amount),
			slog.String("status", n.Status))
		return "", domain.ErrAuthentication
	}

	ref, err := domain.ParseOrderRef(n.OrderRef)
	if err != nil {
		return "", err
	}
	orderRef := ref.Encode()

	status, ok := domain.MapGatewayStatus(n.Status)
	if !ok {
		s.log.Info("ignoring informational webhook status",
			slog.String("order_ref", orderRef),
			slog.String("status", n.Status))
		return OutcomeIgnored, nil
	}

	expected := domain.FromMinorUnits(ref.PriceMinor)
	if status == domain.TransactionStatusPaid && n.Amount != "" {
		amount, err := decimal.NewFromString(n.Amount)
		if err != nil || !amount.Equal(expected) {
			s.log.Warn("webhook amount mismatch",
				slog.String("order_ref", orderRef),
				slog.String("amount", n.Amount),
				slog.String("expected", expected.StringFixed(2)))
			return "", fmt.Errorf("%w: got %q, want %s", domain.ErrAmountMismatch, n.Amount, expected.StringFixed(2))
		}
	}

	applied, err := s.repo.Transition(ctx, orderRef, status)
	if err != nil {
		return "", fmt.Errorf("transition %s to %s: %w", orderRef, status, err)
	}
	if !applied {
		s.log.Info("webhook already reconciled or unknown order",
			slog.String("order_ref", orderRef),
			slog.String("status", string(status)))
		return OutcomeDuplicate, nil
	}

	s.log.Info("transaction reconciled",
		slog.String("order_ref", orderRef),
		slog.String("status", string(status)))

	if status == domain.TransactionStatusPaid {
		s.dispatcher.Dispatch(s.confirmation(ctx, ref, expected))
	}
	return OutcomeApplied, nil
}

// confirmation prefers the stored row; the transition is already durable so a
// failed read only degrades the message.
func (s *ReconcileService) confirmation(ctx context.Context, ref domain.OrderRef, gross decimal.Decimal) domain.Notification {
	n := domain.Notification{
		Kind:     domain.NotificationPaymentConfirmed,
		OrderRef: ref.Encode(),
		BuyerID:  ref.BuyerID,
		Gross:    gross,
	}

	tx, err := s.repo.GetByOrderRef(ctx, n.OrderRef)
	if err != nil || tx == nil {
		s.log.Warn("could not load transaction for confirmation",
			slog.String("order_ref", n.OrderRef),
			slog.Any("error", err))
		return n
	}
	n.ItemName = tx.ItemName
	n.Gross = tx.Gross
	return n
}
