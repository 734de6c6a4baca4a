package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/giftpay/internal/core/domain"
	"github.com/rl1809/giftpay/internal/metrics"
	"github.com/rl1809/giftpay/internal/port"
)

type CheckoutConfig struct {
	Currency       string
	FeeRate        decimal.Decimal
	SuccessURL     string
	FailURL        string
	WebhookURL     string
	GatewayTimeout time.Duration
}

type Invoice struct {
	TransactionID string
	OrderRef      string
	PayURL        string
	Gross         decimal.Decimal
	Fee           decimal.Decimal
}

type CheckoutService struct {
	catalog    *CatalogService
	repo       port.TransactionRepository
	gateway    port.InvoiceGateway
	dispatcher port.NotificationDispatcher
	cfg        CheckoutConfig
	log        *slog.Logger
	now        func() time.Time
}

func NewCheckoutService(
	catalog *CatalogService,
	repo port.TransactionRepository,
	gateway port.InvoiceGateway,
	dispatcher port.NotificationDispatcher,
	cfg CheckoutConfig,
	log *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		catalog:    catalog,
		repo:       repo,
		gateway:    gateway,
		dispatcher: dispatcher,
		cfg:        cfg,
		log:        log.With(slog.String("component", "checkout")),
		now:        time.Now,
	}
}

// Purchase issues a gateway invoice for a gift and records the pending
// transaction. Nothing is written unless the gateway returned a payable URL.
func (s *CheckoutService) Purchase(ctx context.Context, buyerID, giftID int64) (*Invoice, error) {
	gift, err := s.catalog.Gift(ctx, giftID)
	if err != nil {
		return nil, err
	}

	priceMinor, err := domain.MinorUnits(gift.Price)
	if err != nil {
		return nil, fmt.Errorf("gift %d price: %w", gift.ID, err)
	}
	ref, err := domain.NewOrderRef(buyerID, gift.ID, priceMinor)
	if err != nil {
		return nil, err
	}
	orderRef := ref.Encode()

	existing, err := s.repo.GetByOrderRef(ctx, orderRef)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", orderRef, err)
	}
	if existing != nil && existing.Status.Terminal() {
		if existing.Status == domain.TransactionStatusPaid {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyPaid, orderRef)
		}
		return nil, fmt.Errorf("%w: %s is %s", ErrOrderSettled, orderRef, existing.Status)
	}

	result, err := s.createInvoice(ctx, port.InvoiceRequest{
		OrderRef:    orderRef,
		Amount:      gift.Price,
		Currency:    s.cfg.Currency,
		Description: "Gift: " + gift.Name,
		SuccessURL:  s.cfg.SuccessURL,
		FailURL:     s.cfg.FailURL,
		WebhookURL:  s.cfg.WebhookURL,
	})
	if err != nil {
		metrics.Invoices.WithLabelValues("gateway_error").Inc()
		s.log.Error("invoice creation failed",
			slog.String("order_ref", orderRef),
			slog.Any("error", err))
		return nil, err
	}

	tx := domain.NewPendingTransaction(ref, gift.Name, gift.Price, s.cfg.FeeRate, s.now().UTC())
	id, created, err := s.repo.RecordPending(ctx, tx)
	if err != nil {
		metrics.Invoices.WithLabelValues("store_error").Inc()
		return nil, fmt.Errorf("record pending %s: %w", orderRef, err)
	}
	fee := tx.Fee
	if !created {
		s.log.Info("invoice reissued for existing order", slog.String("order_ref", orderRef))
		if existing != nil {
			fee = existing.Fee
		}
	}
	metrics.Invoices.WithLabelValues("created").Inc()

	s.dispatcher.Dispatch(domain.Notification{
		Kind:      domain.NotificationInvoiceCreated,
		OrderRef:  orderRef,
		BuyerID:   buyerID,
		ItemName:  gift.Name,
		Gross:     gift.Price,
		PayURL:    result.PayURL,
		InvoiceID: result.InvoiceID,
	})

	return &Invoice{
		TransactionID: id,
		OrderRef:      orderRef,
		PayURL:        result.PayURL,
		Gross:         gift.Price,
		Fee:           fee,
	}, nil
}

func (s *CheckoutService) createInvoice(ctx context.Context, req port.InvoiceRequest) (port.InvoiceResult, error) {
	if s.cfg.GatewayTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.GatewayTimeout)
		defer cancel()
	}
	return s.gateway.CreateInvoice(ctx, req)
}
