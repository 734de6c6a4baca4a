package port

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/rl1809/giftpay/internal/core/domain"
)

type InvoiceRequest struct {
	OrderRef    string
	Amount      decimal.Decimal
	Currency    string
	Description string
	SuccessURL  string
	FailURL     string
	WebhookURL  string
}

type InvoiceResult struct {
	PayURL    string
	InvoiceID string
}

type InvoiceGateway interface {
	// CreateInvoice returns a *domain.GatewayError for every failure
	CreateInvoice(ctx context.Context, req InvoiceRequest) (InvoiceResult, error)
}

type SignatureVerifier interface {
	// Verify never errors; false means unauthenticated
	Verify(n domain.WebhookNotification, signature string) bool
}
