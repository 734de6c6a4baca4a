package domain

import "strings"

// WebhookNotification is a gateway callback after boundary parsing. Fields
// keep the raw text the gateway sent because the signature is computed over
// it; a field the payload lacked is "".
type WebhookNotification struct {
	OrderRef string
	Amount   string
	Status   string
	Raw      []byte
}

var gatewayStatuses = map[string]TransactionStatus{
	"paid":         TransactionStatusPaid,
	"success":      TransactionStatusPaid,
	"succeeded":    TransactionStatusPaid,
	"completed":    TransactionStatusPaid,
	"confirmed":    TransactionStatusPaid,
	"invoice_paid": TransactionStatusPaid,
	"true":         TransactionStatusPaid,

	"failed":    TransactionStatusFailed,
	"fail":      TransactionStatusFailed,
	"failure":   TransactionStatusFailed,
	"cancelled": TransactionStatusFailed,
	"canceled":  TransactionStatusFailed,
	"expired":   TransactionStatusFailed,
	"declined":  TransactionStatusFailed,
	"rejected":  TransactionStatusFailed,
	"false":     TransactionStatusFailed,
}

// MapGatewayStatus translates the gateway vocabulary into a terminal status.
// ok is false for informational statuses that must not move a transaction.
func MapGatewayStatus(raw string) (status TransactionStatus, ok bool) {
	status, ok = gatewayStatuses[strings.ToLower(strings.TrimSpace(raw))]
	return status, ok
}
