package domain

import "github.com/shopspring/decimal"

type NotificationKind string

const (
	NotificationInvoiceCreated   NotificationKind = "invoice_created"
	NotificationPaymentConfirmed NotificationKind = "payment_confirmed"
)

type Notification struct {
	Kind      NotificationKind `json:"kind"`
	OrderRef  string           `json:"order_ref"`
	BuyerID   int64            `json:"buyer_id"`
	ItemName  string           `json:"item_name"`
	Gross     decimal.Decimal  `json:"gross"`
	PayURL    string           `json:"pay_url,omitempty"`
	InvoiceID string           `json:"invoice_id,omitempty"`
}
