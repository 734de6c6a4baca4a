package gateway

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rl1809/giftpay/internal/core/domain"
)

var ErrInvalidPayload = errors.New("invalid webhook payload")

var (
	orderRefAliases = []string{"orderId", "order_id", "orderID", "payload"}
	amountAliases   = []string{"amount", "sum"}
	statusAliases   = []string{"status", "update_type", "success"}
)

// ParseWebhook extracts the fields the reconciliation needs from a gateway
// callback body. Missing fields are left empty; only a body that is not a
// JSON object is an error.
func ParseWebhook(body []byte) (domain.WebhookNotification, error) {
	var top object
	if err := json.Unmarshal(body, &top); err != nil {
		return domain.WebhookNotification{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if top == nil {
		return domain.WebhookNotification{}, fmt.Errorf("%w: not an object", ErrInvalidPayload)
	}

	in := scopes(top, "payload", "data", "object")
	return domain.WebhookNotification{
		OrderRef: lookup(in, orderRefAliases...),
		Amount:   lookup(in, amountAliases...),
		Status:   lookup(in, statusAliases...),
		Raw:      body,
	}, nil
}
