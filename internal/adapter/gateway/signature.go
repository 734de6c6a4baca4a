package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/rl1809/giftpay/internal/core/domain"
)

// HMACVerifier authenticates webhooks with
// hex(HMAC-SHA256(secret, orderRef + ":" + amount)).
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

func CanonicalString(n domain.WebhookNotification) string {
	return n.OrderRef + ":" + n.Amount
}

func (v *HMACVerifier) Sign(n domain.WebhookNotification) string {
	return hex.EncodeToString(v.mac(n))
}

func (v *HMACVerifier) Verify(n domain.WebhookNotification, signature string) bool {
	if len(v.secret) == 0 {
		return false
	}

	supplied, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(signature), "sha256="))
	if err != nil || len(supplied) != sha256.Size {
		return false
	}
	return hmac.Equal(v.mac(n), supplied)
}

func (v *HMACVerifier) mac(n domain.WebhookNotification) []byte {
	h := hmac.New(sha256.New, v.secret)
	h.Write([]byte(CanonicalString(n)))
	return h.Sum(nil)
}
