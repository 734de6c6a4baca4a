package port

import (
	"context"

	"github.com/rl1809/giftpay/internal/core/domain"
)

// Notifier delivers one notification synchronously.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// NotificationDispatcher queues a notification for best-effort delivery and
// returns immediately.
type NotificationDispatcher interface {
	Dispatch(n domain.Notification)
}
