package notify

import (
	"context"
	"log/slog"

	"github.com/rl1809/giftpay/internal/core/domain"
)

// LogNotifier stands in when no Discord channel is configured.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With(slog.String("component", "notifier"))}
}

func (l *LogNotifier) Notify(ctx context.Context, n domain.Notification) error {
	l.log.InfoContext(ctx, "admin notification",
		slog.String("kind", string(n.Kind)),
		slog.String("order_ref", n.OrderRef),
		slog.Int64("buyer_id", n.BuyerID),
		slog.String("gross", n.Gross.StringFixed(2)),
		slog.String("pay_url", n.PayURL),
	)
	return nil
}
