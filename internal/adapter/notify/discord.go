package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/rl1809/giftpay/internal/core/domain"
)

// MessageSender is the part of *discordgo.Session the notifier uses.
type MessageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type DiscordNotifier struct {
	session   MessageSender
	channelID string
}

func NewDiscordNotifier(session MessageSender, channelID string) *DiscordNotifier {
	return &DiscordNotifier{session: session, channelID: channelID}
}

func (d *DiscordNotifier) Notify(ctx context.Context, n domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := d.session.ChannelMessageSend(d.channelID, FormatMessage(n), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send discord message: %w", err)
	}
	return nil
}

func FormatMessage(n domain.Notification) string {
	var b strings.Builder

	switch n.Kind {
	case domain.NotificationInvoiceCreated:
		b.WriteString("💰 **New invoice**\n\n")
	case domain.NotificationPaymentConfirmed:
		b.WriteString("✅ **Payment confirmed**\n\n")
	default:
		fmt.Fprintf(&b, "**%s**\n\n", n.Kind)
	}

	fmt.Fprintf(&b, "👤 Buyer: `%d`\n", n.BuyerID)
	fmt.Fprintf(&b, "💵 Amount: %s\n", n.Gross.StringFixed(2))
	if n.ItemName != "" {
		fmt.Fprintf(&b, "🎁 Gift: %s\n", n.ItemName)
	}
	fmt.Fprintf(&b, "📋 Order: `%s`\n", n.OrderRef)
	if n.InvoiceID != "" {
		fmt.Fprintf(&b, "🧾 Invoice: `%s`\n", n.InvoiceID)
	}
	if n.PayURL != "" {
		fmt.Fprintf(&b, "🔗 %s\n", n.PayURL)
	}
	return b.String()
}
