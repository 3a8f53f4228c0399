package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"print3d-bot/pkg/api"
)

// notifyAdmins sends a new-order summary to every configured admin
// chat. Delivery failures are logged and never surface to the customer.
func (b *Bot) notifyAdmins(ctx context.Context, order api.Order, userID int64) {
	if len(b.cfg.AdminChatIDs) == 0 {
		return
	}

	text := formatAdminNotification(order, userID)

	for _, adminID := range b.cfg.AdminChatIDs {
		msg := tgbotapi.NewMessage(adminID, text)
		if _, err := b.tg.Send(msg); err != nil {
			b.logger.Error("Failed to notify admin",
				zap.Int64("admin_chat_id", adminID),
				zap.Int64("order_id", order.ID),
				zap.Error(err))
		}
	}
}

func formatAdminNotification(order api.Order, userID int64) string {
	var sb strings.Builder

	sb.WriteString("🆕 Новый заказ!\n\n")
	sb.WriteString(fmt.Sprintf("📋 Заказ: #%d\n", order.ID))
	sb.WriteString(fmt.Sprintf("👤 Клиент: %s\n", order.CustomerName))
	sb.WriteString(fmt.Sprintf("📧 Email: %s\n", order.CustomerEmail))
	if order.CustomerPhone != "" {
		sb.WriteString(fmt.Sprintf("📱 Телефон: %s\n", order.CustomerPhone))
	}
	sb.WriteString(fmt.Sprintf("🛍️ Услуга: %s (#%d)\n", order.ServiceName, order.ServiceID))
	sb.WriteString(fmt.Sprintf("🤖 Telegram ID: %d\n", userID))

	if len(order.Specifications) > 0 {
		sb.WriteString("\n⚙️ Параметры:\n")
		for _, key := range []string{"material", "quality", "infill"} {
			if v, ok := order.Specifications[key]; ok {
				sb.WriteString(fmt.Sprintf("   %s: %v\n", specLabel(key), v))
			}
		}
	}

	return sb.String()
}

func specLabel(key string) string {
	switch key {
	case "material":
		return "Материал"
	case "quality":
		return "Качество"
	case "infill":
		return "Заполнение"
	default:
		return key
	}
}
