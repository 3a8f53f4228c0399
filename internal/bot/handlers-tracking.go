package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"print3d-bot/pkg/api"
)

// ORDER TRACKING

func (b *Bot) startTracking(ctx context.Context, chatID, userID int64) {
	b.setTracking(userID, true)

	msg := tgbotapi.NewMessage(chatID,
		"🔔 Отслеживание заказа\n\nВведите email, указанный при оформлении заказа:")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		row(btn("🏠 Главное меню", "main_menu")),
	)
	b.send(msg)
}

func (b *Bot) handleTrackingEmail(ctx context.Context, chatID, userID int64, email string) {
	if !ValidateEmail(email) {
		b.sendError(chatID, "Некорректный email адрес. Пример: user@example.com")
		return
	}

	normalized := strings.ToLower(strings.TrimSpace(email))

	orders, err := b.api.FindOrders(ctx, normalized)
	if err != nil {
		b.logger.Error("Failed to find orders",
			zap.Int64("user_id", userID),
			zap.Error(err))

		var text string
		switch {
		case api.IsClientError(err):
			text = "❌ Не удалось выполнить поиск по этому email.\nПроверьте адрес и попробуйте снова."
		case api.IsServerError(err):
			text = "⚠️ Сервер временно недоступен.\nПопробуйте через несколько минут."
		default:
			text = "❌ Не удалось получить информацию о заказах.\nПопробуйте позже."
		}
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ReplyMarkup = retryKeyboard("track_order")
		b.send(msg)
		return
	}

	b.setTracking(userID, false)

	if len(orders) == 0 {
		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
			"📭 Заказы для %s не найдены.\n\nПроверьте правильность email или оформите новый заказ.",
			normalized))
		msg.ReplyMarkup = afterCancelKeyboard()
		b.send(msg)
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📦 Ваши заказы (%d):\n", len(orders)))
	for _, order := range orders {
		sb.WriteString(fmt.Sprintf("\n🔹 Заказ #%d\n", order.ID))
		sb.WriteString(fmt.Sprintf("   Статус: %s\n", trackingStatusLabel(order.Status)))
		if order.TotalPrice != "" {
			sb.WriteString(fmt.Sprintf("   Стоимость: %s ₽\n", order.TotalPrice))
		}
	}

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ReplyMarkup = afterCancelKeyboard()
	b.send(msg)
}

func trackingStatusLabel(status string) string {
	switch strings.ToLower(status) {
	case "new", "pending":
		return "🆕 Новый"
	case "processing", "in_progress":
		return "⚙️ В работе"
	case "ready":
		return "✅ Готов"
	case "shipped":
		return "🚚 Отправлен"
	case "completed", "done":
		return "🎉 Завершен"
	case "cancelled", "canceled":
		return "❌ Отменен"
	default:
		if status == "" {
			return "—"
		}
		return status
	}
}
