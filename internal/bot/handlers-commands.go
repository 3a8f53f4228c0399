package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func (b *Bot) handleCommand(ctx context.Context, chatID, userID int64, command string) {
	b.logger.Debug("Processing command",
		zap.Int64("user_id", userID),
		zap.String("command", command))

	switch command {
	case "start":
		b.handleStart(ctx, chatID, userID)
	case "help":
		b.handleHelp(ctx, chatID)
	case "order":
		b.startOrder(ctx, chatID, userID)
	case "services":
		b.showServicesCatalog(ctx, chatID)
	case "track":
		b.startTracking(ctx, chatID, userID)
	case "cancel":
		b.handleCancel(ctx, chatID, userID)
	case "stats":
		b.handleStats(ctx, chatID, userID)
	default:
		b.sendError(chatID, "Неизвестная команда. Используйте /help для списка команд.")
	}
}

func (b *Bot) handleStart(ctx context.Context, chatID, userID int64) {
	// /start drops any stale workflow state for a clean entry point.
	b.sessions.Clear(userID)
	b.setTracking(userID, false)

	b.showMainMenu(ctx, chatID)
}

func (b *Bot) showMainMenu(ctx context.Context, chatID int64) {
	text := "👋 Добро пожаловать в сервис 3D печати!\n\n" +
		"Здесь вы можете заказать 3D печать ваших моделей:\n" +
		"• Загрузите файлы моделей (.stl, .obj, .3mf)\n" +
		"• Выберите материал и качество печати\n" +
		"• Укажите способ получения\n\n" +
		"Выберите действие:"

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = mainMenuKeyboard()
	b.send(msg)
}

func (b *Bot) handleHelp(ctx context.Context, chatID int64) {
	text := "ℹ️ Доступные команды:\n\n" +
		"/start — главное меню\n" +
		"/order — оформить новый заказ\n" +
		"/services — каталог услуг\n" +
		"/track — отследить заказ по email\n" +
		"/cancel — отменить текущее оформление\n" +
		"/help — эта справка\n\n" +
		"📦 Оформление заказа проходит по шагам:\n" +
		"1. Выбор услуги\n" +
		"2. Контактные данные\n" +
		"3. Загрузка файлов моделей\n" +
		"4. Параметры печати\n" +
		"5. Способ получения\n" +
		"6. Подтверждение\n\n" +
		"На любом шаге можно вернуться назад или отменить заказ."

	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) showServicesCatalog(ctx context.Context, chatID int64) {
	services, err := b.catalog.Services(ctx, true)
	if err != nil {
		b.handleAPIError(ctx, chatID, err, "listing services", "show_services")
		return
	}

	if len(services) == 0 {
		b.sendError(chatID, "Каталог услуг пуст.\nПопробуйте позже.")
		return
	}

	var sb strings.Builder
	sb.WriteString("🛍️ Наши услуги:\n")
	for _, svc := range services {
		sb.WriteString(fmt.Sprintf("\n🔹 %s\n", svc.Name))
		if svc.Description != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", svc.Description))
		}
		if svc.Category != "" {
			sb.WriteString(fmt.Sprintf("   Категория: %s\n", svc.Category))
		}
	}
	sb.WriteString("\nДля заказа используйте /order")

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ReplyMarkup = afterCancelKeyboard()
	b.send(msg)
}

func (b *Bot) handleCancel(ctx context.Context, chatID, userID int64) {
	b.setTracking(userID, false)

	if !b.sessions.Clear(userID) {
		msg := tgbotapi.NewMessage(chatID, "Нет активного оформления заказа.")
		msg.ReplyMarkup = afterCancelKeyboard()
		b.send(msg)
		return
	}

	msg := tgbotapi.NewMessage(chatID, "❌ Оформление заказа отменено.\nВсе введенные данные удалены.")
	msg.ReplyMarkup = afterCancelKeyboard()
	b.send(msg)
}

// handleStats reports archive totals to admins. Hidden from everyone else.
func (b *Bot) handleStats(ctx context.Context, chatID, userID int64) {
	if !b.isAdmin(userID) {
		b.sendError(chatID, "Неизвестная команда. Используйте /help для списка команд.")
		return
	}

	if b.archive == nil {
		b.sendError(chatID, "Статистика недоступна: база данных не настроена.")
		return
	}

	stats, err := b.archive.Stats(ctx)
	if err != nil {
		b.logger.Error("Failed to load order stats",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		b.sendError(chatID, "Не удалось получить статистику. Попробуйте позже.")
		return
	}

	text := fmt.Sprintf(
		"📊 Статистика заказов\n\nВсего заказов: %d\nЗа последние 24 часа: %d\nАктивных сессий: %d",
		stats.Total, stats.Last24, b.sessions.Count())
	b.send(tgbotapi.NewMessage(chatID, text))
}
