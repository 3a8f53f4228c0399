package bot

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"print3d-bot/internal/config"
	"print3d-bot/internal/session"
)

type Bot struct {
	tg         telegramAPI
	logger     *zap.Logger
	cfg        *config.Config
	sessions   *session.Store
	api        APIClient
	catalog    ServiceCatalog
	archive    OrderArchive // nil when no database is configured
	httpClient *http.Client

	mu       sync.Mutex
	tracking map[int64]bool // users currently asked for a tracking email
}

func New(
	cfg *config.Config,
	sessions *session.Store,
	apiClient APIClient,
	serviceCatalog ServiceCatalog,
	archive OrderArchive,
	logger *zap.Logger,
) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	botAPI.Debug = cfg.Debug

	logger.Info("Bot authorized",
		zap.String("username", botAPI.Self.UserName),
		zap.Int64("id", botAPI.Self.ID))

	return newBot(botAPI, cfg, sessions, apiClient, serviceCatalog, archive, logger), nil
}

func newBot(
	tg telegramAPI,
	cfg *config.Config,
	sessions *session.Store,
	apiClient APIClient,
	serviceCatalog ServiceCatalog,
	archive OrderArchive,
	logger *zap.Logger,
) *Bot {
	return &Bot{
		tg:       tg,
		logger:   logger,
		cfg:      cfg,
		sessions: sessions,
		api:      apiClient,
		catalog:  serviceCatalog,
		archive:  archive,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		tracking: make(map[int64]bool),
	}
}

func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting bot")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.tg.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Shutting down bot")
			b.tg.StopReceivingUpdates()
			return nil

		case update := <-updates:
			b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate is the top of every per-user entry point: whatever a
// handler panics with is logged and turned into a generic user message
// so one bad update never takes the processing loop down.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var chatID int64
	if update.Message != nil {
		chatID = update.Message.Chat.ID
	} else if update.CallbackQuery != nil && update.CallbackQuery.Message != nil {
		chatID = update.CallbackQuery.Message.Chat.ID
	}

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in update handler",
				zap.Int64("chat_id", chatID),
				zap.Any("panic", r))
			if chatID != 0 {
				b.sendError(chatID, "Произошла неожиданная ошибка. Попробуйте еще раз или обратитесь в поддержку.")
			}
		}
	}()

	if update.Message != nil {
		b.processMessage(ctx, update.Message)
	} else if update.CallbackQuery != nil {
		b.processCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	b.logger.Debug("Processing message",
		zap.Int64("chat_id", chatID),
		zap.Int64("user_id", userID),
		zap.String("text", msg.Text))

	if msg.IsCommand() {
		b.handleCommand(ctx, chatID, userID, msg.Command())
		return
	}

	if msg.Document != nil {
		b.handleFileUpload(ctx, chatID, userID, msg.Document)
		return
	}

	b.routeText(ctx, chatID, userID, msg.Text)
}

// routeText dispatches free text to the step the session is in. The
// contact and delivery sub-steps are re-derived from which fields are
// already populated.
func (b *Bot) routeText(ctx context.Context, chatID, userID int64, text string) {
	if b.isTracking(userID) {
		b.handleTrackingEmail(ctx, chatID, userID, text)
		return
	}

	sess, ok := b.sessions.Get(userID)
	if !ok {
		b.send(tgbotapi.NewMessage(chatID, "👋 Привет! Используйте /order для оформления заказа или /help для справки."))
		return
	}

	switch sess.Step {
	case session.StepContactInfo:
		switch sess.ContactStage() {
		case session.AwaitingName:
			b.handleContactName(ctx, chatID, userID, text)
		case session.AwaitingEmail:
			b.handleContactEmail(ctx, chatID, userID, text)
		case session.AwaitingPhone:
			b.handleContactPhone(ctx, chatID, userID, text)
		default:
			b.send(tgbotapi.NewMessage(chatID, "ℹ️ Контактная информация уже собрана. Используйте кнопки для навигации."))
		}

	case session.StepDelivery:
		if sess.DeliveryNeeded != nil && *sess.DeliveryNeeded && sess.DeliveryDetails == "" {
			b.handleDeliveryAddress(ctx, chatID, userID, text)
			return
		}
		b.send(tgbotapi.NewMessage(chatID, "ℹ️ Выберите способ получения с помощью кнопок."))

	default:
		b.send(tgbotapi.NewMessage(chatID, "ℹ️ "+stepHint(sess.Step)))
	}
}

func stepHint(step session.OrderStep) string {
	switch step {
	case session.StepServiceSelection:
		return "Пожалуйста, выберите услугу из предложенного списка."
	case session.StepFileUpload:
		return "Отправьте файл модели или используйте кнопки для навигации."
	case session.StepSpecifications:
		return "Используйте кнопки для выбора параметров печати."
	case session.StepConfirmation:
		return "Используйте кнопки для подтверждения или редактирования заказа."
	default:
		return "Используйте кнопки для навигации по заказу."
	}
}

func (b *Bot) processCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}

	chatID := cb.Message.Chat.ID
	userID := cb.From.ID
	data := cb.Data

	b.logger.Debug("Processing callback",
		zap.Int64("chat_id", chatID),
		zap.Int64("user_id", userID),
		zap.String("data", data))

	if _, err := b.tg.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Warn("Failed to answer callback", zap.Error(err))
	}

	switch {
	case data == "main_menu":
		b.showMainMenu(ctx, chatID)
	case data == "start_order":
		b.startOrder(ctx, chatID, userID)
	case data == "show_services":
		b.showServicesCatalog(ctx, chatID)
	case data == "track_order":
		b.startTracking(ctx, chatID, userID)

	case strings.HasPrefix(data, "order_select_service_"):
		id, err := strconv.ParseInt(strings.TrimPrefix(data, "order_select_service_"), 10, 64)
		if err != nil {
			b.logger.Warn("Malformed service callback", zap.String("data", data))
			return
		}
		b.handleServiceSelection(ctx, chatID, userID, id)

	case data == "order_skip_phone":
		b.skipPhone(ctx, chatID, userID)
	case data == "order_edit_name":
		b.editContactField(ctx, chatID, userID, "name")
	case data == "order_edit_email":
		b.editContactField(ctx, chatID, userID, "email")

	case data == "order_continue_with_files":
		b.continueWithFiles(ctx, chatID, userID)
	case data == "order_remove_last_file":
		b.removeLastFile(ctx, chatID, userID)

	case strings.HasPrefix(data, "order_spec_material_"):
		b.handleMaterialSelection(ctx, chatID, userID, strings.TrimPrefix(data, "order_spec_material_"))
	case strings.HasPrefix(data, "order_spec_quality_"):
		b.handleQualitySelection(ctx, chatID, userID, strings.TrimPrefix(data, "order_spec_quality_"))
	case strings.HasPrefix(data, "order_spec_infill_"):
		b.handleInfillSelection(ctx, chatID, userID, strings.TrimPrefix(data, "order_spec_infill_"))

	case data == "order_delivery_pickup":
		b.handleDeliveryPickup(ctx, chatID, userID)
	case data == "order_delivery_shipping":
		b.handleDeliveryShipping(ctx, chatID, userID)

	case data == "order_confirm":
		b.confirmOrder(ctx, chatID, userID)
	case data == "order_cancel":
		b.cancelOrder(ctx, chatID, userID)
	case data == "order_edit_menu":
		b.showEditMenu(ctx, chatID, userID)

	case data == "order_back_to_services":
		b.backToServices(ctx, chatID, userID)
	case data == "order_back_to_contacts", data == "order_edit_contacts":
		b.backToContacts(ctx, chatID, userID)
	case data == "order_back_to_files", data == "order_edit_files":
		b.backToFiles(ctx, chatID, userID)
	case data == "order_back_to_specs", data == "order_edit_specs", data == "order_back_to_material":
		b.backToMaterial(ctx, chatID, userID)
	case data == "order_back_to_quality":
		b.backToQuality(ctx, chatID, userID)
	case data == "order_back_to_delivery", data == "order_edit_delivery":
		b.backToDelivery(ctx, chatID, userID)
	case data == "order_back_to_confirmation":
		b.backToConfirmation(ctx, chatID, userID)

	default:
		b.logger.Warn("Unknown callback data", zap.String("data", data))
	}
}

func (b *Bot) send(msg tgbotapi.MessageConfig) {
	if _, err := b.tg.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Int64("chat_id", msg.ChatID),
			zap.Error(err))
	}
}

func (b *Bot) sendError(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, "❌ "+text))
}

func (b *Bot) isTracking(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tracking[userID]
}

func (b *Bot) setTracking(userID int64, waiting bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if waiting {
		b.tracking[userID] = true
	} else {
		delete(b.tracking, userID)
	}
}

func (b *Bot) isAdmin(userID int64) bool {
	for _, id := range b.cfg.AdminChatIDs {
		if id == userID {
			return true
		}
	}
	return false
}
