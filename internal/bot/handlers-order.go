package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"print3d-bot/internal/session"
	"print3d-bot/internal/storage"
	"print3d-bot/pkg/api"
)

// ORDER WORKFLOW

func (b *Bot) startOrder(ctx context.Context, chatID, userID int64) {
	// A pending tracking prompt would otherwise swallow the free-text
	// contact answers of the new order.
	b.setTracking(userID, false)

	b.sessions.Create(userID)
	b.setStep(userID, session.StepServiceSelection)

	b.showServiceSelection(ctx, chatID, userID)
}

func (b *Bot) showServiceSelection(ctx context.Context, chatID, userID int64) {
	services, err := b.catalog.Services(ctx, true)
	if err != nil {
		b.handleAPIError(ctx, chatID, err, "fetching services", "start_order")
		return
	}

	if len(services) == 0 {
		b.sendError(chatID, "В данный момент услуги недоступны.\nПопробуйте позже или обратитесь к администратору.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, "🛍️ Выберите услугу для заказа:")
	msg.ReplyMarkup = serviceSelectionKeyboard(services)
	b.send(msg)
}

func (b *Bot) handleServiceSelection(ctx context.Context, chatID, userID, serviceID int64) {
	sess, ok := b.sessions.Get(userID)
	if !ok {
		b.handleSessionError(chatID)
		return
	}
	if sess.Step != session.StepServiceSelection {
		b.sendError(chatID, "Этот шаг уже пройден. Используйте кнопки текущего шага.")
		return
	}

	svc, found, err := b.catalog.Find(ctx, serviceID)
	if err != nil {
		b.handleAPIError(ctx, chatID, err, "selecting service", "start_order")
		return
	}
	if !found {
		b.sendError(chatID, "Услуга не найдена или недоступна.\nПопробуйте выбрать другую услугу.")
		return
	}

	step := session.StepContactInfo
	b.sessions.Update(userID, session.FieldChanges{
		Step:        &step,
		ServiceID:   &svc.ID,
		ServiceName: &svc.Name,
	})

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"👤 Контактная информация\n\nВыбранная услуга: %s\n\nПожалуйста, введите ваше полное имя:",
		svc.Name))
	msg.ReplyMarkup = contactNameKeyboard()
	b.send(msg)
}

func (b *Bot) handleContactName(ctx context.Context, chatID, userID int64, name string) {
	if !ValidateName(name) {
		b.sendError(chatID, "Некорректное имя. Используйте 2-50 символов: буквы, пробелы, дефисы, апострофы.")
		return
	}

	trimmed := strings.TrimSpace(name)
	sess, ok := b.sessions.Update(userID, session.FieldChanges{CustomerName: &trimmed})
	if !ok {
		b.handleSessionError(chatID)
		return
	}

	// After an edit the other contact fields may already be filled;
	// only ask for what is still missing.
	switch sess.ContactStage() {
	case session.AwaitingEmail:
		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("✅ Имя: %s\n\nТеперь введите ваш email адрес:", trimmed))
		msg.ReplyMarkup = contactEmailKeyboard()
		b.send(msg)
	case session.AwaitingPhone:
		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
			"✅ Имя: %s\n\nВведите ваш номер телефона или пропустите этот шаг:", trimmed))
		msg.ReplyMarkup = contactPhoneKeyboard()
		b.send(msg)
	default:
		b.showContactSummary(chatID, sess)
	}
}

func (b *Bot) handleContactEmail(ctx context.Context, chatID, userID int64, email string) {
	if !ValidateEmail(email) {
		b.sendError(chatID, "Некорректный email адрес. Пример: user@example.com")
		return
	}

	normalized := strings.ToLower(strings.TrimSpace(email))
	sess, ok := b.sessions.Update(userID, session.FieldChanges{CustomerEmail: &normalized})
	if !ok {
		b.handleSessionError(chatID)
		return
	}

	if sess.ContactStage() == session.ContactsDone {
		b.showContactSummary(chatID, sess)
		return
	}

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"✅ Email: %s\n\nВведите ваш номер телефона (необязательно):\nФормат: +7 900 123-45-67 или пропустите этот шаг",
		normalized))
	msg.ReplyMarkup = contactPhoneKeyboard()
	b.send(msg)
}

// showContactSummary renders the collected contacts with edit and
// forward navigation, used when all contact fields are populated.
func (b *Bot) showContactSummary(chatID int64, sess *session.OrderSession) {
	phone := "Не указан"
	if sess.CustomerPhone != nil && *sess.CustomerPhone != "" {
		phone = *sess.CustomerPhone
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"👤 Контактные данные:\n\nИмя: %s\nEmail: %s\nТелефон: %s",
		sess.CustomerName, sess.CustomerEmail, phone))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		row(btn("✏️ Изменить имя", "order_edit_name")),
		row(btn("✏️ Изменить email", "order_edit_email")),
		row(btn("➡️ К файлам", "order_back_to_files")),
		cancelRow,
	)
	b.send(msg)
}

func (b *Bot) handleContactPhone(ctx context.Context, chatID, userID int64, phone string) {
	if !ValidatePhone(strings.TrimSpace(phone)) {
		b.sendError(chatID, "Некорректный номер телефона. Пример: +7 900 123-45-67")
		return
	}

	normalized := NormalizePhone(phone)
	step := session.StepFileUpload
	b.sessions.Update(userID, session.FieldChanges{
		Step:          &step,
		CustomerPhone: &normalized,
	})

	b.showFileUploadStep(ctx, chatID, userID)
}

func (b *Bot) skipPhone(ctx context.Context, chatID, userID int64) {
	sess, ok := b.sessions.Get(userID)
	if !ok {
		b.handleSessionError(chatID)
		return
	}
	if sess.Step != session.StepContactInfo {
		b.sendError(chatID, "Этот шаг уже пройден. Используйте кнопки текущего шага.")
		return
	}

	skipped := ""
	step := session.StepFileUpload
	b.sessions.Update(userID, session.FieldChanges{
		Step:          &step,
		CustomerPhone: &skipped,
	})

	b.showFileUploadStep(ctx, chatID, userID)
}

// editContactField clears one contact field so the nullability-driven
// routing asks for it again.
func (b *Bot) editContactField(ctx context.Context, chatID, userID int64, field string) {
	sess, ok := b.sessions.Get(userID)
	if !ok {
		b.handleSessionError(chatID)
		return
	}

	step := session.StepContactInfo
	switch field {
	case "name":
		sess.CustomerName = ""
		b.sessions.Update(userID, session.FieldChanges{Step: &step})
		msg := tgbotapi.NewMessage(chatID, "Пожалуйста, введите ваше полное имя:")
		msg.ReplyMarkup = contactNameKeyboard()
		b.send(msg)
	case "email":
		sess.CustomerEmail = ""
		b.sessions.Update(userID, session.FieldChanges{Step: &step})
		msg := tgbotapi.NewMessage(chatID, "Введите ваш email адрес:")
		msg.ReplyMarkup = contactEmailKeyboard()
		b.send(msg)
	}
}

func (b *Bot) showFileUploadStep(ctx context.Context, chatID, userID int64) {
	sess, ok := b.sessions.Get(userID)
	if !ok {
		b.handleSessionError(chatID)
		return
	}

	text := fmt.Sprintf(
		"📁 Загрузка файлов\n\n"+
			"Отправьте файлы 3D моделей для печати.\n"+
			"Поддерживаемые форматы: %s\n"+
			"Максимальный размер файла: %d МБ\n\n"+
			"📁 Загружено файлов: %d",
		strings.Join(b.cfg.AllowedExtensions(), ", "),
		b.cfg.MaxFileSizeMB,
		len(sess.Files))

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = fileUploadKeyboard(len(sess.Files))
	b.send(msg)
}

func (b *Bot) handleFileUpload(ctx context.Context, chatID, userID int64, doc *tgbotapi.Document) {
	sess, ok := b.sessions.Get(userID)
	if !ok || sess.Step != session.StepFileUpload {
		b.handleSessionError(chatID)
		return
	}

	if doc.FileName == "" {
		b.sendError(chatID, "Файл не найден. Попробуйте отправить файл заново.")
		return
	}

	if !b.isAllowedFormat(doc.FileName) {
		b.sendError(chatID, fmt.Sprintf(
			"Неподдерживаемый формат файла: %s\nПоддерживаемые форматы: %s",
			doc.FileName,
			strings.Join(b.cfg.AllowedExtensions(), ", ")))
		return
	}

	if int64(doc.FileSize) > b.cfg.MaxFileSize() {
		b.sendError(chatID, fmt.Sprintf(
			"Файл %s слишком большой. Максимальный размер: %d МБ",
			doc.FileName, b.cfg.MaxFileSizeMB))
		return
	}

	data, err := b.downloadDocument(ctx, doc)
	if err != nil {
		b.logger.Error("Failed to download document",
			zap.Int64("user_id", userID),
			zap.String("filename", doc.FileName),
			zap.Error(err))
		b.sendError(chatID, "Не удалось скачать файл из Telegram. Отправьте файл еще раз.")
		return
	}

	result, err := b.api.UploadFile(ctx, data, doc.FileName, doc.MimeType)
	if err != nil {
		b.handleAPIError(ctx, chatID, err, "uploading file", "order_back_to_files")
		return
	}

	sess.AddFile(session.FileInfo{
		Filename:       doc.FileName,
		Size:           int64(doc.FileSize),
		TelegramFileID: doc.FileID,
		StoredID:       result.ID,
	})

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"✅ Файл %s успешно загружен!\n📏 Размер: %.1f KB\n\n📁 Всего файлов: %d\n\n"+
			"Вы можете загрузить еще файлы или продолжить оформление заказа.",
		doc.FileName,
		float64(doc.FileSize)/1024,
		len(sess.Files)))
	msg.ReplyMarkup = fileUploadKeyboard(len(sess.Files))
	b.send(msg)
}

func (b *Bot) isAllowedFormat(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range b.cfg.AllowedExtensions() {
		if ext == allowed {
			return true
		}
	}
	return false
}

// downloadDocument streams one file from Telegram into memory; files
// are never buffered beyond their own size before upload.
func (b *Bot) downloadDocument(ctx context.Context, doc *tgbotapi.Document) ([]byte, error) {
	url, err := b.tg.GetFileDirectURL(doc.FileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file URL: %w", err)
	}

	req, err := newGetRequest(ctx, url)
	if err != nil {
		return nil, err
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("download file: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, b.cfg.MaxFileSize()+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if int64(len(data)) > b.cfg.MaxFileSize() {
		return nil, fmt.Errorf("file exceeds %d MB limit", b.cfg.MaxFileSizeMB)
	}
	return data, nil
}

func (b *Bot) removeLastFile(ctx context.Context, chatID, userID int64) {
	sess, ok := b.sessions.Get(userID)
	if !ok {
		b.handleSessionError(chatID)
		return
	}

	removed, ok := sess.RemoveLastFile()
	if !ok {
		b.sendError(chatID, "Нет загруженных файлов.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"🗑️ Файл %s удален.\n📁 Осталось файлов: %d",
		removed.Filename, len(sess.Files)))
	msg.ReplyMarkup = fileUploadKeyboard(len(sess.Files))
	b.send(msg)
}

func (b *Bot) continueWithFiles(ctx context.Context, chatID, userID int64) {
	sess, ok := b.sessions.Get(userID)
	if !ok {
		b.handleSessionError(chatID)
		return
	}
	if len(sess.Files) == 0 {
		b.sendError(chatID, "Необходимо загрузить хотя бы один файл для продолжения.")
		return
	}

	b.setStep(userID, session.StepSpecifications)
	b.showMaterialSelection(ctx, chatID)
}

func (b *Bot) showMaterialSelection(ctx context.Context, chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "⚙️ Параметры печати\n\nВыберите материал для печати:")
	msg.ReplyMarkup = materialKeyboard()
	b.send(msg)
}

func (b *Bot) handleMaterialSelection(ctx context.Context, chatID, userID int64, material string) {
	sess, ok := b.sessions.Get(userID)
	if !ok || sess.Step != session.StepSpecifications {
		b.handleSessionError(chatID)
		return
	}

	sess.SetSpec(session.SpecMaterial, material)

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"✅ Материал: %s\n\nВыберите качество печати:", material))
	msg.ReplyMarkup = qualityKeyboard()
	b.send(msg)
}

func (b *Bot) handleQualitySelection(ctx context.Context, chatID, userID int64, quality string) {
	sess, ok := b.sessions.Get(userID)
	if !ok || sess.Step != session.StepSpecifications {
		b.handleSessionError(chatID)
		return
	}
	if sess.Specifications[session.SpecMaterial] == "" {
		b.showMaterialSelection(ctx, chatID)
		return
	}

	sess.SetSpec(session.SpecQuality, quality)

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"✅ Качество: %s\n\nВыберите заполнение модели:", quality))
	msg.ReplyMarkup = infillKeyboard()
	b.send(msg)
}

func (b *Bot) handleInfillSelection(ctx context.Context, chatID, userID int64, infill string) {
	sess, ok := b.sessions.Get(userID)
	if !ok || sess.Step != session.StepSpecifications {
		b.handleSessionError(chatID)
		return
	}
	if sess.Specifications[session.SpecQuality] == "" {
		b.sendError(chatID, "Сначала выберите качество печати.")
		return
	}

	sess.SetSpec(session.SpecInfill, infill)
	b.setStep(userID, session.StepDelivery)

	b.showDeliveryStep(ctx, chatID)
}

func (b *Bot) showDeliveryStep(ctx context.Context, chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "🚚 Способ получения\n\nКак вы хотите получить готовый заказ?")
	msg.ReplyMarkup = deliveryKeyboard()
	b.send(msg)
}

func (b *Bot) handleDeliveryPickup(ctx context.Context, chatID, userID int64) {
	sess, ok := b.sessions.Get(userID)
	if !ok || sess.Step != session.StepDelivery {
		b.handleSessionError(chatID)
		return
	}

	needed := false
	empty := ""
	step := session.StepConfirmation
	b.sessions.Update(userID, session.FieldChanges{
		Step:            &step,
		DeliveryNeeded:  &needed,
		DeliveryDetails: &empty,
	})

	b.showConfirmation(ctx, chatID, userID)
}

func (b *Bot) handleDeliveryShipping(ctx context.Context, chatID, userID int64) {
	sess, ok := b.sessions.Get(userID)
	if !ok || sess.Step != session.StepDelivery {
		b.handleSessionError(chatID)
		return
	}

	needed := true
	b.sessions.Update(userID, session.FieldChanges{DeliveryNeeded: &needed})

	msg := tgbotapi.NewMessage(chatID, "📍 Введите адрес доставки (минимум 10 символов):")
	msg.ReplyMarkup = deliveryAddressKeyboard()
	b.send(msg)
}

func (b *Bot) handleDeliveryAddress(ctx context.Context, chatID, userID int64, address string) {
	if !ValidateAddress(address) {
		b.sendError(chatID, "Адрес слишком короткий. Укажите полный адрес доставки (минимум 10 символов).")
		return
	}

	trimmed := strings.TrimSpace(address)
	step := session.StepConfirmation
	b.sessions.Update(userID, session.FieldChanges{
		Step:            &step,
		DeliveryDetails: &trimmed,
	})

	b.showConfirmation(ctx, chatID, userID)
}

func (b *Bot) showConfirmation(ctx context.Context, chatID, userID int64) {
	sess, ok := b.sessions.Get(userID)
	if !ok {
		b.handleSessionError(chatID)
		return
	}

	msg := tgbotapi.NewMessage(chatID, sess.Summary()+"\n\nВсё верно?")
	msg.ReplyMarkup = confirmationKeyboard()
	b.send(msg)
}

func (b *Bot) showEditMenu(ctx context.Context, chatID, userID int64) {
	if _, ok := b.sessions.Get(userID); !ok {
		b.handleSessionError(chatID)
		return
	}

	msg := tgbotapi.NewMessage(chatID, "✏️ Что вы хотите изменить?")
	msg.ReplyMarkup = editMenuKeyboard()
	b.send(msg)
}

func (b *Bot) confirmOrder(ctx context.Context, chatID, userID int64) {
	sess, ok := b.sessions.Get(userID)
	if !ok || sess.Step != session.StepConfirmation {
		b.handleSessionError(chatID)
		return
	}

	// Steps can be revisited and left inconsistent, so the whole
	// session is re-validated right before the external call.
	if problem := validateOrderData(sess); problem != "" {
		msg := tgbotapi.NewMessage(chatID, "❌ "+problem)
		msg.ReplyMarkup = confirmationKeyboard()
		b.send(msg)
		return
	}

	if !sess.IsComplete() {
		b.sendError(chatID, "Заказ не может быть создан. Не хватает обязательных данных.\nПожалуйста, заполните все необходимые поля.")
		return
	}

	b.send(tgbotapi.NewMessage(chatID, "⏳ Создаем ваш заказ...\nПожалуйста, подождите."))

	created, err := b.api.CreateOrder(ctx, sess.OrderPayload())
	if err != nil {
		b.logger.Error("Failed to create order",
			zap.Int64("user_id", userID),
			zap.Error(err))
		b.handleOrderCreationError(ctx, chatID, err)
		return
	}

	b.logger.Info("Order created",
		zap.Int64("user_id", userID),
		zap.Int64("order_id", created.ID),
		zap.Int64p("service_id", sess.ServiceID))

	b.setStep(userID, session.StepCompleted)

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"🎉 Заказ успешно создан!\n\n"+
			"📋 Номер заказа: #%d\n"+
			"👤 Клиент: %s\n"+
			"📧 Email: %s\n"+
			"🛍️ Услуга: %s\n"+
			"📁 Файлов: %d\n\n"+
			"✅ Следующие шаги:\n"+
			"1. Мы обработаем ваш заказ в течение 24 часов\n"+
			"2. Свяжемся с вами для уточнения деталей\n"+
			"3. Сообщим точные сроки и стоимость\n\n"+
			"🔔 Используйте /track для отслеживания статуса",
		created.ID,
		sess.CustomerName,
		sess.CustomerEmail,
		sess.ServiceName,
		len(sess.Files)))
	msg.ReplyMarkup = afterSuccessKeyboard()
	b.send(msg)

	b.notifyAdmins(ctx, created, userID)
	b.archiveOrder(ctx, sess, created)

	// Best-effort cleanup: the order is durable once the backend
	// accepted it, a leftover session is reclaimed by the sweeper.
	b.sessions.Clear(userID)
}

func (b *Bot) archiveOrder(ctx context.Context, sess *session.OrderSession, created api.Order) {
	if b.archive == nil {
		return
	}

	var serviceID int64
	if sess.ServiceID != nil {
		serviceID = *sess.ServiceID
	}
	phone := ""
	if sess.CustomerPhone != nil {
		phone = *sess.CustomerPhone
	}

	record := storage.SubmittedOrder{
		UserID:          sess.UserID,
		BackendOrderID:  created.ID,
		CustomerName:    sess.CustomerName,
		CustomerEmail:   sess.CustomerEmail,
		CustomerPhone:   phone,
		ServiceID:       serviceID,
		ServiceName:     sess.ServiceName,
		FilesCount:      len(sess.Files),
		Material:        sess.Specifications[session.SpecMaterial],
		Quality:         sess.Specifications[session.SpecQuality],
		Infill:          sess.Specifications[session.SpecInfill],
		DeliveryNeeded:  sess.DeliveryNeeded != nil && *sess.DeliveryNeeded,
		DeliveryDetails: sess.DeliveryDetails,
		CreatedAt:       time.Now(),
	}

	if _, err := b.archive.SaveOrder(ctx, record); err != nil {
		b.logger.Error("Failed to archive submitted order",
			zap.Int64("backend_order_id", created.ID),
			zap.Error(err))
	}
}

func (b *Bot) cancelOrder(ctx context.Context, chatID, userID int64) {
	b.setTracking(userID, false)
	b.sessions.Clear(userID)

	msg := tgbotapi.NewMessage(chatID, "❌ Заказ отменен.\nВсе введенные данные удалены.")
	msg.ReplyMarkup = afterCancelKeyboard()
	b.send(msg)
}

// BACKWARD NAVIGATION
//
// Going back resets the step but keeps collected data, except that
// returning to material selection drops quality and infill, and
// returning to quality drops infill.

func (b *Bot) backToServices(ctx context.Context, chatID, userID int64) {
	if _, ok := b.sessions.Get(userID); !ok {
		b.handleSessionError(chatID)
		return
	}
	b.setStep(userID, session.StepServiceSelection)
	b.showServiceSelection(ctx, chatID, userID)
}

func (b *Bot) backToContacts(ctx context.Context, chatID, userID int64) {
	sess, ok := b.sessions.Get(userID)
	if !ok {
		b.handleSessionError(chatID)
		return
	}
	b.setStep(userID, session.StepContactInfo)

	switch sess.ContactStage() {
	case session.AwaitingName:
		msg := tgbotapi.NewMessage(chatID, "Пожалуйста, введите ваше полное имя:")
		msg.ReplyMarkup = contactNameKeyboard()
		b.send(msg)
	case session.AwaitingEmail:
		msg := tgbotapi.NewMessage(chatID, "Введите ваш email адрес:")
		msg.ReplyMarkup = contactEmailKeyboard()
		b.send(msg)
	case session.AwaitingPhone:
		msg := tgbotapi.NewMessage(chatID, "Введите ваш номер телефона или пропустите этот шаг:")
		msg.ReplyMarkup = contactPhoneKeyboard()
		b.send(msg)
	default:
		b.showContactSummary(chatID, sess)
	}
}

func (b *Bot) backToFiles(ctx context.Context, chatID, userID int64) {
	if _, ok := b.sessions.Get(userID); !ok {
		b.handleSessionError(chatID)
		return
	}
	b.setStep(userID, session.StepFileUpload)
	b.showFileUploadStep(ctx, chatID, userID)
}

func (b *Bot) backToMaterial(ctx context.Context, chatID, userID int64) {
	sess, ok := b.sessions.Get(userID)
	if !ok {
		b.handleSessionError(chatID)
		return
	}

	sess.ClearSpecs(session.SpecQuality, session.SpecInfill)
	b.setStep(userID, session.StepSpecifications)
	b.showMaterialSelection(ctx, chatID)
}

func (b *Bot) backToQuality(ctx context.Context, chatID, userID int64) {
	sess, ok := b.sessions.Get(userID)
	if !ok {
		b.handleSessionError(chatID)
		return
	}

	sess.ClearSpecs(session.SpecInfill)
	b.setStep(userID, session.StepSpecifications)

	if sess.Specifications[session.SpecMaterial] == "" {
		b.showMaterialSelection(ctx, chatID)
		return
	}

	msg := tgbotapi.NewMessage(chatID, "Выберите качество печати:")
	msg.ReplyMarkup = qualityKeyboard()
	b.send(msg)
}

func (b *Bot) backToDelivery(ctx context.Context, chatID, userID int64) {
	if _, ok := b.sessions.Get(userID); !ok {
		b.handleSessionError(chatID)
		return
	}
	b.setStep(userID, session.StepDelivery)
	b.showDeliveryStep(ctx, chatID)
}

func (b *Bot) backToConfirmation(ctx context.Context, chatID, userID int64) {
	if _, ok := b.sessions.Get(userID); !ok {
		b.handleSessionError(chatID)
		return
	}
	b.setStep(userID, session.StepConfirmation)
	b.showConfirmation(ctx, chatID, userID)
}

// ERROR HANDLING

func (b *Bot) handleSessionError(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "❌ Сессия не найдена или устарела.\nНачните оформление заказа заново: /order")
	msg.ReplyMarkup = afterCancelKeyboard()
	b.send(msg)
}

// handleAPIError turns a collaborator failure into a user-visible
// message with a retry affordance. The aborted transition leaves the
// session unchanged.
func (b *Bot) handleAPIError(ctx context.Context, chatID int64, err error, operation, retryData string) {
	b.logger.Error("API call failed",
		zap.Int64("chat_id", chatID),
		zap.String("operation", operation),
		zap.Error(err))

	var text string
	switch {
	case api.IsClientError(err):
		text = "❌ Ошибка в данных запроса.\nПроверьте правильность заполнения и попробуйте снова."
	case api.IsServerError(err):
		text = "⚠️ Сервер временно недоступен.\nПопробуйте через несколько минут."
	default:
		text = "❌ Не удалось выполнить операцию.\nПопробуйте еще раз или обратитесь к администратору."
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = retryKeyboard(retryData)
	b.send(msg)
}

func (b *Bot) handleOrderCreationError(ctx context.Context, chatID int64, err error) {
	var apiErr *api.Error
	var text string

	switch {
	case asAPIError(err, &apiErr) && apiErr.StatusCode == 400:
		text = "❌ Ошибка в данных заказа.\nПроверьте правильность заполнения всех полей и попробуйте снова."
	case asAPIError(err, &apiErr) && apiErr.StatusCode == 422:
		text = "❌ Ошибка валидации данных.\nНекоторые поля заполнены некорректно. Проверьте данные и попробуйте снова."
	case api.IsServerError(err):
		text = "⚠️ Сервер временно недоступен.\nПопробуйте создать заказ через несколько минут."
	default:
		text = "❌ Не удалось создать заказ.\nПопробуйте еще раз или обратитесь к администратору."
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = retryKeyboard("order_confirm")
	b.send(msg)
}

func (b *Bot) setStep(userID int64, step session.OrderStep) {
	b.sessions.Update(userID, session.FieldChanges{Step: &step})
}

func newGetRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return req, nil
}

func asAPIError(err error, target **api.Error) bool {
	return errors.As(err, target)
}
