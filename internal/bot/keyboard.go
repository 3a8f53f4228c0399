package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"print3d-bot/pkg/api"
)

// BOT KEYBOARDS

func row(buttons ...tgbotapi.InlineKeyboardButton) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(buttons...)
}

func btn(text, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}

var cancelRow = row(btn("❌ Отменить заказ", "order_cancel"))

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(btn("🛍️ Создать заказ", "start_order")),
		row(btn("📋 Каталог услуг", "show_services")),
		row(btn("📦 Отследить заказ", "track_order")),
	)
}

func serviceSelectionKeyboard(services []api.Service) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(services)+1)
	for _, svc := range services {
		name := svc.Name
		if len([]rune(name)) > 30 {
			name = string([]rune(name)[:27]) + "..."
		}
		rows = append(rows, row(btn("🛍️ "+name, fmt.Sprintf("order_select_service_%d", svc.ID))))
	}
	rows = append(rows, row(btn("❌ Отменить", "order_cancel")))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func contactNameKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(btn("⬅️ Назад к услугам", "order_back_to_services")),
		cancelRow,
	)
}

func contactEmailKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(btn("⬅️ Изменить имя", "order_edit_name")),
		cancelRow,
	)
}

func contactPhoneKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(btn("⏭️ Пропустить телефон", "order_skip_phone")),
		row(btn("⬅️ Изменить email", "order_edit_email")),
		cancelRow,
	)
}

func fileUploadKeyboard(filesCount int) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, 4)
	if filesCount > 0 {
		rows = append(rows,
			row(btn("✅ Продолжить оформление", "order_continue_with_files")),
			row(btn("🗑️ Удалить последний файл", "order_remove_last_file")))
	}
	rows = append(rows,
		row(btn("⬅️ Изменить контакты", "order_back_to_contacts")),
		cancelRow)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func materialKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(btn("🔴 PLA (базовый)", "order_spec_material_pla")),
		row(btn("🟡 PETG (прочный)", "order_spec_material_petg")),
		row(btn("⚫ ABS (термостойкий)", "order_spec_material_abs")),
		row(btn("🔵 TPU (гибкий)", "order_spec_material_tpu")),
		row(btn("⬅️ Назад к файлам", "order_back_to_files")),
		cancelRow,
	)
}

func qualityKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(btn("🟢 Черновое (0.3мм, быстро)", "order_spec_quality_draft")),
		row(btn("🟡 Стандартное (0.2мм)", "order_spec_quality_standard")),
		row(btn("🔴 Высокое (0.1мм, медленно)", "order_spec_quality_high")),
		row(btn("⬅️ Изменить материал", "order_back_to_material")),
		cancelRow,
	)
}

func infillKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(btn("📦 15% (легкая модель)", "order_spec_infill_15")),
		row(btn("📦 30% (стандарт)", "order_spec_infill_30")),
		row(btn("📦 50% (прочная)", "order_spec_infill_50")),
		row(btn("📦 100% (максимальная прочность)", "order_spec_infill_100")),
		row(btn("⬅️ Изменить качество", "order_back_to_quality")),
		cancelRow,
	)
}

func deliveryKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(btn("🏪 Самовывоз (бесплатно)", "order_delivery_pickup")),
		row(btn("🚚 Доставка", "order_delivery_shipping")),
		row(btn("⬅️ Изменить параметры", "order_back_to_specs")),
		cancelRow,
	)
}

func deliveryAddressKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(btn("⬅️ Назад к способу получения", "order_back_to_delivery")),
		cancelRow,
	)
}

func confirmationKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(btn("✅ Подтвердить заказ", "order_confirm")),
		row(btn("✏️ Редактировать", "order_edit_menu")),
		cancelRow,
	)
}

func editMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(btn("👤 Контактные данные", "order_edit_contacts")),
		row(btn("📁 Файлы", "order_edit_files")),
		row(btn("⚙️ Параметры печати", "order_edit_specs")),
		row(btn("🚚 Доставка", "order_edit_delivery")),
		row(btn("⬅️ Назад к подтверждению", "order_back_to_confirmation")),
		cancelRow,
	)
}

func retryKeyboard(retryData string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(btn("🔄 Попробовать снова", retryData)),
		row(btn("✏️ Редактировать заказ", "order_edit_menu")),
		cancelRow,
		row(btn("🏠 Главное меню", "main_menu")),
	)
}

func afterCancelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(btn("🆕 Создать новый заказ", "start_order")),
		row(btn("🏠 Главное меню", "main_menu")),
	)
}

func afterSuccessKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(btn("📦 Отследить заказ", "track_order")),
		row(btn("🛍️ Создать новый заказ", "start_order")),
		row(btn("🏠 Главное меню", "main_menu")),
	)
}
