package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func userKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnMyStatus),
			tgbotapi.NewKeyboardButton(btnContactAdm),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func adminKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnListUsers),
			tgbotapi.NewKeyboardButton(btnStats),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnAddUser),
			tgbotapi.NewKeyboardButton(btnRemoveUser),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnUnpaid),
			tgbotapi.NewKeyboardButton(btnOverdue),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnPendingPays),
			tgbotapi.NewKeyboardButton(btnActiveChats),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSettings),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

// mixedKeyboard — стартовая клавиатура админа: одна кнопка входа в панель.
func mixedKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnAdminPanel),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancel)),
	)
	kb.ResizeKeyboard = true
	return kb
}

func backKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnBack)),
	)
	kb.ResizeKeyboard = true
	return kb
}

func (h *Handler) defaultKeyboard(id int64) tgbotapi.ReplyKeyboardMarkup {
	if h.cfg.IsAdmin(id) {
		return mixedKeyboard()
	}
	return userKeyboard()
}

// Клавиатура напоминания: пользователь отмечает оплату или пишет админу.
func paymentConfirmKeyboard(adminID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Оплатил", fmt.Sprintf("%s_%d", cbPaid, adminID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💬 Связаться с админом", fmt.Sprintf("%s_%d", cbContactAdmin, adminID)),
		),
	)
}

func adminConfirmKeyboard(userID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Подтвердить", fmt.Sprintf("%s_%d", cbConfirm, userID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отклонить", fmt.Sprintf("%s_%d", cbReject, userID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💬 Начать чат", fmt.Sprintf("%s_%d", cbStartChat, userID)),
		),
	)
}

// Список активных чатов: по кнопке входа на каждого собеседника.
func activeChatsKeyboard(userIDs []int64, labels []string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(userIDs))
	for i, id := range userIDs {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💬 "+labels[i], fmt.Sprintf("%s_%d", cbStartChat, id)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func settingsKeyboard(notifications bool) tgbotapi.InlineKeyboardMarkup {
	toggle := "🔔 Включить уведомления"
	if notifications {
		toggle = "🔔 Выключить уведомления"
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👤 Изменить псевдоним", cbChangeAlias),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💬 Изменить сообщение", cbChangeDefault),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(toggle, cbToggleNotify),
		),
	)
}

func messageChoiceKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💬 Ввести своё сообщение", cbEnterCustomMsg),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Использовать сообщение по умолчанию", cbUseDefaultMsg),
		),
	)
}

func addNewUserKeyboard(userID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Добавить пользователя", fmt.Sprintf("%s_%d", cbAddNewUser, userID)),
		),
	)
}

func contactAdminKeyboard(adminID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💬 Связаться с администратором", fmt.Sprintf("%s_%d", cbContactAdmin, adminID)),
		),
	)
}
