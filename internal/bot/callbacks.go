package bot

import (
	"context"
	"errors"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/DreamCutter28/Reminder-Telegram-Bot/internal/repo"
)

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	parsed, ok := parseCallback(cb.Data)
	if !ok {
		h.answerAlert(cb.ID, "❌ Устаревшая или неверная кнопка")
		return
	}

	switch parsed.Action {
	case cbPaid:
		h.onPaid(ctx, cb, parsed.ID)
	case cbConfirm:
		h.onConfirm(ctx, cb, parsed.ID)
	case cbReject:
		h.onReject(ctx, cb, parsed.ID)
	case cbContactAdmin:
		h.onContactAdmin(ctx, cb, parsed.ID)
	case cbAddNewUser:
		h.onAddNewUser(ctx, cb, parsed.ID)
	case cbStartChat:
		h.onStartChat(ctx, cb, parsed.ID)
	case cbChangeAlias:
		h.onChangeAlias(ctx, cb)
	case cbChangeDefault:
		h.onChangeDefault(ctx, cb)
	case cbToggleNotify:
		h.onToggleNotify(ctx, cb)
	case cbEnterCustomMsg:
		h.onEnterCustomMsg(ctx, cb)
	case cbUseDefaultMsg:
		h.onUseDefaultMsg(ctx, cb)
	default:
		h.answerAlert(cb.ID, "❌ Неизвестное действие")
	}
}

// cbPaid — пользователь нажал «Оплатил» под напоминанием.
func (h *Handler) onPaid(ctx context.Context, cb *tgbotapi.CallbackQuery, adminID int64) {
	userID := cb.From.ID

	linked, err := h.links.AdminFor(ctx, userID)
	if err != nil {
		h.answerAlert(cb.ID, "❌ Временная ошибка, попробуйте позже")
		return
	}
	if linked != adminID {
		h.answerAlert(cb.ID, "❌ Вы не привязаны к этому администратору")
		return
	}

	err = h.payments.SubmitPaid(ctx, userID, adminID, h.now())
	if errors.Is(err, repo.ErrAlreadySubmittedToday) {
		h.answerAlert(cb.ID, "💡 Вы уже отметили оплату сегодня. Дождитесь подтверждения.")
		return
	}
	if err != nil {
		log.Printf("submit paid %d/%d: %v", userID, adminID, err)
		h.answerAlert(cb.ID, "❌ Временная ошибка, попробуйте позже")
		return
	}

	h.answer(cb.ID, "✅ Отметка отправлена")
	h.clearInlineKeyboard(cb)
	h.replyHTML(userID,
		"✅ <b>Отметка об оплате отправлена!</b>\n\n"+
			"⏳ Ожидайте подтверждения от администратора.")

	settings, err := h.admins.Get(ctx, adminID)
	if err != nil {
		log.Printf("admin settings %d: %v", adminID, err)
		return
	}
	if !settings.ShowNotifications {
		return
	}
	name, username, _ := h.chatInfo(userID)
	if err := h.sendTo(adminID,
		"💳 <b>Пользователь отметил оплату</b>\n"+divider()+
			formatUserInfo(userID, name, username)+"\n\n"+
			fmt.Sprintf("🕐 <b>Время отметки:</b> %s\n\n", formatDate(h.now()))+
			"Подтвердите или отклоните оплату:",
		adminConfirmKeyboard(userID)); err != nil {
		log.Printf("notify admin %d about payment: %v", adminID, err)
	}
}

// cbConfirm — администратор подтверждает оплату.
func (h *Handler) onConfirm(ctx context.Context, cb *tgbotapi.CallbackQuery, userID int64) {
	adminID := cb.From.ID
	if !h.cfg.IsAdmin(adminID) {
		h.answerAlert(cb.ID, "❌ У вас нет прав администратора")
		return
	}

	err := h.payments.Confirm(ctx, userID, adminID, h.now())
	if errors.Is(err, repo.ErrAlreadyProcessed) {
		h.answerAlert(cb.ID, "💡 Эта оплата уже обработана")
		h.clearInlineKeyboard(cb)
		return
	}
	if err != nil {
		log.Printf("confirm payment %d/%d: %v", userID, adminID, err)
		h.answerAlert(cb.ID, "❌ Временная ошибка, попробуйте позже")
		return
	}

	h.answer(cb.ID, "✅ Оплата подтверждена")
	h.clearInlineKeyboard(cb)
	name, _, _ := h.chatInfo(userID)
	h.replyHTML(adminID,
		fmt.Sprintf("✅ Оплата пользователя <b>%s</b> подтверждена.", escapeHTML(name)))

	if err := h.sendTo(userID,
		"🎉 <b>Ваша оплата подтверждена!</b>\n\nСпасибо за своевременную оплату.", nil); err != nil {
		log.Printf("notify user %d about confirmation: %v", userID, err)
	}
}

// cbReject — администратор отклоняет оплату. Просроченные записи при этом
// не трогаем: пользователь всё ещё должен.
func (h *Handler) onReject(ctx context.Context, cb *tgbotapi.CallbackQuery, userID int64) {
	adminID := cb.From.ID
	if !h.cfg.IsAdmin(adminID) {
		h.answerAlert(cb.ID, "❌ У вас нет прав администратора")
		return
	}

	err := h.payments.Reject(ctx, userID, adminID, h.now())
	if errors.Is(err, repo.ErrAlreadyProcessed) {
		h.answerAlert(cb.ID, "💡 Эта оплата уже обработана")
		h.clearInlineKeyboard(cb)
		return
	}
	if err != nil {
		log.Printf("reject payment %d/%d: %v", userID, adminID, err)
		h.answerAlert(cb.ID, "❌ Временная ошибка, попробуйте позже")
		return
	}

	h.answer(cb.ID, "❌ Оплата отклонена")
	h.clearInlineKeyboard(cb)
	name, _, _ := h.chatInfo(userID)
	h.replyHTML(adminID,
		fmt.Sprintf("❌ Оплата пользователя <b>%s</b> отклонена.", escapeHTML(name)))

	if err := h.sendTo(userID,
		"❌ <b>Ваша отметка об оплате отклонена.</b>\n\n"+
			"💡 Если вы считаете это ошибкой, свяжитесь с администратором.",
		contactAdminKeyboard(adminID)); err != nil {
		log.Printf("notify user %d about rejection: %v", userID, err)
	}
}

func (h *Handler) onContactAdmin(ctx context.Context, cb *tgbotapi.CallbackQuery, adminID int64) {
	userID := cb.From.ID

	linked, err := h.links.AdminFor(ctx, userID)
	if err != nil {
		h.answerAlert(cb.ID, "❌ Временная ошибка, попробуйте позже")
		return
	}
	if linked != adminID {
		h.answerAlert(cb.ID, "❌ Вы не привязаны к этому администратору")
		return
	}

	h.answer(cb.ID, "")
	h.startUserChat(ctx, userID)
}

func (h *Handler) onAddNewUser(ctx context.Context, cb *tgbotapi.CallbackQuery, userID int64) {
	adminID := cb.From.ID
	if !h.cfg.IsAdmin(adminID) {
		h.answerAlert(cb.ID, "❌ У вас нет прав администратора")
		return
	}

	existing, err := h.links.AdminFor(ctx, userID)
	if err != nil {
		h.answerAlert(cb.ID, "❌ Временная ошибка, попробуйте позже")
		return
	}
	if existing != 0 {
		h.answerAlert(cb.ID, "💡 Пользователь уже привязан к администратору")
		return
	}

	name, _, err := h.chatInfo(userID)
	if err != nil {
		h.answerAlert(cb.ID, "❌ Пользователь недоступен")
		return
	}

	h.answer(cb.ID, "")
	h.sessions.Set(adminID, Session{
		State:        StateAwaitingDay,
		TargetUserID: userID,
		TargetName:   name,
	})
	h.replyHTMLKb(adminID,
		fmt.Sprintf("✅ Добавляем пользователя: <b>%s</b>\n\n", escapeHTML(name))+
			"📅 Введите день месяца для напоминания об оплате (1-31):",
		cancelKeyboard())
}

func (h *Handler) onStartChat(ctx context.Context, cb *tgbotapi.CallbackQuery, userID int64) {
	adminID := cb.From.ID
	if !h.cfg.IsAdmin(adminID) {
		h.answerAlert(cb.ID, "❌ У вас нет прав администратора")
		return
	}
	h.answer(cb.ID, "")
	h.startAdminChat(ctx, adminID, userID)
}

func (h *Handler) onChangeAlias(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	adminID := cb.From.ID
	if !h.cfg.IsAdmin(adminID) {
		h.answerAlert(cb.ID, "❌ У вас нет прав администратора")
		return
	}
	h.answer(cb.ID, "")
	h.sessions.Set(adminID, Session{State: StateAwaitingAlias})
	h.replyHTMLKb(adminID,
		"✏️ Введите новое имя, которое будут видеть пользователи (2-50 символов):",
		cancelKeyboard())
}

func (h *Handler) onChangeDefault(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	adminID := cb.From.ID
	if !h.cfg.IsAdmin(adminID) {
		h.answerAlert(cb.ID, "❌ У вас нет прав администратора")
		return
	}
	h.answer(cb.ID, "")
	h.sessions.Set(adminID, Session{State: StateAwaitingDefaultMessage})
	h.replyHTMLKb(adminID,
		"✏️ Введите новое стандартное сообщение напоминания (10-500 символов):",
		cancelKeyboard())
}

func (h *Handler) onToggleNotify(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	adminID := cb.From.ID
	if !h.cfg.IsAdmin(adminID) {
		h.answerAlert(cb.ID, "❌ У вас нет прав администратора")
		return
	}

	enabled, err := h.admins.ToggleNotifications(ctx, adminID)
	if err != nil {
		log.Printf("toggle notifications %d: %v", adminID, err)
		h.answerAlert(cb.ID, "❌ Временная ошибка, попробуйте позже")
		return
	}

	if enabled {
		h.answer(cb.ID, "🔔 Уведомления включены")
	} else {
		h.answer(cb.ID, "🔕 Уведомления выключены")
	}

	// перерисовываем клавиатуру настроек на месте
	chatID, messageID, ok := messageRef(cb)
	if !ok {
		return
	}
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, settingsKeyboard(enabled))
	if _, err := h.api.Request(edit); err != nil {
		log.Printf("edit settings keyboard: %v", err)
	}
}

func (h *Handler) onEnterCustomMsg(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	adminID := cb.From.ID
	sess := h.sessions.Get(adminID)
	if sess.State != StateAwaitingMessageChoice {
		h.answerAlert(cb.ID, "❌ Сеанс добавления пользователя истёк")
		return
	}

	h.answer(cb.ID, "")
	sess.State = StateAwaitingCustomMessage
	h.sessions.Set(adminID, sess)
	h.replyHTMLKb(adminID,
		"✏️ Введите текст напоминания для этого пользователя (5-500 символов):",
		cancelKeyboard())
}

func (h *Handler) onUseDefaultMsg(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	adminID := cb.From.ID
	sess := h.sessions.Get(adminID)
	if sess.State != StateAwaitingMessageChoice {
		h.answerAlert(cb.ID, "❌ Сеанс добавления пользователя истёк")
		return
	}

	settings, err := h.admins.Get(ctx, adminID)
	if err != nil {
		h.answerAlert(cb.ID, "❌ Временная ошибка, попробуйте позже")
		return
	}

	h.answer(cb.ID, "")
	h.completeOnboarding(ctx, adminID, sess, settings.DefaultMessage)
}

func (h *Handler) answer(callbackID, text string) {
	if _, err := h.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		log.Printf("answer callback: %v", err)
	}
}

func (h *Handler) answerAlert(callbackID, text string) {
	if _, err := h.api.Request(tgbotapi.NewCallbackWithAlert(callbackID, text)); err != nil {
		log.Printf("answer callback: %v", err)
	}
}

// messageRef — координаты сообщения под callback-кнопкой. У старых
// callback'ов сообщение может отсутствовать.
func messageRef(cb *tgbotapi.CallbackQuery) (chatID int64, messageID int, ok bool) {
	if cb.Message == nil {
		return 0, 0, false
	}
	return cb.Message.Chat.ID, cb.Message.MessageID, true
}

// clearInlineKeyboard убирает кнопки под обработанным сообщением, чтобы по
// ним нельзя было нажать повторно.
func (h *Handler) clearInlineKeyboard(cb *tgbotapi.CallbackQuery) {
	chatID, messageID, ok := messageRef(cb)
	if !ok {
		return
	}
	edit := tgbotapi.NewEditMessageReplyMarkup(
		chatID, messageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
	if _, err := h.api.Request(edit); err != nil {
		log.Printf("clear inline keyboard: %v", err)
	}
}
