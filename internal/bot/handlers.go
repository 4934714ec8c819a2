package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/DreamCutter28/Reminder-Telegram-Bot/internal/config"
	"github.com/DreamCutter28/Reminder-Telegram-Bot/internal/repo"
	"github.com/DreamCutter28/Reminder-Telegram-Bot/internal/sched"
)

type Handler struct {
	api *tgbotapi.BotAPI
	cfg config.Config
	loc *time.Location

	admins   *repo.Admins
	links    *repo.Links
	payments *repo.Payments
	chats    *repo.Chats

	sessions  *Sessions
	scheduler *sched.Scheduler
}

func NewHandler(
	api *tgbotapi.BotAPI,
	cfg config.Config,
	loc *time.Location,
	admins *repo.Admins,
	links *repo.Links,
	payments *repo.Payments,
	chats *repo.Chats,
	scheduler *sched.Scheduler,
) *Handler {
	return &Handler{
		api:       api,
		cfg:       cfg,
		loc:       loc,
		admins:    admins,
		links:     links,
		payments:  payments,
		chats:     chats,
		sessions:  NewSessions(),
		scheduler: scheduler,
	}
}

func (h *Handler) now() time.Time { return time.Now().In(h.loc) }

func (h *Handler) monthStart() time.Time {
	now := h.now()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, h.loc)
}

// HandleUpdate — точка входа одного события. Паника обработчика не должна
// валить процесс: каждое событие — сама по себе задача.
func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("handler panic: %v", r)
		}
	}()

	switch {
	case upd.CallbackQuery != nil:
		from := upd.CallbackQuery.From.ID
		unlock := h.sessions.LockIdentity(from)
		defer unlock()
		h.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil:
		if !upd.Message.Chat.IsPrivate() {
			return
		}
		from := upd.Message.From.ID
		unlock := h.sessions.LockIdentity(from)
		defer unlock()
		h.handleMessage(ctx, upd.Message)
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	from := msg.From.ID
	ev := classify(msg)

	// Сначала команды и кнопки, не зависящие от состояния; затем состояние.
	if ev.Kind == EventCommand {
		switch {
		case ev.Command == "start":
			h.handleStart(ctx, msg)
			return
		case strings.HasPrefix(ev.Command, "chat_"):
			h.handleQuickChat(ctx, msg, ev.Command)
			return
		}
	}

	if ev.Kind == EventButton {
		switch ev.Button {
		case btnCancel:
			h.handleCancel(ctx, from)
			return
		case btnBack:
			h.handleBack(ctx, msg)
			return
		case btnMyStatus:
			h.showStatus(ctx, from)
			return
		case btnContactAdm:
			h.startUserChat(ctx, from)
			return
		case btnAdminPanel:
			h.showAdminPanel(ctx, from)
			return
		case btnListUsers:
			h.showUserList(ctx, from)
			return
		case btnStats:
			h.showPaymentStats(ctx, from)
			return
		case btnAddUser:
			h.startAddUser(ctx, from)
			return
		case btnRemoveUser:
			h.startRemoveUser(ctx, from)
			return
		case btnUnpaid:
			h.showUnpaid(ctx, from)
			return
		case btnOverdue:
			h.showOverdue(ctx, from)
			return
		case btnPendingPays:
			h.showPendingConfirm(ctx, from)
			return
		case btnActiveChats:
			h.showActiveChats(ctx, from)
			return
		case btnSettings:
			h.showSettings(ctx, from)
			return
		}
	}

	sess := h.sessions.Get(from)
	switch sess.State {
	case StateAwaitingUserID:
		h.processUserID(ctx, msg)
	case StateAwaitingDay:
		h.processDay(ctx, msg, sess)
	case StateAwaitingTime:
		h.processTime(ctx, msg, sess)
	case StateAwaitingMessageChoice:
		// ждём нажатия inline-кнопки, текст здесь не принимаем
		h.replyHTML(from, "💡 Выберите вариант сообщения кнопками выше.")
	case StateAwaitingCustomMessage:
		h.processCustomMessage(ctx, msg, sess)
	case StateAwaitingUnlinkTarget:
		h.processUnlinkTarget(ctx, msg)
	case StateAwaitingAlias:
		h.processAlias(ctx, msg)
	case StateAwaitingDefaultMessage:
		h.processDefaultMessage(ctx, msg)
	case StateChattingAsUser:
		h.relayFromUser(ctx, msg, sess)
	case StateChattingAsAdmin:
		h.relayFromAdmin(ctx, msg, sess)
	default:
		h.handleUnknown(ctx, msg, ev)
	}
}

func (h *Handler) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	from := msg.From.ID
	h.sessions.Reset(from)
	h.sendTyping(from)

	name := displayName(strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName))
	username := msg.From.UserName

	if h.cfg.IsAdmin(from) {
		text := "🚀 <b>Добро пожаловать в систему управления платежами!</b>\n\n" +
			formatUserInfo(from, name, username) + "\n\n" +
			"👨‍💼 <b>Статус:</b> Администратор\n\n" +
			"💡 Используйте кнопки меню для управления системой."
		h.replyHTMLKb(from, text, mixedKeyboard())
		return
	}

	adminID, err := h.links.AdminFor(ctx, from)
	if err != nil {
		h.replyStorageError(from, err)
		return
	}

	if adminID != 0 {
		settings, err := h.admins.Get(ctx, adminID)
		if err != nil {
			h.replyStorageError(from, err)
			return
		}
		text := "🚀 <b>Добро пожаловать в систему управления платежами!</b>\n\n" +
			formatUserInfo(from, name, username) + "\n\n" +
			"✅ <b>Статус:</b> Активный пользователь\n" +
			fmt.Sprintf("👨‍💼 <b>Ваш администратор:</b> %s\n", escapeHTML(settings.Alias))
		if link, ok, err := h.links.Get(ctx, from, adminID); err == nil && ok {
			text += fmt.Sprintf(
				"\n🔔 <b>Напоминания об оплате:</b>\n• Каждое <b>%d число</b> месяца\n• В <b>%s</b> по вашему времени\n",
				link.PaymentDay, link.PaymentTime,
			)
		}
		h.replyHTMLKb(from, text, userKeyboard())
		return
	}

	text := "🚀 <b>Добро пожаловать в систему управления платежами!</b>\n\n" +
		formatUserInfo(from, name, username) + "\n\n" +
		"💡 <b>Статус:</b> Ожидание подключения\n\n" +
		"⏳ Администраторы уведомлены о вашем запросе.\n" +
		"Как только один из них добавит вас в систему, вы получите уведомление."
	h.replyHTMLKb(from, text, userKeyboard())

	// лениво зовём всех админов добавить новичка
	adminText := "🔔 <b>Новый пользователь в системе!</b>\n" + divider() +
		formatUserInfo(from, name, username) + "\n\n" +
		"💡 Нажмите кнопку ниже, чтобы добавить пользователя к себе."
	for _, admin := range h.cfg.AdminIDs {
		settings, err := h.admins.Get(ctx, admin)
		if err != nil || !settings.ShowNotifications {
			continue
		}
		if err := h.sendTo(admin, adminText, addNewUserKeyboard(from)); err != nil {
			log.Printf("notify admin %d about new user: %v", admin, err)
		}
	}
}

func (h *Handler) handleQuickChat(ctx context.Context, msg *tgbotapi.Message, command string) {
	from := msg.From.ID
	if !h.cfg.IsAdmin(from) {
		h.replyHTML(from, "❌ У вас нет прав администратора.")
		return
	}

	userID, ok := chatCommandTarget(command)
	if !ok {
		h.replyHTML(from, "❌ Неверный формат команды. Используйте: /chat_USER_ID")
		return
	}
	h.startAdminChat(ctx, from, userID)
}

func (h *Handler) handleCancel(ctx context.Context, from int64) {
	h.sessions.Reset(from)
	h.replyHTMLKb(from, "💡 Операция отменена.", h.defaultKeyboard(from))
}

func (h *Handler) handleBack(ctx context.Context, msg *tgbotapi.Message) {
	from := msg.From.ID
	sess := h.sessions.Get(from)

	switch sess.State {
	case StateChattingAsUser:
		h.endUserChat(ctx, from, sess.PeerID)
	case StateChattingAsAdmin:
		h.endAdminChat(ctx, from, sess.PeerID)
	default:
		h.handleStart(ctx, msg)
	}
}

func (h *Handler) handleUnknown(ctx context.Context, msg *tgbotapi.Message, ev Event) {
	from := msg.From.ID
	if ev.Kind == EventCommand {
		h.replyHTML(from, "❌ Неизвестная команда.\n\nИспользуйте /start для начала работы.")
		return
	}
	if h.cfg.IsAdmin(from) {
		h.replyHTMLKb(from, "💡 Используйте кнопки меню для навигации.\n\nДля начала работы нажмите /start", mixedKeyboard())
	} else {
		h.replyHTMLKb(from, "💡 Я не понимаю это сообщение.\n\nИспользуйте кнопки меню или команду /start", userKeyboard())
	}
}

// --- транспортные хелперы ---

// replyHTML — ответ без клавиатуры. Ошибка доставки только логируется:
// падение отправки ответа не должно ронять обработчик.
func (h *Handler) replyHTML(chatID int64, text string) {
	if err := h.sendTo(chatID, text, nil); err != nil {
		log.Printf("send to %d: %v", chatID, err)
	}
}

func (h *Handler) replyHTMLKb(chatID int64, text string, kb interface{}) {
	if err := h.sendTo(chatID, text, kb); err != nil {
		log.Printf("send to %d: %v", chatID, err)
	}
}

// sendTo возвращает ошибку доставки: вызывающий код решает, надо ли
// показывать её инициатору.
func (h *Handler) sendTo(chatID int64, text string, kb interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if kb != nil {
		msg.ReplyMarkup = kb
	}
	_, err := h.api.Send(msg)
	return err
}

func (h *Handler) sendTyping(chatID int64) {
	_, _ = h.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
}

func (h *Handler) replyStorageError(chatID int64, err error) {
	log.Printf("storage error: %v", err)
	h.replyHTML(chatID, "❌ Временная ошибка. Попробуйте позже.")
}

// chatInfo спрашивает у Telegram имя и username identity. Недоступность —
// обычное дело (бот заблокирован, пользователь удалился), не ошибка системы.
func (h *Handler) chatInfo(id int64) (name, username string, err error) {
	chat, err := h.api.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: id},
	})
	if err != nil {
		return "Недоступен", "", err
	}
	return displayName(strings.TrimSpace(chat.FirstName + " " + chat.LastName)), chat.UserName, nil
}
