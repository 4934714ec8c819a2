package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/DreamCutter28/Reminder-Telegram-Bot/internal/repo"
	"github.com/DreamCutter28/Reminder-Telegram-Bot/internal/sched"
)

func (h *Handler) startAddUser(ctx context.Context, from int64) {
	if !h.cfg.IsAdmin(from) {
		h.replyHTML(from, "❌ У вас нет прав администратора.")
		return
	}
	h.sessions.Set(from, Session{State: StateAwaitingUserID})
	h.replyHTMLKb(from,
		"➕ <b>Добавление пользователя</b>\n"+divider()+
			"Отправьте Telegram ID пользователя.\n\n"+
			"💡 Пользователь может узнать свой ID, написав боту @userinfobot",
		cancelKeyboard())
}

func (h *Handler) startRemoveUser(ctx context.Context, from int64) {
	if !h.cfg.IsAdmin(from) {
		h.replyHTML(from, "❌ У вас нет прав администратора.")
		return
	}
	links, err := h.links.ListByAdmin(ctx, from)
	if err != nil {
		h.replyStorageError(from, err)
		return
	}
	if len(links) == 0 {
		h.replyHTML(from, "💡 У вас нет привязанных пользователей.")
		return
	}

	var b strings.Builder
	b.WriteString("➖ <b>Удаление пользователя</b>\n")
	b.WriteString(divider())
	b.WriteString("Ваши пользователи:\n\n")
	for _, l := range links {
		name, _, _ := h.chatInfo(l.UserID)
		b.WriteString(fmt.Sprintf("• %s — <code>%d</code>\n", escapeHTML(name), l.UserID))
	}
	b.WriteString("\nОтправьте ID пользователя, которого нужно удалить.")

	h.sessions.Set(from, Session{State: StateAwaitingUnlinkTarget})
	h.replyHTMLKb(from, b.String(), cancelKeyboard())
}

func (h *Handler) processUserID(ctx context.Context, msg *tgbotapi.Message) {
	from := msg.From.ID
	userID, err := strconv.ParseInt(strings.TrimSpace(msg.Text), 10, 64)
	if err != nil || userID <= 0 {
		h.replyHTML(from, "❌ Неверный формат ID. Отправьте числовой Telegram ID.")
		return
	}
	if userID == from {
		h.replyHTML(from, "❌ Нельзя добавить самого себя.")
		return
	}

	existing, err := h.links.AdminFor(ctx, userID)
	if err != nil {
		h.replyStorageError(from, err)
		return
	}
	if existing == from {
		h.replyHTML(from, "💡 Этот пользователь уже привязан к вам.")
		return
	}
	if existing != 0 {
		h.replyHTML(from, "❌ Пользователь уже привязан к другому администратору.")
		return
	}

	name, _, err := h.chatInfo(userID)
	if err != nil {
		h.replyHTML(from,
			"❌ Не удалось найти пользователя с таким ID.\n\n"+
				"💡 Убедитесь, что пользователь уже написал боту /start")
		return
	}

	h.sessions.Set(from, Session{
		State:        StateAwaitingDay,
		TargetUserID: userID,
		TargetName:   name,
	})
	h.replyHTMLKb(from,
		fmt.Sprintf("✅ Пользователь найден: <b>%s</b>\n\n", escapeHTML(name))+
			"📅 Введите день месяца для напоминания об оплате (1-31):",
		cancelKeyboard())
}

func (h *Handler) processDay(ctx context.Context, msg *tgbotapi.Message, sess Session) {
	from := msg.From.ID
	day, err := strconv.Atoi(strings.TrimSpace(msg.Text))
	if err != nil || day < 1 || day > 31 {
		h.replyHTML(from, "❌ Введите число от 1 до 31.")
		return
	}

	sess.Day = day
	sess.State = StateAwaitingTime
	h.sessions.Set(from, sess)
	h.replyHTMLKb(from,
		fmt.Sprintf("✅ День оплаты: <b>%s</b>\n\n", formatMonthDay(day))+
			"🕐 Введите время напоминания в формате ЧЧ:ММ (например, 12:00):",
		cancelKeyboard())
}

func (h *Handler) processTime(ctx context.Context, msg *tgbotapi.Message, sess Session) {
	from := msg.From.ID
	clock := strings.TrimSpace(msg.Text)
	if _, _, err := sched.ParseClock(clock); err != nil {
		h.replyHTML(from, "❌ Неверный формат времени. Используйте ЧЧ:ММ, например 09:30.")
		return
	}

	settings, err := h.admins.Get(ctx, from)
	if err != nil {
		h.replyStorageError(from, err)
		return
	}

	sess.Clock = clock
	sess.State = StateAwaitingMessageChoice
	h.sessions.Set(from, sess)
	h.replyHTMLKb(from,
		fmt.Sprintf("✅ Время напоминания: <b>%s</b>\n\n", clock)+
			"💬 <b>Выберите текст напоминания:</b>\n\n"+
			fmt.Sprintf("Ваше стандартное сообщение:\n<i>%s</i>", escapeHTML(settings.DefaultMessage)),
		messageChoiceKeyboard())
}

func (h *Handler) processCustomMessage(ctx context.Context, msg *tgbotapi.Message, sess Session) {
	from := msg.From.ID
	text := strings.TrimSpace(msg.Text)
	n := utf8.RuneCountInString(text)
	if n < 5 || n > 500 {
		h.replyHTML(from, "❌ Сообщение должно быть от 5 до 500 символов.")
		return
	}
	h.completeOnboarding(ctx, from, sess, text)
}

// completeOnboarding фиксирует привязку и взводит периодическое напоминание.
// Перезапись существующей привязки той же пары допустима: расписание просто
// заменяется.
func (h *Handler) completeOnboarding(ctx context.Context, adminID int64, sess Session, message string) {
	userID := sess.TargetUserID
	if err := h.links.Upsert(ctx, userID, adminID, sess.Day, sess.Clock, message); err != nil {
		h.replyStorageError(adminID, err)
		return
	}

	hour, minute, err := sched.ParseClock(sess.Clock)
	if err == nil {
		err = h.scheduler.ArmRecurring(userID, adminID, sess.Day, hour, minute, func(jctx context.Context) {
			h.SendReminder(jctx, userID, adminID)
		})
	}
	if err != nil {
		log.Printf("arm reminder for user %d: %v", userID, err)
	}

	h.sessions.Reset(adminID)
	h.replyHTMLKb(adminID,
		"✅ <b>Пользователь успешно добавлен!</b>\n"+divider()+
			fmt.Sprintf("👤 <b>Пользователь:</b> %s\n", escapeHTML(sess.TargetName))+
			fmt.Sprintf("📅 <b>День оплаты:</b> %s\n", formatMonthDay(sess.Day))+
			fmt.Sprintf("🕐 <b>Время:</b> %s\n", sess.Clock)+
			fmt.Sprintf("💬 <b>Сообщение:</b> <i>%s</i>", escapeHTML(message)),
		adminKeyboard())

	settings, err := h.admins.Get(ctx, adminID)
	alias := repo.DefaultAlias
	if err == nil {
		alias = settings.Alias
	}
	if err := h.sendTo(userID,
		"🎉 <b>Вы подключены к системе напоминаний!</b>\n"+divider()+
			fmt.Sprintf("👨‍💼 <b>Администратор:</b> %s\n", escapeHTML(alias))+
			fmt.Sprintf("📅 <b>Напоминания:</b> каждое %s в %s", formatMonthDay(sess.Day), sess.Clock),
		userKeyboard()); err != nil {
		log.Printf("notify user %d about linking: %v", userID, err)
		h.replyHTML(adminID, "⚠️ Не удалось уведомить пользователя. Возможно, он заблокировал бота.")
	}
}

func (h *Handler) processUnlinkTarget(ctx context.Context, msg *tgbotapi.Message) {
	from := msg.From.ID
	userID, err := strconv.ParseInt(strings.TrimSpace(msg.Text), 10, 64)
	if err != nil || userID <= 0 {
		h.replyHTML(from, "❌ Неверный формат ID. Отправьте числовой Telegram ID.")
		return
	}

	removed, err := h.links.Unassign(ctx, userID, from)
	if err != nil {
		h.replyStorageError(from, err)
		return
	}
	if !removed {
		h.replyHTML(from, "❌ Этот пользователь не привязан к вам.")
		return
	}

	h.scheduler.DisarmRecurring(userID, from)
	h.sessions.Reset(from)
	h.replyHTMLKb(from,
		fmt.Sprintf("✅ Пользователь <code>%d</code> удалён из системы.", userID),
		adminKeyboard())

	if err := h.sendTo(userID,
		"💡 Вы были отключены от системы напоминаний об оплате.", userKeyboard()); err != nil {
		log.Printf("notify user %d about unlink: %v", userID, err)
	}
}

func (h *Handler) processAlias(ctx context.Context, msg *tgbotapi.Message) {
	from := msg.From.ID
	alias := strings.TrimSpace(msg.Text)
	n := utf8.RuneCountInString(alias)
	if n < 2 || n > 50 {
		h.replyHTML(from, "❌ Имя должно быть от 2 до 50 символов.")
		return
	}

	if err := h.admins.UpdateAlias(ctx, from, alias); err != nil {
		h.replyStorageError(from, err)
		return
	}
	h.sessions.Reset(from)
	h.replyHTMLKb(from,
		fmt.Sprintf("✅ Имя для пользователей изменено на: <b>%s</b>", escapeHTML(alias)),
		adminKeyboard())
}

func (h *Handler) processDefaultMessage(ctx context.Context, msg *tgbotapi.Message) {
	from := msg.From.ID
	text := strings.TrimSpace(msg.Text)
	n := utf8.RuneCountInString(text)
	if n < 10 || n > 500 {
		h.replyHTML(from, "❌ Сообщение должно быть от 10 до 500 символов.")
		return
	}

	if err := h.admins.UpdateDefaultMessage(ctx, from, text); err != nil {
		h.replyStorageError(from, err)
		return
	}
	h.sessions.Reset(from)
	h.replyHTMLKb(from,
		fmt.Sprintf("✅ Стандартное сообщение обновлено:\n\n<i>%s</i>", escapeHTML(text)),
		adminKeyboard())
}
