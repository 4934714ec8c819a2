package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/DreamCutter28/Reminder-Telegram-Bot/internal/sched"
)

// showStatus — экран «Мой статус»: у администратора сводка по его
// пользователям, у пользователя — его график и история.
func (h *Handler) showStatus(ctx context.Context, from int64) {
	h.sendTyping(from)
	if h.cfg.IsAdmin(from) {
		h.showAdminStatus(ctx, from)
		return
	}
	h.showUserStatus(ctx, from)
}

func (h *Handler) showUserStatus(ctx context.Context, userID int64) {
	adminID, err := h.links.AdminFor(ctx, userID)
	if err != nil {
		h.replyStorageError(userID, err)
		return
	}
	if adminID == 0 {
		h.replyHTML(userID,
			"📊 <b>Ваш статус</b>\n"+divider()+
				"💡 Вы ещё не подключены к администратору.\n"+
				"Дождитесь, пока вас добавят в систему.")
		return
	}

	link, ok, err := h.links.Get(ctx, userID, adminID)
	if err != nil || !ok {
		h.replyStorageError(userID, err)
		return
	}
	settings, err := h.admins.Get(ctx, adminID)
	if err != nil {
		h.replyStorageError(userID, err)
		return
	}
	hist, err := h.payments.HistoryFor(ctx, userID, adminID)
	if err != nil {
		h.replyStorageError(userID, err)
		return
	}

	var b strings.Builder
	b.WriteString("📊 <b>Ваш статус</b>\n")
	b.WriteString(divider())
	b.WriteString(fmt.Sprintf("👨‍💼 <b>Администратор:</b> %s\n\n", escapeHTML(settings.Alias)))
	b.WriteString(formatPaymentInfo(link.PaymentDay, link.PaymentTime, link.PaymentMessage))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("✅ <b>Подтверждено оплат:</b> %d\n", hist.Confirmed))
	if hist.Pending > 0 {
		b.WriteString(fmt.Sprintf("⏳ <b>Ожидают подтверждения:</b> %d\n", hist.Pending))
	}
	if hist.LastConfirmed != nil {
		b.WriteString(fmt.Sprintf("🗓 <b>Последняя оплата:</b> %s\n", formatDay(*hist.LastConfirmed)))
	}

	if hour, minute, err := sched.ParseClock(link.PaymentTime); err == nil {
		next := sched.NextOccurrence(link.PaymentDay, hour, minute, h.now())
		b.WriteString(fmt.Sprintf("\n🔔 <b>Следующее напоминание:</b> %s", formatDate(next)))
	}

	h.replyHTML(userID, b.String())
}

func (h *Handler) showAdminStatus(ctx context.Context, adminID int64) {
	stats, err := h.payments.Stats(ctx, adminID, h.monthStart(), h.now())
	if err != nil {
		h.replyStorageError(adminID, err)
		return
	}
	settings, err := h.admins.Get(ctx, adminID)
	if err != nil {
		h.replyStorageError(adminID, err)
		return
	}

	notif := "🔔 включены"
	if !settings.ShowNotifications {
		notif = "🔕 выключены"
	}
	h.replyHTML(adminID,
		"📊 <b>Ваш статус</b>\n"+divider()+
			"👨‍💼 <b>Роль:</b> Администратор\n"+
			fmt.Sprintf("✏️ <b>Имя для пользователей:</b> %s\n", escapeHTML(settings.Alias))+
			fmt.Sprintf("🔔 <b>Уведомления:</b> %s\n\n", notif)+
			fmt.Sprintf("👥 <b>Пользователей:</b> %d\n", stats.TotalUsers)+
			fmt.Sprintf("⏳ <b>Ожидают подтверждения:</b> %d\n", stats.Pending)+
			fmt.Sprintf("🚨 <b>Просроченных:</b> %d", stats.Overdue))
}

func (h *Handler) showAdminPanel(ctx context.Context, from int64) {
	if !h.cfg.IsAdmin(from) {
		h.replyHTML(from, "❌ У вас нет прав администратора.")
		return
	}
	h.replyHTMLKb(from,
		"⚙️ <b>Админ-панель</b>\n"+divider()+
			"Выберите действие кнопками меню.",
		adminKeyboard())
}

func (h *Handler) showUserList(ctx context.Context, from int64) {
	if !h.cfg.IsAdmin(from) {
		h.replyHTML(from, "❌ У вас нет прав администратора.")
		return
	}
	h.sendTyping(from)

	links, err := h.links.ListByAdmin(ctx, from)
	if err != nil {
		h.replyStorageError(from, err)
		return
	}
	if len(links) == 0 {
		h.replyHTML(from, "💡 У вас пока нет привязанных пользователей.\n\nНажмите «➕ Добавить пользователя».")
		return
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("📋 <b>Ваши пользователи (%d)</b>\n", len(links)))
	b.WriteString(divider())
	for i, l := range links {
		name, username, _ := h.chatInfo(l.UserID)
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, formatUserInfo(l.UserID, name, username)))
		b.WriteString(fmt.Sprintf("   📅 %s в %s\n", formatMonthDay(l.PaymentDay), l.PaymentTime))
		b.WriteString(fmt.Sprintf("   💬 /chat_%d\n\n", l.UserID))
	}
	h.replyHTML(from, b.String())
}

func (h *Handler) showPaymentStats(ctx context.Context, from int64) {
	if !h.cfg.IsAdmin(from) {
		h.replyHTML(from, "❌ У вас нет прав администратора.")
		return
	}
	h.sendTyping(from)

	stats, err := h.payments.Stats(ctx, from, h.monthStart(), h.now())
	if err != nil {
		h.replyStorageError(from, err)
		return
	}

	h.replyHTML(from,
		"📊 <b>Статистика оплат</b>\n"+divider()+
			fmt.Sprintf("👥 <b>Всего пользователей:</b> %d\n\n", stats.TotalUsers)+
			fmt.Sprintf("✅ <b>Подтверждено всего:</b> %d\n", stats.Confirmed)+
			fmt.Sprintf("⏳ <b>Ожидают подтверждения:</b> %d\n", stats.Pending)+
			fmt.Sprintf("🚨 <b>Просроченных:</b> %d\n\n", stats.Overdue)+
			fmt.Sprintf("🗓 <b>Оплат в этом месяце:</b> %d\n", stats.MonthPayments)+
			fmt.Sprintf("💰 <b>Сумма за месяц:</b> %.2f", stats.MonthAmount))
}

func (h *Handler) showUnpaid(ctx context.Context, from int64) {
	if !h.cfg.IsAdmin(from) {
		h.replyHTML(from, "❌ У вас нет прав администратора.")
		return
	}
	h.sendTyping(from)

	ids, err := h.payments.UnpaidThisMonth(ctx, from, h.monthStart())
	if err != nil {
		h.replyStorageError(from, err)
		return
	}
	if len(ids) == 0 {
		h.replyHTML(from, "🎉 Все пользователи оплатили в этом месяце!")
		return
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔍 <b>Не оплатили в этом месяце (%d)</b>\n", len(ids)))
	b.WriteString(divider())
	for i, id := range ids {
		name, username, _ := h.chatInfo(id)
		b.WriteString(fmt.Sprintf("%d. %s\n   💬 /chat_%d\n\n", i+1, formatUserInfo(id, name, username), id))
	}
	h.replyHTML(from, b.String())
}

func (h *Handler) showOverdue(ctx context.Context, from int64) {
	if !h.cfg.IsAdmin(from) {
		h.replyHTML(from, "❌ У вас нет прав администратора.")
		return
	}
	h.sendTyping(from)

	overdue, err := h.payments.ListOverdue(ctx, from, h.now())
	if err != nil {
		h.replyStorageError(from, err)
		return
	}
	if len(overdue) == 0 {
		h.replyHTML(from, "✅ Просроченных оплат нет.")
		return
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("🚨 <b>Просроченные оплаты (%d)</b>\n", len(overdue)))
	b.WriteString(divider())
	for i, p := range overdue {
		name, username, _ := h.chatInfo(p.UserID)
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, formatUserInfo(p.UserID, name, username)))
		b.WriteString(fmt.Sprintf("   ⏰ Срок истёк: %s\n", formatDate(p.DueDate)))
		b.WriteString(fmt.Sprintf("   💬 /chat_%d\n\n", p.UserID))
	}
	h.replyHTML(from, b.String())
}

func (h *Handler) showPendingConfirm(ctx context.Context, from int64) {
	if !h.cfg.IsAdmin(from) {
		h.replyHTML(from, "❌ У вас нет прав администратора.")
		return
	}
	h.sendTyping(from)

	pending, err := h.payments.ListPendingConfirm(ctx, from, 10)
	if err != nil {
		h.replyStorageError(from, err)
		return
	}
	if len(pending) == 0 {
		h.replyHTML(from, "✅ Нет оплат, ожидающих подтверждения.")
		return
	}

	h.replyHTML(from, fmt.Sprintf("✔️ <b>Оплаты, ожидающие подтверждения (%d)</b>", len(pending)))
	// каждая отметка — отдельным сообщением со своими кнопками
	for _, p := range pending {
		name, username, _ := h.chatInfo(p.UserID)
		text := formatUserInfo(p.UserID, name, username) + "\n\n" +
			fmt.Sprintf("🗓 <b>Дата отметки:</b> %s", formatDay(p.PaymentDate))
		if err := h.sendTo(from, text, adminConfirmKeyboard(p.UserID)); err != nil {
			h.replyStorageError(from, err)
			return
		}
	}
}

func (h *Handler) showActiveChats(ctx context.Context, from int64) {
	if !h.cfg.IsAdmin(from) {
		h.replyHTML(from, "❌ У вас нет прав администратора.")
		return
	}
	h.sendTyping(from)

	sessions, err := h.chats.ListForAdmin(ctx, from)
	if err != nil {
		h.replyStorageError(from, err)
		return
	}
	if len(sessions) == 0 {
		h.replyHTML(from, "💡 Активных чатов нет.")
		return
	}

	userIDs := make([]int64, 0, len(sessions))
	labels := make([]string, 0, len(sessions))

	var b strings.Builder
	b.WriteString(fmt.Sprintf("💬 <b>Активные чаты (%d)</b>\n", len(sessions)))
	b.WriteString(divider())
	for i, s := range sessions {
		name, username, _ := h.chatInfo(s.UserID)
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, formatUserInfo(s.UserID, name, username)))
		b.WriteString(fmt.Sprintf("   🕐 Начат: %s\n\n", formatDate(s.StartedAt)))
		userIDs = append(userIDs, s.UserID)
		labels = append(labels, name)
	}

	if err := h.sendTo(from, b.String(), activeChatsKeyboard(userIDs, labels)); err != nil {
		h.replyStorageError(from, err)
	}
}

func (h *Handler) showSettings(ctx context.Context, from int64) {
	if !h.cfg.IsAdmin(from) {
		h.replyHTML(from, "❌ У вас нет прав администратора.")
		return
	}

	settings, err := h.admins.Get(ctx, from)
	if err != nil {
		h.replyStorageError(from, err)
		return
	}

	notif := "🔔 включены"
	if !settings.ShowNotifications {
		notif = "🔕 выключены"
	}
	text := "⚙️ <b>Настройки администратора</b>\n" + divider() +
		fmt.Sprintf("✏️ <b>Имя для пользователей:</b> %s\n\n", escapeHTML(settings.Alias)) +
		fmt.Sprintf("💬 <b>Стандартное сообщение:</b>\n<i>%s</i>\n\n", escapeHTML(settings.DefaultMessage)) +
		fmt.Sprintf("🔔 <b>Уведомления:</b> %s", notif)

	if err := h.sendTo(from, text, settingsKeyboard(settings.ShowNotifications)); err != nil {
		h.replyStorageError(from, err)
	}
}
