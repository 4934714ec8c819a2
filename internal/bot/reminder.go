package bot

import (
	"context"
	"fmt"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/DreamCutter28/Reminder-Telegram-Bot/internal/sched"
)

// SendReminder — тело периодической задачи напоминания. Привязка могла
// исчезнуть между взводом и срабатыванием, поэтому сперва перепроверяем её.
func (h *Handler) SendReminder(ctx context.Context, userID, adminID int64) {
	linked, err := h.links.AdminFor(ctx, userID)
	if err != nil {
		log.Printf("reminder %d/%d: check link: %v", userID, adminID, err)
		return
	}
	if linked != adminID {
		log.Printf("reminder %d/%d: link gone, disarming", userID, adminID)
		h.scheduler.DisarmRecurring(userID, adminID)
		return
	}

	link, ok, err := h.links.Get(ctx, userID, adminID)
	if err != nil || !ok {
		log.Printf("reminder %d/%d: load link: %v", userID, adminID, err)
		return
	}

	msg := tgbotapi.NewMessage(userID,
		"🔔 <b>Напоминание об оплате</b>\n"+divider()+
			escapeHTML(link.PaymentMessage)+"\n\n"+
			"💡 После оплаты нажмите кнопку ниже.")
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = paymentConfirmKeyboard(adminID)

	sent, err := h.api.Send(msg)
	if err != nil {
		log.Printf("reminder %d/%d: send: %v", userID, adminID, err)
		name, _, _ := h.chatInfo(userID)
		h.replyHTML(adminID, fmt.Sprintf(
			"⚠️ Не удалось доставить напоминание пользователю <b>%s</b> (<code>%d</code>).\nВозможно, он заблокировал бота.",
			escapeHTML(name), userID))
		return
	}

	due := h.now().Add(time.Duration(h.cfg.PaymentTimeoutDays) * 24 * time.Hour)
	if _, err := h.payments.AddPending(ctx, userID, adminID, sent.MessageID, due); err != nil {
		log.Printf("reminder %d/%d: add pending: %v", userID, adminID, err)
		return
	}

	h.scheduler.ArmOneShot(overdueKey(userID, adminID, sent.MessageID), due, func(jctx context.Context) {
		h.CheckOverdue(jctx, userID, adminID)
	})
}

// CheckOverdue срабатывает по истечении срока ожидания оплаты. Просроченные
// записи не трогает: они живут до подтверждения оплаты.
func (h *Handler) CheckOverdue(ctx context.Context, userID, adminID int64) {
	n, err := h.payments.CountOverdue(ctx, userID, adminID, h.now())
	if err != nil {
		log.Printf("overdue check %d/%d: %v", userID, adminID, err)
		return
	}
	if n == 0 {
		return
	}

	settings, err := h.admins.Get(ctx, adminID)
	if err != nil {
		log.Printf("overdue check %d/%d: admin settings: %v", userID, adminID, err)
		return
	}
	if !settings.ShowNotifications {
		return
	}

	name, username, _ := h.chatInfo(userID)
	if err := h.sendTo(adminID,
		"🚨 <b>Просроченная оплата!</b>\n"+divider()+
			formatUserInfo(userID, name, username)+"\n\n"+
			fmt.Sprintf("⏰ Пользователь не оплатил в срок (напоминаний без оплаты: %d).\n\n", n)+
			fmt.Sprintf("💡 Связаться: /chat_%d", userID),
		nil); err != nil {
		log.Printf("overdue notify admin %d: %v", adminID, err)
	}
}

// RearmAll взводит напоминания для всех привязок при старте процесса.
func (h *Handler) RearmAll(ctx context.Context) {
	links, err := h.links.ListAll(ctx)
	if err != nil {
		log.Printf("rearm: list links: %v", err)
		return
	}

	armed := 0
	for _, l := range links {
		hour, minute, err := sched.ParseClock(l.PaymentTime)
		if err != nil {
			log.Printf("rearm %d/%d: bad time %q: %v", l.UserID, l.AdminID, l.PaymentTime, err)
			continue
		}
		userID, adminID := l.UserID, l.AdminID
		if err := h.scheduler.ArmRecurring(userID, adminID, l.PaymentDay, hour, minute, func(jctx context.Context) {
			h.SendReminder(jctx, userID, adminID)
		}); err != nil {
			log.Printf("rearm %d/%d: %v", userID, adminID, err)
			continue
		}
		armed++
	}
	log.Printf("reminders armed: %d of %d links", armed, len(links))
}

func overdueKey(userID, adminID int64, messageID int) string {
	return fmt.Sprintf("overdue_%d_%d_%d", userID, adminID, messageID)
}
