package bot

import (
	"context"
	"errors"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/DreamCutter28/Reminder-Telegram-Bot/internal/domain"
	"github.com/DreamCutter28/Reminder-Telegram-Bot/internal/repo"
)

// startUserChat открывает диалог со стороны пользователя. Без привязки
// к администратору чат невозможен.
func (h *Handler) startUserChat(ctx context.Context, from int64) {
	adminID, err := h.links.AdminFor(ctx, from)
	if err != nil {
		h.replyStorageError(from, err)
		return
	}
	if adminID == 0 {
		h.replyHTML(from, "❌ Вы ещё не подключены к администратору.\n\nДождитесь, пока вас добавят в систему.")
		return
	}

	if err := h.chats.Start(ctx, from, adminID); err != nil {
		h.replyStorageError(from, err)
		return
	}

	settings, err := h.admins.Get(ctx, adminID)
	alias := repo.DefaultAlias
	if err == nil {
		alias = settings.Alias
	} else {
		log.Printf("admin settings %d: %v", adminID, err)
	}

	h.sessions.Set(from, Session{State: StateChattingAsUser, PeerID: adminID})
	h.replyHTMLKb(from,
		fmt.Sprintf("💬 <b>Чат с администратором %s открыт</b>\n", escapeHTML(alias))+divider()+
			"Все ваши сообщения будут переданы администратору.\n\n"+
			"🔙 Нажмите «Назад», чтобы завершить диалог.",
		backKeyboard())

	name, username, _ := h.chatInfo(from)
	if notice, ok := chatOpenedNotice(settings, from, name, username); ok {
		if err := h.sendTo(adminID, notice, nil); err != nil {
			log.Printf("notify admin %d about chat: %v", adminID, err)
		}
	}
}

// chatOpenedNotice — анонс админу об открывшемся чате. Анонс гасится
// выключенными уведомлениями; пересылку самих сообщений это не трогает.
func chatOpenedNotice(settings domain.AdminSettings, userID int64, name, username string) (string, bool) {
	if !settings.ShowNotifications {
		return "", false
	}
	return "💬 <b>Пользователь открыл чат с вами</b>\n" + divider() +
		formatUserInfo(userID, name, username) + "\n\n" +
		fmt.Sprintf("💡 Ответить: /chat_%d", userID), true
}

// ensureChatActive — охрана пересылки: без живой сессии возвращает
// ErrSessionNotActive, и локальное состояние чата должно быть сброшено.
func (h *Handler) ensureChatActive(ctx context.Context, userID, adminID int64) error {
	active, err := h.chats.IsActive(ctx, userID, adminID)
	if err != nil {
		return err
	}
	if !active {
		return repo.ErrSessionNotActive
	}
	return nil
}

// startAdminChat открывает диалог со стороны администратора: только со
// своим пользователем.
func (h *Handler) startAdminChat(ctx context.Context, adminID, userID int64) {
	linkedAdmin, err := h.links.AdminFor(ctx, userID)
	if err != nil {
		h.replyStorageError(adminID, err)
		return
	}
	if linkedAdmin != adminID {
		h.replyHTML(adminID, "❌ Этот пользователь не привязан к вам.")
		return
	}

	if err := h.chats.Start(ctx, userID, adminID); err != nil {
		h.replyStorageError(adminID, err)
		return
	}

	name, _, _ := h.chatInfo(userID)
	h.sessions.Set(adminID, Session{State: StateChattingAsAdmin, PeerID: userID})
	h.replyHTMLKb(adminID,
		fmt.Sprintf("💬 <b>Чат с пользователем %s открыт</b>\n", escapeHTML(name))+divider()+
			"Все ваши сообщения будут переданы пользователю.\n\n"+
			"🔙 Нажмите «Назад», чтобы завершить диалог.",
		backKeyboard())
}

func (h *Handler) relayFromUser(ctx context.Context, msg *tgbotapi.Message, sess Session) {
	from := msg.From.ID
	adminID := sess.PeerID

	if err := h.ensureChatActive(ctx, from, adminID); err != nil {
		if errors.Is(err, repo.ErrSessionNotActive) {
			h.sessions.Reset(from)
			h.replyHTMLKb(from, "💡 Диалог завершён.", userKeyboard())
			return
		}
		h.replyStorageError(from, err)
		return
	}

	name, _, _ := h.chatInfo(from)
	header := fmt.Sprintf("💬 <b>%s:</b>", escapeHTML(name))
	h.relay(ctx, msg, from, adminID, header, "user")
}

func (h *Handler) relayFromAdmin(ctx context.Context, msg *tgbotapi.Message, sess Session) {
	from := msg.From.ID
	userID := sess.PeerID

	if err := h.ensureChatActive(ctx, userID, from); err != nil {
		if errors.Is(err, repo.ErrSessionNotActive) {
			h.sessions.Reset(from)
			h.replyHTMLKb(from, "💡 Диалог завершён.", adminKeyboard())
			return
		}
		h.replyStorageError(from, err)
		return
	}

	settings, err := h.admins.Get(ctx, from)
	alias := repo.DefaultAlias
	if err == nil {
		alias = settings.Alias
	}
	header := fmt.Sprintf("👨‍💼 <b>%s:</b>", escapeHTML(alias))
	h.relay(ctx, msg, from, userID, header, "admin")
}

// relay пересылает одно сообщение собеседнику: текст в одном сообщении
// с подписью, вложение — копией после подписи. История пишется только
// после успешной доставки.
func (h *Handler) relay(ctx context.Context, msg *tgbotapi.Message, fromID, toID int64, header, role string) {
	kind := attachmentKind(msg)

	var err error
	var logged string
	if kind == "" {
		logged = msg.Text
		err = h.sendTo(toID, header+"\n"+escapeHTML(msg.Text), nil)
	} else {
		logged = "[" + kind + "]"
		if msg.Caption != "" {
			logged += " " + msg.Caption
		}
		if err = h.sendTo(toID, header, nil); err == nil {
			copyMsg := tgbotapi.NewCopyMessage(toID, msg.Chat.ID, msg.MessageID)
			_, err = h.api.Request(copyMsg)
		}
	}

	if err != nil {
		log.Printf("relay %s message %d -> %d: %v", role, fromID, toID, err)
		h.replyHTML(fromID, "❌ Не удалось доставить сообщение. Возможно, собеседник заблокировал бота.")
		return
	}

	if err := h.chats.AddHistory(ctx, fromID, toID, role, logged); err != nil {
		log.Printf("chat history %d -> %d: %v", fromID, toID, err)
	}
	h.replyHTML(fromID, "✅ Доставлено")
}

func (h *Handler) endUserChat(ctx context.Context, userID, adminID int64) {
	if err := h.chats.End(ctx, userID, adminID); err != nil {
		log.Printf("end chat %d/%d: %v", userID, adminID, err)
	}
	h.sessions.Reset(userID)
	h.replyHTMLKb(userID, "💡 Диалог с администратором завершён.", userKeyboard())

	name, _, _ := h.chatInfo(userID)
	if err := h.sendTo(adminID,
		fmt.Sprintf("💡 Пользователь <b>%s</b> завершил диалог.", escapeHTML(name)), nil); err != nil {
		log.Printf("notify admin %d about chat end: %v", adminID, err)
	}
}

func (h *Handler) endAdminChat(ctx context.Context, adminID, userID int64) {
	if err := h.chats.End(ctx, userID, adminID); err != nil {
		log.Printf("end chat %d/%d: %v", userID, adminID, err)
	}
	h.sessions.Reset(adminID)
	h.replyHTMLKb(adminID, "💡 Диалог с пользователем завершён.", adminKeyboard())

	settings, err := h.admins.Get(ctx, adminID)
	alias := repo.DefaultAlias
	if err == nil {
		alias = settings.Alias
	}
	if err := h.sendTo(userID,
		fmt.Sprintf("💡 Администратор <b>%s</b> завершил диалог.", escapeHTML(alias)), userKeyboard()); err != nil {
		log.Printf("notify user %d about chat end: %v", userID, err)
	}
}
