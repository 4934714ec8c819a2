package bot

import (
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Кнопки reply-клавиатур. Диспетчеризация идёт по этим константам, а не по
// разбросанным строковым сравнениям.
const (
	btnMyStatus    = "📊 Мой статус"
	btnContactAdm  = "💬 Связь с админом"
	btnAdminPanel  = "⚙️ Админ-панель"
	btnListUsers   = "📋 Список пользователей"
	btnStats       = "📊 Статистика оплат"
	btnAddUser     = "➕ Добавить пользователя"
	btnRemoveUser  = "➖ Удалить пользователя"
	btnUnpaid      = "🔍 Неоплатившие"
	btnOverdue     = "🚨 Просроченные"
	btnPendingPays = "✔️ Подтвердить оплаты"
	btnActiveChats = "💬 Активные чаты"
	btnSettings    = "⚙️ Настройки админа"
	btnCancel      = "❌ Отмена"
	btnBack        = "🔙 Назад"
)

type EventKind int

const (
	EventCommand EventKind = iota
	EventButton
	EventFreeText
	EventAttachment
)

// Event — классифицированное входящее сообщение: закрытый набор вариантов
// вместо текстовых сравнений в каждом обработчике.
type Event struct {
	Kind           EventKind
	Command        string // без слеша, например "start" или "chat_123"
	Button         string
	Text           string
	AttachmentKind string // photo, video, document, voice, video_note
}

var knownButtons = map[string]struct{}{
	btnMyStatus: {}, btnContactAdm: {}, btnAdminPanel: {},
	btnListUsers: {}, btnStats: {}, btnAddUser: {}, btnRemoveUser: {},
	btnUnpaid: {}, btnOverdue: {}, btnPendingPays: {}, btnActiveChats: {},
	btnSettings: {}, btnCancel: {}, btnBack: {},
}

func classify(msg *tgbotapi.Message) Event {
	if kind := attachmentKind(msg); kind != "" {
		return Event{Kind: EventAttachment, AttachmentKind: kind, Text: msg.Caption}
	}

	text := strings.TrimSpace(msg.Text)
	if strings.HasPrefix(text, "/") {
		name := strings.TrimPrefix(text, "/")
		if i := strings.IndexAny(name, " @"); i >= 0 {
			name = name[:i]
		}
		return Event{Kind: EventCommand, Command: name, Text: text}
	}
	if _, ok := knownButtons[text]; ok {
		return Event{Kind: EventButton, Button: text, Text: text}
	}
	return Event{Kind: EventFreeText, Text: text}
}

func attachmentKind(msg *tgbotapi.Message) string {
	switch {
	case len(msg.Photo) > 0:
		return "photo"
	case msg.Video != nil:
		return "video"
	case msg.Document != nil:
		return "document"
	case msg.Voice != nil:
		return "voice"
	case msg.VideoNote != nil:
		return "video_note"
	}
	return ""
}

// chatCommandTarget разбирает "/chat_<id>". Второе значение false — это не
// команда быстрого чата или id кривой.
func chatCommandTarget(command string) (int64, bool) {
	rest, ok := strings.CutPrefix(command, "chat_")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Действия inline-callback'ов.
const (
	cbPaid           = "paid"             // paid_<adminID>
	cbConfirm        = "confirm"          // confirm_<userID>
	cbReject         = "reject"           // reject_<userID>
	cbContactAdmin   = "contact_admin"    // contact_admin_<adminID>
	cbAddNewUser     = "add_new_user"     // add_new_user_<userID>
	cbStartChat      = "start_chat"       // start_chat_<userID>
	cbChangeAlias    = "change_alias"
	cbChangeDefault  = "change_default_message"
	cbToggleNotify   = "toggle_notifications"
	cbEnterCustomMsg = "enter_custom_msg"
	cbUseDefaultMsg  = "use_default_msg"
)

type Callback struct {
	Action string
	ID     int64 // 0 у действий без параметра
}

var plainCallbacks = map[string]struct{}{
	cbChangeAlias: {}, cbChangeDefault: {}, cbToggleNotify: {},
	cbEnterCustomMsg: {}, cbUseDefaultMsg: {},
}

var idCallbacks = []string{cbContactAdmin, cbAddNewUser, cbStartChat, cbPaid, cbConfirm, cbReject}

// parseCallback разбирает токен callback'а. Кривой токен — это чей-то
// устаревший или подделанный апдейт: отклоняем, не падаем.
func parseCallback(data string) (Callback, bool) {
	if _, ok := plainCallbacks[data]; ok {
		return Callback{Action: data}, true
	}
	for _, action := range idCallbacks {
		rest, ok := strings.CutPrefix(data, action+"_")
		if !ok {
			continue
		}
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil || id <= 0 {
			return Callback{}, false
		}
		return Callback{Action: action, ID: id}, true
	}
	return Callback{}, false
}
