package bot

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		msg  tgbotapi.Message
		want Event
	}{
		{
			name: "команда start",
			msg:  tgbotapi.Message{Text: "/start"},
			want: Event{Kind: EventCommand, Command: "start", Text: "/start"},
		},
		{
			name: "команда с упоминанием бота",
			msg:  tgbotapi.Message{Text: "/start@payment_bot"},
			want: Event{Kind: EventCommand, Command: "start", Text: "/start@payment_bot"},
		},
		{
			name: "команда быстрого чата",
			msg:  tgbotapi.Message{Text: "/chat_12345"},
			want: Event{Kind: EventCommand, Command: "chat_12345", Text: "/chat_12345"},
		},
		{
			name: "кнопка меню",
			msg:  tgbotapi.Message{Text: btnMyStatus},
			want: Event{Kind: EventButton, Button: btnMyStatus, Text: btnMyStatus},
		},
		{
			name: "кнопка отмены",
			msg:  tgbotapi.Message{Text: btnCancel},
			want: Event{Kind: EventButton, Button: btnCancel, Text: btnCancel},
		},
		{
			name: "свободный текст",
			msg:  tgbotapi.Message{Text: "привет"},
			want: Event{Kind: EventFreeText, Text: "привет"},
		},
		{
			name: "фото важнее текста подписи",
			msg:  tgbotapi.Message{Photo: []tgbotapi.PhotoSize{{}}, Caption: "чек"},
			want: Event{Kind: EventAttachment, AttachmentKind: "photo", Text: "чек"},
		},
		{
			name: "документ",
			msg:  tgbotapi.Message{Document: &tgbotapi.Document{}},
			want: Event{Kind: EventAttachment, AttachmentKind: "document"},
		},
		{
			name: "голосовое",
			msg:  tgbotapi.Message{Voice: &tgbotapi.Voice{}},
			want: Event{Kind: EventAttachment, AttachmentKind: "voice"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(&tt.msg)
			if got != tt.want {
				t.Errorf("classify() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestChatCommandTarget(t *testing.T) {
	tests := []struct {
		command string
		want    int64
		ok      bool
	}{
		{"chat_123", 123, true},
		{"chat_1", 1, true},
		{"chat_", 0, false},
		{"chat_abc", 0, false},
		{"chat_-5", 0, false},
		{"chat_0", 0, false},
		{"start", 0, false},
	}

	for _, tt := range tests {
		got, ok := chatCommandTarget(tt.command)
		if got != tt.want || ok != tt.ok {
			t.Errorf("chatCommandTarget(%q) = (%d, %v), want (%d, %v)",
				tt.command, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data string
		want Callback
		ok   bool
	}{
		{"paid_42", Callback{Action: cbPaid, ID: 42}, true},
		{"confirm_7", Callback{Action: cbConfirm, ID: 7}, true},
		{"reject_7", Callback{Action: cbReject, ID: 7}, true},
		{"contact_admin_99", Callback{Action: cbContactAdmin, ID: 99}, true},
		{"add_new_user_5", Callback{Action: cbAddNewUser, ID: 5}, true},
		{"start_chat_123456789", Callback{Action: cbStartChat, ID: 123456789}, true},
		{"change_alias", Callback{Action: cbChangeAlias}, true},
		{"change_default_message", Callback{Action: cbChangeDefault}, true},
		{"toggle_notifications", Callback{Action: cbToggleNotify}, true},
		{"enter_custom_msg", Callback{Action: cbEnterCustomMsg}, true},
		{"use_default_msg", Callback{Action: cbUseDefaultMsg}, true},

		// кривые токены отклоняются
		{"paid_", Callback{}, false},
		{"paid_abc", Callback{}, false},
		{"paid_-1", Callback{}, false},
		{"paid_0", Callback{}, false},
		{"confirm", Callback{}, false},
		{"", Callback{}, false},
		{"something_else", Callback{}, false},
	}

	for _, tt := range tests {
		got, ok := parseCallback(tt.data)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseCallback(%q) = (%+v, %v), want (%+v, %v)",
				tt.data, got, ok, tt.want, tt.ok)
		}
	}
}
