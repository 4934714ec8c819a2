package bot

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func keyboardTokens(kb tgbotapi.InlineKeyboardMarkup) []string {
	var out []string
	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			if btn.CallbackData != nil {
				out = append(out, *btn.CallbackData)
			}
		}
	}
	return out
}

func TestAdminConfirmKeyboardTokens(t *testing.T) {
	tokens := keyboardTokens(adminConfirmKeyboard(42))
	want := map[string]Callback{
		"confirm_42":    {Action: cbConfirm, ID: 42},
		"reject_42":     {Action: cbReject, ID: 42},
		"start_chat_42": {Action: cbStartChat, ID: 42},
	}
	if len(tokens) != len(want) {
		t.Fatalf("tokens = %v, want %d buttons", tokens, len(want))
	}
	for _, tok := range tokens {
		parsed, ok := parseCallback(tok)
		if !ok {
			t.Errorf("token %q does not parse", tok)
			continue
		}
		if exp, found := want[tok]; !found || parsed != exp {
			t.Errorf("token %q parsed as %+v", tok, parsed)
		}
	}
}

func TestActiveChatsKeyboard(t *testing.T) {
	kb := activeChatsKeyboard([]int64{7, 9}, []string{"Иван", "Пётр"})
	if len(kb.InlineKeyboard) != 2 {
		t.Fatalf("rows = %d, want 2", len(kb.InlineKeyboard))
	}

	tokens := keyboardTokens(kb)
	wantIDs := []int64{7, 9}
	for i, tok := range tokens {
		parsed, ok := parseCallback(tok)
		if !ok || parsed.Action != cbStartChat || parsed.ID != wantIDs[i] {
			t.Errorf("token %q parsed as (%+v, %v), want start chat with id %d", tok, parsed, ok, wantIDs[i])
		}
	}
}

func TestPaymentConfirmKeyboardTokens(t *testing.T) {
	for _, tok := range keyboardTokens(paymentConfirmKeyboard(5)) {
		if _, ok := parseCallback(tok); !ok {
			t.Errorf("token %q does not parse", tok)
		}
	}
}

func TestMessageRef(t *testing.T) {
	if _, _, ok := messageRef(&tgbotapi.CallbackQuery{}); ok {
		t.Fatal("callback without a message must report no ref")
	}

	cb := &tgbotapi.CallbackQuery{
		Message: &tgbotapi.Message{
			MessageID: 77,
			Chat:      &tgbotapi.Chat{ID: 123},
		},
	}
	chatID, messageID, ok := messageRef(cb)
	if !ok || chatID != 123 || messageID != 77 {
		t.Fatalf("messageRef = (%d, %d, %v)", chatID, messageID, ok)
	}
}
