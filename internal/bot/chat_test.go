package bot

import (
	"strings"
	"testing"

	"github.com/DreamCutter28/Reminder-Telegram-Bot/internal/domain"
)

func TestChatOpenedNotice(t *testing.T) {
	on := domain.AdminSettings{ShowNotifications: true}
	off := domain.AdminSettings{ShowNotifications: false}

	notice, ok := chatOpenedNotice(on, 42, "Иван", "ivan")
	if !ok {
		t.Fatal("notice must be sent when notifications are enabled")
	}
	if !strings.Contains(notice, "/chat_42") || !strings.Contains(notice, "Иван") {
		t.Errorf("notice missing reply hint or name: %q", notice)
	}

	// выключенные уведомления гасят анонс
	if _, ok := chatOpenedNotice(off, 42, "Иван", "ivan"); ok {
		t.Fatal("notice must be suppressed when notifications are disabled")
	}
}
