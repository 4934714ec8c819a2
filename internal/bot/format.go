package bot

import (
	"fmt"
	"html"
	"strings"
	"time"
)

func escapeHTML(s string) string {
	return html.EscapeString(s)
}

func formatUserInfo(userID int64, name, username string) string {
	var b strings.Builder
	b.WriteString("👤 ")
	if name != "" {
		b.WriteString(fmt.Sprintf("<b>%s</b> ", escapeHTML(name)))
	}
	if username != "" {
		b.WriteString(fmt.Sprintf("(@%s) ", escapeHTML(username)))
	}
	b.WriteString(fmt.Sprintf("\n🆔 ID: <code>%d</code>", userID))
	return b.String()
}

func formatDate(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}

func formatDay(t time.Time) string {
	return t.Format("02.01.2006")
}

func formatMonthDay(day int) string {
	return fmt.Sprintf("%d число", day)
}

func divider() string {
	return strings.Repeat("━", 20) + "\n\n"
}

func formatPaymentInfo(day int, clock, message string) string {
	short := message
	if r := []rune(short); len(r) > 100 {
		short = string(r[:100]) + "..."
	}
	return fmt.Sprintf(
		"📅 <b>День:</b> %d число\n⏰ <b>Время:</b> %s\n💬 <b>Сообщение:</b> <i>%s</i>",
		day, clock, escapeHTML(short),
	)
}

func displayName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "Без имени"
	}
	return s
}
