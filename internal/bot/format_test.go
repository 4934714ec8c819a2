package bot

import (
	"strings"
	"testing"
	"time"
)

func TestEscapeHTML(t *testing.T) {
	tests := []struct{ in, want string }{
		{"обычный текст", "обычный текст"},
		{"<b>жирный</b>", "&lt;b&gt;жирный&lt;/b&gt;"},
		{"a & b", "a &amp; b"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := escapeHTML(tt.in); got != tt.want {
			t.Errorf("escapeHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := displayName(""); got != "Без имени" {
		t.Errorf("displayName(\"\") = %q", got)
	}
	if got := displayName("Иван"); got != "Иван" {
		t.Errorf("displayName = %q", got)
	}
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2026, 3, 5, 9, 7, 0, 0, time.UTC)
	if got := formatDate(d); got != "05.03.2026 09:07" {
		t.Errorf("formatDate = %q", got)
	}
	if got := formatDay(d); got != "05.03.2026" {
		t.Errorf("formatDay = %q", got)
	}
}

func TestFormatPaymentInfoTruncatesMessage(t *testing.T) {
	long := strings.Repeat("ж", 150)
	got := formatPaymentInfo(5, "12:00", long)
	if !strings.Contains(got, "...") {
		t.Fatalf("long message must be truncated: %q", got)
	}
	if strings.Contains(got, long) {
		t.Fatal("full long message must not appear in output")
	}
	if !strings.Contains(got, "5 число") {
		t.Errorf("day missing from output: %q", got)
	}
}

func TestFormatUserInfo(t *testing.T) {
	got := formatUserInfo(42, "Иван <Петров>", "ivan")
	if !strings.Contains(got, "&lt;Петров&gt;") {
		t.Errorf("name must be escaped: %q", got)
	}
	if !strings.Contains(got, "@ivan") || !strings.Contains(got, "42") {
		t.Errorf("username and id must be present: %q", got)
	}

	// без username строки @ быть не должно
	got = formatUserInfo(42, "Иван", "")
	if strings.Contains(got, "@") {
		t.Errorf("no username expected: %q", got)
	}
}
