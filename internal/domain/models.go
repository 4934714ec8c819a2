package domain

import "time"

// AdminSettings — профиль администратора. Создаётся лениво с дефолтами.
type AdminSettings struct {
	AdminID           int64
	Alias             string
	DefaultMessage    string
	ShowNotifications bool
	CreatedAt         time.Time
}

// Link привязывает пользователя к администратору вместе с графиком напоминаний.
// У пользователя не больше одной привязки во всей системе.
type Link struct {
	UserID         int64
	AdminID        int64
	PaymentDay     int    // 1..31, clamped to the month length when firing
	PaymentTime    string // "HH:MM"
	PaymentMessage string
	CreatedAt      time.Time
}

type Payment struct {
	ID          int64
	UserID      int64
	AdminID     int64
	PaymentDate time.Time // date-only semantics
	Confirmed   bool
	Amount      float64
	CreatedAt   time.Time
}

// PendingPayment — отправленное напоминание, ожидающее оплаты до DueDate.
type PendingPayment struct {
	ID        int64
	UserID    int64
	AdminID   int64
	MessageID int
	DueDate   time.Time
	CreatedAt time.Time
}

type ChatSession struct {
	UserID    int64
	AdminID   int64
	StartedAt time.Time
}
