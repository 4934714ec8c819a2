package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DreamCutter28/Reminder-Telegram-Bot/internal/domain"
)

type Payments struct{ pool *pgxpool.Pool }

func NewPayments(p *pgxpool.Pool) *Payments { return &Payments{pool: p} }

const dateOnly = "2006-01-02"

// SubmitPaid фиксирует "я оплатил" за день day. Частичный уникальный индекс
// допускает один неподтверждённый платёж на пару в день, поэтому повторная
// отправка безопасна при любом чередовании.
func (r *Payments) SubmitPaid(ctx context.Context, userID, adminID int64, day time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO payments(user_id, admin_id, payment_date, confirmed)
		VALUES($1, $2, $3, FALSE)
		ON CONFLICT (user_id, admin_id, payment_date) WHERE NOT confirmed DO NOTHING
	`, userID, adminID, day.Format(dateOnly))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadySubmittedToday
	}
	return nil
}

// Confirm подтверждает сегодняшний платёж условным UPDATE. Ноль строк —
// платёж уже обработан (второй тап по устаревшей кнопке), это не ошибка
// хранилища. На успехе чистим все pending-напоминания пары.
func (r *Payments) Confirm(ctx context.Context, userID, adminID int64, day time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE payments SET confirmed = TRUE
		WHERE user_id = $1 AND admin_id = $2 AND payment_date = $3 AND confirmed = FALSE
	`, userID, adminID, day.Format(dateOnly))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyProcessed
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM pending_payments WHERE user_id = $1 AND admin_id = $2
	`, userID, adminID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Reject удаляет неподтверждённый платёж. Pending-напоминания не трогаем:
// обязательство остаётся, просрочка по нему всё ещё наступит.
func (r *Payments) Reject(ctx context.Context, userID, adminID int64, day time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM payments
		WHERE user_id = $1 AND admin_id = $2 AND payment_date = $3 AND confirmed = FALSE
	`, userID, adminID, day.Format(dateOnly))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}

// AddPending регистрирует отправленное напоминание со сроком оплаты.
func (r *Payments) AddPending(ctx context.Context, userID, adminID int64, messageID int, due time.Time) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO pending_payments(user_id, admin_id, message_id, due_date)
		VALUES($1, $2, $3, $4)
		RETURNING id
	`, userID, adminID, messageID, due).Scan(&id)
	return id, err
}

// CountOverdue — сколько напоминаний пары уже просрочено. Ничего не мутирует.
func (r *Payments) CountOverdue(ctx context.Context, userID, adminID int64, now time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM pending_payments
		WHERE user_id = $1 AND admin_id = $2 AND due_date <= $3
	`, userID, adminID, now).Scan(&n)
	return n, err
}

func (r *Payments) ListOverdue(ctx context.Context, adminID int64, now time.Time) ([]domain.PendingPayment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ON (user_id) id, user_id, admin_id, message_id, due_date, created_at
		FROM pending_payments
		WHERE admin_id = $1 AND due_date <= $2
		ORDER BY user_id, due_date
	`, adminID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PendingPayment
	for rows.Next() {
		var p domain.PendingPayment
		if err := rows.Scan(&p.ID, &p.UserID, &p.AdminID, &p.MessageID, &p.DueDate, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Payments) ListPendingConfirm(ctx context.Context, adminID int64, limit int) ([]domain.Payment, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, admin_id, payment_date, confirmed, amount, created_at
		FROM payments
		WHERE admin_id = $1 AND confirmed = FALSE
		ORDER BY payment_date DESC
		LIMIT $2
	`, adminID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.UserID, &p.AdminID, &p.PaymentDate, &p.Confirmed, &p.Amount, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UnpaidThisMonth — привязанные пользователи без подтверждённого платежа
// с начала месяца.
func (r *Payments) UnpaidThisMonth(ctx context.Context, adminID int64, monthStart time.Time) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT l.user_id
		FROM user_admin_links l
		LEFT JOIN payments p ON p.user_id = l.user_id
			AND p.admin_id = l.admin_id
			AND p.confirmed = TRUE
			AND p.payment_date >= $2
		WHERE l.admin_id = $1 AND p.id IS NULL
		ORDER BY l.user_id
	`, adminID, monthStart.Format(dateOnly))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

type Stats struct {
	TotalUsers    int
	Confirmed     int
	Pending       int
	MonthPayments int
	MonthAmount   float64
	Overdue       int
}

func (r *Payments) Stats(ctx context.Context, adminID int64, monthStart, now time.Time) (Stats, error) {
	var s Stats
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM user_admin_links WHERE admin_id = $1),
			(SELECT COUNT(*) FROM payments WHERE admin_id = $1 AND confirmed = TRUE),
			(SELECT COUNT(*) FROM payments WHERE admin_id = $1 AND confirmed = FALSE),
			(SELECT COUNT(*) FROM payments WHERE admin_id = $1 AND confirmed = TRUE AND payment_date >= $2),
			(SELECT COALESCE(SUM(amount), 0) FROM payments WHERE admin_id = $1 AND confirmed = TRUE AND payment_date >= $2),
			(SELECT COUNT(*) FROM pending_payments WHERE admin_id = $1 AND due_date <= $3)
	`, adminID, monthStart.Format(dateOnly), now).Scan(
		&s.TotalUsers, &s.Confirmed, &s.Pending, &s.MonthPayments, &s.MonthAmount, &s.Overdue,
	)
	return s, err
}

type UserHistory struct {
	Confirmed     int
	Pending       int
	LastConfirmed *time.Time
}

func (r *Payments) HistoryFor(ctx context.Context, userID, adminID int64) (UserHistory, error) {
	var h UserHistory
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM payments WHERE user_id = $1 AND admin_id = $2 AND confirmed = TRUE),
			(SELECT COUNT(*) FROM payments WHERE user_id = $1 AND admin_id = $2 AND confirmed = FALSE)
	`, userID, adminID).Scan(&h.Confirmed, &h.Pending)
	if err != nil {
		return h, err
	}

	var last time.Time
	err = r.pool.QueryRow(ctx, `
		SELECT payment_date FROM payments
		WHERE user_id = $1 AND admin_id = $2 AND confirmed = TRUE
		ORDER BY payment_date DESC LIMIT 1
	`, userID, adminID).Scan(&last)
	if errors.Is(err, pgx.ErrNoRows) {
		return h, nil
	}
	if err != nil {
		return h, err
	}
	h.LastConfirmed = &last
	return h, nil
}
