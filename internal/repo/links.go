package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DreamCutter28/Reminder-Telegram-Bot/internal/domain"
)

type Links struct{ pool *pgxpool.Pool }

func NewLinks(p *pgxpool.Pool) *Links { return &Links{pool: p} }

// Upsert заменяет график для пары (user, admin). Привязку к другому админу
// не трогает — уникальность по пользователю проверяет вызывающий код.
func (r *Links) Upsert(ctx context.Context, userID, adminID int64, day int, clock, message string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_admin_links(user_id, admin_id, payment_day, payment_time, payment_message)
		VALUES($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, admin_id) DO UPDATE
		SET payment_day = EXCLUDED.payment_day,
			payment_time = EXCLUDED.payment_time,
			payment_message = EXCLUDED.payment_message
	`, userID, adminID, day, clock, message)
	return err
}

// AdminFor возвращает админа пользователя, 0 если привязки нет.
func (r *Links) AdminFor(ctx context.Context, userID int64) (int64, error) {
	var adminID int64
	err := r.pool.QueryRow(ctx, `SELECT admin_id FROM user_admin_links WHERE user_id = $1`, userID).Scan(&adminID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return adminID, err
}

func (r *Links) Get(ctx context.Context, userID, adminID int64) (domain.Link, bool, error) {
	var l domain.Link
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, admin_id, payment_day, payment_time, payment_message, created_at
		FROM user_admin_links WHERE user_id = $1 AND admin_id = $2
	`, userID, adminID).Scan(&l.UserID, &l.AdminID, &l.PaymentDay, &l.PaymentTime, &l.PaymentMessage, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Link{}, false, nil
	}
	if err != nil {
		return domain.Link{}, false, err
	}
	return l, true, nil
}

func (r *Links) ListByAdmin(ctx context.Context, adminID int64) ([]domain.Link, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, admin_id, payment_day, payment_time, payment_message, created_at
		FROM user_admin_links
		WHERE admin_id = $1
		ORDER BY payment_day, payment_time
	`, adminID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLinks(rows)
}

// ListAll — все привязки, для восстановления расписания при старте.
func (r *Links) ListAll(ctx context.Context) ([]domain.Link, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, admin_id, payment_day, payment_time, payment_message, created_at
		FROM user_admin_links
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLinks(rows)
}

// Unassign удаляет привязку и активный чат пары одной транзакцией.
// Возвращает false, если привязки не было. Триггер планировщика снимает
// вызывающий код сразу после успешного возврата.
func (r *Links) Unassign(ctx context.Context, userID, adminID int64) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM user_admin_links WHERE user_id = $1 AND admin_id = $2`, userID, adminID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	if _, err := tx.Exec(ctx, `DELETE FROM active_chats WHERE user_id = $1 AND admin_id = $2`, userID, adminID); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}

func scanLinks(rows pgx.Rows) ([]domain.Link, error) {
	var out []domain.Link
	for rows.Next() {
		var l domain.Link
		if err := rows.Scan(&l.UserID, &l.AdminID, &l.PaymentDay, &l.PaymentTime, &l.PaymentMessage, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
