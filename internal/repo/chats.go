package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DreamCutter28/Reminder-Telegram-Bot/internal/domain"
)

type Chats struct{ pool *pgxpool.Pool }

func NewChats(p *pgxpool.Pool) *Chats { return &Chats{pool: p} }

func (r *Chats) Start(ctx context.Context, userID, adminID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO active_chats(user_id, admin_id) VALUES($1, $2)
		ON CONFLICT (user_id, admin_id) DO NOTHING
	`, userID, adminID)
	return err
}

func (r *Chats) End(ctx context.Context, userID, adminID int64) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM active_chats WHERE user_id = $1 AND admin_id = $2
	`, userID, adminID)
	return err
}

// IsActive — единственный источник правды о том, разрешена ли пересылка.
func (r *Chats) IsActive(ctx context.Context, userID, adminID int64) (bool, error) {
	var active bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM active_chats WHERE user_id = $1 AND admin_id = $2)
	`, userID, adminID).Scan(&active)
	return active, err
}

func (r *Chats) ListForAdmin(ctx context.Context, adminID int64) ([]domain.ChatSession, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, admin_id, started_at FROM active_chats
		WHERE admin_id = $1 ORDER BY started_at
	`, adminID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ChatSession
	for rows.Next() {
		var s domain.ChatSession
		if err := rows.Scan(&s.UserID, &s.AdminID, &s.StartedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// AddHistory — append-only журнал пересланных сообщений.
func (r *Chats) AddHistory(ctx context.Context, fromID, toID int64, kind, content string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO message_history(from_user_id, to_user_id, message_type, message_content)
		VALUES($1, $2, $3, $4)
	`, fromID, toID, kind, content)
	return err
}
