package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DreamCutter28/Reminder-Telegram-Bot/internal/domain"
)

const (
	DefaultAlias        = "Администратор"
	DefaultReminderText = "Время оплаты! Пожалуйста, оплатите услуги."
)

type Admins struct{ pool *pgxpool.Pool }

func NewAdmins(p *pgxpool.Pool) *Admins { return &Admins{pool: p} }

// EnsureDefaults создаёт строки настроек для всех админов из конфига.
func (r *Admins) EnsureDefaults(ctx context.Context, adminIDs []int64) error {
	for _, id := range adminIDs {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO admin_settings(admin_id, alias, default_message) VALUES($1, $2, $3)
			ON CONFLICT (admin_id) DO NOTHING
		`, id, DefaultAlias, DefaultReminderText)
		if err != nil {
			return err
		}
	}
	return nil
}

// Get возвращает настройки админа, создавая запись с дефолтами при первом
// обращении.
func (r *Admins) Get(ctx context.Context, adminID int64) (domain.AdminSettings, error) {
	var s domain.AdminSettings
	err := r.pool.QueryRow(ctx, `
		INSERT INTO admin_settings(admin_id) VALUES($1)
		ON CONFLICT (admin_id) DO UPDATE SET admin_id = EXCLUDED.admin_id
		RETURNING admin_id, alias, default_message, show_notifications, created_at
	`, adminID).Scan(&s.AdminID, &s.Alias, &s.DefaultMessage, &s.ShowNotifications, &s.CreatedAt)
	return s, err
}

func (r *Admins) UpdateAlias(ctx context.Context, adminID int64, alias string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO admin_settings(admin_id, alias) VALUES($1, $2)
		ON CONFLICT (admin_id) DO UPDATE SET alias = EXCLUDED.alias
	`, adminID, alias)
	return err
}

func (r *Admins) UpdateDefaultMessage(ctx context.Context, adminID int64, message string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO admin_settings(admin_id, default_message) VALUES($1, $2)
		ON CONFLICT (admin_id) DO UPDATE SET default_message = EXCLUDED.default_message
	`, adminID, message)
	return err
}

// ToggleNotifications переключает флаг и возвращает новое значение.
func (r *Admins) ToggleNotifications(ctx context.Context, adminID int64) (bool, error) {
	var enabled bool
	err := r.pool.QueryRow(ctx, `
		UPDATE admin_settings SET show_notifications = NOT show_notifications
		WHERE admin_id = $1
		RETURNING show_notifications
	`, adminID).Scan(&enabled)
	return enabled, err
}
