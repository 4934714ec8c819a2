package repo

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DreamCutter28/Reminder-Telegram-Bot/internal/db"
)

// testPool подключается к базе из TEST_DATABASE_URL; без неё тесты
// пропускаются.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL не задан")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.ApplyMigrations(ctx, pool, "../../migrations"); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return pool
}

// testPair выдаёт уникальную пару идентификаторов и прибирает за собой.
func testPair(t *testing.T, pool *pgxpool.Pool) (userID, adminID int64) {
	t.Helper()
	base := time.Now().UnixNano()
	userID, adminID = base, base+1
	t.Cleanup(func() {
		ctx := context.Background()
		for _, q := range []string{
			`DELETE FROM payments WHERE user_id = $1`,
			`DELETE FROM pending_payments WHERE user_id = $1`,
			`DELETE FROM active_chats WHERE user_id = $1`,
		} {
			if _, err := pool.Exec(ctx, q, userID); err != nil {
				t.Errorf("cleanup: %v", err)
			}
		}
	})
	return userID, adminID
}

func TestSubmitPaidTwiceLeavesOneRow(t *testing.T) {
	pool := testPool(t)
	r := NewPayments(pool)
	userID, adminID := testPair(t, pool)
	ctx := context.Background()
	day := time.Now()

	if err := r.SubmitPaid(ctx, userID, adminID, day); err != nil {
		t.Fatalf("first SubmitPaid: %v", err)
	}

	err := r.SubmitPaid(ctx, userID, adminID, day)
	if !errors.Is(err, ErrAlreadySubmittedToday) {
		t.Fatalf("second SubmitPaid: got %v, want ErrAlreadySubmittedToday", err)
	}

	var n int
	if err := pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM payments WHERE user_id = $1 AND admin_id = $2
	`, userID, adminID).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("payments rows = %d, want 1", n)
	}
}

func TestConfirmThenRejectKeepsConfirmed(t *testing.T) {
	pool := testPool(t)
	r := NewPayments(pool)
	userID, adminID := testPair(t, pool)
	ctx := context.Background()
	day := time.Now()

	if err := r.SubmitPaid(ctx, userID, adminID, day); err != nil {
		t.Fatalf("SubmitPaid: %v", err)
	}
	if err := r.Confirm(ctx, userID, adminID, day); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	// отклонение после подтверждения — второй тап по устаревшей кнопке
	err := r.Reject(ctx, userID, adminID, day)
	if !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("Reject after Confirm: got %v, want ErrAlreadyProcessed", err)
	}

	var confirmed bool
	if err := pool.QueryRow(ctx, `
		SELECT confirmed FROM payments WHERE user_id = $1 AND admin_id = $2
	`, userID, adminID).Scan(&confirmed); err != nil {
		t.Fatalf("select: %v", err)
	}
	if !confirmed {
		t.Fatal("payment must stay confirmed after a late reject")
	}
}

func TestConfirmTwiceReportsAlreadyProcessed(t *testing.T) {
	pool := testPool(t)
	r := NewPayments(pool)
	userID, adminID := testPair(t, pool)
	ctx := context.Background()
	day := time.Now()

	if err := r.SubmitPaid(ctx, userID, adminID, day); err != nil {
		t.Fatalf("SubmitPaid: %v", err)
	}
	if err := r.Confirm(ctx, userID, adminID, day); err != nil {
		t.Fatalf("first Confirm: %v", err)
	}
	if err := r.Confirm(ctx, userID, adminID, day); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("second Confirm: got %v, want ErrAlreadyProcessed", err)
	}
}

func TestConfirmClearsPendingRejectDoesNot(t *testing.T) {
	pool := testPool(t)
	r := NewPayments(pool)
	userID, adminID := testPair(t, pool)
	ctx := context.Background()
	day := time.Now()

	if _, err := r.AddPending(ctx, userID, adminID, 1001, day.Add(24*time.Hour)); err != nil {
		t.Fatalf("AddPending: %v", err)
	}
	if err := r.SubmitPaid(ctx, userID, adminID, day); err != nil {
		t.Fatalf("SubmitPaid: %v", err)
	}

	// после отклонения обязательство остаётся
	if err := r.Reject(ctx, userID, adminID, day); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	n, err := r.CountOverdue(ctx, userID, adminID, day.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("CountOverdue: %v", err)
	}
	if n != 1 {
		t.Fatalf("pending after reject = %d, want 1", n)
	}

	// подтверждение чистит всё
	if err := r.SubmitPaid(ctx, userID, adminID, day); err != nil {
		t.Fatalf("SubmitPaid: %v", err)
	}
	if err := r.Confirm(ctx, userID, adminID, day); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	n, err = r.CountOverdue(ctx, userID, adminID, day.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("CountOverdue: %v", err)
	}
	if n != 0 {
		t.Fatalf("pending after confirm = %d, want 0", n)
	}
}
