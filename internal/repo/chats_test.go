package repo

import (
	"context"
	"testing"
)

func TestChatSessionLifecycle(t *testing.T) {
	pool := testPool(t)
	r := NewChats(pool)
	userID, adminID := testPair(t, pool)
	ctx := context.Background()

	active, err := r.IsActive(ctx, userID, adminID)
	if err != nil {
		t.Fatalf("IsActive: %v", err)
	}
	if active {
		t.Fatal("session must not exist before Start")
	}

	if err := r.Start(ctx, userID, adminID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// повторный Start той же пары безвреден
	if err := r.Start(ctx, userID, adminID); err != nil {
		t.Fatalf("second Start: %v", err)
	}

	active, err = r.IsActive(ctx, userID, adminID)
	if err != nil {
		t.Fatalf("IsActive: %v", err)
	}
	if !active {
		t.Fatal("session must exist after Start")
	}

	sessions, err := r.ListForAdmin(ctx, adminID)
	if err != nil {
		t.Fatalf("ListForAdmin: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("sessions = %d, want 1", len(sessions))
	}
	if sessions[0].UserID != userID || sessions[0].AdminID != adminID {
		t.Fatalf("session pair = %d/%d", sessions[0].UserID, sessions[0].AdminID)
	}
	if sessions[0].StartedAt.IsZero() {
		t.Fatal("StartedAt must be set")
	}

	if err := r.End(ctx, userID, adminID); err != nil {
		t.Fatalf("End: %v", err)
	}
	active, err = r.IsActive(ctx, userID, adminID)
	if err != nil {
		t.Fatalf("IsActive: %v", err)
	}
	if active {
		t.Fatal("session must not exist after End")
	}
}
