package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/bloom-backend/internal/domain"
)

func TestGetOrCreateProfile_Zeroed(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p, err := GetOrCreateProfile(ctx, db, "u1")
	if err != nil {
		t.Fatalf("GetOrCreateProfile: %v", err)
	}
	if p.CurrentPoints != 0 || p.LastActiveDate != nil || p.Level() != 1 {
		t.Fatalf("unexpected new profile: %+v", p)
	}
	again, _ := GetOrCreateProfile(ctx, db, "u1")
	if !again.CreatedAt.Equal(p.CreatedAt) {
		t.Fatalf("second call must return the existing row")
	}
}

func TestSaveCheckIn_OptimisticGuard(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p, _ := GetOrCreateProfile(ctx, db, "u1")

	winner := *p
	winner.CurrentStreak, winner.CurrentPoints, winner.TotalPoints = 1, 60, 60
	winner.LastActiveDate = strp("2025-03-10")
	if err := SaveCheckIn(ctx, db, &winner, nil); err != nil {
		t.Fatalf("first SaveCheckIn: %v", err)
	}

	loser := *p
	loser.CurrentPoints = 60
	loser.LastActiveDate = strp("2025-03-10")
	if err := SaveCheckIn(ctx, db, &loser, nil); !errors.Is(err, ErrConflict) {
		t.Fatalf("stale check-in: expected ErrConflict, got %v", err)
	}

	got, _ := GetProfile(ctx, db, "u1")
	if got.CurrentPoints != 60 || *got.LastActiveDate != "2025-03-10" {
		t.Fatalf("unexpected stored profile: %+v", got)
	}

	next := *got
	next.CurrentStreak, next.CurrentPoints = 2, 130
	next.LastActiveDate = strp("2025-03-11")
	if err := SaveCheckIn(ctx, db, &next, strp("2025-03-10")); err != nil {
		t.Fatalf("next-day SaveCheckIn: %v", err)
	}
}

func TestDebitPoints_NeverNegative(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, _ = GetOrCreateProfile(ctx, db, "u1")
	db.Model(&domain.Profile{}).Where("user_id = ?", "u1").Updates(map[string]any{"current_points": 100, "total_points": 300})

	if err := DebitPoints(ctx, db, "u1", 150); !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints, got %v", err)
	}
	if err := DebitPoints(ctx, db, "u1", 100); err != nil {
		t.Fatalf("exact debit: %v", err)
	}
	if err := DebitPoints(ctx, db, "u1", 0); err != nil {
		t.Fatalf("zero debit is a no-op: %v", err)
	}
	p, _ := GetProfile(ctx, db, "u1")
	if p.CurrentPoints != 0 || p.TotalPoints != 300 {
		t.Fatalf("spend must only lower current points: %+v", p)
	}
	if err := DebitPoints(ctx, db, "u1", 1); !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints at zero, got %v", err)
	}
}

func TestRecordMessageStats_Increments(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, _ = GetOrCreateProfile(ctx, db, "u1")

	for i := 0; i < 3; i++ {
		if err := RecordMessageStats(ctx, db, "u1", 10); err != nil {
			t.Fatalf("RecordMessageStats: %v", err)
		}
	}
	if err := UpdateDisplayName(ctx, db, "u1", "Robin"); err != nil {
		t.Fatalf("UpdateDisplayName: %v", err)
	}
	p, _ := GetProfile(ctx, db, "u1")
	if p.MessagesSent != 3 || p.XP != 30 || p.DisplayName != "Robin" {
		t.Fatalf("unexpected profile: %+v", p)
	}
}
