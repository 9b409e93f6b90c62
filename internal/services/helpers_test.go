package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/bloom-backend/internal/catalog"
	"github.com/tbourn/bloom-backend/internal/domain"
	"github.com/tbourn/bloom-backend/internal/repo"
)

// newServiceDB opens a migrated database with the built-in catalog seeded.
func newServiceDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("svc_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn+"?_pragma=busy_timeout(5000)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// One connection serializes writers the way SQLite would anyway.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if err := repo.UpsertItems(context.Background(), db, catalog.SeedItems()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return db
}

// grant gives userID a profile holding points spendable points.
func grant(t testing.TB, db *gorm.DB, userID string, points int) {
	t.Helper()
	ctx := context.Background()
	if _, err := repo.GetOrCreateProfile(ctx, db, userID); err != nil {
		t.Fatalf("profile: %v", err)
	}
	err := db.Model(&domain.Profile{}).Where("user_id = ?", userID).
		Updates(map[string]any{"current_points": points, "total_points": points}).Error
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
}

// own inserts ownership rows directly, bypassing the shop.
func own(t testing.TB, db *gorm.DB, userID string, itemIDs ...string) {
	t.Helper()
	for _, id := range itemIDs {
		if _, err := repo.CreateUserItem(context.Background(), db, userID, id); err != nil {
			t.Fatalf("own %s: %v", id, err)
		}
	}
}

func fixedClock(ts time.Time) func() time.Time { return func() time.Time { return ts } }
