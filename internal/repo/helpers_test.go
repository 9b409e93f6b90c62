package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/bloom-backend/internal/domain"
)

// newTestDB opens a fresh file-backed database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := newBareDB(t)
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// newBareDB opens a database with no tables.
func newBareDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("repo_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func strp(s string) *string { return &s }

func seedItem(t *testing.T, db *gorm.DB, id, category string, cost int) domain.Item {
	t.Helper()
	it := domain.Item{
		ID:            id,
		Name:          "Item " + id,
		Category:      category,
		PlacementType: strp(domain.PlacementSurface),
		Size:          "small",
		PointCost:     cost,
		Rarity:        domain.RarityCommon,
		SpriteID:      id,
		IsActive:      true,
	}
	if err := UpsertItems(context.Background(), db, []domain.Item{it}); err != nil {
		t.Fatalf("seed item %s: %v", id, err)
	}
	return it
}
