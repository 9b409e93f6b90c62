package jobs

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/bloom-backend/internal/config"
	"github.com/tbourn/bloom-backend/internal/repo"
)

type countingCache struct{ n atomic.Int32 }

func (c *countingCache) RefreshCache() { c.n.Add(1) }

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "jobs.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestNew_RejectsBadSpec(t *testing.T) {
	_, err := New(config.JobsConfig{IdempotencyPurge: "every now and then"}, newDB(t), nil)
	if err == nil {
		t.Fatalf("expected schedule parse error")
	}
}

func TestNew_BlankSpecsRegisterNothing(t *testing.T) {
	s, err := New(config.JobsConfig{}, newDB(t), &countingCache{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("jobs=%d, want 0", s.Len())
	}
}

func TestPurgeIdempotency(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()
	if _, err := repo.CreateIdempotency(ctx, db, "u1", "purchase", "old", 200, "{}", time.Millisecond); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.CreateIdempotency(ctx, db, "u1", "purchase", "fresh", 200, "{}", time.Hour); err != nil {
		t.Fatalf("create: %v", err)
	}

	s, err := New(config.JobsConfig{IdempotencyPurge: "@every 1h"}, db, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.now = func() time.Time { return time.Now().Add(time.Minute) }

	if n := s.PurgeIdempotency(ctx); n != 1 {
		t.Fatalf("purged %d, want 1", n)
	}
	if _, err := repo.GetIdempotency(ctx, db, "u1", "purchase", "fresh", time.Now()); err != nil {
		t.Fatalf("fresh key should survive: %v", err)
	}
}

func TestRun_FiresAndStops(t *testing.T) {
	cache := &countingCache{}
	s, err := New(config.JobsConfig{CatalogRefresh: "@every 1s"}, newDB(t), cache)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
	if cache.n.Load() < 1 {
		t.Fatalf("catalog refresh never ran")
	}
}
