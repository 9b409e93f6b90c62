package domain

import (
	"testing"
	"time"
)

func TestIdempotency_Migration_UniqueScopeKey(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if !db.Migrator().HasIndex(&Idempotency{}, "ux_user_scope_key") {
		t.Fatalf("expected unique index ux_user_scope_key")
	}

	now := time.Now().UTC()
	rec := &Idempotency{
		ID: "r1", UserID: "u1", Scope: ScopePurchase, Key: "k1",
		Status: 200, Body: `{"success":true}`, CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}

	dup := *rec
	dup.ID = "r2"
	if err := db.Create(&dup).Error; err == nil {
		t.Fatalf("expected duplicate (user, scope, key) to be rejected")
	}

	// Same key under another scope is a different operation.
	other := *rec
	other.ID = "r3"
	other.Scope = ScopeCheckIn
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("insert other scope: %v", err)
	}

	var got Idempotency
	if err := db.First(&got, "id = ?", "r1").Error; err != nil {
		t.Fatalf("read back: %v", err)
	}
	if got.Body != rec.Body || got.Status != 200 {
		t.Fatalf("unexpected row: %+v", got)
	}
}
