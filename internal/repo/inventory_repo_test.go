package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/bloom-backend/internal/domain"
)

func TestCreateUserItem_OneUnitPerItem(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedItem(t, db, "plant_a", domain.CategoryPlant, 10)

	ui, err := CreateUserItem(ctx, db, "u1", "plant_a")
	if err != nil {
		t.Fatalf("CreateUserItem: %v", err)
	}
	if ui.IsPlaced || ui.PlacedSlotID != nil || ui.AcquiredAt.IsZero() {
		t.Fatalf("unexpected new ownership: %+v", ui)
	}
	if _, err := CreateUserItem(ctx, db, "u1", "plant_a"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if _, err := CreateUserItem(ctx, db, "u2", "plant_a"); err != nil {
		t.Fatalf("other user may own the same item: %v", err)
	}

	got, err := GetUserItem(ctx, db, "u1", "plant_a")
	if err != nil || got.Item.Name != "Item plant_a" {
		t.Fatalf("GetUserItem=%+v err=%v", got, err)
	}
}

func TestSetUserItemPlacement_AndFilters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedItem(t, db, "plant_a", domain.CategoryPlant, 10)
	seedItem(t, db, "chair_a", domain.CategoryFurniture, 10)
	_, _ = CreateUserItem(ctx, db, "u1", "plant_a")
	_, _ = CreateUserItem(ctx, db, "u1", "chair_a")

	if err := SetUserItemPlacement(ctx, db, "u1", "plant_a", strp("SHELF-T")); err != nil {
		t.Fatalf("SetUserItemPlacement: %v", err)
	}
	if err := SetUserItemPlacement(ctx, db, "u1", "nope", strp("SHELF-T")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	placed := true
	onlyPlaced, err := ListUserItems(ctx, db, "u1", InventoryFilter{Placed: &placed})
	if err != nil {
		t.Fatalf("ListUserItems: %v", err)
	}
	if len(onlyPlaced) != 1 || onlyPlaced[0].ItemID != "plant_a" || *onlyPlaced[0].PlacedSlotID != "SHELF-T" {
		t.Fatalf("placed filter: %+v", onlyPlaced)
	}

	furniture, _ := ListUserItems(ctx, db, "u1", InventoryFilter{Category: domain.CategoryFurniture})
	if len(furniture) != 1 || furniture[0].Item.ID != "chair_a" {
		t.Fatalf("category filter: %+v", furniture)
	}

	total, nPlaced, err := CountUserItems(ctx, db, "u1")
	if err != nil || total != 2 || nPlaced != 1 {
		t.Fatalf("CountUserItems total=%d placed=%d err=%v", total, nPlaced, err)
	}

	if err := ClearAllPlacements(ctx, db, "u1"); err != nil {
		t.Fatalf("ClearAllPlacements: %v", err)
	}
	_, nPlaced, _ = CountUserItems(ctx, db, "u1")
	if nPlaced != 0 {
		t.Fatalf("expected nothing placed, got %d", nPlaced)
	}

	owned, _ := OwnedItemIDs(ctx, db, "u1")
	if _, ok := owned["chair_a"]; !ok || len(owned) != 2 {
		t.Fatalf("OwnedItemIDs=%v", owned)
	}

	names, err := RecentUnlockNames(ctx, db, "u1", 1)
	if err != nil || len(names) != 1 {
		t.Fatalf("RecentUnlockNames=%v err=%v", names, err)
	}
}
