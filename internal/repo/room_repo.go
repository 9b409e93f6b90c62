// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the per-user room singleton and its
// slot placements.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/bloom-backend/internal/domain"
)

// GetOrCreateRoomConfig returns the user's room, creating an empty one on
// first access. Concurrent first calls converge on a single row.
func GetOrCreateRoomConfig(ctx context.Context, db *gorm.DB, userID string) (*domain.RoomConfig, error) {
	now := time.Now().UTC()
	seed := domain.RoomConfig{UserID: userID, CreatedAt: now, UpdatedAt: now}
	if err := db.WithContext(ctx).
		Omit("PlacedItems").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&seed).Error; err != nil {
		return nil, err
	}
	var rc domain.RoomConfig
	err := db.WithContext(ctx).
		Preload("PlacedItems", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("placed_at asc, slot_id asc")
		}).
		Where("user_id = ?", userID).
		First(&rc).Error
	if err != nil {
		return nil, err
	}
	return &rc, nil
}

// ListPlacements returns the user's placements in placement order.
func ListPlacements(ctx context.Context, db *gorm.DB, userID string) ([]domain.RoomPlacement, error) {
	var out []domain.RoomPlacement
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("placed_at asc, slot_id asc").
		Find(&out).Error
	return out, err
}

// GetPlacementBySlot returns the placement occupying slotID or ErrNotFound.
func GetPlacementBySlot(ctx context.Context, db *gorm.DB, userID, slotID string) (*domain.RoomPlacement, error) {
	var p domain.RoomPlacement
	if err := db.WithContext(ctx).
		Where("user_id = ? AND slot_id = ?", userID, slotID).
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// InsertPlacement records itemID at slotID. It returns ErrDuplicate when the
// slot is occupied or the item is already placed.
func InsertPlacement(ctx context.Context, db *gorm.DB, userID, itemID, slotID string) (*domain.RoomPlacement, error) {
	p := &domain.RoomPlacement{UserID: userID, ItemID: itemID, SlotID: slotID, PlacedAt: time.Now().UTC()}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, mapCreateErr(err)
	}
	return p, nil
}

// DeletePlacement removes the placement of itemID. It reports whether a row
// was removed.
func DeletePlacement(ctx context.Context, db *gorm.DB, userID, itemID string) (bool, error) {
	res := db.WithContext(ctx).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		Delete(&domain.RoomPlacement{})
	return res.RowsAffected > 0, res.Error
}

// DeleteAllPlacements empties the user's room.
func DeleteAllPlacements(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	res := db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.RoomPlacement{})
	return res.RowsAffected, res.Error
}

// SetWallpaper stores the wallpaper id, or clears it when id is nil.
func SetWallpaper(ctx context.Context, db *gorm.DB, userID string, id *string) error {
	res := db.WithContext(ctx).
		Model(&domain.RoomConfig{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{"wallpaper_id": id, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchRoom bumps updated_at after a placement change.
func TouchRoom(ctx context.Context, db *gorm.DB, userID string) error {
	return db.WithContext(ctx).
		Model(&domain.RoomConfig{}).
		Where("user_id = ?", userID).
		Update("updated_at", time.Now().UTC()).Error
}
