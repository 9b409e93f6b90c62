// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides ownership records (UserItem).
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/bloom-backend/internal/domain"
)

// InventoryFilter narrows ListUserItems. Placed nil means both states.
type InventoryFilter struct {
	Placed   *bool
	Category string
}

// CreateUserItem records ownership. A second unit of the same item returns
// ErrDuplicate.
func CreateUserItem(ctx context.Context, db *gorm.DB, userID, itemID string) (*domain.UserItem, error) {
	now := time.Now().UTC()
	ui := &domain.UserItem{
		ID:         uuid.NewString(),
		UserID:     userID,
		ItemID:     itemID,
		AcquiredAt: now,
		UpdatedAt:  now,
	}
	if err := db.WithContext(ctx).Omit("Item").Create(ui).Error; err != nil {
		return nil, mapCreateErr(err)
	}
	return ui, nil
}

// GetUserItem returns the user's ownership record for itemID with the item preloaded.
func GetUserItem(ctx context.Context, db *gorm.DB, userID, itemID string) (*domain.UserItem, error) {
	var ui domain.UserItem
	err := db.WithContext(ctx).
		Preload("Item").
		Where("user_id = ? AND item_id = ?", userID, itemID).
		First(&ui).Error
	if err != nil {
		return nil, err
	}
	return &ui, nil
}

// ListUserItems returns owned items, newest first, with items preloaded.
func ListUserItems(ctx context.Context, db *gorm.DB, userID string, f InventoryFilter) ([]domain.UserItem, error) {
	q := db.WithContext(ctx).
		Preload("Item").
		Where("user_items.user_id = ?", userID)
	if f.Placed != nil {
		q = q.Where("user_items.is_placed = ?", *f.Placed)
	}
	if f.Category != "" {
		q = q.Joins("JOIN items ON items.id = user_items.item_id").Where("items.category = ?", f.Category)
	}
	var out []domain.UserItem
	err := q.Order("user_items.acquired_at desc, user_items.id asc").Find(&out).Error
	return out, err
}

// OwnedItemIDs returns the set of item ids the user owns.
func OwnedItemIDs(ctx context.Context, db *gorm.DB, userID string) (map[string]struct{}, error) {
	var ids []string
	if err := db.WithContext(ctx).
		Model(&domain.UserItem{}).
		Where("user_id = ?", userID).
		Pluck("item_id", &ids).Error; err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

// CountUserItems counts owned and placed items.
func CountUserItems(ctx context.Context, db *gorm.DB, userID string) (total, placed int64, err error) {
	q := db.WithContext(ctx).Model(&domain.UserItem{}).Where("user_id = ?", userID)
	if err = q.Count(&total).Error; err != nil {
		return 0, 0, err
	}
	err = db.WithContext(ctx).Model(&domain.UserItem{}).
		Where("user_id = ? AND is_placed = ?", userID, true).
		Count(&placed).Error
	return total, placed, err
}

// SetUserItemPlacement marks the item placed at slotID, or unplaced when
// slotID is nil. It returns ErrNotFound when the user does not own the item.
func SetUserItemPlacement(ctx context.Context, db *gorm.DB, userID, itemID string, slotID *string) error {
	res := db.WithContext(ctx).
		Model(&domain.UserItem{}).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		Updates(map[string]any{
			"is_placed":      slotID != nil,
			"placed_slot_id": slotID,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearAllPlacements marks every owned item unplaced.
func ClearAllPlacements(ctx context.Context, db *gorm.DB, userID string) error {
	return db.WithContext(ctx).
		Model(&domain.UserItem{}).
		Where("user_id = ? AND is_placed = ?", userID, true).
		Updates(map[string]any{
			"is_placed":      false,
			"placed_slot_id": nil,
			"updated_at":     time.Now().UTC(),
		}).Error
}

// RecentUnlockNames returns the names of the n most recently acquired items.
func RecentUnlockNames(ctx context.Context, db *gorm.DB, userID string, n int) ([]string, error) {
	var names []string
	err := db.WithContext(ctx).
		Table("user_items").
		Select("items.name").
		Joins("JOIN items ON items.id = user_items.item_id").
		Where("user_items.user_id = ?", userID).
		Order("user_items.acquired_at desc").
		Limit(n).
		Pluck("items.name", &names).Error
	return names, err
}
