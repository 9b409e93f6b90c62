// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides read access to the shop catalog and the
// seeding upsert.
package repo

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/bloom-backend/internal/domain"
)

// Item sort orders accepted by ListItems.
const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRarity    = "rarity"
	SortName      = "name"
)

// ItemFilter narrows ListItems. Zero values mean "no filter" and price ascending.
type ItemFilter struct {
	Category string
	Sort     string
}

// UpsertItems inserts or refreshes catalog rows keyed by id.
func UpsertItems(ctx context.Context, db *gorm.DB, items []domain.Item) error {
	if len(items) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range items {
		if items[i].CreatedAt.IsZero() {
			items[i].CreatedAt = now
		}
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "description", "category", "placement_type", "size",
				"point_cost", "rarity", "sprite_id", "is_premium_only", "is_active",
			}),
		}).
		Create(&items).Error
}

// GetItem returns an item by id regardless of is_active.
func GetItem(ctx context.Context, db *gorm.DB, id string) (*domain.Item, error) {
	var it domain.Item
	if err := db.WithContext(ctx).Where("id = ?", id).First(&it).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

// ListItems returns active items. Rarity order is applied in Go because the
// rank is not a column; ties fall back to price then name.
func ListItems(ctx context.Context, db *gorm.DB, f ItemFilter) ([]domain.Item, error) {
	q := db.WithContext(ctx).Where("is_active = ?", true)
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	switch f.Sort {
	case SortPriceDesc:
		q = q.Order("point_cost desc, name asc")
	case SortName:
		q = q.Order("name asc")
	default:
		q = q.Order("point_cost asc, name asc")
	}
	var out []domain.Item
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	if f.Sort == SortRarity {
		sortByRarity(out)
	}
	return out, nil
}

// sortByRarity keeps the query's order within equal ranks.
func sortByRarity(items []domain.Item) {
	sort.SliceStable(items, func(a, b int) bool {
		return domain.RarityRank(items[a].Rarity) < domain.RarityRank(items[b].Rarity)
	})
}

// GetItemsByIDs loads the given items keyed by id. Unknown ids are absent.
func GetItemsByIDs(ctx context.Context, db *gorm.DB, ids []string) (map[string]domain.Item, error) {
	out := make(map[string]domain.Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.Item
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ID] = r
	}
	return out, nil
}
