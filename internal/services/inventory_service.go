// Package services – InventoryService
//
// This file implements the read side of ownership: the inventory view with
// placement state, counts, a by-category grouping and, per item, the slots
// it may be placed into.
package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/bloom-backend/internal/catalog"
	"github.com/tbourn/bloom-backend/internal/domain"
	"github.com/tbourn/bloom-backend/internal/repo"
)

// Inventory filters.
const (
	InventoryAll       = "all"
	InventoryAvailable = "available"
	InventoryPlaced    = "placed"
)

// InventoryService reads a user's owned items.
type InventoryService struct {
	DB *gorm.DB
}

// InventoryQuery selects the inventory rows to return.
type InventoryQuery struct {
	Filter   string // all | available | placed
	Category string
}

// InventoryEntry is one owned item with the slots it fits.
type InventoryEntry struct {
	domain.UserItem
	CompatibleSlots []string `json:"compatible_slots"`
}

// InventoryCounts summarises the user's whole inventory regardless of filter.
type InventoryCounts struct {
	Total     int64 `json:"total"`
	Placed    int64 `json:"placed"`
	Available int64 `json:"available"`
}

// InventoryView is the inventory response.
type InventoryView struct {
	Items   []InventoryEntry            `json:"items"`
	Counts  InventoryCounts             `json:"counts"`
	Grouped map[string][]InventoryEntry `json:"grouped"`
}

// IDs returns the item ids of the view in order.
func (v *InventoryView) IDs() []string {
	out := make([]string, 0, len(v.Items))
	for _, e := range v.Items {
		out = append(out, e.ItemID)
	}
	return out
}

// View returns the user's inventory matching q. Unknown filters behave as
// InventoryAll.
func (s *InventoryService) View(ctx context.Context, userID string, q InventoryQuery) (*InventoryView, error) {
	ctx, span := otel.Tracer("services/InventoryService").Start(ctx, "View",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("filter", q.Filter),
		),
	)
	defer span.End()

	f := repo.InventoryFilter{Category: q.Category}
	switch q.Filter {
	case InventoryPlaced:
		f.Placed = boolp(true)
	case InventoryAvailable:
		f.Placed = boolp(false)
	}
	rows, err := repo.ListUserItems(ctx, s.DB, userID, f)
	if err != nil {
		return nil, err
	}
	total, placed, err := repo.CountUserItems(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}

	v := &InventoryView{
		Items:   make([]InventoryEntry, 0, len(rows)),
		Counts:  InventoryCounts{Total: total, Placed: placed, Available: total - placed},
		Grouped: map[string][]InventoryEntry{},
	}
	for _, ui := range rows {
		e := InventoryEntry{UserItem: ui, CompatibleSlots: catalog.CompatibleSlots(catalog.DescriptorOf(ui.Item))}
		v.Items = append(v.Items, e)
		v.Grouped[ui.Item.Category] = append(v.Grouped[ui.Item.Category], e)
	}
	return v, nil
}

// Stats reports the inventory row count and latest change for ETags.
func (s *InventoryService) Stats(ctx context.Context, userID string) (int64, int64, error) {
	n, ts, err := repo.InventoryStats(ctx, s.DB, userID)
	if err != nil || ts == nil {
		return n, 0, err
	}
	return n, ts.UnixNano(), nil
}

func boolp(b bool) *bool { return &b }
