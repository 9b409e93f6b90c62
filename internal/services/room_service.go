// Package services – RoomService
//
// This file implements the room: the Owned/Unplaced ⇄ Owned/Placed(slot)
// transitions, wallpaper selection, whole-room sync and the resolved room
// view.
//
// Every mutation runs in one transaction that updates the RoomPlacement rows
// and the UserItem placement columns together. Slot and item exclusivity are
// enforced by unique indexes on room_placements, so when two requests race for
// one slot exactly one insert commits and the other is reported as
// ErrSlotOccupied.
package services

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/bloom-backend/internal/catalog"
	"github.com/tbourn/bloom-backend/internal/domain"
	"github.com/tbourn/bloom-backend/internal/observability"
	"github.com/tbourn/bloom-backend/internal/repo"
)

// RoomService mutates and reads a user's room.
type RoomService struct {
	DB *gorm.DB
}

// Placement is one {item, slot} pair.
type Placement struct {
	ItemID string `json:"item_id"`
	SlotID string `json:"slot_id"`
}

// RoomSync replaces parts of the room atomically. Placements, when non-nil,
// becomes the complete placed set. Wallpaper is applied when SetWallpaper is
// true; a nil Wallpaper then clears it.
type RoomSync struct {
	Placements   *[]Placement
	SetWallpaper bool
	Wallpaper    *string
}

// PlacedItem is a placement resolved against the catalog.
type PlacedItem struct {
	ItemID   string       `json:"item_id"`
	SlotID   string       `json:"slot_id"`
	PlacedAt time.Time    `json:"placed_at"`
	Item     *domain.Item `json:"item,omitempty"`
	Slot     catalog.Slot `json:"slot"`
}

// RoomView is the room with wallpaper and placed items resolved.
type RoomView struct {
	UserID      string       `json:"user_id"`
	WallpaperID *string      `json:"wallpaper_id"`
	Wallpaper   *domain.Item `json:"wallpaper,omitempty"`
	PlacedItems []PlacedItem `json:"placed_items"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Slots returns the static slot map.
func (s *RoomService) Slots() []catalog.Slot { return catalog.Slots() }

// Get returns the user's room, creating an empty one on first access.
func (s *RoomService) Get(ctx context.Context, userID string) (*RoomView, error) {
	ctx, span := otel.Tracer("services/RoomService").Start(ctx, "Get",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	rc, err := repo.GetOrCreateRoomConfig(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rc.PlacedItems)+1)
	for _, p := range rc.PlacedItems {
		ids = append(ids, p.ItemID)
	}
	if rc.WallpaperID != nil {
		ids = append(ids, *rc.WallpaperID)
	}
	items, err := repo.GetItemsByIDs(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}

	v := &RoomView{
		UserID:      rc.UserID,
		WallpaperID: rc.WallpaperID,
		PlacedItems: make([]PlacedItem, 0, len(rc.PlacedItems)),
		UpdatedAt:   rc.UpdatedAt,
	}
	if rc.WallpaperID != nil {
		if it, ok := items[*rc.WallpaperID]; ok {
			v.Wallpaper = &it
		}
	}
	for _, p := range rc.PlacedItems {
		pi := PlacedItem{ItemID: p.ItemID, SlotID: p.SlotID, PlacedAt: p.PlacedAt}
		if it, ok := items[p.ItemID]; ok {
			pi.Item = &it
		}
		pi.Slot, _ = catalog.SlotByID(p.SlotID)
		v.PlacedItems = append(v.PlacedItems, pi)
	}
	return v, nil
}

// Place moves an owned, unplaced item into slotID.
func (s *RoomService) Place(ctx context.Context, userID, itemID, slotID string) error {
	ctx, span := otel.Tracer("services/RoomService").Start(ctx, "Place",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("item.id", itemID),
			attribute.String("slot.id", slotID),
		),
	)
	defer span.End()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetOrCreateRoomConfig(ctx, tx, userID); err != nil {
			return err
		}
		return s.place(ctx, tx, userID, itemID, slotID)
	})
	observability.RoomMutation("place", mutationOutcome(err))
	return err
}

func (s *RoomService) place(ctx context.Context, tx *gorm.DB, userID, itemID, slotID string) error {
	if _, ok := catalog.SlotByID(slotID); !ok {
		return ErrSlotNotFound
	}
	ui, err := repo.GetUserItem(ctx, tx, userID, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotOwned
	}
	if err != nil {
		return err
	}
	if ui.IsPlaced {
		return ErrAlreadyPlaced
	}
	if !catalog.CanPlace(slotID, catalog.DescriptorOf(ui.Item)) {
		return ErrIncompatibleSlot
	}
	if _, err := repo.GetPlacementBySlot(ctx, tx, userID, slotID); err == nil {
		return ErrSlotOccupied
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if _, err := repo.InsertPlacement(ctx, tx, userID, itemID, slotID); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return ErrSlotOccupied
		}
		return err
	}
	if err := repo.SetUserItemPlacement(ctx, tx, userID, itemID, &slotID); err != nil {
		return err
	}
	return repo.TouchRoom(ctx, tx, userID)
}

// Remove returns a placed item to the unplaced state.
func (s *RoomService) Remove(ctx context.Context, userID, itemID string) error {
	ctx, span := otel.Tracer("services/RoomService").Start(ctx, "Remove",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("item.id", itemID),
		),
	)
	defer span.End()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ui, err := repo.GetUserItem(ctx, tx, userID, itemID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotOwned
		}
		if err != nil {
			return err
		}
		if !ui.IsPlaced {
			return ErrNotPlaced
		}
		if _, err := repo.DeletePlacement(ctx, tx, userID, itemID); err != nil {
			return err
		}
		if err := repo.SetUserItemPlacement(ctx, tx, userID, itemID, nil); err != nil {
			return err
		}
		return repo.TouchRoom(ctx, tx, userID)
	})
	observability.RoomMutation("remove", mutationOutcome(err))
	return err
}

// SetWallpaper selects an owned wallpaper, or clears it when id is nil.
func (s *RoomService) SetWallpaper(ctx context.Context, userID string, id *string) error {
	ctx, span := otel.Tracer("services/RoomService").Start(ctx, "SetWallpaper",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetOrCreateRoomConfig(ctx, tx, userID); err != nil {
			return err
		}
		return s.setWallpaper(ctx, tx, userID, id)
	})
	observability.RoomMutation("wallpaper", mutationOutcome(err))
	return err
}

func (s *RoomService) setWallpaper(ctx context.Context, tx *gorm.DB, userID string, id *string) error {
	if id != nil {
		ui, err := repo.GetUserItem(ctx, tx, userID, *id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotOwned
		}
		if err != nil {
			return err
		}
		if !ui.Item.IsActive {
			return ErrItemNotFound
		}
		if ui.Item.Category != domain.CategoryWallpaper {
			return ErrNotWallpaper
		}
	}
	return repo.SetWallpaper(ctx, tx, userID, id)
}

// Sync applies a room snapshot atomically. The placements are validated
// against ownership and compatibility and must not repeat a slot or an item.
func (s *RoomService) Sync(ctx context.Context, userID string, in RoomSync) (*RoomView, error) {
	ctx, span := otel.Tracer("services/RoomService").Start(ctx, "Sync",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	if in.Placements != nil {
		if err := distinctPlacements(*in.Placements); err != nil {
			observability.RoomMutation("sync", observability.OutcomeRejected)
			return nil, err
		}
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetOrCreateRoomConfig(ctx, tx, userID); err != nil {
			return err
		}
		if in.Placements != nil {
			if _, err := repo.DeleteAllPlacements(ctx, tx, userID); err != nil {
				return err
			}
			if err := repo.ClearAllPlacements(ctx, tx, userID); err != nil {
				return err
			}
			for _, p := range *in.Placements {
				if err := s.place(ctx, tx, userID, p.ItemID, p.SlotID); err != nil {
					return err
				}
			}
		}
		if in.SetWallpaper {
			if err := s.setWallpaper(ctx, tx, userID, in.Wallpaper); err != nil {
				return err
			}
		}
		return repo.TouchRoom(ctx, tx, userID)
	})
	observability.RoomMutation("sync", mutationOutcome(err))
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func distinctPlacements(ps []Placement) error {
	slots := make(map[string]struct{}, len(ps))
	items := make(map[string]struct{}, len(ps))
	for _, p := range ps {
		if _, dup := slots[p.SlotID]; dup {
			return ErrInvalidRoom
		}
		if _, dup := items[p.ItemID]; dup {
			return ErrInvalidRoom
		}
		slots[p.SlotID] = struct{}{}
		items[p.ItemID] = struct{}{}
	}
	return nil
}

func mutationOutcome(err error) string {
	switch {
	case err == nil:
		return observability.OutcomeOK
	case errors.Is(err, ErrSlotNotFound), errors.Is(err, ErrNotOwned), errors.Is(err, ErrAlreadyPlaced),
		errors.Is(err, ErrIncompatibleSlot), errors.Is(err, ErrSlotOccupied), errors.Is(err, ErrNotPlaced),
		errors.Is(err, ErrNotWallpaper), errors.Is(err, ErrItemNotFound), errors.Is(err, ErrInvalidRoom):
		return observability.OutcomeRejected
	default:
		return observability.OutcomeError
	}
}
