package catalog

import "github.com/tbourn/bloom-backend/internal/domain"

// Descriptor is the minimal view of an item needed to decide placement.
// PlacementType is empty for items lacking full metadata.
type Descriptor struct {
	Category      string
	PlacementType string
}

// DescriptorOf builds a Descriptor from a catalog item.
func DescriptorOf(it domain.Item) Descriptor {
	return Descriptor{Category: it.Category, PlacementType: it.Placement()}
}

// CanPlace reports whether an item may occupy the slot.
//
// With a known placement type the strict rule applies first: walls take
// wall-mounted items or wallpapers, floors take floor items or furniture,
// surfaces take surface items, plants and accessories, windows take window
// items and plants, and the avatar-adjacent slot takes anything. When the
// strict rule does not match (or the placement type is unknown) the slot's
// category allow-list decides. Unknown slots never accept anything.
func CanPlace(slotID string, d Descriptor) bool {
	slot, ok := SlotByID(slotID)
	if !ok {
		return false
	}
	if d.PlacementType != "" && strictMatch(slot.Category, d) {
		return true
	}
	return slot.accepts(d.Category)
}

func strictMatch(slotCategory string, d Descriptor) bool {
	switch slotCategory {
	case SlotWall:
		return d.PlacementType == domain.PlacementWall || d.Category == domain.CategoryWallpaper
	case SlotFloor:
		return d.PlacementType == domain.PlacementFloor || d.Category == domain.CategoryFurniture
	case SlotSurface:
		return d.PlacementType == domain.PlacementSurface ||
			d.Category == domain.CategoryPlant ||
			d.Category == domain.CategoryAccessory
	case SlotWindow:
		return d.PlacementType == domain.PlacementWindow || d.Category == domain.CategoryPlant
	case SlotAvatarAdjacent:
		return true
	}
	return false
}

// CompatibleSlots lists the ids of every slot that accepts the item, in
// layout order.
func CompatibleSlots(d Descriptor) []string {
	out := make([]string, 0, 4)
	for _, s := range slots {
		if CanPlace(s.ID, d) {
			out = append(out, s.ID)
		}
	}
	return out
}
