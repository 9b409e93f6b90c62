// Package catalog holds the static room layout (placement slots), the seed
// list of shop items, and the compatibility rules deciding which item may
// occupy which slot. Everything here is read-only after process start.
package catalog

// Slot categories.
const (
	SlotWall           = "wall"
	SlotSurface        = "surface"
	SlotFloor          = "floor"
	SlotWindow         = "window"
	SlotAvatarAdjacent = "avatar-adjacent"
)

// Point is a position expressed as percentages (0-100) of the room from top-left.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Dimensions is a size expressed as percentages of the room.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Slot is a fixed, named placement region of the virtual room.
type Slot struct {
	ID                string     `json:"id"`
	Category          string     `json:"category"`
	Position          Point      `json:"position"`
	Size              Dimensions `json:"size"`
	AcceptedItemTypes []string   `json:"accepted_item_types"`
	Label             string     `json:"label"`
}

// accepts reports whether t is in the slot's category allow-list.
func (s Slot) accepts(t string) bool {
	for _, a := range s.AcceptedItemTypes {
		if a == t {
			return true
		}
	}
	return false
}

var slots = []Slot{
	// Wall (top of room)
	{ID: "WALL-L1", Category: SlotWall, Position: Point{10, 8}, Size: Dimensions{12, 18}, AcceptedItemTypes: []string{"wallpaper", "poster", "frame", "clock", "accessory"}, Label: "Left Wall 1"},
	{ID: "WALL-L2", Category: SlotWall, Position: Point{25, 5}, Size: Dimensions{12, 18}, AcceptedItemTypes: []string{"wallpaper", "poster", "frame", "accessory"}, Label: "Left Wall 2"},
	{ID: "WALL-C1", Category: SlotWall, Position: Point{44, 3}, Size: Dimensions{12, 15}, AcceptedItemTypes: []string{"clock", "frame", "poster", "accessory"}, Label: "Center Wall"},
	{ID: "WALL-R1", Category: SlotWall, Position: Point{63, 5}, Size: Dimensions{12, 18}, AcceptedItemTypes: []string{"wallpaper", "poster", "frame", "accessory"}, Label: "Right Wall 1"},
	{ID: "WALL-R2", Category: SlotWall, Position: Point{80, 8}, Size: Dimensions{12, 18}, AcceptedItemTypes: []string{"wallpaper", "poster", "frame", "accessory"}, Label: "Right Wall 2"},

	// Shelves (left side)
	{ID: "SHELF-T", Category: SlotSurface, Position: Point{8, 28}, Size: Dimensions{18, 10}, AcceptedItemTypes: []string{"plant", "accessory", "book"}, Label: "Top Shelf"},
	{ID: "SHELF-M", Category: SlotSurface, Position: Point{8, 42}, Size: Dimensions{18, 10}, AcceptedItemTypes: []string{"plant", "accessory", "candle"}, Label: "Middle Shelf"},
	{ID: "SHELF-B", Category: SlotSurface, Position: Point{8, 56}, Size: Dimensions{18, 10}, AcceptedItemTypes: []string{"plant", "radio", "accessory"}, Label: "Bottom Shelf"},

	// Desk (right side)
	{ID: "DESK-L", Category: SlotSurface, Position: Point{58, 35}, Size: Dimensions{12, 12}, AcceptedItemTypes: []string{"plant", "lamp", "accessory"}, Label: "Desk Left"},
	{ID: "DESK-C", Category: SlotSurface, Position: Point{72, 35}, Size: Dimensions{12, 12}, AcceptedItemTypes: []string{"book", "accessory", "stationery"}, Label: "Desk Center"},
	{ID: "DESK-R", Category: SlotSurface, Position: Point{86, 35}, Size: Dimensions{10, 12}, AcceptedItemTypes: []string{"lamp", "accessory"}, Label: "Desk Right"},

	// Window (behind the avatar)
	{ID: "WINDOW", Category: SlotWindow, Position: Point{35, 18}, Size: Dimensions{20, 28}, AcceptedItemTypes: []string{"plant", "hanging", "accessory"}, Label: "Windowsill"},

	// Beside the companion
	{ID: "AVATAR-SIDE", Category: SlotAvatarAdjacent, Position: Point{52, 50}, Size: Dimensions{10, 12}, AcceptedItemTypes: []string{"accessory", "companion"}, Label: "Beside Bloom"},

	// Floor
	{ID: "FLOOR-L", Category: SlotFloor, Position: Point{5, 75}, Size: Dimensions{15, 18}, AcceptedItemTypes: []string{"plant", "furniture", "rug"}, Label: "Floor Left"},
	{ID: "FLOOR-C", Category: SlotFloor, Position: Point{40, 78}, Size: Dimensions{20, 15}, AcceptedItemTypes: []string{"rug", "cushion", "pet", "furniture", "accessory"}, Label: "Floor Center"},
	{ID: "FLOOR-R", Category: SlotFloor, Position: Point{75, 75}, Size: Dimensions{15, 18}, AcceptedItemTypes: []string{"plant", "furniture", "toy", "accessory"}, Label: "Floor Right"},
}

var slotIndex = func() map[string]int {
	m := make(map[string]int, len(slots))
	for i, s := range slots {
		if _, dup := m[s.ID]; dup {
			panic("catalog: duplicate slot id " + s.ID)
		}
		m[s.ID] = i
	}
	return m
}()

// Slots returns a copy of every placement slot in layout order.
func Slots() []Slot {
	out := make([]Slot, len(slots))
	copy(out, slots)
	return out
}

// SlotByID looks up a slot. The boolean is false for unknown ids.
func SlotByID(id string) (Slot, bool) {
	i, ok := slotIndex[id]
	if !ok {
		return Slot{}, false
	}
	return slots[i], true
}

// SlotsByCategory returns the slots of one category in layout order.
func SlotsByCategory(category string) []Slot {
	var out []Slot
	for _, s := range slots {
		if s.Category == category {
			out = append(out, s)
		}
	}
	return out
}
