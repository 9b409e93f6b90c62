package domain

import "time"

// Item categories.
const (
	CategoryPlant     = "plant"
	CategoryFurniture = "furniture"
	CategoryWallpaper = "wallpaper"
	CategoryAccessory = "accessory"
)

// Item placement types.
const (
	PlacementSurface = "surface"
	PlacementFloor   = "floor"
	PlacementWall    = "wall"
	PlacementWindow  = "window"
)

// Item rarities in ascending order.
const (
	RarityCommon    = "common"
	RarityUncommon  = "uncommon"
	RarityRare      = "rare"
	RarityLegendary = "legendary"
)

// RarityRank orders rarities for sorting; unknown rarities rank last.
func RarityRank(r string) int {
	switch r {
	case RarityCommon:
		return 0
	case RarityUncommon:
		return 1
	case RarityRare:
		return 2
	case RarityLegendary:
		return 3
	default:
		return 4
	}
}

// Item is a purchasable cosmetic. Rows are seeded once and treated as
// immutable afterwards. PointCost and Rarity are independent attributes.
//
// PlacementType is nil for legacy items that lack full metadata; those are
// matched against slots by category only.
type Item struct {
	ID            string    `json:"id"                       gorm:"type:varchar(64);primaryKey"`
	Name          string    `json:"name"                     gorm:"type:varchar(120);not null"`
	Description   string    `json:"description"              gorm:"type:text;not null;default:''"`
	Category      string    `json:"category"                 gorm:"type:varchar(16);not null;index"`
	PlacementType *string   `json:"placement_type,omitempty" gorm:"type:varchar(16)"`
	Size          string    `json:"size"                     gorm:"type:varchar(8);not null;default:'medium'"`
	PointCost     int       `json:"point_cost"               gorm:"not null;check:point_cost >= 0"`
	Rarity        string    `json:"rarity"                   gorm:"type:varchar(16);not null"`
	SpriteID      string    `json:"sprite_id"                gorm:"type:varchar(64);not null"`
	IsPremiumOnly bool      `json:"is_premium_only"          gorm:"not null;default:false"`
	IsActive      bool      `json:"is_active"                gorm:"not null;default:true"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName returns the database table name for Item.
func (Item) TableName() string { return "items" }

// Placement returns the placement type or "" when unknown.
func (it Item) Placement() string {
	if it.PlacementType == nil {
		return ""
	}
	return *it.PlacementType
}

// UserItem records ownership of one unit of an item.
// IsPlaced is true exactly when PlacedSlotID is non-nil.
type UserItem struct {
	ID           string    `json:"id"             gorm:"type:char(36);primaryKey"`
	UserID       string    `json:"user_id"        gorm:"type:varchar(64);not null;uniqueIndex:ux_user_item,priority:1"`
	ItemID       string    `json:"item_id"        gorm:"type:varchar(64);not null;uniqueIndex:ux_user_item,priority:2"`
	IsPlaced     bool      `json:"is_placed"      gorm:"not null;default:false"`
	PlacedSlotID *string   `json:"placed_slot_id" gorm:"type:varchar(32)"`
	AcquiredAt   time.Time `json:"acquired_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Item Item `json:"item" gorm:"foreignKey:ItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for UserItem.
func (UserItem) TableName() string { return "user_items" }

// RoomConfig is the per-user room singleton. Its placed-items set lives in
// RoomPlacement rows keyed by the same user.
type RoomConfig struct {
	UserID      string    `json:"user_id"      gorm:"type:varchar(64);primaryKey"`
	WallpaperID *string   `json:"wallpaper_id" gorm:"type:varchar(64)"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	PlacedItems []RoomPlacement `json:"placed_items" gorm:"foreignKey:UserID;references:UserID"`
}

// TableName returns the database table name for RoomConfig.
func (RoomConfig) TableName() string { return "room_config" }

// RoomPlacement is one {item, slot} entry of a room. The two unique indexes
// guarantee at most one item per slot and at most one slot per item.
type RoomPlacement struct {
	UserID   string    `json:"-"        gorm:"type:varchar(64);primaryKey;uniqueIndex:ux_room_slot,priority:1"`
	ItemID   string    `json:"item_id"  gorm:"type:varchar(64);primaryKey"`
	SlotID   string    `json:"slot_id"  gorm:"type:varchar(32);not null;uniqueIndex:ux_room_slot,priority:2"`
	PlacedAt time.Time `json:"placed_at"`
}

// TableName returns the database table name for RoomPlacement.
func (RoomPlacement) TableName() string { return "room_placements" }
