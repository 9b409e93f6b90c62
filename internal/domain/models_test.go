package domain

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:domain_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Enforce FKs so cascades actually execute.
	db.Exec("PRAGMA foreign_keys=ON;")
	return db
}

func TestTableNames(t *testing.T) {
	cases := map[string]string{
		Conversation{}.TableName():  "conversations",
		Message{}.TableName():       "messages",
		Profile{}.TableName():       "profiles",
		ActivityLog{}.TableName():   "activity_log",
		Item{}.TableName():          "items",
		UserItem{}.TableName():      "user_items",
		RoomConfig{}.TableName():    "room_config",
		RoomPlacement{}.TableName(): "room_placements",
		Idempotency{}.TableName():   "idempotency",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("TableName() = %q; want %q", got, want)
		}
	}
}

func TestProfileLevel(t *testing.T) {
	cases := []struct {
		xp   int
		want int
	}{
		{0, 1}, {10, 1}, {99, 1}, {100, 2}, {199, 2}, {250, 3}, {1000, 11}, {-5, 1},
	}
	for _, tc := range cases {
		if got := (Profile{XP: tc.xp}).Level(); got != tc.want {
			t.Fatalf("Level(xp=%d) = %d; want %d", tc.xp, got, tc.want)
		}
	}
}

func TestRarityRank_Ordering(t *testing.T) {
	order := []string{RarityCommon, RarityUncommon, RarityRare, RarityLegendary, "mythic"}
	for i := 1; i < len(order); i++ {
		if RarityRank(order[i-1]) >= RarityRank(order[i]) {
			t.Fatalf("expected %s < %s", order[i-1], order[i])
		}
	}
}

func TestItemPlacement(t *testing.T) {
	if got := (Item{}).Placement(); got != "" {
		t.Fatalf("nil placement = %q; want empty", got)
	}
	wall := PlacementWall
	if got := (Item{PlacementType: &wall}).Placement(); got != "wall" {
		t.Fatalf("placement = %q; want wall", got)
	}
}

func TestMigrations_Indexes_AndCascades(t *testing.T) {
	db := newDomainDB(t)

	if err := db.AutoMigrate(&Conversation{}, &Message{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	if !m.HasIndex(&Conversation{}, "idx_user_conversations") {
		t.Fatalf("expected index idx_user_conversations on conversations")
	}
	if !m.HasIndex(&Message{}, "idx_conversation_msgs") {
		t.Fatalf("expected index idx_conversation_msgs on messages")
	}

	now := time.Now().UTC()
	conv := &Conversation{ID: "c1", UserID: "u1", Title: "T", CreatedAt: now, UpdatedAt: now}
	if err := db.Create(conv).Error; err != nil {
		t.Fatalf("insert conversation: %v", err)
	}
	msgs := []Message{
		{ID: "m1", ConversationID: "c1", Role: RoleUser, Content: "hello", CreatedAt: now},
		{ID: "m2", ConversationID: "c1", Role: RoleAssistant, Content: "hey", CreatedAt: now.Add(time.Second)},
	}
	if err := db.Create(&msgs).Error; err != nil {
		t.Fatalf("insert messages: %v", err)
	}

	// Role check constraint.
	bad := &Message{ID: "m3", ConversationID: "c1", Role: "system", Content: "x"}
	if err := db.Create(bad).Error; err == nil {
		t.Fatalf("expected role check constraint violation")
	}

	// CASCADE: deleting the conversation deletes its messages.
	if err := db.Unscoped().Delete(&Conversation{}, "id = ?", "c1").Error; err != nil {
		t.Fatalf("delete conversation: %v", err)
	}
	var cnt int64
	if err := db.Model(&Message{}).Where("conversation_id = ?", "c1").Count(&cnt).Error; err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if cnt != 0 {
		t.Fatalf("expected messages to cascade-delete, got %d", cnt)
	}
}

func TestRoomPlacement_SlotAndItemExclusivity(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Item{}, &UserItem{}, &RoomConfig{}, &RoomPlacement{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if err := db.Create(&RoomConfig{UserID: "u1"}).Error; err != nil {
		t.Fatalf("room config: %v", err)
	}

	if err := db.Create(&RoomPlacement{UserID: "u1", ItemID: "fern", SlotID: "SHELF-T"}).Error; err != nil {
		t.Fatalf("first placement: %v", err)
	}
	// Same slot, different item.
	if err := db.Create(&RoomPlacement{UserID: "u1", ItemID: "cactus", SlotID: "SHELF-T"}).Error; err == nil {
		t.Fatalf("expected unique violation for occupied slot")
	}
	// Same item, different slot.
	if err := db.Create(&RoomPlacement{UserID: "u1", ItemID: "fern", SlotID: "DESK-L"}).Error; err == nil {
		t.Fatalf("expected unique violation for item placed twice")
	}
	// Another user may use the same slot.
	if err := db.Create(&RoomConfig{UserID: "u2"}).Error; err != nil {
		t.Fatalf("room config u2: %v", err)
	}
	if err := db.Create(&RoomPlacement{UserID: "u2", ItemID: "fern", SlotID: "SHELF-T"}).Error; err != nil {
		t.Fatalf("other user placement: %v", err)
	}
}

func TestUserItem_UniquePerUser(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Item{}, &UserItem{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	plant := PlacementSurface
	if err := db.Create(&Item{ID: "fern", Name: "Fern", Category: CategoryPlant, PlacementType: &plant, PointCost: 100, Rarity: RarityUncommon, SpriteID: "fern"}).Error; err != nil {
		t.Fatalf("item: %v", err)
	}
	if err := db.Create(&UserItem{ID: "a", UserID: "u1", ItemID: "fern"}).Error; err != nil {
		t.Fatalf("first ownership: %v", err)
	}
	if err := db.Create(&UserItem{ID: "b", UserID: "u1", ItemID: "fern"}).Error; err == nil {
		t.Fatalf("expected unique violation on (user_id, item_id)")
	}
}
