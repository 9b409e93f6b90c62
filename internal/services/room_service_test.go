package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/tbourn/bloom-backend/internal/catalog"
	"github.com/tbourn/bloom-backend/internal/domain"
	"github.com/tbourn/bloom-backend/internal/repo"
)

func strPtr(s string) *string { return &s }

func TestRoomService_GetCreatesEmptyRoom(t *testing.T) {
	svc := &RoomService{DB: newServiceDB(t)}
	v, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", v.UserID)
	assert.Nil(t, v.WallpaperID)
	assert.Empty(t, v.PlacedItems)
	assert.Len(t, svc.Slots(), 16)
}

func TestRoomService_PlaceAndRemove(t *testing.T) {
	db := newServiceDB(t)
	own(t, db, "u1", "plant_fern_boston")
	svc := &RoomService{DB: db}
	ctx := context.Background()

	require.NoError(t, svc.Place(ctx, "u1", "plant_fern_boston", "SHELF-T"))

	v, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, v.PlacedItems, 1)
	assert.Equal(t, "SHELF-T", v.PlacedItems[0].SlotID)
	require.NotNil(t, v.PlacedItems[0].Item)
	assert.Equal(t, "Boston Fern", v.PlacedItems[0].Item.Name)
	assert.Equal(t, catalog.SlotSurface, v.PlacedItems[0].Slot.Category)

	ui, err := repo.GetUserItem(ctx, db, "u1", "plant_fern_boston")
	require.NoError(t, err)
	assert.True(t, ui.IsPlaced)
	require.NotNil(t, ui.PlacedSlotID)
	assert.Equal(t, "SHELF-T", *ui.PlacedSlotID)

	require.NoError(t, svc.Remove(ctx, "u1", "plant_fern_boston"))
	ui, err = repo.GetUserItem(ctx, db, "u1", "plant_fern_boston")
	require.NoError(t, err)
	assert.False(t, ui.IsPlaced)
	assert.Nil(t, ui.PlacedSlotID)

	placements, err := repo.ListPlacements(ctx, db, "u1")
	require.NoError(t, err)
	assert.Empty(t, placements)
	v, err = svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, v.PlacedItems, 0)

	assert.ErrorIs(t, svc.Remove(ctx, "u1", "plant_fern_boston"), ErrNotPlaced)
}

func TestRoomService_PlaceRejections(t *testing.T) {
	db := newServiceDB(t)
	own(t, db, "u1", "plant_succulent_baby", "plant_cactus_prickly", "furniture_lamp_cozy")
	svc := &RoomService{DB: db}
	ctx := context.Background()
	require.NoError(t, svc.Place(ctx, "u1", "plant_succulent_baby", "DESK-L"))

	cases := []struct {
		name, item, slot string
		want             error
	}{
		{"unknown slot", "plant_cactus_prickly", "CEILING", ErrSlotNotFound},
		{"not owned", "plant_orchid_purple", "DESK-C", ErrNotOwned},
		{"already placed", "plant_succulent_baby", "DESK-C", ErrAlreadyPlaced},
		{"incompatible", "furniture_lamp_cozy", "SHELF-M", ErrIncompatibleSlot},
		{"occupied", "plant_cactus_prickly", "DESK-L", ErrSlotOccupied},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, svc.Place(ctx, "u1", tc.item, tc.slot), tc.want)
		})
	}
}

func TestRoomService_Wallpaper(t *testing.T) {
	db := newServiceDB(t)
	own(t, db, "u1", "wallpaper_ocean_waves", "accessory_mug_ceramic")
	svc := &RoomService{DB: db}
	ctx := context.Background()

	assert.ErrorIs(t, svc.SetWallpaper(ctx, "u1", strPtr("wallpaper_sky_sunset")), ErrNotOwned)
	assert.ErrorIs(t, svc.SetWallpaper(ctx, "u1", strPtr("accessory_mug_ceramic")), ErrNotWallpaper)

	require.NoError(t, svc.SetWallpaper(ctx, "u1", strPtr("wallpaper_ocean_waves")))
	v, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, v.Wallpaper)
	assert.Equal(t, "Ocean Waves", v.Wallpaper.Name)

	require.NoError(t, svc.SetWallpaper(ctx, "u1", nil))
	v, err = svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, v.WallpaperID)
}

func TestRoomService_SyncReplacesAtomically(t *testing.T) {
	db := newServiceDB(t)
	own(t, db, "u1", "plant_succulent_baby", "furniture_rug_persian", "wallpaper_sky_sunset", "accessory_candle_lavender")
	svc := &RoomService{DB: db}
	ctx := context.Background()
	require.NoError(t, svc.Place(ctx, "u1", "accessory_candle_lavender", "DESK-C"))

	v, err := svc.Sync(ctx, "u1", RoomSync{
		Placements: &[]Placement{
			{ItemID: "plant_succulent_baby", SlotID: "DESK-C"},
			{ItemID: "furniture_rug_persian", SlotID: "FLOOR-C"},
		},
		SetWallpaper: true,
		Wallpaper:    strPtr("wallpaper_sky_sunset"),
	})
	require.NoError(t, err)
	assert.Len(t, v.PlacedItems, 2)
	require.NotNil(t, v.WallpaperID)

	candle, err := repo.GetUserItem(ctx, db, "u1", "accessory_candle_lavender")
	require.NoError(t, err)
	assert.False(t, candle.IsPlaced, "items missing from the snapshot are unplaced")

	// A bad entry rolls back the whole snapshot.
	_, err = svc.Sync(ctx, "u1", RoomSync{Placements: &[]Placement{
		{ItemID: "accessory_candle_lavender", SlotID: "SHELF-T"},
		{ItemID: "furniture_rug_persian", SlotID: "SHELF-M"},
	}})
	assert.ErrorIs(t, err, ErrIncompatibleSlot)
	v, err = svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, v.PlacedItems, 2)

	_, err = svc.Sync(ctx, "u1", RoomSync{Placements: &[]Placement{
		{ItemID: "plant_succulent_baby", SlotID: "DESK-C"},
		{ItemID: "accessory_candle_lavender", SlotID: "DESK-C"},
	}})
	assert.ErrorIs(t, err, ErrInvalidRoom)
}

func TestRoomService_SlotExclusivityProperty(t *testing.T) {
	owned := []string{
		"plant_succulent_baby", "plant_cactus_prickly", "plant_pothos_hanging",
		"furniture_lamp_cozy", "accessory_clock_vintage", "accessory_mug_ceramic",
	}
	slots := make([]string, 0, 16)
	for _, s := range catalog.Slots() {
		slots = append(slots, s.ID)
	}

	rapid.Check(t, func(rt *rapid.T) {
		db := newServiceDB(t)
		own(t, db, "u1", owned...)
		svc := &RoomService{DB: db}
		ctx := context.Background()

		for range rapid.IntRange(1, 20).Draw(rt, "steps") {
			item := rapid.SampledFrom(owned).Draw(rt, "item")
			if rapid.Bool().Draw(rt, "remove") {
				_ = svc.Remove(ctx, "u1", item)
				continue
			}
			err := svc.Place(ctx, "u1", item, rapid.SampledFrom(slots).Draw(rt, "slot"))
			if err != nil && !isRoomRejection(err) {
				rt.Fatalf("place: %v", err)
			}
		}

		ps, err := repo.ListPlacements(ctx, db, "u1")
		if err != nil {
			rt.Fatalf("placements: %v", err)
		}
		seen := map[string]bool{}
		for _, p := range ps {
			if seen[p.SlotID] {
				rt.Fatalf("slot %s holds two items", p.SlotID)
			}
			seen[p.SlotID] = true
			ui, err := repo.GetUserItem(ctx, db, "u1", p.ItemID)
			if err != nil || !ui.IsPlaced || ui.PlacedSlotID == nil || *ui.PlacedSlotID != p.SlotID {
				rt.Fatalf("ownership row disagrees with placement %+v", p)
			}
			if !catalog.CanPlace(p.SlotID, catalog.DescriptorOf(ui.Item)) {
				rt.Fatalf("%s placed in incompatible slot %s", p.ItemID, p.SlotID)
			}
		}
		_, placed, err := repo.CountUserItems(ctx, db, "u1")
		if err != nil || placed != int64(len(ps)) {
			rt.Fatalf("placed=%d placements=%d err=%v", placed, len(ps), err)
		}
	})
}

func isRoomRejection(err error) bool {
	for _, e := range []error{ErrAlreadyPlaced, ErrIncompatibleSlot, ErrSlotOccupied, ErrSlotNotFound} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

func TestInventoryService_View(t *testing.T) {
	db := newServiceDB(t)
	own(t, db, "u1", "plant_succulent_baby", "furniture_lamp_cozy", "wallpaper_sky_sunset")
	require.NoError(t, (&RoomService{DB: db}).Place(context.Background(), "u1", "furniture_lamp_cozy", "FLOOR-L"))
	svc := &InventoryService{DB: db}
	ctx := context.Background()

	all, err := svc.View(ctx, "u1", InventoryQuery{Filter: InventoryAll})
	require.NoError(t, err)
	assert.Len(t, all.Items, 3)
	assert.Equal(t, InventoryCounts{Total: 3, Placed: 1, Available: 2}, all.Counts)
	assert.Len(t, all.Grouped[domain.CategoryWallpaper], 1)
	assert.ElementsMatch(t, []string{"plant_succulent_baby", "furniture_lamp_cozy", "wallpaper_sky_sunset"}, all.IDs())

	for _, e := range all.Items {
		assert.NotEmpty(t, e.CompatibleSlots, e.ItemID)
	}

	placed, err := svc.View(ctx, "u1", InventoryQuery{Filter: InventoryPlaced})
	require.NoError(t, err)
	assert.Equal(t, []string{"furniture_lamp_cozy"}, placed.IDs())
	assert.Equal(t, int64(3), placed.Counts.Total, "counts ignore the filter")

	avail, err := svc.View(ctx, "u1", InventoryQuery{Filter: InventoryAvailable, Category: domain.CategoryPlant})
	require.NoError(t, err)
	assert.Equal(t, []string{"plant_succulent_baby"}, avail.IDs())

	n, ts, err := svc.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NotZero(t, ts)
}
