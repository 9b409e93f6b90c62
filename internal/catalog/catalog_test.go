package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/tbourn/bloom-backend/internal/domain"
)

func TestSlots_LayoutIsComplete(t *testing.T) {
	all := Slots()
	require.Len(t, all, 16)

	counts := map[string]int{}
	for _, s := range all {
		counts[s.Category]++
		assert.NotEmpty(t, s.Label, s.ID)
		assert.NotEmpty(t, s.AcceptedItemTypes, s.ID)
	}
	assert.Equal(t, 5, counts[SlotWall])
	assert.Equal(t, 6, counts[SlotSurface])
	assert.Equal(t, 3, counts[SlotFloor])
	assert.Equal(t, 1, counts[SlotWindow])
	assert.Equal(t, 1, counts[SlotAvatarAdjacent])
}

func TestSlots_ReturnsCopy(t *testing.T) {
	a := Slots()
	a[0].ID = "mutated"
	s, ok := SlotByID("WALL-L1")
	require.True(t, ok)
	assert.Equal(t, "Left Wall 1", s.Label)
}

func TestSlotByID_Unknown(t *testing.T) {
	_, ok := SlotByID("CEILING")
	assert.False(t, ok)
}

func TestSlotsByCategory(t *testing.T) {
	floors := SlotsByCategory(SlotFloor)
	ids := make([]string, 0, len(floors))
	for _, s := range floors {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"FLOOR-L", "FLOOR-C", "FLOOR-R"}, ids)
	assert.Empty(t, SlotsByCategory("roof"))
}

func TestCanPlace_Scenarios(t *testing.T) {
	plant := Descriptor{Category: domain.CategoryPlant, PlacementType: domain.PlacementSurface}
	wallpaper := Descriptor{Category: domain.CategoryWallpaper, PlacementType: domain.PlacementWall}
	chair := Descriptor{Category: domain.CategoryFurniture, PlacementType: domain.PlacementFloor}
	legacyPlant := Descriptor{Category: domain.CategoryPlant}

	cases := []struct {
		name string
		slot string
		d    Descriptor
		want bool
	}{
		{"surface plant on shelf", "SHELF-T", plant, true},
		{"surface plant on wall", "WALL-L1", plant, false},
		{"plant on windowsill", "WINDOW", plant, true},
		{"wallpaper on wall", "WALL-R2", wallpaper, true},
		{"wallpaper on desk", "DESK-C", wallpaper, false},
		{"furniture on floor", "FLOOR-C", chair, true},
		{"furniture on shelf", "SHELF-M", chair, false},
		{"anything beside companion", "AVATAR-SIDE", chair, true},
		{"legacy plant uses allow-list", "FLOOR-L", legacyPlant, true},
		{"legacy plant not on desk right", "DESK-R", legacyPlant, false},
		{"unknown slot", "ROOF", plant, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanPlace(tc.slot, tc.d))
		})
	}
}

func TestCompatibleSlots_WindowPlant(t *testing.T) {
	hanging := Descriptor{Category: domain.CategoryPlant, PlacementType: domain.PlacementWindow}
	got := CompatibleSlots(hanging)
	assert.Contains(t, got, "WINDOW")
	assert.Contains(t, got, "AVATAR-SIDE")
	for _, id := range got {
		s, _ := SlotByID(id)
		assert.NotEqual(t, SlotWall, s.Category, "plant must not land on wall slot %s", id)
	}
}

var (
	genCategory  = rapid.SampledFrom([]string{domain.CategoryPlant, domain.CategoryFurniture, domain.CategoryWallpaper, domain.CategoryAccessory, "poster", "toy"})
	genPlacement = rapid.SampledFrom([]string{"", domain.PlacementSurface, domain.PlacementFloor, domain.PlacementWall, domain.PlacementWindow})
)

func TestCanPlace_Properties(t *testing.T) {
	ids := make([]string, 0, 16)
	for _, s := range Slots() {
		ids = append(ids, s.ID)
	}

	rapid.Check(t, func(rt *rapid.T) {
		d := Descriptor{
			Category:      genCategory.Draw(rt, "category"),
			PlacementType: genPlacement.Draw(rt, "placement"),
		}

		if CanPlace(rapid.StringMatching(`[a-z]{1,8}`).Draw(rt, "bogus"), d) {
			rt.Fatalf("lower-case slot ids are never valid")
		}
		if d.PlacementType != "" && !CanPlace("AVATAR-SIDE", d) {
			rt.Fatalf("avatar-adjacent slot rejected %+v", d)
		}

		id := rapid.SampledFrom(ids).Draw(rt, "slot")
		slot, _ := SlotByID(id)
		if slot.accepts(d.Category) && !CanPlace(id, d) {
			rt.Fatalf("allow-listed category %q rejected by %s", d.Category, id)
		}

		found := false
		for _, c := range CompatibleSlots(d) {
			if c == id {
				found = true
			}
		}
		if found != CanPlace(id, d) {
			rt.Fatalf("CompatibleSlots disagrees with CanPlace for %s", id)
		}
	})
}

func TestSeedItems(t *testing.T) {
	items := SeedItems()
	require.Len(t, items, 22)

	seen := map[string]bool{}
	perCategory := map[string]int{}
	for _, it := range items {
		assert.False(t, seen[it.ID], "duplicate id %s", it.ID)
		seen[it.ID] = true
		perCategory[it.Category]++

		assert.True(t, it.IsActive)
		assert.GreaterOrEqual(t, it.PointCost, 0)
		assert.NotEmpty(t, it.Placement())
		assert.NotEmpty(t, CompatibleSlots(DescriptorOf(it)), "%s has nowhere to go", it.ID)
	}
	assert.Equal(t, 8, perCategory[domain.CategoryPlant])
	assert.Equal(t, 5, perCategory[domain.CategoryFurniture])
	assert.Equal(t, 5, perCategory[domain.CategoryAccessory])
	assert.Equal(t, 4, perCategory[domain.CategoryWallpaper])

	// Each call hands out fresh pointers.
	again := SeedItems()
	*again[0].PlacementType = "mutated"
	assert.Equal(t, domain.PlacementSurface, items[0].Placement())
}

func TestItemCache_ReadThrough(t *testing.T) {
	calls := 0
	errMissing := errors.New("missing")
	c := NewItemCache(0, 0, func(_ context.Context, id string) (*domain.Item, error) {
		calls++
		if id == "nope" {
			return nil, errMissing
		}
		return &domain.Item{ID: id, Name: "Item " + id}, nil
	})

	ctx := context.Background()
	it, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Item a", it.Name)

	_, err = c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "second read should be served from cache")

	_, err = c.Get(ctx, "nope")
	assert.ErrorIs(t, err, errMissing)
	_, _ = c.Get(ctx, "nope")
	assert.Equal(t, 3, calls, "errors are not cached")
	assert.Equal(t, 1, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestItemCache_Expires(t *testing.T) {
	calls := 0
	c := NewItemCache(4, 20*time.Millisecond, func(_ context.Context, id string) (*domain.Item, error) {
		calls++
		return &domain.Item{ID: id}, nil
	})
	ctx := context.Background()
	_, _ = c.Get(ctx, "x")
	time.Sleep(60 * time.Millisecond)
	_, _ = c.Get(ctx, "x")
	assert.Equal(t, 2, calls)
}
