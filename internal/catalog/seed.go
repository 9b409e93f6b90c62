package catalog

import "github.com/tbourn/bloom-backend/internal/domain"

type seedItem struct {
	id, name, description string
	category, placement   string
	size                  string
	cost                  int
	rarity                string
	premium               bool
}

var seedItems = []seedItem{
	// Plants
	{"plant_tropical_monstera", "Monstera", "A classic favorite. Adds a tropical touch to any corner.", domain.CategoryPlant, domain.PlacementSurface, "medium", 50, domain.RarityCommon, false},
	{"plant_succulent_baby", "Succulent", "Tiny but resilient. Perfect for your desk.", domain.CategoryPlant, domain.PlacementSurface, "small", 50, domain.RarityCommon, false},
	{"plant_fern_boston", "Boston Fern", "Lush and leafy. Needs a bit of love.", domain.CategoryPlant, domain.PlacementSurface, "medium", 100, domain.RarityUncommon, false},
	{"plant_flower_sunflower", "Sunflower", "Bright and cheerful. Brings sunshine indoors.", domain.CategoryPlant, domain.PlacementSurface, "medium", 150, domain.RarityUncommon, false},
	{"plant_cactus_prickly", "Prickly Cactus", "Low maintenance desert friend.", domain.CategoryPlant, domain.PlacementSurface, "small", 75, domain.RarityCommon, false},
	{"plant_pothos_hanging", "Golden Pothos", "Cascading vines that purify the air.", domain.CategoryPlant, domain.PlacementWindow, "medium", 120, domain.RarityUncommon, false},
	{"plant_bonsai_ancient", "Ancient Bonsai", "A miniature tree with centuries of wisdom.", domain.CategoryPlant, domain.PlacementSurface, "medium", 300, domain.RarityRare, false},
	{"plant_orchid_purple", "Purple Orchid", "Elegant and exotic bloom.", domain.CategoryPlant, domain.PlacementSurface, "small", 200, domain.RarityRare, false},

	// Furniture
	{"furniture_lamp_cozy", "Cozy Lamp", "Warm lighting for late night journaling.", domain.CategoryFurniture, domain.PlacementFloor, "small", 75, domain.RarityCommon, false},
	{"furniture_chair_reading", "Reading Chair", "The perfect spot to curl up with a book.", domain.CategoryFurniture, domain.PlacementFloor, "large", 200, domain.RarityRare, false},
	{"furniture_rug_persian", "Persian Rug", "Ties the room together.", domain.CategoryFurniture, domain.PlacementFloor, "large", 150, domain.RarityUncommon, false},
	{"furniture_bookshelf_oak", "Oak Bookshelf", "Space for all your knowledge.", domain.CategoryFurniture, domain.PlacementFloor, "large", 200, domain.RarityRare, false},
	{"furniture_table_coffee", "Coffee Table", "A cozy spot for your morning tea.", domain.CategoryFurniture, domain.PlacementFloor, "medium", 125, domain.RarityUncommon, false},

	// Accessories
	{"accessory_candle_lavender", "Lavender Candle", "Calming scent for meditation.", domain.CategoryAccessory, domain.PlacementSurface, "small", 40, domain.RarityCommon, false},
	{"accessory_crystals_amethyst", "Amethyst Crystals", "Healing energy for your space.", domain.CategoryAccessory, domain.PlacementSurface, "small", 80, domain.RarityUncommon, false},
	{"accessory_journal_leather", "Leather Journal", "Beautiful journal for your thoughts.", domain.CategoryAccessory, domain.PlacementSurface, "small", 60, domain.RarityCommon, false},
	{"accessory_mug_ceramic", "Ceramic Mug", "For your favorite warm beverage.", domain.CategoryAccessory, domain.PlacementSurface, "small", 35, domain.RarityCommon, false},
	{"accessory_clock_vintage", "Vintage Clock", "Keep track of mindful moments.", domain.CategoryAccessory, domain.PlacementWall, "medium", 100, domain.RarityUncommon, false},

	// Wallpapers
	{"wallpaper_nature_forest", "Forest Scene", "Peaceful forest backdrop.", domain.CategoryWallpaper, domain.PlacementWall, "large", 250, domain.RarityRare, false},
	{"wallpaper_sky_sunset", "Sunset Sky", "Golden hour every hour.", domain.CategoryWallpaper, domain.PlacementWall, "large", 200, domain.RarityUncommon, false},
	{"wallpaper_ocean_waves", "Ocean Waves", "Calming ocean view.", domain.CategoryWallpaper, domain.PlacementWall, "large", 200, domain.RarityUncommon, false},
	{"wallpaper_stars_galaxy", "Galaxy Stars", "A window to the cosmos.", domain.CategoryWallpaper, domain.PlacementWall, "large", 350, domain.RarityLegendary, true},
}

// SeedItems returns the shop catalog shipped with the service. The sprite id
// doubles as the item's primary key so reseeding is an idempotent upsert.
func SeedItems() []domain.Item {
	out := make([]domain.Item, 0, len(seedItems))
	for _, s := range seedItems {
		placement := s.placement
		out = append(out, domain.Item{
			ID:            s.id,
			Name:          s.name,
			Description:   s.description,
			Category:      s.category,
			PlacementType: &placement,
			Size:          s.size,
			PointCost:     s.cost,
			Rarity:        s.rarity,
			SpriteID:      s.id,
			IsPremiumOnly: s.premium,
			IsActive:      true,
		})
	}
	return out
}
