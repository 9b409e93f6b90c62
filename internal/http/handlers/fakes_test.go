package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/bloom-backend/internal/catalog"
	"github.com/tbourn/bloom-backend/internal/domain"
	"github.com/tbourn/bloom-backend/internal/http/middleware"
	"github.com/tbourn/bloom-backend/internal/repo"
	"github.com/tbourn/bloom-backend/internal/services"
)

type fakeConversations struct {
	convs    []domain.Conversation
	msgs     []domain.Message
	count    int64
	ts       *time.Time
	err      error
	lastPage [2]int
	renamed  string
}

func (f *fakeConversations) Create(_ context.Context, userID, title string) (*domain.Conversation, error) {
	if f.err != nil {
		return nil, f.err
	}
	if title == "" {
		title = domain.DefaultConversationTitle
	}
	return &domain.Conversation{ID: "141add05-4415-4938-b5a1-17e0d3171aff", UserID: userID, Title: title}, nil
}

func (f *fakeConversations) ListPage(_ context.Context, _ string, page, pageSize int) ([]domain.Conversation, int64, error) {
	f.lastPage = [2]int{page, pageSize}
	return f.convs, int64(len(f.convs)), f.err
}

func (f *fakeConversations) Stats(context.Context, string) (int64, *time.Time, error) {
	return f.count, f.ts, nil
}

func (f *fakeConversations) UpdateTitle(_ context.Context, _, _, title string) error {
	if f.err != nil {
		return f.err
	}
	f.renamed = title
	return nil
}

func (f *fakeConversations) Messages(context.Context, string, string, int, int) ([]domain.Message, int64, error) {
	return f.msgs, int64(len(f.msgs)), f.err
}

func (f *fakeConversations) MessageStats(context.Context, string, string) (int64, *time.Time, error) {
	return f.count, f.ts, f.err
}

// fakeChat streams chunks, optionally failing before or after them.
type fakeChat struct {
	chunks   []string
	errFirst error
	got      services.TurnInput
	gotUser  string
}

func (f *fakeChat) Turn(_ context.Context, userID string, in services.TurnInput, onDelta func(string) error) (*services.TurnResult, error) {
	f.got, f.gotUser = in, userID
	if f.errFirst != nil {
		return nil, f.errFirst
	}
	var reply string
	for _, c := range f.chunks {
		if err := onDelta(c); err != nil {
			return &services.TurnResult{Reply: reply}, nil
		}
		reply += c
	}
	return &services.TurnResult{Reply: reply, Completed: true}, nil
}

type fakeAccrual struct {
	profile  domain.Profile
	out      *services.CheckInOutcome
	err      error
	activity []domain.ActivityLog
	limit    int
}

func (f *fakeAccrual) Rename(_ context.Context, _, name string) (*domain.Profile, error) {
	f.profile.DisplayName = name
	return f.Profile(context.Background(), "")
}

func (f *fakeAccrual) Activity(_ context.Context, _ string, limit int) ([]domain.ActivityLog, error) {
	f.limit = limit
	return f.activity, f.err
}

func (f *fakeAccrual) Profile(context.Context, string) (*domain.Profile, error) {
	p := f.profile
	return &p, f.err
}

func (f *fakeAccrual) Apply(_ context.Context, _, action string) (*services.CheckInOutcome, error) {
	if action != services.ActionDailyCheckIn {
		return nil, services.ErrUnknownAction
	}
	return f.out, f.err
}

type fakeShop struct {
	items  []services.ShopItem
	res    *services.PurchaseResult
	err    error
	filter repo.ItemFilter
	req    services.PurchaseRequest
}

func (f *fakeShop) Item(_ context.Context, id string) (*domain.Item, error) {
	for _, it := range f.items {
		if it.ID == id {
			item := it.Item
			return &item, nil
		}
	}
	return nil, services.ErrItemNotFound
}

func (f *fakeShop) List(_ context.Context, _ string, flt repo.ItemFilter) ([]services.ShopItem, error) {
	f.filter = flt
	return f.items, f.err
}

func (f *fakeShop) Purchase(_ context.Context, _ string, req services.PurchaseRequest) (*services.PurchaseResult, error) {
	f.req = req
	return f.res, f.err
}

type fakeInventory struct {
	view  *services.InventoryView
	n, ts int64
	q     services.InventoryQuery
}

func (f *fakeInventory) View(_ context.Context, _ string, q services.InventoryQuery) (*services.InventoryView, error) {
	f.q = q
	return f.view, nil
}

func (f *fakeInventory) Stats(context.Context, string) (int64, int64, error) { return f.n, f.ts, nil }

type fakeRoom struct {
	err       error
	sync      services.RoomSync
	wallpaper *string
	placed    [2]string
}

func (f *fakeRoom) Slots() []catalog.Slot { return catalog.Slots() }

func (f *fakeRoom) Get(_ context.Context, userID string) (*services.RoomView, error) {
	return &services.RoomView{UserID: userID, PlacedItems: []services.PlacedItem{}}, f.err
}

func (f *fakeRoom) Place(_ context.Context, _, itemID, slotID string) error {
	f.placed = [2]string{itemID, slotID}
	return f.err
}

func (f *fakeRoom) Remove(context.Context, string, string) error { return f.err }

func (f *fakeRoom) SetWallpaper(_ context.Context, _ string, id *string) error {
	f.wallpaper = id
	return f.err
}

func (f *fakeRoom) Sync(ctx context.Context, userID string, in services.RoomSync) (*services.RoomView, error) {
	f.sync = in
	if f.err != nil {
		return nil, f.err
	}
	return f.Get(ctx, userID)
}

type fakes struct {
	conv *fakeConversations
	chat *fakeChat
	acc  *fakeAccrual
	shop *fakeShop
	inv  *fakeInventory
	room *fakeRoom
}

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// newTestRouter mounts every handler behind header identity auth, the way
// the real router does.
func newTestRouter() (*gin.Engine, *fakes) {
	gin.SetMode(gin.TestMode)
	f := &fakes{
		conv: &fakeConversations{},
		chat: &fakeChat{},
		acc:  &fakeAccrual{},
		shop: &fakeShop{},
		inv:  &fakeInventory{},
		room: &fakeRoom{},
	}
	h := New(Deps{
		Conversations: f.conv,
		Chat:          f.chat,
		Accrual:       f.acc,
		Shop:          f.shop,
		Inventory:     f.inv,
		Room:          f.room,
		Now:           func() time.Time { return fixedNow },
	})

	r := gin.New()
	r.Use(middleware.RequestID())
	api := r.Group("/api/v1", middleware.Auth(middleware.AuthOptions{AllowHeaderIdentity: true}))
	api.POST("/chat", h.Chat)
	api.POST("/conversations", h.CreateConversation)
	api.GET("/conversations", h.ListConversations)
	api.PUT("/conversations/:id/title", h.UpdateConversationTitle)
	api.GET("/conversations/:id/messages", h.ListMessages)
	api.GET("/profile", h.GetProfile)
	api.PUT("/profile/name", h.UpdateProfileName)
	api.GET("/profile/activity", h.ListActivity)
	api.POST("/points", h.PostPoints)
	api.GET("/greeting", h.Greeting)
	api.GET("/shop/items", h.ListShopItems)
	api.GET("/shop/items/:id", h.GetShopItem)
	api.POST("/shop/purchase", h.Purchase)
	api.GET("/inventory", h.GetInventory)
	api.GET("/room", h.GetRoom)
	api.POST("/room", h.SyncRoom)
	api.POST("/room/place", h.PlaceItem)
	api.POST("/room/remove", h.RemoveItem)
	api.POST("/room/wallpaper", h.SetWallpaper)
	api.GET("/room/slots", h.ListSlots)
	api.GET("/prompts/daily", h.DailyPrompt)
	api.GET("/prompts/:mode", h.ModePrompt)
	return r, f
}
