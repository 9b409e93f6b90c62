package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/tbourn/bloom-backend/internal/catalog"
	"github.com/tbourn/bloom-backend/internal/domain"
	"github.com/tbourn/bloom-backend/internal/repo"
	"github.com/tbourn/bloom-backend/internal/services"
	"github.com/tbourn/bloom-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ConversationService lists, creates and renames conversations.
type ConversationService interface {
	Create(ctx context.Context, userID, title string) (*domain.Conversation, error)
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Conversation, int64, error)
	Stats(ctx context.Context, userID string) (int64, *time.Time, error)
	UpdateTitle(ctx context.Context, userID, conversationID, title string) error
	Messages(ctx context.Context, userID, conversationID string, page, pageSize int) ([]domain.Message, int64, error)
	MessageStats(ctx context.Context, userID, conversationID string) (int64, *time.Time, error)
}

// ChatService runs one streamed chat turn. onDelta is called for every
// chunk of reply text in order.
type ChatService interface {
	Turn(ctx context.Context, userID string, in services.TurnInput, onDelta func(string) error) (*services.TurnResult, error)
}

// AccrualService reads profiles and applies points actions.
type AccrualService interface {
	Profile(ctx context.Context, userID string) (*domain.Profile, error)
	Rename(ctx context.Context, userID, name string) (*domain.Profile, error)
	Activity(ctx context.Context, userID string, limit int) ([]domain.ActivityLog, error)
	Apply(ctx context.Context, userID, action string) (*services.CheckInOutcome, error)
}

// ShopService lists and sells catalog items.
type ShopService interface {
	Item(ctx context.Context, id string) (*domain.Item, error)
	List(ctx context.Context, userID string, f repo.ItemFilter) ([]services.ShopItem, error)
	Purchase(ctx context.Context, userID string, req services.PurchaseRequest) (*services.PurchaseResult, error)
}

// InventoryService reads owned items.
type InventoryService interface {
	View(ctx context.Context, userID string, q services.InventoryQuery) (*services.InventoryView, error)
	Stats(ctx context.Context, userID string) (int64, int64, error)
}

// RoomService reads and edits the user's room.
type RoomService interface {
	Slots() []catalog.Slot
	Get(ctx context.Context, userID string) (*services.RoomView, error)
	Place(ctx context.Context, userID, itemID, slotID string) error
	Remove(ctx context.Context, userID, itemID string) error
	SetWallpaper(ctx context.Context, userID string, id *string) error
	Sync(ctx context.Context, userID string, in services.RoomSync) (*services.RoomView, error)
}

//
// Handler wiring
//

// Deps are the services behind the handlers. Now defaults to time.Now.
type Deps struct {
	Conversations ConversationService
	Chat          ChatService
	Accrual       AccrualService
	Shop          ShopService
	Inventory     InventoryService
	Room          RoomService
	Now           func() time.Time
}

// Handlers groups the HTTP endpoints of the API.
type Handlers struct {
	conv  ConversationService
	chat  ChatService
	acc   AccrualService
	shop  ShopService
	inv   InventoryService
	room  RoomService
	clock func() time.Time
}

// New constructs Handlers bound to d.
func New(d Deps) *Handlers {
	clock := d.Now
	if clock == nil {
		clock = time.Now
	}
	return &Handlers{
		conv:  d.Conversations,
		chat:  d.Chat,
		acc:   d.Accrual,
		shop:  d.Shop,
		inv:   d.Inventory,
		room:  d.Room,
		clock: clock,
	}
}

//
// DTO plumbing
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPageSize = 20
		maxPageSize     = 100
	)
	return utils.Page(c.Query("page"), c.Query("page_size"), defaultPageSize, maxPageSize)
}

// validate checks the `validate` tags of request DTOs.
var validate = validator.New(validator.WithRequiredStructEnabled())

// bindJSON decodes the body into dst and validates it. It writes the 400
// itself and reports whether the handler may continue.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return false
	}
	return validStruct(c, dst)
}

func validStruct(c *gin.Context, v any) bool {
	err := validate.Struct(v)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, describe(verrs[0]))
		return false
	}
	fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request")
	return false
}

// describe renders the first failed rule as "field: rule".
func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return field + " must be one of: " + fe.Param()
	case "max":
		return field + " is too long (max " + fe.Param() + ")"
	case "min":
		return field + " is too short (min " + fe.Param() + ")"
	}
	return field + " is invalid"
}
