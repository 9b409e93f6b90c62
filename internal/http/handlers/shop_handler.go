// Shop and inventory HTTP handlers.
//
//   - GET  /shop/items     (catalog with ownership flags)
//   - POST /shop/purchase  (atomic, price-verified, Idempotency-Key replay)
//   - GET  /inventory      (owned items, counts, grouping, ETag support)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/bloom-backend/internal/http/middleware"
	"github.com/tbourn/bloom-backend/internal/repo"
	"github.com/tbourn/bloom-backend/internal/services"
)

// ShopQuery is the query string of GET /shop/items.
type ShopQuery struct {
	Category string `form:"category" validate:"omitempty,oneof=plant furniture wallpaper accessory"`
	Sort     string `form:"sort"     validate:"omitempty,oneof=price_asc price_desc rarity name"`
}

// ShopItemsResponse lists catalog items.
type ShopItemsResponse struct {
	Items []services.ShopItem `json:"items"`
}

// PurchaseRequest buys one item. ExpectedCost guards against a price change
// since the client last listed the shop.
type PurchaseRequest struct {
	ItemID       string `json:"item_id"       validate:"required,max=64" example:"plant-basil"`
	ExpectedCost *int   `json:"expected_cost" validate:"omitempty,min=0" example:"150"`
}

// InventoryQuery is the query string of GET /inventory.
type InventoryQuery struct {
	Filter   string `form:"filter"   validate:"omitempty,oneof=all available placed"`
	Category string `form:"category" validate:"omitempty,oneof=plant furniture wallpaper accessory"`
	Format   string `form:"format"   validate:"omitempty,oneof=full ids"`
}

// InventoryIDsResponse is the compact inventory shape.
type InventoryIDsResponse struct {
	ItemIDs []string `json:"item_ids"`
}

func bindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid query")
		return false
	}
	return validStruct(c, dst)
}

// ListShopItems godoc
// @ID          listShopItems
// @Summary     List shop items
// @Description Active catalog items, each flagged with whether the caller owns it.
// @Tags        Shop
// @Produce     json
// @Security    BearerAuth
// @Param       category  query  string  false  "Item category"  Enums(plant, furniture, wallpaper, accessory)
// @Param       sort      query  string  false  "Sort order"     Enums(price_asc, price_desc, rarity, name)
// @Success     200  {object}  handlers.ShopItemsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /shop/items [get]
func (h *Handlers) ListShopItems(c *gin.Context) {
	var q ShopQuery
	if !bindQuery(c, &q) {
		return
	}
	items, err := h.shop.List(c.Request.Context(), middleware.UserID(c), repo.ItemFilter{Category: q.Category, Sort: q.Sort})
	if err != nil {
		failErr(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, ShopItemsResponse{Items: items})
}

// GetShopItem godoc
// @ID          getShopItem
// @Summary     Get one shop item
// @Tags        Shop
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  string  true  "Item ID"
// @Success     200  {object}  domain.Item
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown or inactive item"
// @Router      /shop/items/{id} [get]
func (h *Handlers) GetShopItem(c *gin.Context) {
	it, err := h.shop.Item(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, it)
}

// Purchase godoc
// @ID          purchase
// @Summary     Buy an item
// @Description Debits points and grants the item in one transaction. Failures return the purchase result with detail fields. Supports Idempotency-Key replay.
// @Tags        Shop
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string  false  "Key for safe retries"
// @Param       body  body  handlers.PurchaseRequest  true  "Item to buy"
// @Success     200  {object}  services.PurchaseResult
// @Failure     403  {object}  services.PurchaseResult  "Premium required"
// @Failure     404  {object}  services.PurchaseResult  "Unknown item"
// @Failure     409  {object}  services.PurchaseResult  "Already owned or price changed"
// @Failure     422  {object}  services.PurchaseResult  "Insufficient points"
// @Router      /shop/purchase [post]
func (h *Handlers) Purchase(c *gin.Context) {
	var req PurchaseRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.shop.Purchase(c.Request.Context(), middleware.UserID(c), services.PurchaseRequest{
		ItemID:       req.ItemID,
		ExpectedCost: req.ExpectedCost,
	})
	if err != nil {
		status, _ := classify(err, ErrCodeInternal)
		if status >= http.StatusInternalServerError || res == nil {
			failErr(c, err, ErrCodeInternal)
			return
		}
		ok(c, status, res)
		return
	}
	ok(c, http.StatusOK, res)
}

// GetInventory godoc
// @ID          getInventory
// @Summary     Owned items
// @Description Owned items with compatible slots, whole-inventory counts and grouping by category. format=ids returns only item ids. Supports weak ETag via If-None-Match.
// @Tags        Shop
// @Produce     json
// @Security    BearerAuth
// @Param       filter    query  string  false  "Placement filter"  Enums(all, available, placed)
// @Param       category  query  string  false  "Item category"
// @Param       format    query  string  false  "Response shape"    Enums(full, ids)
// @Success     200  {object}  services.InventoryView
// @Success     304  {string}  string  "Not Modified"
// @Router      /inventory [get]
func (h *Handlers) GetInventory(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)
	var q InventoryQuery
	if !bindQuery(c, &q) {
		return
	}

	if n, ts, err := h.inv.Stats(ctx, uid); err == nil {
		if notModified(c, weakETag("inventory", uid, q.Filter, q.Category, q.Format, n, ts)) {
			return
		}
	}

	view, err := h.inv.View(ctx, uid, services.InventoryQuery{Filter: q.Filter, Category: q.Category})
	if err != nil {
		failErr(c, err, ErrCodeListFailed)
		return
	}
	if q.Format == "ids" {
		ok(c, http.StatusOK, InventoryIDsResponse{ItemIDs: view.IDs()})
		return
	}
	ok(c, http.StatusOK, view)
}
