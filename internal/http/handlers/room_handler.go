// Room HTTP handlers.
//
//   - GET  /room            (wallpaper and placed items resolved)
//   - POST /room            (atomic sync of placements and wallpaper)
//   - POST /room/place      (one item into one slot)
//   - POST /room/remove     (take an item out of the room)
//   - POST /room/wallpaper  (set or clear the wallpaper)
//   - GET  /room/slots      (static slot map)
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/bloom-backend/internal/catalog"
	"github.com/tbourn/bloom-backend/internal/http/middleware"
	"github.com/tbourn/bloom-backend/internal/services"
)

// PlaceRequest puts an owned item into a slot.
type PlaceRequest struct {
	ItemID string `json:"item_id" validate:"required,max=64" example:"plant-basil"`
	SlotID string `json:"slot_id" validate:"required,max=32" example:"SHELF-T"`
}

// RemoveRequest takes an item out of the room.
type RemoveRequest struct {
	ItemID string `json:"item_id" validate:"required,max=64" example:"plant-basil"`
}

// WallpaperRequest sets the wallpaper. A null or missing id clears it.
type WallpaperRequest struct {
	WallpaperID *string `json:"wallpaper_id" validate:"omitempty,max=64" example:"wallpaper-sage"`
}

// RoomSyncRequest replaces the room. placed_items, when present, is the
// complete placed set; wallpaper_id, when present, is applied (null clears).
type RoomSyncRequest struct {
	PlacedItems *[]services.Placement `json:"placed_items" validate:"omitempty,max=16,dive"`
	WallpaperID json.RawMessage       `json:"wallpaper_id" swaggertype:"string"`
}

// SuccessResponse acknowledges a room change.
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}

// SlotsResponse is the static slot map.
type SlotsResponse struct {
	Slots []catalog.Slot `json:"slots"`
}

// GetRoom godoc
// @ID          getRoom
// @Summary     Current room
// @Tags        Room
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  services.RoomView
// @Router      /room [get]
func (h *Handlers) GetRoom(c *gin.Context) {
	v, err := h.room.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, v)
}

// SyncRoom godoc
// @ID          syncRoom
// @Summary     Replace the room
// @Description Applies placements and wallpaper in one transaction. Nothing changes when any part is rejected.
// @Tags        Room
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.RoomSyncRequest  true  "Room snapshot"
// @Success     200  {object}  services.RoomView
// @Failure     400  {object}  handlers.ErrorResponse  "Duplicate slot or item"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown slot or item not owned"
// @Failure     409  {object}  handlers.ErrorResponse  "Slot occupied"
// @Failure     422  {object}  handlers.ErrorResponse  "Incompatible slot or not a wallpaper"
// @Router      /room [post]
func (h *Handlers) SyncRoom(c *gin.Context) {
	var req RoomSyncRequest
	if !bindJSON(c, &req) {
		return
	}
	in := services.RoomSync{Placements: req.PlacedItems}
	if len(req.WallpaperID) > 0 {
		in.SetWallpaper = true
		if !bytes.Equal(bytes.TrimSpace(req.WallpaperID), []byte("null")) {
			var id string
			if err := json.Unmarshal(req.WallpaperID, &id); err != nil {
				fail(c, http.StatusBadRequest, ErrCodeBadRequest, "wallpaper_id must be a string or null")
				return
			}
			in.Wallpaper = &id
		}
	}

	v, err := h.room.Sync(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, v)
}

// PlaceItem godoc
// @ID          placeItem
// @Summary     Place an item
// @Tags        Room
// @Accept      json
// @Security    BearerAuth
// @Param       body  body  handlers.PlaceRequest  true  "Item and slot"
// @Produce     json
// @Success     200  {object}  handlers.SuccessResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown slot or item not owned"
// @Failure     409  {object}  handlers.ErrorResponse  "Slot occupied or item already placed"
// @Failure     422  {object}  handlers.ErrorResponse  "Incompatible slot"
// @Router      /room/place [post]
func (h *Handlers) PlaceItem(c *gin.Context) {
	var req PlaceRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.room.Place(c.Request.Context(), middleware.UserID(c), req.ItemID, req.SlotID); err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, SuccessResponse{Success: true})
}

// RemoveItem godoc
// @ID          removeItem
// @Summary     Remove an item from the room
// @Tags        Room
// @Accept      json
// @Security    BearerAuth
// @Param       body  body  handlers.RemoveRequest  true  "Item"
// @Produce     json
// @Success     200  {object}  handlers.SuccessResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Item not owned"
// @Failure     409  {object}  handlers.ErrorResponse  "Item not placed"
// @Router      /room/remove [post]
func (h *Handlers) RemoveItem(c *gin.Context) {
	var req RemoveRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.room.Remove(c.Request.Context(), middleware.UserID(c), req.ItemID); err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, SuccessResponse{Success: true})
}

// SetWallpaper godoc
// @ID          setWallpaper
// @Summary     Set or clear the wallpaper
// @Tags        Room
// @Accept      json
// @Security    BearerAuth
// @Param       body  body  handlers.WallpaperRequest  true  "Wallpaper id or null"
// @Produce     json
// @Success     200  {object}  handlers.SuccessResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Item not owned"
// @Failure     422  {object}  handlers.ErrorResponse  "Not a wallpaper"
// @Router      /room/wallpaper [post]
func (h *Handlers) SetWallpaper(c *gin.Context) {
	var req WallpaperRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.room.SetWallpaper(c.Request.Context(), middleware.UserID(c), req.WallpaperID); err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, SuccessResponse{Success: true})
}

// ListSlots godoc
// @ID          listSlots
// @Summary     Slot map
// @Tags        Room
// @Produce     json
// @Security    BearerAuth
// @Param       category  query  string  false  "Slot category"  Enums(wall, surface, floor, window, avatar-adjacent)
// @Success     200  {object}  handlers.SlotsResponse
// @Router      /room/slots [get]
func (h *Handlers) ListSlots(c *gin.Context) {
	if cat := c.Query("category"); cat != "" {
		slots := catalog.SlotsByCategory(cat)
		if slots == nil {
			slots = []catalog.Slot{}
		}
		ok(c, http.StatusOK, SlotsResponse{Slots: slots})
		return
	}
	ok(c, http.StatusOK, SlotsResponse{Slots: h.room.Slots()})
}
