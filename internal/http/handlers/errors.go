// Package handlers maps the Bloom API onto the service layer.
//
// This file holds the stable error codes of the ErrorResponse envelope and
// the table that turns service sentinels into an HTTP status and code.
// Clients branch on Code, never on Message.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "slot_occupied",
//	  "message": "slot is occupied"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/tbourn/bloom-backend/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Conversations and chat.
	ErrCodeCreateFailed     = "create_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodeModelUnavailable = "model_unavailable"
	ErrCodeBusy             = "busy"

	// Shop and room.
	ErrCodeItemNotFound       = "item_not_found"
	ErrCodeSlotNotFound       = "slot_not_found"
	ErrCodeAlreadyOwned       = "already_owned"
	ErrCodePriceMismatch      = "price_mismatch"
	ErrCodePremiumRequired    = "premium_required"
	ErrCodeInsufficientPoints = "insufficient_points"
	ErrCodeNotOwned           = "not_owned"
	ErrCodeIncompatibleSlot   = "incompatible_slot"
	ErrCodeSlotOccupied       = "slot_occupied"
	ErrCodeAlreadyPlaced      = "already_placed"
	ErrCodeNotPlaced          = "not_placed"
	ErrCodeNotWallpaper       = "not_wallpaper"
	ErrCodeInvalidRoom        = "invalid_room"
)

type errMapping struct {
	err    error
	status int
	code   string
}

// serviceErrors is checked in order with errors.Is.
var serviceErrors = []errMapping{
	{services.ErrEmptyMessages, http.StatusBadRequest, ErrCodeBadRequest},
	{services.ErrLastNotUser, http.StatusBadRequest, ErrCodeBadRequest},
	{services.ErrEmptyPrompt, http.StatusBadRequest, ErrCodeBadRequest},
	{services.ErrTooLong, http.StatusBadRequest, ErrCodeBadRequest},
	{services.ErrUnknownAction, http.StatusBadRequest, ErrCodeBadRequest},
	{services.ErrInvalidRoom, http.StatusBadRequest, ErrCodeInvalidRoom},

	{services.ErrConversationNotFound, http.StatusNotFound, ErrCodeNotFound},
	{services.ErrItemNotFound, http.StatusNotFound, ErrCodeItemNotFound},
	{services.ErrSlotNotFound, http.StatusNotFound, ErrCodeSlotNotFound},
	{services.ErrNotOwned, http.StatusNotFound, ErrCodeNotOwned},

	{services.ErrPremiumRequired, http.StatusForbidden, ErrCodePremiumRequired},

	{services.ErrAlreadyOwned, http.StatusConflict, ErrCodeAlreadyOwned},
	{services.ErrPriceMismatch, http.StatusConflict, ErrCodePriceMismatch},
	{services.ErrSlotOccupied, http.StatusConflict, ErrCodeSlotOccupied},
	{services.ErrAlreadyPlaced, http.StatusConflict, ErrCodeAlreadyPlaced},
	{services.ErrNotPlaced, http.StatusConflict, ErrCodeNotPlaced},
	{services.ErrBusy, http.StatusConflict, ErrCodeBusy},

	{services.ErrInsufficientPoints, http.StatusUnprocessableEntity, ErrCodeInsufficientPoints},
	{services.ErrIncompatibleSlot, http.StatusUnprocessableEntity, ErrCodeIncompatibleSlot},
	{services.ErrNotWallpaper, http.StatusUnprocessableEntity, ErrCodeNotWallpaper},

	{services.ErrModelUnavailable, http.StatusBadGateway, ErrCodeModelUnavailable},
}

// classify returns the status and code for err. Unknown errors are a 500
// with the fallback code.
func classify(err error, fallback string) (int, string) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, fallback
}
