// Package services defines the business logic for conversations, the chat
// turn, the shop, the room and gamification accrual. This file centralizes
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer.
package services

import "errors"

// Validation errors.
var (
	// ErrEmptyMessages is returned when a chat turn carries no messages.
	ErrEmptyMessages = errors.New("messages are empty")

	// ErrLastNotUser is returned when the final message of a chat turn was not
	// authored by the user.
	ErrLastNotUser = errors.New("last message must be from the user")

	// ErrEmptyPrompt is returned when the user message is blank.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrTooLong is returned when the user message exceeds the configured
	// maximum length.
	ErrTooLong = errors.New("prompt too long")

	// ErrUnknownAction is returned for an unsupported points action.
	ErrUnknownAction = errors.New("unknown action")

	// ErrInvalidRoom is returned when a room sync lists the same slot or the
	// same item twice.
	ErrInvalidRoom = errors.New("room layout is invalid")
)

// Lookup errors.
var (
	// ErrConversationNotFound indicates that the conversation does not exist
	// or is not owned by the caller.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrItemNotFound indicates an unknown or inactive catalog item.
	ErrItemNotFound = errors.New("item not found")

	// ErrSlotNotFound indicates an unknown placement slot.
	ErrSlotNotFound = errors.New("slot not found")
)

// Domain-rule violations.
var (
	ErrAlreadyOwned       = errors.New("item already owned")
	ErrPriceMismatch      = errors.New("price has changed")
	ErrPremiumRequired    = errors.New("premium membership required")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrNotOwned           = errors.New("item not owned")
	ErrIncompatibleSlot   = errors.New("item cannot be placed in this slot")
	ErrSlotOccupied       = errors.New("slot is occupied")
	ErrAlreadyPlaced      = errors.New("item is already placed")
	ErrNotPlaced          = errors.New("item is not placed")
	ErrNotWallpaper       = errors.New("item is not a wallpaper")
)

// Dependency errors.
var (
	// ErrModelUnavailable wraps a generative model failure that happened
	// before any reply text was produced.
	ErrModelUnavailable = errors.New("companion is unavailable")

	// ErrBusy is returned when a conditional update kept losing to
	// concurrent writers.
	ErrBusy = errors.New("concurrent update, try again")
)
