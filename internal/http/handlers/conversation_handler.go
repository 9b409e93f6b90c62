// Conversation HTTP handlers.
//
// This file exposes REST endpoints for conversation resources:
//   - POST   /conversations                 (create)
//   - GET    /conversations                 (list, paginated, ETag support)
//   - PUT    /conversations/{id}/title      (rename)
//   - GET    /conversations/{id}/messages   (list, paginated, ETag support)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/bloom-backend/internal/domain"
	"github.com/tbourn/bloom-backend/internal/http/middleware"
)

// CreateConversationRequest is the JSON payload for creating a conversation.
type CreateConversationRequest struct {
	// Title optionally sets the title; blank keeps it eligible for auto-titling.
	Title string `json:"title" validate:"max=255" example:"Sunday check-in"`
}

// CreateConversationResponse echoes the new conversation.
type CreateConversationResponse struct {
	ConversationID string `json:"conversation_id" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	domain.Conversation
}

// UpdateTitleRequest is the JSON payload for renaming a conversation.
type UpdateTitleRequest struct {
	Title string `json:"title" validate:"required,max=255" example:"Gratitude notes"`
}

// ListConversationsResponse wraps a page of conversations.
type ListConversationsResponse struct {
	Conversations []domain.Conversation `json:"conversations"`
	Pagination    Pagination            `json:"pagination"`
}

// ListMessagesResponse wraps a page of messages, oldest first.
type ListMessagesResponse struct {
	Messages   []domain.Message `json:"messages"`
	Pagination Pagination       `json:"pagination"`
}

// conversationID reads and checks the :id path parameter.
func conversationID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return "", false
	}
	return id, true
}

// CreateConversation godoc
// @ID          createConversation
// @Summary     Create a conversation
// @Description Creates a conversation for the current user. Supports Idempotency-Key replay.
// @Tags        Conversations
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string  false  "Key for safe retries"
// @Param       body             body    handlers.CreateConversationRequest  false  "Create payload"
// @Success     201  {object}  handlers.CreateConversationResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /conversations [post]
func (h *Handlers) CreateConversation(c *gin.Context) {
	var req CreateConversationRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	conv, err := h.conv.Create(c.Request.Context(), middleware.UserID(c), strings.TrimSpace(req.Title))
	if err != nil {
		failErr(c, err, ErrCodeCreateFailed)
		return
	}
	ok(c, http.StatusCreated, CreateConversationResponse{ConversationID: conv.ID, Conversation: *conv})
}

// ListConversations godoc
// @ID          listConversations
// @Summary     List conversations (paginated)
// @Description Returns a page of the user's conversations, most recently active first. Supports weak ETag via If-None-Match.
// @Tags        Conversations
// @Produce     json
// @Security    BearerAuth
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListConversationsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /conversations [get]
func (h *Handlers) ListConversations(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if count, ts, err := h.conv.Stats(ctx, uid); err == nil {
		if notModified(c, weakETag("conversations", uid, page, pageSize, count, ts)) {
			return
		}
	}

	items, total, err := h.conv.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		failErr(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, ListConversationsResponse{
		Conversations: items,
		Pagination:    newPagination(page, pageSize, total),
	})
}

// UpdateConversationTitle godoc
// @ID          updateConversationTitle
// @Summary     Rename a conversation
// @Tags        Conversations
// @Accept      json
// @Security    BearerAuth
// @Param       id    path  string  true  "Conversation ID"  format(uuid)
// @Param       body  body  handlers.UpdateTitleRequest  true  "New title"
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Conversation not found"
// @Router      /conversations/{id}/title [put]
func (h *Handlers) UpdateConversationTitle(c *gin.Context) {
	id, valid := conversationID(c)
	if !valid {
		return
	}
	var req UpdateTitleRequest
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title is required")
		return
	}

	if err := h.conv.UpdateTitle(c.Request.Context(), middleware.UserID(c), id, req.Title); err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	noContent(c)
}

// ListMessages godoc
// @ID          listMessages
// @Summary     List messages of a conversation
// @Description Returns a page of messages in chronological order. Supports weak ETag via If-None-Match.
// @Tags        Conversations
// @Produce     json
// @Security    BearerAuth
// @Param       id             path    string  true   "Conversation ID"  format(uuid)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListMessagesResponse
// @Success     304  {string}  string  "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Conversation not found"
// @Router      /conversations/{id}/messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	id, valid := conversationID(c)
	if !valid {
		return
	}
	uid := middleware.UserID(c)
	page, pageSize := clampPagination(c)

	if count, ts, err := h.conv.MessageStats(ctx, uid, id); err == nil {
		if notModified(c, weakETag("messages", id, page, pageSize, count, ts)) {
			return
		}
	}

	msgs, total, err := h.conv.Messages(ctx, uid, id, page, pageSize)
	if err != nil {
		failErr(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, ListMessagesResponse{
		Messages:   msgs,
		Pagination: newPagination(page, pageSize, total),
	})
}
