// Chat turn HTTP handler.
//
// POST /chat streams the companion's reply as plain text. Each chunk is
// flushed as soon as the model produces it, so the client renders the reply
// while it is being written. Errors raised before the first chunk are JSON
// envelopes; once bytes are on the wire the stream simply ends.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/bloom-backend/internal/http/middleware"
	"github.com/tbourn/bloom-backend/internal/services"
)

// ChatRequest is one chat turn. The last message is the new user prompt.
type ChatRequest struct {
	Messages       []services.ChatMessage `json:"messages"        validate:"required,min=1,max=200,dive"`
	ConversationID string                 `json:"conversation_id" validate:"omitempty,uuid"`
}

// Chat godoc
// @ID          chat
// @Summary     Stream a chat turn
// @Description Streams the companion's reply as chunked text/plain. The exchange is stored when conversation_id is set, and a completed turn earns XP and the daily check-in.
// @Tags        Chat
// @Accept      json
// @Produce     plain
// @Security    BearerAuth
// @Param       body  body  handlers.ChatRequest  true  "Transcript ending with the user's message"
// @Success     200  {string}  string  "Reply text, streamed"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Conversation not found"
// @Failure     502  {object}  handlers.ErrorResponse  "Model unavailable"
// @Router      /chat [post]
func (h *Handlers) Chat(c *gin.Context) {
	var req ChatRequest
	if !bindJSON(c, &req) {
		return
	}

	started := false
	begin := func() {
		if started {
			return
		}
		started = true
		hdr := c.Writer.Header()
		hdr.Set("Content-Type", "text/plain; charset=utf-8")
		hdr.Set("Cache-Control", "no-cache")
		hdr.Set("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)
		c.Writer.WriteHeaderNow()
	}
	onDelta := func(chunk string) error {
		begin()
		if _, err := c.Writer.WriteString(chunk); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	}

	res, err := h.chat.Turn(c.Request.Context(), middleware.UserID(c), services.TurnInput{
		Messages:       req.Messages,
		ConversationID: req.ConversationID,
	}, onDelta)
	if err != nil {
		if started {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("chat turn failed mid-stream")
			return
		}
		failErr(c, err, ErrCodeInternal)
		return
	}

	// An empty reply still answers 200 with an empty body.
	begin()
	if res != nil && !res.Completed {
		middleware.LoggerFrom(c).Debug().Int("bytes", len(res.Reply)).Msg("chat stream ended early")
	}
}
