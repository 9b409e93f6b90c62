package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/bloom-backend/internal/companion"
)

// DailyPrompt godoc
// @ID          dailyPrompt
// @Summary     Today's journal prompt
// @Description Rotates by time of day (weekend, morning, afternoon, evening) and day of month.
// @Tags        Prompts
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  companion.JournalPrompt
// @Router      /prompts/daily [get]
func (h *Handlers) DailyPrompt(c *gin.Context) {
	ok(c, http.StatusOK, companion.DailyPrompt(h.clock()))
}

// ModePrompt godoc
// @ID          modePrompt
// @Summary     Journal prompt for a mode
// @Tags        Prompts
// @Produce     json
// @Security    BearerAuth
// @Param       mode  path  string  true  "Journal mode"  Enums(check-in, gratitude, goals, mood)
// @Success     200  {object}  companion.JournalPrompt
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown mode"
// @Router      /prompts/{mode} [get]
func (h *Handlers) ModePrompt(c *gin.Context) {
	p, found := companion.ModePrompt(c.Param("mode"), nil)
	if !found {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "unknown prompt mode; want one of "+strings.Join(companion.Modes(), ", "))
		return
	}
	ok(c, http.StatusOK, p)
}
