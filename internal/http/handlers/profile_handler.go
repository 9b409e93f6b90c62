package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/bloom-backend/internal/accrual"
	"github.com/tbourn/bloom-backend/internal/companion"
	"github.com/tbourn/bloom-backend/internal/domain"
	"github.com/tbourn/bloom-backend/internal/http/middleware"
	"github.com/tbourn/bloom-backend/internal/utils"
)

// ProfileResponse is the stored profile plus the derived level.
type ProfileResponse struct {
	domain.Profile
	Level int `json:"level" example:"3"`
}

// PointsRequest names a points action.
type PointsRequest struct {
	Action string `json:"action" validate:"required,oneof=daily_checkin" example:"daily_checkin"`
}

// PointsResponse reports a check-in. Added is 0 when today was already claimed.
type PointsResponse struct {
	Message string `json:"message" example:"Daily check-in complete"`
	Points  int    `json:"points"  example:"160"`
	Streak  int    `json:"streak"  example:"2"`
	Added   int    `json:"added"   example:"70"`
}

// RenameRequest sets the display name used by the companion.
type RenameRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=120" example:"Robin"`
}

// ActivityResponse lists recent activity-log rows, newest first.
type ActivityResponse struct {
	Activity []domain.ActivityLog `json:"activity"`
}

// GreetingResponse is the companion's opening line.
type GreetingResponse struct {
	Message string `json:"message" example:"Good morning! How did you sleep?"`
}

// GetProfile godoc
// @ID          getProfile
// @Summary     Current user's profile
// @Description Returns points, streaks, XP and the derived level. A profile is created on first access.
// @Tags        Profile
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.ProfileResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /profile [get]
func (h *Handlers) GetProfile(c *gin.Context) {
	p, err := h.acc.Profile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, ProfileResponse{Profile: *p, Level: p.Level()})
}

// UpdateProfileName godoc
// @ID          updateProfileName
// @Summary     Set the display name
// @Tags        Profile
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.RenameRequest  true  "New name"
// @Success     200  {object}  handlers.ProfileResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation error"
// @Router      /profile/name [put]
func (h *Handlers) UpdateProfileName(c *gin.Context) {
	var req RenameRequest
	if !bindJSON(c, &req) {
		return
	}
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "display_name must not be blank")
		return
	}
	p, err := h.acc.Rename(c.Request.Context(), middleware.UserID(c), name)
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, ProfileResponse{Profile: *p, Level: p.Level()})
}

// ListActivity godoc
// @ID          listActivity
// @Summary     Recent points and XP activity
// @Tags        Profile
// @Produce     json
// @Security    BearerAuth
// @Param       limit  query  int  false  "Rows to return"  minimum(1)  maximum(100)  default(20)
// @Success     200  {object}  handlers.ActivityResponse
// @Router      /profile/activity [get]
func (h *Handlers) ListActivity(c *gin.Context) {
	limit := utils.Clamp(utils.AtoiDefault(c.Query("limit"), 20), 1, 100)
	rows, err := h.acc.Activity(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		failErr(c, err, ErrCodeListFailed)
		return
	}
	if rows == nil {
		rows = []domain.ActivityLog{}
	}
	ok(c, http.StatusOK, ActivityResponse{Activity: rows})
}

// PostPoints godoc
// @ID          postPoints
// @Summary     Apply a points action
// @Description Runs the daily check-in. A second call on the same UTC day awards nothing. Supports Idempotency-Key replay.
// @Tags        Profile
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string  false  "Key for safe retries"
// @Param       body  body  handlers.PointsRequest  true  "Action"
// @Success     200  {object}  handlers.PointsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown action"
// @Failure     409  {object}  handlers.ErrorResponse  "Concurrent update"
// @Router      /points [post]
func (h *Handlers) PostPoints(c *gin.Context) {
	var req PointsRequest
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.acc.Apply(c.Request.Context(), middleware.UserID(c), req.Action)
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}

	msg := "Daily check-in complete"
	if out.AlreadyClaimed {
		msg = "Already checked in today"
	}
	ok(c, http.StatusOK, PointsResponse{
		Message: msg,
		Points:  out.Profile.CurrentPoints,
		Streak:  out.Streak,
		Added:   out.Awarded,
	})
}

// Greeting godoc
// @ID          greeting
// @Summary     Opening line
// @Description Returns a time-of-day greeting, or a welcome back after more than a day away.
// @Tags        Companion
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.GreetingResponse
// @Router      /greeting [get]
func (h *Handlers) Greeting(c *gin.Context) {
	now := h.clock()
	away := -1
	if p, err := h.acc.Profile(c.Request.Context(), middleware.UserID(c)); err == nil {
		away = accrual.DaysSince(p.LastActiveDate, now)
	}
	ok(c, http.StatusOK, GreetingResponse{Message: companion.Greeting(now, away, nil)})
}
