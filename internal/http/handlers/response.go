package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/bloom-backend/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"resource not found"`
}

// fail aborts the request with the error envelope. 5xx responses are
// logged with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	reqID := middleware.RequestIDFrom(c)
	if reqID == "" {
		reqID = c.Writer.Header().Get("X-Request-ID")
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, ErrorResponse{RequestID: reqID, Code: code, Message: msg})
}

// Fail is the exported variant of fail for the router.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr classifies a service error. Known sentinels surface their own
// message; anything else is logged and hidden behind a generic one.
func failErr(c *gin.Context, err error, fallback string) {
	status, code := classify(err, fallback)
	msg := err.Error()
	if status >= http.StatusInternalServerError && code == fallback {
		middleware.LoggerFrom(c).Error().Err(err).Msg("service error")
		msg = "internal error"
	}
	fail(c, status, code, msg)
}

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// weakETag formats W/"kind:part:part:...". A *time.Time part renders as
// Unix nanoseconds, nil as 0.
func weakETag(kind string, parts ...any) string {
	var b strings.Builder
	b.WriteString(`W/"`)
	b.WriteString(kind)
	for _, p := range parts {
		b.WriteByte(':')
		switch v := p.(type) {
		case *time.Time:
			if v == nil {
				b.WriteByte('0')
			} else {
				fmt.Fprintf(&b, "%d", v.UnixNano())
			}
		default:
			fmt.Fprint(&b, v)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// notModified sets ETag and answers 304 when If-None-Match matches.
func notModified(c *gin.Context, etag string) bool {
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}
