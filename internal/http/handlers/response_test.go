package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/bloom-backend/internal/services"
)

func Test_fail_500_LogsAndBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	r.Use(func(c *gin.Context) {
		c.Set("requestID", "rid-500")
		c.Set("logger", &logger)
		c.Next()
	})
	r.GET("/boom", func(c *gin.Context) {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "kaboom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.RequestID != "rid-500" || resp.Code != ErrCodeInternal || resp.Message != "kaboom" {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("5xx not logged: %s", buf.String())
	}
}

func Test_fail_4xx_NotLogged(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	r.Use(func(c *gin.Context) { c.Set("logger", &logger) })
	r.GET("/nf", func(c *gin.Context) { Fail(c, http.StatusNotFound, ErrCodeNotFound, "nope") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nf", nil))
	if w.Code != http.StatusNotFound || buf.Len() != 0 {
		t.Fatalf("code=%d log=%q", w.Code, buf.String())
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrTooLong, http.StatusBadRequest, ErrCodeBadRequest},
		{services.ErrConversationNotFound, http.StatusNotFound, ErrCodeNotFound},
		{services.ErrNotOwned, http.StatusNotFound, ErrCodeNotOwned},
		{services.ErrPremiumRequired, http.StatusForbidden, ErrCodePremiumRequired},
		{services.ErrSlotOccupied, http.StatusConflict, ErrCodeSlotOccupied},
		{services.ErrInsufficientPoints, http.StatusUnprocessableEntity, ErrCodeInsufficientPoints},
		{services.ErrIncompatibleSlot, http.StatusUnprocessableEntity, ErrCodeIncompatibleSlot},
		{fmt.Errorf("%w: upstream 503", services.ErrModelUnavailable), http.StatusBadGateway, ErrCodeModelUnavailable},
		{errors.New("disk on fire"), http.StatusInternalServerError, "fallback"},
	}
	for _, tc := range cases {
		status, code := classify(tc.err, "fallback")
		if status != tc.status || code != tc.code {
			t.Fatalf("classify(%v) = %d %s; want %d %s", tc.err, status, code, tc.status, tc.code)
		}
	}
}

func TestFailErr_HidesUnknownErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", func(c *gin.Context) { failErr(c, errors.New("pq: password leaked"), ErrCodeInternal) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if strings.Contains(w.Body.String(), "leaked") {
		t.Fatalf("internal error text exposed: %s", w.Body.String())
	}
}

func TestWeakETag(t *testing.T) {
	ts := time.Unix(0, 42)
	var none *time.Time
	if got := weakETag("inv", "u1", 3, &ts); got != `W/"inv:u1:3:42"` {
		t.Fatalf("got %s", got)
	}
	if got := weakETag("inv", "u1", none); got != `W/"inv:u1:0"` {
		t.Fatalf("got %s", got)
	}
}
