package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRedact(t *testing.T) {
	cases := map[string]string{
		"":                                        "",
		"mail me at jo@example.com":               "mail me at [REDACTED:email]",
		"call 555 123 4567 now":                   "call [REDACTED:phone] now",
		"id=3f2b6a1c-9d4e-4b2a-8c1d-0a1b2c3d4e5f": "id=[REDACTED:id]",
		"limit=20":                                "limit=20",
	}
	for in, want := range cases {
		if got := redact(in); got != want {
			t.Fatalf("redact(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestRedactingLogger_MasksAndLevels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID(), RedactingLogger(RedactOptions{MaskHeaders: []string{"X-User-ID"}}))
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "hi") })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/fail", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	req := httptest.NewRequest(http.MethodGet, "/ok?email=jo@example.com", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	req.Header.Set("X-User-ID", "user-42")
	r.ServeHTTP(httptest.NewRecorder(), req)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))

	out := buf.String()
	for _, leaked := range []string{"secret-token", "user-42", "jo@example.com"} {
		if strings.Contains(out, leaked) {
			t.Fatalf("log leaked %q: %s", leaked, out)
		}
	}

	lines := logLines(t, buf)
	if len(lines) != 3 {
		t.Fatalf("want 3 access lines, got %d", len(lines))
	}
	wantLevels := []string{"info", "warn", "error"}
	for i, l := range lines {
		if l["level"] != wantLevels[i] {
			t.Fatalf("line %d level = %v; want %s", i, l["level"], wantLevels[i])
		}
		if l["message"] != "http_request" {
			t.Fatalf("line %d message = %v", i, l["message"])
		}
	}
	if lines[0]["path"] != "/ok" {
		t.Fatalf("path should be the route pattern, got %v", lines[0]["path"])
	}
}

func TestRedactingLogger_MarksIdempotentRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID(), RedactingLogger(RedactOptions{}))
	r.POST("/buy", func(c *gin.Context) {
		c.Set(ctxKeyIdemKey, "k-1")
		c.Set(ctxKeyIdemReplay, true)
		c.Status(http.StatusOK)
	})
	r.GET("/plain", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/buy", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/plain", nil))

	lines := logLines(t, buf)
	if len(lines) != 2 {
		t.Fatalf("want 2 access lines, got %d", len(lines))
	}
	if lines[0]["idempotent"] != true || lines[0]["replayed"] != true {
		t.Fatalf("idempotent request not marked: %v", lines[0])
	}
	if _, ok := lines[1]["idempotent"]; ok {
		t.Fatalf("plain request should carry no idempotency fields: %v", lines[1])
	}
}
