package middleware

import (
	"bytes"
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey names the client-chosen key for a retryable POST.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotencyReplayed is set on responses served from a stored record.
const HeaderIdempotencyReplayed = "Idempotency-Replayed"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
)

// IdempotencyRecord is a stored response.
type IdempotencyRecord struct {
	Status int
	Body   []byte
}

// IdempotencyStore persists responses per (user, scope, key). Lookup
// returns nil, nil when nothing live is stored.
type IdempotencyStore interface {
	Lookup(ctx context.Context, userID, scope, key string, now time.Time) (*IdempotencyRecord, error)
	Save(ctx context.Context, userID, scope, key string, rec IdempotencyRecord) error
}

// IdempotencyOptions bounds accepted keys.
type IdempotencyOptions struct {
	// MaxLen defaults to 200.
	MaxLen int
	// Pattern defaults to ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
	// Scope namespaces stored keys. Empty means "METHOD /route".
	Scope string
}

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the validated key of the request.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, _ := c.Get(ctxKeyIdemKey)
	s := asString(v)
	return s, s != ""
}

// IsReplay reports whether the response was served from the store.
func IsReplay(c *gin.Context) bool {
	return c.GetBool(ctxKeyIdemReplay)
}

// Idempotency makes a route safe to retry. Without the header it is a no-op.
// With a valid key it replays a live stored response for the same user,
// route and key; otherwise it runs the handler and stores any answer below
// 500 so a retried purchase cannot charge twice. Store failures are logged
// and never fail the request. Must run after Auth.
func Idempotency(opts IdempotencyOptions, store IdempotencyStore) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			abortJSON(c, http.StatusBadRequest, "bad_idempotency_key", "invalid Idempotency-Key")
			return
		}
		c.Set(ctxKeyIdemKey, key)
		if store == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		uid := UserID(c)
		scope := opts.Scope
		if scope == "" {
			scope = c.Request.Method + " " + c.FullPath()
		}
		lg := LoggerFrom(c)

		rec, err := store.Lookup(ctx, uid, scope, key, time.Now().UTC())
		if err != nil {
			lg.Warn().Err(err).Msg("idempotency lookup failed")
		}
		if rec != nil {
			c.Set(ctxKeyIdemReplay, true)
			c.Header(HeaderIdempotencyReplayed, "true")
			c.Data(rec.Status, "application/json; charset=utf-8", rec.Body)
			c.Abort()
			return
		}

		cw := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = cw
		c.Next()

		status := cw.Status()
		if status >= http.StatusInternalServerError || status == http.StatusTooManyRequests {
			return
		}
		if err := store.Save(context.WithoutCancel(ctx), uid, scope, key, IdempotencyRecord{Status: status, Body: cw.buf.Bytes()}); err != nil {
			lg.Warn().Err(err).Msg("idempotency save failed")
		}
	}
}

// captureWriter tees the response body.
type captureWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
