package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	userIDKey = "userID"

	// HeaderUserID carries a development identity when AuthOptions allows it.
	HeaderUserID = "X-User-ID"

	maxUserIDLen = 64
)

var errNoSubject = errors.New("token has no subject")

// AuthOptions configures Auth.
type AuthOptions struct {
	// Secret verifies HS256 bearer tokens. Empty disables token auth.
	Secret []byte
	// AllowHeaderIdentity trusts X-User-ID. Local development only.
	AllowHeaderIdentity bool
	// Leeway tolerates clock skew on exp/nbf/iat.
	Leeway time.Duration
}

// Auth resolves the principal of the request. A bearer token signed with
// Secret wins; its "sub" claim is the user id. Otherwise X-User-ID is
// accepted when AllowHeaderIdentity is set. Anything else is a 401: there
// is no default user.
func Auth(opts AuthOptions) gin.HandlerFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(opts.Leeway),
		jwt.WithExpirationRequired(),
	)

	return func(c *gin.Context) {
		if tok, ok := bearer(c.GetHeader("Authorization")); ok && len(opts.Secret) > 0 {
			sub, err := subject(parser, opts.Secret, tok)
			if err != nil {
				LoggerFrom(c).Debug().Err(err).Msg("bearer token rejected")
				abortJSON(c, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}
			setUser(c, sub)
			c.Next()
			return
		}

		if opts.AllowHeaderIdentity {
			if uid := strings.TrimSpace(c.GetHeader(HeaderUserID)); uid != "" && len(uid) <= maxUserIDLen {
				setUser(c, uid)
				c.Next()
				return
			}
		}

		c.Header("WWW-Authenticate", `Bearer realm="bloom"`)
		abortJSON(c, http.StatusUnauthorized, "unauthorized", "authentication required")
	}
}

// UserID returns the authenticated user id, or "" outside Auth.
func UserID(c *gin.Context) string {
	v, _ := c.Get(userIDKey)
	return asString(v)
}

func setUser(c *gin.Context, uid string) {
	c.Set(userIDKey, uid)
	attachLogger(c, LoggerFrom(c).With().Str("user_id", uid).Logger())
}

func bearer(h string) (string, bool) {
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(h[len(prefix):])
	return tok, tok != ""
}

func subject(p *jwt.Parser, secret []byte, tok string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	if _, err := p.ParseWithClaims(tok, claims, func(*jwt.Token) (any, error) { return secret, nil }); err != nil {
		return "", err
	}
	sub := strings.TrimSpace(claims.Subject)
	if sub == "" || len(sub) > maxUserIDLen {
		return "", errNoSubject
	}
	return sub, nil
}
