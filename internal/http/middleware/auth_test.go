package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret")

func signed(t *testing.T, method jwt.SigningMethod, key any, claims jwt.RegisteredClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func authRouter(opts AuthOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Auth(opts))
	r.GET("/me", func(c *gin.Context) { c.String(http.StatusOK, UserID(c)) })
	return r
}

func TestAuth(t *testing.T) {
	now := time.Now()
	valid := signed(t, jwt.SigningMethodHS256, testSecret, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})
	expired := signed(t, jwt.SigningMethodHS256, testSecret, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
	})
	noExp := signed(t, jwt.SigningMethodHS256, testSecret, jwt.RegisteredClaims{Subject: "user-1"})
	noSub := signed(t, jwt.SigningMethodHS256, testSecret, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})
	wrongKey := signed(t, jwt.SigningMethodHS256, []byte("other"), jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})
	hs512 := signed(t, jwt.SigningMethodHS512, testSecret, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})

	strict := AuthOptions{Secret: testSecret}
	dev := AuthOptions{Secret: testSecret, AllowHeaderIdentity: true}

	cases := []struct {
		name     string
		opts     AuthOptions
		authz    string
		userHdr  string
		wantCode int
		wantUser string
	}{
		{"valid bearer", strict, "Bearer " + valid, "", http.StatusOK, "user-1"},
		{"lowercase scheme", strict, "bearer " + valid, "", http.StatusOK, "user-1"},
		{"expired", strict, "Bearer " + expired, "", http.StatusUnauthorized, ""},
		{"missing exp", strict, "Bearer " + noExp, "", http.StatusUnauthorized, ""},
		{"missing sub", strict, "Bearer " + noSub, "", http.StatusUnauthorized, ""},
		{"wrong key", strict, "Bearer " + wrongKey, "", http.StatusUnauthorized, ""},
		{"other alg", strict, "Bearer " + hs512, "", http.StatusUnauthorized, ""},
		{"no credentials", strict, "", "", http.StatusUnauthorized, ""},
		{"header identity refused", strict, "", "u-dev", http.StatusUnauthorized, ""},
		{"header identity allowed", dev, "", "u-dev", http.StatusOK, "u-dev"},
		{"bearer beats header", dev, "Bearer " + valid, "u-dev", http.StatusOK, "user-1"},
		{"blank header identity", dev, "", "   ", http.StatusUnauthorized, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.authz != "" {
				req.Header.Set("Authorization", tc.authz)
			}
			if tc.userHdr != "" {
				req.Header.Set(HeaderUserID, tc.userHdr)
			}
			w := httptest.NewRecorder()
			authRouter(tc.opts).ServeHTTP(w, req)

			if w.Code != tc.wantCode {
				t.Fatalf("status = %d; want %d (%s)", w.Code, tc.wantCode, w.Body.String())
			}
			if tc.wantCode == http.StatusOK && w.Body.String() != tc.wantUser {
				t.Fatalf("user = %q; want %q", w.Body.String(), tc.wantUser)
			}
			if tc.wantCode == http.StatusUnauthorized && tc.authz == "" && w.Header().Get("WWW-Authenticate") == "" {
				t.Fatalf("missing WWW-Authenticate challenge")
			}
		})
	}
}

func TestBearer(t *testing.T) {
	if _, ok := bearer("Basic abc"); ok {
		t.Fatalf("basic scheme accepted")
	}
	if _, ok := bearer("Bearer    "); ok {
		t.Fatalf("empty token accepted")
	}
	if tok, ok := bearer("BEARER abc"); !ok || tok != "abc" {
		t.Fatalf("got %q %v", tok, ok)
	}
}
