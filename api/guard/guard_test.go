package guard

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zlnvch/stickyboard/api/rest"
	"github.com/zlnvch/stickyboard/logger"
	"github.com/zlnvch/stickyboard/service"
)

var (
	secret = []byte("secret")
	t0     = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
)

func newGuard(secret []byte, verify bool) *Guard {
	g := New(secret, verify, logger.Nop())
	g.now = func() time.Time { return t0 }
	return g
}

func serve(g *Guard, path, token string) *httptest.ResponseRecorder {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("page"))
	})

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: rest.AuthCookie, Value: token})
	}
	rr := httptest.NewRecorder()
	g.Middleware(next).ServeHTTP(rr, req)
	return rr
}

func validToken(t *testing.T) string {
	token, err := service.IssueToken("pw", "pw", secret, t0.Add(-time.Hour))
	require.NoError(t, err)
	return token
}

func TestBoard_NoCookieRedirectsToLogin(t *testing.T) {
	rr := serve(newGuard(secret, false), BoardPath, "")

	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	assert.Equal(t, LoginPath, rr.Header().Get("Location"))
}

func TestBoard_ValidCookiePasses(t *testing.T) {
	rr := serve(newGuard(secret, false), BoardPath, validToken(t))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "page", rr.Body.String())
}

func TestBoard_ExpiredCookieRedirects(t *testing.T) {
	token, err := service.IssueToken("pw", "pw", secret, t0.Add(-service.TokenTTL))
	require.NoError(t, err)

	rr := serve(newGuard(secret, false), BoardPath, token)
	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
}

func TestBoard_ForgedSignature(t *testing.T) {
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"authenticated": true,
		"exp":           t0.Add(time.Hour).Unix(),
	}).SignedString([]byte("attacker"))
	require.NoError(t, err)

	// Reduced check only looks at the payload.
	rr := serve(newGuard(secret, false), BoardPath, forged)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = serve(newGuard(secret, true), BoardPath, forged)
	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)

	rr = serve(newGuard(secret, true), BoardPath, validToken(t))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestLogin_AuthenticatedRedirectsToBoard(t *testing.T) {
	rr := serve(newGuard(secret, false), LoginPath, validToken(t))

	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	assert.Equal(t, BoardPath, rr.Header().Get("Location"))
}

func TestLogin_AnonymousPasses(t *testing.T) {
	rr := serve(newGuard(secret, false), LoginPath, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = serve(newGuard(secret, false), LoginPath, "garbage")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMissingSecret(t *testing.T) {
	g := newGuard(nil, false)

	rr := serve(g, BoardPath, validToken(t))
	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	assert.Equal(t, LoginPath, rr.Header().Get("Location"))

	// No redirect loop on the login page.
	rr = serve(g, LoginPath, validToken(t))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestOtherPathsPassThrough(t *testing.T) {
	rr := serve(newGuard(nil, false), "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}
