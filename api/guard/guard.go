// Package guard redirects page requests based on the session cookie before
// any page is served.
package guard

import (
	"net/http"
	"time"

	"github.com/zlnvch/stickyboard/api/rest"
	"github.com/zlnvch/stickyboard/service"
	"go.uber.org/zap"
)

const (
	BoardPath = "/board"
	LoginPath = "/login"
)

type Guard struct {
	secret          []byte
	verifySignature bool
	log             *zap.SugaredLogger
	now             func() time.Time
}

// New returns a guard for the board and login pages. By default the token
// payload is only decoded; verifySignature switches to full verification.
// The board API re-verifies every request either way.
func New(secret []byte, verifySignature bool, log *zap.SugaredLogger) *Guard {
	return &Guard{
		secret:          secret,
		verifySignature: verifySignature,
		log:             log,
		now:             time.Now,
	}
}

func (g *Guard) authenticated(r *http.Request) bool {
	c, err := r.Cookie(rest.AuthCookie)
	if err != nil || c.Value == "" {
		return false
	}
	if g.verifySignature {
		return service.VerifyToken(c.Value, g.secret, g.now())
	}
	return service.PeekToken(c.Value, g.now())
}

// Middleware guards BoardPath and LoginPath; every other path passes through.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case BoardPath:
			if len(g.secret) == 0 {
				g.log.Errorf("JWT_SECRET not configured")
				http.Redirect(w, r, LoginPath, http.StatusTemporaryRedirect)
				return
			}
			if !g.authenticated(r) {
				http.Redirect(w, r, LoginPath, http.StatusTemporaryRedirect)
				return
			}

		case LoginPath:
			if len(g.secret) > 0 && g.authenticated(r) {
				http.Redirect(w, r, BoardPath, http.StatusTemporaryRedirect)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}
