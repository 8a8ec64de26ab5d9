package rest

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL   = 10 * time.Minute
	limiterPruneSize = 1024
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// loginLimiter throttles login attempts per remote host. A nil *loginLimiter
// allows everything.
type loginLimiter struct {
	mu      sync.Mutex
	perMin  int
	clients map[string]*clientLimiter
	now     func() time.Time
}

func newLoginLimiter(perMinute int) *loginLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &loginLimiter{
		perMin:  perMinute,
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
}

func (l *loginLimiter) allow(r *http.Request) bool {
	if l == nil {
		return true
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.clients) >= limiterPruneSize {
		for k, c := range l.clients {
			if now.Sub(c.lastSeen) > limiterIdleTTL {
				delete(l.clients, k)
			}
		}
	}

	c, ok := l.clients[host]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMin)), l.perMin)}
		l.clients[host] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}
