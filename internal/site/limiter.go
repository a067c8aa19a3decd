package site

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Login attempts allowed per remote address: a burst of 5, then one every
// 12 seconds.
const (
	defaultLoginRate  = rate.Limit(1.0 / 12)
	defaultLoginBurst = 5
	limiterIdle       = 30 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// loginLimiter throttles password attempts per remote address.
type loginLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

func newLoginLimiter(limit rate.Limit, burst int) *loginLimiter {
	return &loginLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		burst:    burst,
		now:      time.Now,
	}
}

// Allow reports whether remote may attempt a login now.
func (l *loginLimiter) Allow(remote string) bool {
	key := remoteHost(remote)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	for k, v := range l.visitors {
		if now.Sub(v.lastSeen) > limiterIdle {
			delete(l.visitors, k)
		}
	}
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func remoteHost(remote string) string {
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		return remote
	}
	return host
}

// clientAddr is the address the login throttle keys on: the socket peer, or
// the last X-Forwarded-For hop when the peer is the trusted proxy.
func clientAddr(r *http.Request, trustedProxy string) string {
	peer := remoteHost(r.RemoteAddr)
	if trustedProxy == "" || peer != trustedProxy {
		return peer
	}
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	if last := strings.TrimSpace(hops[len(hops)-1]); last != "" {
		return last
	}
	return peer
}
