package websocket

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// ipLimiters hands out one token bucket per client address, shared by every
// socket opened from that address. Buckets are dropped when the last socket
// closes.
type ipLimiters struct {
	mu      sync.Mutex
	entries map[string]*ipLimiter
}

type ipLimiter struct {
	limiter *rate.Limiter
	refs    int
}

func newIPLimiters() *ipLimiters {
	return &ipLimiters{entries: make(map[string]*ipLimiter)}
}

func (l *ipLimiters) acquire(ip string, limit rate.Limit, burst int) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[ip]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(limit, burst)}
		l.entries[ip] = entry
	}
	entry.refs++
	return entry.limiter
}

func (l *ipLimiters) release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[ip]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(l.entries, ip)
	}
}

func (l *ipLimiters) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// clientIP prefers the first X-Forwarded-For hop and falls back to the
// peer address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
