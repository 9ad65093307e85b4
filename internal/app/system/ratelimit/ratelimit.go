// Package ratelimit throttles login attempts with fixed windows per key.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter counts hits per key in fixed windows. Safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	duration time.Duration
	now      func() time.Time
}

type window struct {
	count     int
	expiresAt time.Time
}

func New(limit int, duration time.Duration) *Limiter {
	return &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		now:      time.Now,
	}
}

// Allow records a hit for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		l.sweepLocked(now)
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// sweepLocked drops expired windows once the map grows, so idle keys do
// not accumulate without a background goroutine.
func (l *Limiter) sweepLocked(now time.Time) {
	if len(l.windows) < 1024 {
		return
	}
	for k, w := range l.windows {
		if now.After(w.expiresAt) {
			delete(l.windows, k)
		}
	}
}

// ClientIP returns the first X-Forwarded-For hop, X-Real-IP, or the
// RemoteAddr host.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// LoginLimiter limits attempts per client IP and per login id.
type LoginLimiter struct {
	byIP    *Limiter
	byLogin *Limiter
}

// NewLoginLimiter allows 10 attempts per IP per minute and 5 per login id
// per 5 minutes.
func NewLoginLimiter() *LoginLimiter {
	return &LoginLimiter{
		byIP:    New(10, time.Minute),
		byLogin: New(5, 5*time.Minute),
	}
}

func loginKey(loginID string) string {
	return strings.ToLower(strings.TrimSpace(loginID))
}

// Check records an attempt and returns false with a user-facing reason
// when it is over a limit. A nil LoginLimiter allows everything.
func (ll *LoginLimiter) Check(r *http.Request, loginID string) (bool, string) {
	if ll == nil {
		return true, ""
	}
	if !ll.byIP.Allow(ClientIP(r)) {
		return false, "Too many login attempts. Please wait a minute before trying again."
	}
	if k := loginKey(loginID); k != "" && !ll.byLogin.Allow(k) {
		return false, "Too many login attempts for this account. Please wait a few minutes."
	}
	return true, ""
}

// Succeeded clears the login id's window after a successful sign-in.
func (ll *LoginLimiter) Succeeded(loginID string) {
	if ll == nil {
		return
	}
	if k := loginKey(loginID); k != "" {
		ll.byLogin.Reset(k)
	}
}
