// Package ratelimit throttles login attempts with fixed windows keyed by
// client IP and by username.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
)

// Limiter counts requests per key within a fixed window.
// It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	duration time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a limiter allowing limit requests per key every duration.
// A background sweep drops expired windows until Stop is called.
func New(limit int, duration time.Duration) *Limiter {
	l := &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go l.cleanupLoop(duration * 2)
	return l
}

// Allow records a request for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, exists := l.windows[key]
	if !exists || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// Remaining returns how many requests are left for key in the current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, exists := l.windows[key]
	if !exists || l.now().After(w.expiresAt) {
		return l.limit
	}
	return max(l.limit-w.count, 0)
}

// Reset clears the window for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// Stop ends the background sweep. The limiter keeps working afterwards.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Limiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := l.now()
			for key, w := range l.windows {
				if now.After(w.expiresAt) {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// ClientIP extracts the client IP from an HTTP request.
// X-Forwarded-For (first hop) and X-Real-IP win over RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// LoginLimiter guards the login endpoint against both spraying from one IP
// and guessing against one account.
type LoginLimiter struct {
	ipLimiter   *Limiter
	userLimiter *Limiter
}

// Default login limits.
const (
	DefaultIPLimit    = 10
	DefaultIPWindow   = time.Minute
	DefaultUserLimit  = 5
	DefaultUserWindow = 5 * time.Minute
)

const (
	msgTooManyFromIP  = "Too many login attempts. Please wait a minute before trying again."
	msgTooManyForUser = "Too many login attempts for this account. Please wait a few minutes."
)

// NewLoginLimiter creates a limiter with the given per-IP and per-username
// limits. Non-positive limits fall back to the defaults.
func NewLoginLimiter(ipLimit, userLimit int) *LoginLimiter {
	if ipLimit <= 0 {
		ipLimit = DefaultIPLimit
	}
	if userLimit <= 0 {
		userLimit = DefaultUserLimit
	}
	return &LoginLimiter{
		ipLimiter:   New(ipLimit, DefaultIPWindow),
		userLimiter: New(userLimit, DefaultUserWindow),
	}
}

// Check records a login attempt and reports whether it may proceed. When it
// may not, reason is a client-facing message.
func (ll *LoginLimiter) Check(r *http.Request, username string) (allowed bool, reason string) {
	if !ll.ipLimiter.Allow(ClientIP(r)) {
		return false, msgTooManyFromIP
	}
	if key := userKey(username); key != "" && !ll.userLimiter.Allow(key) {
		return false, msgTooManyForUser
	}
	return true, ""
}

// ResetUser clears the per-username window after a successful login.
func (ll *LoginLimiter) ResetUser(username string) {
	if key := userKey(username); key != "" {
		ll.userLimiter.Reset(key)
	}
}

// Stop ends both background sweeps.
func (ll *LoginLimiter) Stop() {
	ll.ipLimiter.Stop()
	ll.userLimiter.Stop()
}

func userKey(username string) string {
	return text.Fold(strings.TrimSpace(username))
}
