package httpmiddleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimitConfig configures the per-client fixed window rate limiter.
type RateLimitConfig struct {
	// Max is the number of requests allowed per window. Zero disables limiting.
	Max int
	// Window is the window duration.
	Window time.Duration
	// KeyFunc derives the limit key from a request; defaults to client IP.
	KeyFunc func(*http.Request) string
}

type window struct {
	start time.Time
	count int
}

type limiter struct {
	cfg     RateLimitConfig
	mu      sync.Mutex
	clients map[string]*window
}

// take consumes one slot for key. It returns the remaining slots, when the
// window resets, and whether the request is allowed.
func (l *limiter) take(key string, now time.Time) (remaining int, resetAt time.Time, allowed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	win, ok := l.clients[key]
	if !ok || now.Sub(win.start) >= l.cfg.Window {
		win = &window{start: now}
		l.clients[key] = win
	}

	resetAt = win.start.Add(l.cfg.Window)
	if win.count >= l.cfg.Max {
		return 0, resetAt, false
	}
	win.count++
	return l.cfg.Max - win.count, resetAt, true
}

// sweep removes windows that expired before now.
func (l *limiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, win := range l.clients {
		if now.Sub(win.start) >= 2*l.cfg.Window {
			delete(l.clients, key)
		}
	}
}

func defaultKeyFunc(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit limits requests per client using a fixed window counter.
// Rejected requests get 429 with Retry-After and X-RateLimit headers.
func RateLimit(cfg RateLimitConfig) Middleware {
	return RateLimitWithCleanup(context.Background(), cfg)
}

// RateLimitWithCleanup is RateLimit with a background sweeper that drops
// stale client entries until ctx is cancelled.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = defaultKeyFunc
	}
	l := &limiter{cfg: cfg, clients: make(map[string]*window)}

	if cfg.Max > 0 {
		go func() {
			ticker := time.NewTicker(cfg.Window)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case now := <-ticker.C:
					l.sweep(now)
				}
			}
		}()
	}

	return func(next http.Handler) http.Handler {
		if cfg.Max <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			remaining, resetAt, allowed := l.take(cfg.KeyFunc(r), now)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Max))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !allowed {
				retryAfter := int(resetAt.Sub(now).Seconds()) + 1
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
