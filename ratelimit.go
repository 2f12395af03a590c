package veld

import (
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultClientTTL is how long an idle per-client limiter entry is kept.
const DefaultClientTTL = 10 * time.Minute

// clientEntry holds a limiter and its last access time for TTL cleanup.
type clientEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter is a token-bucket limiter, optionally keyed per client
// address. Rejected requests fail with the 429 taxonomy error carrying a
// retry hint.
type RateLimiter struct {
	limiter   *rate.Limiter
	perClient bool
	clients   map[string]*clientEntry
	mu        sync.Mutex
	rps       int
	burst     int
	clientTTL time.Duration
}

// RateLimiterOption configures a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithPerClient keys the limiter by client address instead of globally.
func WithPerClient() RateLimiterOption {
	return func(rl *RateLimiter) { rl.perClient = true }
}

// WithClientTTL overrides how long idle client entries live.
func WithClientTTL(ttl time.Duration) RateLimiterOption {
	return func(rl *RateLimiter) { rl.clientTTL = ttl }
}

// NewRateLimiter creates a rate limiter allowing rps requests per second
// with the given burst.
func NewRateLimiter(rps, burst int, opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		limiter:   rate.NewLimiter(rate.Limit(rps), burst),
		clients:   make(map[string]*clientEntry),
		rps:       rps,
		burst:     burst,
		clientTTL: DefaultClientTTL,
	}

	for _, opt := range opts {
		opt(rl)
	}

	return rl
}

// Allow checks whether a request from the given client may proceed.
func (rl *RateLimiter) Allow(client string) bool {
	if !rl.perClient {
		return rl.limiter.Allow()
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	entry, ok := rl.clients[client]
	if !ok {
		entry = &clientEntry{limiter: rate.NewLimiter(rate.Limit(rl.rps), rl.burst)}
		rl.clients[client] = entry
	}
	entry.lastAccess = now

	rl.evictStale(now)

	return entry.limiter.Allow()
}

// evictStale drops client entries idle past the TTL. Called under mu.
func (rl *RateLimiter) evictStale(now time.Time) {
	for key, entry := range rl.clients {
		if now.Sub(entry.lastAccess) > rl.clientTTL {
			delete(rl.clients, key)
		}
	}
}

// Middleware adapts the limiter into dispatch middleware.
func (rl *RateLimiter) Middleware() Middleware {
	return func(c *Context, w *ResponseWriter, next Next) error {
		if !rl.Allow(clientKey(c.RemoteAddr)) {
			return TooManyRequests("rate limit exceeded", time.Second)
		}

		return next()
	}
}

// clientKey strips the port so one client maps to one bucket.
func clientKey(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}

	return host
}
