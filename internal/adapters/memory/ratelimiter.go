package memory

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// AlwaysAllow is a RateLimiter that permits every request.
type AlwaysAllow struct{}

func (AlwaysAllow) Allow(_, _ string) bool { return true }

// TokenBucket limits each client key to rps requests per second with the
// given burst. Clients are keyed by IP; the client token only stands in
// when no IP is known.
type TokenBucket struct {
	mu      sync.Mutex
	rps     rate.Limit
	burst   int
	idle    time.Duration
	clients map[string]*client
	now     func() time.Time
}

type client struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewTokenBucket returns a limiter that forgets clients idle for longer
// than ten minutes.
func NewTokenBucket(rps float64, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	return &TokenBucket{
		rps:     rate.Limit(rps),
		burst:   burst,
		idle:    10 * time.Minute,
		clients: make(map[string]*client),
		now:     time.Now,
	}
}

func (b *TokenBucket) Allow(ip, token string) bool {
	key := ip
	if key == "" {
		key = "token:" + token
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	c, ok := b.clients[key]
	if !ok {
		b.evict(now)
		c = &client{lim: rate.NewLimiter(b.rps, b.burst)}
		b.clients[key] = c
	}
	c.seen = now
	return c.lim.AllowN(now, 1)
}

// evict drops idle clients. Caller holds the lock.
func (b *TokenBucket) evict(now time.Time) {
	for k, c := range b.clients {
		if now.Sub(c.seen) > b.idle {
			delete(b.clients, k)
		}
	}
}
