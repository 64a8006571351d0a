package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/MrSnakeDoc/rollcall/internal/utils"
)

// RateLimitConfig configures a per-IP token bucket.
type RateLimitConfig struct {
	Burst        int           // requests allowed back to back
	RefillPerMin int           // requests regained per minute
	MaxEntries   int           // sweep early once this many IPs are tracked (0 = no cap)
	IdleTTL      time.Duration // forget an IP after this long without an allowed request
	TrustProxy   bool          // resolve IP from proxy headers when true

	// Now defaults to time.Now.
	Now func() time.Time
	// OnLimited is called for every rejected request.
	OnLimited func(r *http.Request, ip string)
}

type bucket struct {
	tokens  float64
	updated time.Time
	seen    time.Time
}

// limiter keeps one bucket per key behind a single lock. Admin auth traffic
// is low enough that contention does not matter.
type limiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	capacity  float64
	perSecond float64
	maxKeys   int
	idleTTL   time.Duration
	nextSweep time.Time
}

func newLimiter(cfg RateLimitConfig) *limiter {
	burst := max(cfg.Burst, 1)
	refill := max(cfg.RefillPerMin, 1)
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &limiter{
		buckets:   make(map[string]*bucket),
		capacity:  float64(burst),
		perSecond: float64(refill) / 60,
		maxKeys:   cfg.MaxEntries,
		idleTTL:   ttl,
	}
}

// take returns key's bucket refilled up to now. Caller must hold l.mu.
func (l *limiter) take(key string, now time.Time) *bucket {
	if now.After(l.nextSweep) || (l.maxKeys > 0 && len(l.buckets) >= l.maxKeys) {
		l.sweep(now)
	}

	b, found := l.buckets[key]
	if !found {
		b = &bucket{tokens: l.capacity, updated: now}
		l.buckets[key] = b
	}

	if dt := now.Sub(b.updated).Seconds(); dt > 0 {
		b.tokens = math.Min(l.capacity, b.tokens+dt*l.perSecond)
		b.updated = now
	}
	return b
}

func (l *limiter) wait(b *bucket) int {
	return max(int(math.Ceil((1-b.tokens)/l.perSecond)), 1)
}

// allow spends one token from key's bucket. When the bucket is empty it
// returns the whole seconds until the next token.
func (l *limiter) allow(key string, now time.Time) (ok bool, remaining, retryAfter int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.take(key, now)
	if b.tokens < 1 {
		return false, 0, l.wait(b)
	}

	b.tokens--
	b.seen = now
	return true, int(b.tokens), 0
}

// check reports whether key still holds a token, without spending it.
func (l *limiter) check(key string, now time.Time) (ok bool, retryAfter int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, found := l.buckets[key]; !found {
		return true, 0
	}
	b := l.take(key, now)
	if b.tokens < 1 {
		return false, l.wait(b)
	}
	return true, 0
}

func (l *limiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.seen) > l.idleTTL {
			delete(l.buckets, key)
		}
	}
	l.nextSweep = now.Add(time.Minute)
}

// Limiter is a per-IP token bucket that several routes can share, so that
// credentials guessed on one route are counted on the others.
type Limiter struct {
	l     *limiter
	cfg   RateLimitConfig
	now   func() time.Time
	limit string
}

func NewLimiter(cfg RateLimitConfig) *Limiter {
	l := newLimiter(cfg)
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Limiter{l: l, cfg: cfg, now: now, limit: strconv.Itoa(int(l.capacity))}
}

// Middleware spends one token per request and rejects with 429 once a client
// IP has spent its bucket. Every response carries X-RateLimit-Limit and
// X-RateLimit-Remaining.
func (rl *Limiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, rl.cfg.TrustProxy)
			ok, remaining, retryAfter := rl.l.allow(ip, rl.now())

			h := w.Header()
			h.Set("X-RateLimit-Limit", rl.limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !ok {
				rl.reject(w, r, ip, retryAfter)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// blocked reports whether r's client has no token left.
func (rl *Limiter) blocked(r *http.Request) (ip string, retryAfter int, blocked bool) {
	ip = utils.ClientIP(r, rl.cfg.TrustProxy)
	ok, retryAfter := rl.l.check(ip, rl.now())
	return ip, retryAfter, !ok
}

// spend takes one token from r's client.
func (rl *Limiter) spend(r *http.Request) {
	rl.l.allow(utils.ClientIP(r, rl.cfg.TrustProxy), rl.now())
}

func (rl *Limiter) reject(w http.ResponseWriter, r *http.Request, ip string, retryAfter int) {
	if rl.cfg.OnLimited != nil {
		rl.cfg.OnLimited(r, ip)
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	writeError(w, http.StatusTooManyRequests, "too many attempts, retry later")
}

// RateLimit is NewLimiter(cfg).Middleware() for a limiter used by one route.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return NewLimiter(cfg).Middleware()
}
