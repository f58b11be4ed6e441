package middleware

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/17hemanthkumar/pm/internal/constants"
)

// clientLimiter tracks the token bucket for one remote address.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client IP. Limits come from the
// WEB_RATE_LIMIT (requests per second) and WEB_RATE_BURST environment
// variables; a limit of zero or less disables throttling.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	limit   rate.Limit
	burst   int
}

// NewRateLimiter builds a limiter from the environment.
func NewRateLimiter() *RateLimiter {
	limit := float64(constants.DefaultRateLimit)
	if env := os.Getenv("WEB_RATE_LIMIT"); env != "" {
		if v, err := strconv.ParseFloat(env, 64); err == nil {
			limit = v
		}
	}
	burst := constants.DefaultRateBurst
	if env := os.Getenv("WEB_RATE_BURST"); env != "" {
		if v, err := strconv.Atoi(env); err == nil && v > 0 {
			burst = v
		}
	}
	return &RateLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Limit(limit),
		burst:   burst,
	}
}

// Handler wraps the next handler with the rate limit check.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		if !rl.allow(clientIP(r)) {
			w.Header().Set("Retry-After", "1")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"too many requests"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients[ip]
	if !ok {
		if len(rl.clients) >= constants.MaxTrackedClients {
			rl.prune()
		}
		c = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[ip] = c
	}
	c.lastSeen = time.Now()
	return c.limiter.Allow()
}

// prune drops clients idle for over a minute. Caller holds the lock.
func (rl *RateLimiter) prune() {
	cutoff := time.Now().Add(-time.Minute)
	for ip, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

// clientIP extracts the host part of the remote address. The RealIP
// middleware has already resolved proxy headers by this point.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
