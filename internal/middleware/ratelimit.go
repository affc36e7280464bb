package middleware

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/technosupport/ts-sizer/internal/ratelimit"
)

type RateLimitMiddleware struct {
	limiter *ratelimit.Limiter
	config  *Config
}

type Config struct {
	GlobalIP ratelimit.LimitConfig `yaml:"global_ip"`
	User     ratelimit.LimitConfig `yaml:"user"`
	// Calc covers the calculation endpoints, which are far more
	// expensive than a catalog read.
	Calc ratelimit.LimitConfig `yaml:"calc"`
}

func NewRateLimitMiddleware(l *ratelimit.Limiter, c Config) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: l, config: &c}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i >= 0 {
		host = host[:i]
	}
	return host
}

// GlobalLimiter applies the per-IP and per-user limits. Redis outages
// fail open: losing the limiter must not take calculations down with it.
func (m *RateLimitMiddleware) GlobalLimiter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ipHash := m.limiter.HashIP(clientIP(r))
		key := fmt.Sprintf("rl:ip:%s", ipHash)

		decision, err := m.limiter.CheckRateLimit(r.Context(), key, m.config.GlobalIP)
		if err != nil {
			log.Printf("RateLimit: check failed, allowing request: %v", err)
			next.ServeHTTP(w, r)
			return
		}

		if !decision.Allowed {
			m.writeRateLimitHeaders(w, decision)
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		if ac, ok := GetAuthContext(r.Context()); ok {
			userKey := fmt.Sprintf("rl:user:%s", ac.UserID)
			uDecision, err := m.limiter.CheckRateLimit(r.Context(), userKey, m.config.User)
			if err == nil && !uDecision.Allowed {
				m.writeRateLimitHeaders(w, uDecision)
				http.Error(w, "User rate limit exceeded", http.StatusTooManyRequests)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// CalcLimiter wraps the calculation routes with their own budget, keyed
// by user when authenticated and by IP otherwise.
func (m *RateLimitMiddleware) CalcLimiter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var key string
		if ac, ok := GetAuthContext(r.Context()); ok {
			key = fmt.Sprintf("rl:calc:user:%s", ac.UserID)
		} else {
			key = fmt.Sprintf("rl:calc:ip:%s", m.limiter.HashIP(clientIP(r)))
		}

		decision, err := m.limiter.CheckRateLimit(r.Context(), key, m.config.Calc)
		if err != nil {
			log.Printf("RateLimit: calc check failed, allowing request: %v", err)
			next.ServeHTTP(w, r)
			return
		}

		if !decision.Allowed {
			m.writeRateLimitHeaders(w, decision)
			http.Error(w, "Calculation rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) writeRateLimitHeaders(w http.ResponseWriter, d *ratelimit.Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))
	if !d.Allowed {
		w.Header().Set("Retry-After", strconv.Itoa(d.RetryAfter))
	}
}
