package middleware

import (
	"net/http"
	"strconv"

	"github.com/akinalp/chanperm/handlers"
	"github.com/akinalp/chanperm/pkg"
	"github.com/akinalp/chanperm/pkg/ratelimit"
)

// RateLimitMiddleware, upstream'e iletilen mutation'ları token subject'i başına sınırlar.
type RateLimitMiddleware struct {
	limiter *ratelimit.Limiter
}

// NewRateLimitMiddleware, constructor. limiter nil ise middleware her isteği geçirir.
func NewRateLimitMiddleware(limiter *ratelimit.Limiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter}
}

// Limit, Require'dan sonra zincirlenir; anahtar token'ın subject'idir.
// Limit aşıldığında 429 + Retry-After döner.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := handlers.ClaimsFromContext(r.Context())
		if !ok {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		if !m.limiter.Allow(claims.Subject) {
			if retryAfter := m.limiter.RetryAfter(claims.Subject); retryAfter > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			}
			pkg.ErrorWithMessage(w, http.StatusTooManyRequests, "too many channel mutations, slow down")
			return
		}

		next.ServeHTTP(w, r)
	})
}
