package httpapi

import (
	"math"
	"net/http"

	"golang.org/x/time/rate"
)

// rateLimit returns middleware sharing one token bucket between all clients.
// The burst equals the per-second rate, rounded up. rps <= 0 disables it.
func rateLimit(rps float64) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	limiter := rate.NewLimiter(rate.Limit(rps), int(math.Ceil(rps)))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded, slow down")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
