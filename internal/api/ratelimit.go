package api

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/scryptex/scryptex/internal/infra/observability"
)

// rateLimit returns per-client-IP limiting middleware. httprate sets the
// X-RateLimit-* and Retry-After headers; rejected requests get the envelope.
func rateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(handleRateLimited),
	)
}

func handleRateLimited(w http.ResponseWriter, r *http.Request) {
	observability.RateLimited.Inc()
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
}
