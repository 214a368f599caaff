package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/phrazzld/agentdesk/internal/api/shared"
	"github.com/phrazzld/agentdesk/internal/platform/logger"
	"github.com/phrazzld/agentdesk/internal/ratelimit"
	"github.com/phrazzld/agentdesk/internal/redact"
)

// NewRunRateLimit limits requests per authenticated user. It must run after
// Authenticate. When the limiter errors the request is let through.
func NewRunRateLimit(limiter ratelimit.Allower) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := shared.UserIDFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			res, err := limiter.Allow(r.Context(), userID.String())
			if err != nil {
				logger.FromContextOrDefault(r.Context(), slog.Default()).
					Error("rate limit check failed, allowing request", "error", redact.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

			if !res.Allowed {
				retry := int(math.Ceil(res.RetryAfter(time.Now()).Seconds()))
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests,
					"Too many runs, try again later", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
