package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	appErrors "github.com/lncproducciones/eshops-cart/internal/errors"
	"github.com/lncproducciones/eshops-cart/internal/utils/response"
)

type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, id string) (Decision, error)
}

// RateLimit limits calls per session. It must run inside Session. A nil
// limiter lets everything through, and so does a failing one.
func RateLimit(limiter Limiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		sessionID, ok := SessionIDFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		decision, err := limiter.Allow(r.Context(), sessionID)
		if err != nil {
			LoggerFromContext(r.Context()).Error("Rate limiter unavailable", slog.Any("error", err))
			next.ServeHTTP(w, r)
			return
		}

		if !decision.Allowed {
			seconds := int(math.Ceil(decision.RetryAfter.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(max(seconds, 1)))
			response.Error(w, appErrors.TooManyRequestsError("Too many catalog requests, try again later"))
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
		next.ServeHTTP(w, r)
	})
}
