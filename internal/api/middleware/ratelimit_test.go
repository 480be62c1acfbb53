package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lncproducciones/eshops-cart/internal/api/middleware"
	"github.com/stretchr/testify/assert"
)

type stubLimiter struct {
	decision middleware.Decision
	err      error
	calls    int
}

func (s *stubLimiter) Allow(context.Context, string) (middleware.Decision, error) {
	s.calls++
	return s.decision, s.err
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func sessionRequest() *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/checkout", nil)
	return req.WithContext(middleware.WithSessionID(req.Context(), "s1"))
}

func TestRateLimit(t *testing.T) {
	t.Run("Allowed", func(t *testing.T) {
		limiter := &stubLimiter{decision: middleware.Decision{Allowed: true, Remaining: 4}}
		recorder := httptest.NewRecorder()

		middleware.RateLimit(limiter, okHandler()).ServeHTTP(recorder, sessionRequest())

		assert.Equal(t, http.StatusNoContent, recorder.Code)
		assert.Equal(t, "4", recorder.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("Denied", func(t *testing.T) {
		limiter := &stubLimiter{decision: middleware.Decision{RetryAfter: 1500 * time.Millisecond}}
		recorder := httptest.NewRecorder()

		middleware.RateLimit(limiter, okHandler()).ServeHTTP(recorder, sessionRequest())

		assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
		assert.Equal(t, "2", recorder.Header().Get("Retry-After"))
		assert.Contains(t, recorder.Body.String(), "TOO_MANY_REQUESTS")
	})

	t.Run("Limiter failure lets the request through", func(t *testing.T) {
		limiter := &stubLimiter{err: errors.New("redis down")}
		recorder := httptest.NewRecorder()

		middleware.RateLimit(limiter, okHandler()).ServeHTTP(recorder, sessionRequest())

		assert.Equal(t, http.StatusNoContent, recorder.Code)
	})

	t.Run("No session skips the limiter", func(t *testing.T) {
		limiter := &stubLimiter{}
		recorder := httptest.NewRecorder()

		middleware.RateLimit(limiter, okHandler()).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusNoContent, recorder.Code)
		assert.Equal(t, 0, limiter.calls)
	})

	t.Run("Nil limiter", func(t *testing.T) {
		recorder := httptest.NewRecorder()

		middleware.RateLimit(nil, okHandler()).ServeHTTP(recorder, sessionRequest())

		assert.Equal(t, http.StatusNoContent, recorder.Code)
	})
}
