package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lncproducciones/eshops-cart/internal/errors"
	"github.com/lncproducciones/eshops-cart/internal/utils/response"
)

const (
	SessionHeader = "X-Session-Token"
	SessionCookie = "eshops_session"
)

type sessionContextKey struct{}

// SessionClaims is the payload of a session token.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// SessionMiddleware identifies the browser session owning the cart. A
// request without a valid token starts a new session.
type SessionMiddleware struct {
	key    []byte
	expiry time.Duration
}

func NewSessionMiddleware(key []byte, expiry time.Duration) *SessionMiddleware {
	return &SessionMiddleware{key: key, expiry: expiry}
}

func (m *SessionMiddleware) Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		logger := LoggerFromContext(r.Context())

		sessionID, err := m.sessionFromRequest(r)
		if err != nil {
			logger.Debug("No valid session token, starting a new session", slog.String("reason", err.Error()))

			sessionID = uuid.NewString()

			token, err := m.IssueToken(sessionID)
			if err != nil {
				logger.Error("Failed to sign session token", slog.Any("error", err))
				response.Error(w, errors.InternalError("Failed to start session").WithError(err))
				return
			}

			w.Header().Set(SessionHeader, token)
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    token,
				Path:     "/",
				MaxAge:   int(m.expiry.Seconds()),
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := WithSessionID(r.Context(), sessionID)
		ctx = context.WithValue(ctx, LoggerKey, logger.With(slog.String("sessionId", sessionID)))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IssueToken signs a token for sessionID.
func (m *SessionMiddleware) IssueToken(sessionID string) (string, error) {
	now := time.Now()

	claims := &SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
}

func (m *SessionMiddleware) sessionFromRequest(r *http.Request) (string, error) {
	tokenString := r.Header.Get(SessionHeader)
	if tokenString == "" {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil {
			return "", err
		}
		tokenString = cookie.Value
	}

	claims := &SessionClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return m.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}

	if _, err := uuid.Parse(claims.SessionID); err != nil {
		return "", err
	}

	return claims.SessionID, nil
}

// SessionIDFromContext returns the session id set by SessionMiddleware.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(sessionContextKey{}).(string)
	return sessionID, ok && sessionID != ""
}

// WithSessionID stores a session id in ctx.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sessionID)
}
