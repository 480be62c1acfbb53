package errors_test

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	appErrors "github.com/lncproducciones/eshops-cart/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *appErrors.AppError
		code   string
		status int
	}{
		{"Validation", appErrors.ValidationError("bad"), appErrors.ErrCodeValidation, http.StatusBadRequest},
		{"BadRequest", appErrors.BadRequestError("bad"), appErrors.ErrCodeBadRequest, http.StatusBadRequest},
		{"NotFound", appErrors.NotFoundError("missing"), appErrors.ErrCodeNotFound, http.StatusNotFound},
		{"Unauthorized", appErrors.UnauthorizedError("who"), appErrors.ErrCodeUnauthorized, http.StatusUnauthorized},
		{"TooManyRequests", appErrors.TooManyRequestsError("slow down"), appErrors.ErrCodeRateLimited, http.StatusTooManyRequests},
		{"Internal", appErrors.InternalError("boom"), appErrors.ErrCodeInternal, http.StatusInternalServerError},
		{"Persistence", appErrors.PersistenceError("lost"), appErrors.ErrCodePersistence, http.StatusInternalServerError},
		{"CatalogLookup", appErrors.CatalogLookupError("remote"), appErrors.ErrCodeCatalogLookup, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.StatusCode)
		})
	}
}

func TestAppErrorWrapping(t *testing.T) {
	cause := stdErrors.New("redis down")
	err := appErrors.PersistenceError("Failed to save order").WithError(cause).WithDetail("session:abc:pedido")

	assert.Equal(t, "Failed to save order", err.Error())
	assert.Equal(t, "session:abc:pedido", err.Detail)
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("outer: %w", err)
	appErr, ok := appErrors.IsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, appErrors.ErrCodePersistence, appErr.Code)

	_, ok = appErrors.IsAppError(cause)
	assert.False(t, ok)
}

func TestAddValidationError(t *testing.T) {
	err := appErrors.AddValidationError("cantidad", "must be greater than 0")
	assert.Equal(t, "Invalid field 'cantidad': must be greater than 0", err.Message)
	assert.Equal(t, appErrors.ErrCodeValidation, err.Code)
}
