package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/busline/booking-engine/internal/middleware"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return raw
}

func runIdentity(t *testing.T, authHeader string) (any, int) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var captured any
	h := middleware.OptionalIdentity("test-secret")(func(c echo.Context) error {
		captured = c.Get("user_id")
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return captured, rec.Code
}

func TestOptionalIdentity_ValidTokenSetsUserID(t *testing.T) {
	raw := signToken(t, "test-secret", jwt.MapClaims{
		"sub": float64(7),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	userID, code := runIdentity(t, "Bearer "+raw)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(7), userID)
}

func TestOptionalIdentity_NoHeaderProceedsAnonymously(t *testing.T) {
	userID, code := runIdentity(t, "")

	assert.Equal(t, http.StatusOK, code)
	assert.Nil(t, userID)
}

func TestOptionalIdentity_BadSignatureProceedsAnonymously(t *testing.T) {
	raw := signToken(t, "other-secret", jwt.MapClaims{"sub": float64(7)})
	userID, code := runIdentity(t, "Bearer "+raw)

	assert.Equal(t, http.StatusOK, code)
	assert.Nil(t, userID)
}

func TestOptionalIdentity_ExpiredTokenProceedsAnonymously(t *testing.T) {
	raw := signToken(t, "test-secret", jwt.MapClaims{
		"sub": float64(7),
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	userID, code := runIdentity(t, "Bearer "+raw)

	assert.Equal(t, http.StatusOK, code)
	assert.Nil(t, userID)
}
