// Package middleware contains reusable HTTP middleware.  Token issuance
// is owned by the external auth service; the engine only needs to know
// who is asking, and only sometimes, since orders can be placed by guests.
package middleware

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// OptionalIdentity parses a Bearer access token when one is present and
// stores the subject claim under "user_id" in the request context.  A
// missing or invalid token is not an error here: the request proceeds
// anonymously and guest-capable handlers decide what identity they need.
func OptionalIdentity(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return next(c)
			}
			raw := strings.TrimPrefix(auth, "Bearer ")
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return next(c)
			}
			if claims, ok := tok.Claims.(jwt.MapClaims); ok {
				c.Set("user_id", claims["sub"])
			}
			return next(c)
		}
	}
}
