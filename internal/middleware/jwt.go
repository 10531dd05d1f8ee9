package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"strings" // string utilities for prefix checking

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/account-service/internal/apperr"
	"github.com/iliyamo/account-service/internal/auth"
)

// bearerPrefix is the only accepted Authorization scheme.
const bearerPrefix = "Bearer "

// JWTAuth returns an Echo middleware that validates a Bearer token and
// attaches its decoded claims to the request context.  Handlers and later
// middleware read them back with ClaimsFrom.  Failures are returned as
// apperr values so the central error handler renders them.
func JWTAuth(tokens *auth.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), bearerPrefix)
			if !ok || strings.TrimSpace(raw) == "" {
				return apperr.Unauthorized("No token provided")
			}

			claims, err := tokens.Verify(strings.TrimSpace(raw))
			if err != nil {
				return apperr.Unauthorized("Failed to authenticate token")
			}

			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}
