package middleware

// identity.go holds the context plumbing shared by the auth and role gates
// and the access log.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/account-service/internal/auth"
)

const claimsKey = "claims"

// ClaimsFrom returns the claims JWTAuth attached to c, if any.
func ClaimsFrom(c echo.Context) (*auth.Claims, bool) {
	claims, ok := c.Get(claimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}

// userID returns the authenticated user's id or "anon".
func userID(c echo.Context) string {
	if claims, ok := ClaimsFrom(c); ok && claims.Identity.ID != "" {
		return claims.Identity.ID
	}
	return "anon"
}
