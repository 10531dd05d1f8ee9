package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/account-service/internal/auth"
	"github.com/iliyamo/account-service/internal/handler"
	"github.com/iliyamo/account-service/internal/middleware"
	"github.com/iliyamo/account-service/internal/model"
)

// RegisterRoutes registers the unauthenticated top-level routes.  A nil
// setup handler leaves GET /setup unregistered.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, setup *handler.SetupHandler) {
	e.GET("/", handler.Welcome)
	e.GET("/healthz", handler.Health(db))
	e.GET("/api", handler.APIWelcome)
	if setup != nil {
		// development seeding; no gate, no idempotence
		e.GET("/setup", setup.Seed)
	}
}

// RegisterAuth registers the token endpoint and the caller-introspection
// route.  limiter guards POST /api/auth against password guessing.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, tokens *auth.TokenService, limiter echo.MiddlewareFunc) {
	e.POST("/api/auth", a.Authenticate, limiter)
	e.GET("/api/me", a.Me, middleware.JWTAuth(tokens))
}

// RegisterUsers registers the read-only user listing.  It requires a token
// but no particular role.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, tokens *auth.TokenService, cache echo.MiddlewareFunc) {
	g := e.Group("/api/users", middleware.JWTAuth(tokens))
	g.GET("", u.List, cache)
}

// RegisterAccounts registers the account resource.  Every route requires a
// token; mutations additionally require the admin role.  Reads go through
// the response cache, which the handler purges after each write.
func RegisterAccounts(e *echo.Echo, h *handler.AccountHandler, tokens *auth.TokenService, cache echo.MiddlewareFunc) {
	g := e.Group("/api/accounts", middleware.JWTAuth(tokens))
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	g.GET("", h.List, cache)
	g.GET("/:id", h.Get, cache)
	g.POST("", h.Create, adminOnly)
	g.PUT("/:id", h.Update, adminOnly)
	g.DELETE("/:id", h.Delete, adminOnly)
}
