package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/account-service/internal/apperr"
	"github.com/iliyamo/account-service/internal/auth"
	"github.com/iliyamo/account-service/internal/middleware"
	"github.com/iliyamo/account-service/internal/repository"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Users  UserStore
	Tokens *auth.TokenService
}

func NewAuthHandler(u UserStore, t *auth.TokenService) *AuthHandler {
	return &AuthHandler{Users: u, Tokens: t}
}

// ----- DTOs -----

type authReq struct {
	ID       string `json:"id" form:"id"`
	Password string `json:"password" form:"password"`
}

type tokenResp struct {
	Token string `json:"token"`
}

// Authenticate handles POST /api/auth: checks the password of the user with
// the given id and returns a signed token carrying its id, name and role.
func (h *AuthHandler) Authenticate(c echo.Context) error {
	var req authReq
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}
	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" || req.Password == "" {
		return apperr.BadRequest("id and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, req.ID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return apperr.NotFound("User not found")
	}
	if err != nil {
		return apperr.DB(err)
	}
	if !auth.VerifyPassword(u.PasswordHash, req.Password) {
		return apperr.Unauthorized("Authentication failed. Wrong password")
	}

	token, err := h.Tokens.Issue(auth.Identity{ID: u.ID, Name: u.Name, Role: u.Role})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, tokenResp{Token: token})
}

// Me: simple protected endpoint echoing the caller's claims.
func (h *AuthHandler) Me(c echo.Context) error {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return apperr.Unauthorized("No token provided")
	}
	return c.JSON(http.StatusOK, claims.Identity)
}
