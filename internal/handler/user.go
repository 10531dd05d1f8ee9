package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/account-service/internal/apperr"
)

// UserHandler serves the read-only /api/users resource.
type UserHandler struct {
	Users UserStore
}

func NewUserHandler(u UserStore) *UserHandler { return &UserHandler{Users: u} }

// List handles GET /api/users.  Only name and role are rendered.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return apperr.DB(err)
	}
	return writeJSONAPI(c, http.StatusOK, users)
}
