package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/account-service/internal/apperr"
	"github.com/iliyamo/account-service/internal/middleware"
	"github.com/iliyamo/account-service/internal/queue"
	"github.com/iliyamo/account-service/internal/repository"
)

// AccountHandler serves the /api/accounts resource.
type AccountHandler struct {
	Accounts AccountStore
	after    afterWrite
	log      *zap.Logger
}

// NewAccountHandler wires the handler.  cache and events may be nil.
func NewAccountHandler(accounts AccountStore, cache CachePurger, events EventPublisher, log *zap.Logger) *AccountHandler {
	if accounts == nil {
		panic("nil account store passed to NewAccountHandler")
	}
	return &AccountHandler{
		Accounts: accounts,
		after:    afterWrite{Cache: cache, Events: events, Log: log},
		log:      log,
	}
}

// maxNameLen matches the accounts.name column, counted in characters.
const maxNameLen = 255

type accountReq struct {
	Name string `json:"name" form:"name"`
}

func bindName(c echo.Context) (string, error) {
	var req accountReq
	if err := c.Bind(&req); err != nil {
		return "", apperr.BadRequest("Invalid request body")
	}
	if !utf8.ValidString(req.Name) {
		return "", apperr.BadRequest("name must be valid UTF-8")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return "", apperr.BadRequest("name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "", apperr.BadRequest("name must be at most 255 characters")
	}
	return name, nil
}

// auditEvent fills the actor fields from the caller's claims.
func auditEvent(c echo.Context, action string) queue.AuditEvent {
	ev := queue.AuditEvent{Action: action}
	if claims, ok := middleware.ClaimsFrom(c); ok {
		ev.ActorID = claims.Identity.ID
		ev.ActorRole = claims.Identity.Role
	}
	return ev
}

// List handles GET /api/accounts.
func (h *AccountHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	accounts, err := h.Accounts.List(ctx)
	if err != nil {
		return apperr.DB(err)
	}
	return writeJSONAPI(c, http.StatusOK, accounts)
}

// Get handles GET /api/accounts/:id.
func (h *AccountHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	a, err := h.Accounts.GetByID(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrAccountNotFound) {
		return apperr.NotFound("Account not found")
	}
	if err != nil {
		return apperr.DB(err)
	}
	return writeJSONAPI(c, http.StatusOK, a)
}

// Create handles POST /api/accounts.  The body only carries the name; the
// new id is reported through the Location header.
func (h *AccountHandler) Create(c echo.Context) error {
	name, err := bindName(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	a, err := h.Accounts.Create(ctx, name)
	if err != nil {
		return apperr.DB(err)
	}

	ev := auditEvent(c, queue.ActionAccountCreated)
	ev.ResourceID, ev.Name = a.ID, a.Name
	h.after.run(c, ev)

	c.Response().Header().Set(echo.HeaderLocation, "/api/accounts/"+a.ID)
	return okMessage(c, http.StatusCreated, "Account created")
}

// Update handles PUT /api/accounts/:id.  An unknown id is answered like a
// known one; the miss is logged and recorded in the audit event.
func (h *AccountHandler) Update(c echo.Context) error {
	name, err := bindName(c)
	if err != nil {
		return err
	}
	id := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	found, err := h.Accounts.UpdateName(ctx, id, name)
	if err != nil {
		return apperr.DB(err)
	}
	if !found {
		h.log.Warn("update of unknown account", zap.String("account_id", id))
	}

	ev := auditEvent(c, queue.ActionAccountUpdated)
	ev.ResourceID, ev.Name, ev.Found = id, name, &found
	h.after.run(c, ev)

	return okMessage(c, http.StatusOK, "Account updated")
}

// Delete handles DELETE /api/accounts/:id with the same unknown-id policy
// as Update.
func (h *AccountHandler) Delete(c echo.Context) error {
	id := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	found, err := h.Accounts.Delete(ctx, id)
	if err != nil {
		return apperr.DB(err)
	}
	if !found {
		h.log.Warn("delete of unknown account", zap.String("account_id", id))
	}

	ev := auditEvent(c, queue.ActionAccountDeleted)
	ev.ResourceID, ev.Found = id, &found
	h.after.run(c, ev)

	return okMessage(c, http.StatusOK, "Successfully deleted")
}
