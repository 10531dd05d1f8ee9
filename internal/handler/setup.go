package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/account-service/internal/apperr"
	"github.com/iliyamo/account-service/internal/auth"
	"github.com/iliyamo/account-service/internal/model"
	"github.com/iliyamo/account-service/internal/queue"
)

// seedRoles lists the role of every user a seeding run creates.
var seedRoles = []string{
	model.RoleUser, model.RoleUser, model.RoleUser,
	model.RoleAdmin, model.RoleAdmin, model.RoleAdmin,
}

// SetupHandler seeds the user collection for development.
type SetupHandler struct {
	Users      UserStore
	BcryptCost int
	faker      *gofakeit.Faker
	after      afterWrite
}

func NewSetupHandler(users UserStore, bcryptCost int, cache CachePurger, events EventPublisher, log *zap.Logger) *SetupHandler {
	return &SetupHandler{
		Users:      users,
		BcryptCost: bcryptCost,
		faker:      gofakeit.NewCrypto(),
		after:      afterWrite{Cache: cache, Events: events, Log: log},
	}
}

type seededUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

type setupResp struct {
	Message string       `json:"message"`
	Users   []seededUser `json:"users"`
}

// Seed handles GET /setup.  Every call inserts a fresh batch; nothing
// checks for earlier runs.  Plaintext passwords are only ever returned
// here since the store keeps bcrypt hashes.
func (h *SetupHandler) Seed(c echo.Context) error {
	users := make([]*model.User, 0, len(seedRoles))
	plain := make([]string, 0, len(seedRoles))
	for _, role := range seedRoles {
		pw := strconv.Itoa(h.faker.Number(100000, 999999))
		hash, err := auth.HashPassword(pw, h.BcryptCost)
		if err != nil {
			return err
		}
		users = append(users, &model.User{Name: h.faker.Name(), Role: role, PasswordHash: hash})
		plain = append(plain, pw)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	if err := h.Users.CreateMany(ctx, users); err != nil {
		return apperr.DB(err)
	}

	h.after.run(c, queue.AuditEvent{Action: queue.ActionUsersSeeded, Count: len(users)})

	resp := setupResp{Message: "Users created", Users: make([]seededUser, len(users))}
	for i, u := range users {
		resp.Users[i] = seededUser{ID: u.ID, Name: u.Name, Role: u.Role, Password: plain[i]}
	}
	return c.JSON(http.StatusOK, resp)
}
