package handler // handler defines http handlers

import (
	"context"
	"time"

	"github.com/google/jsonapi"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/account-service/internal/model"
	"github.com/iliyamo/account-service/internal/queue"
)

// storeTimeout bounds every store call made while serving a request.
const storeTimeout = 5 * time.Second

// AccountStore is the persistence the account handlers need.
type AccountStore interface {
	Create(ctx context.Context, name string) (*model.Account, error)
	List(ctx context.Context) ([]*model.Account, error)
	GetByID(ctx context.Context, id string) (*model.Account, error)
	UpdateName(ctx context.Context, id, name string) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// UserStore is the persistence the user, auth and setup handlers need.
type UserStore interface {
	CreateMany(ctx context.Context, users []*model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
}

// EventPublisher delivers audit events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.AuditEvent) error
}

// CachePurger invalidates cached read responses after a write.
type CachePurger interface {
	Purge(ctx context.Context) error
}

// messageResp is the body of mutation responses.
type messageResp struct {
	Message string `json:"message"`
}

// writeJSONAPI renders payload (a model pointer or a slice of them) as a
// JSON:API document.
func writeJSONAPI(c echo.Context, status int, payload interface{}) error {
	c.Response().Header().Set(echo.HeaderContentType, jsonapi.MediaType)
	c.Response().WriteHeader(status)
	return jsonapi.MarshalPayload(c.Response(), payload)
}

// afterWrite purges the read cache and publishes ev in the background.
// Neither step can fail the request that already succeeded.
type afterWrite struct {
	Cache  CachePurger
	Events EventPublisher
	Log    *zap.Logger
}

func (w afterWrite) run(c echo.Context, ev queue.AuditEvent) {
	ctx := context.WithoutCancel(c.Request().Context())
	if w.Cache != nil {
		if err := w.Cache.Purge(ctx); err != nil {
			w.Log.Warn("cache purge failed", zap.Error(err))
		}
	}
	if w.Events == nil {
		return
	}
	ev.RequestID = c.Response().Header().Get(echo.HeaderXRequestID)
	ev.OccurredAt = time.Now().UTC()
	go func() {
		ctx, cancel := context.WithTimeout(ctx, storeTimeout)
		defer cancel()
		if err := w.Events.Publish(ctx, ev); err != nil {
			w.Log.Warn("audit publish failed", zap.String("action", ev.Action), zap.Error(err))
		}
	}()
}

func okMessage(c echo.Context, status int, msg string) error {
	return c.JSON(status, messageResp{Message: msg})
}

