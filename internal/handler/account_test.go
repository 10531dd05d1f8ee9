package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/account-service/internal/auth"
	"github.com/iliyamo/account-service/internal/middleware"
	"github.com/iliyamo/account-service/internal/queue"
)

type accountFixture struct {
	e      *echo.Echo
	store  *memAccounts
	events *recordingPublisher
	cache  *countingPurger
	admin  string
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()
	f := &accountFixture{
		e:      newEcho(),
		store:  newMemAccounts(),
		events: &recordingPublisher{},
		cache:  &countingPurger{},
	}
	tokens := auth.NewTokenService(testSecret, time.Hour)
	f.admin = bearer(t, tokens, "admin-1", "admin")

	h := NewAccountHandler(f.store, f.cache, f.events, zap.NewNop())
	g := f.e.Group("/api/accounts", middleware.JWTAuth(tokens))
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	return f
}

func TestAccounts_ListEmpty(t *testing.T) {
	f := newAccountFixture(t)

	rec := do(f.e, http.MethodGet, "/api/accounts", "", f.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.api+json", rec.Header().Get(echo.HeaderContentType))
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}

func TestAccounts_CreateThenFetch(t *testing.T) {
	f := newAccountFixture(t)

	rec := do(f.e, http.MethodPost, "/api/accounts", `{"name":"Acme"}`, f.admin)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"Account created"}`, rec.Body.String())
	loc := rec.Header().Get(echo.HeaderLocation)
	require.NotEmpty(t, loc)

	rec = do(f.e, http.MethodGet, loc, "", f.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	var doc oneDoc
	decode(t, rec, &doc)
	assert.Equal(t, "accounts", doc.Data.Type)
	assert.Equal(t, "/api/accounts/"+doc.Data.ID, loc)
	assert.Equal(t, map[string]interface{}{"name": "Acme"}, doc.Data.Attributes)

	rec = do(f.e, http.MethodGet, "/api/accounts", "", f.admin)
	var list manyDoc
	decode(t, rec, &list)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "Acme", list.Data[0].Attributes["name"])

	assert.Equal(t, 1, f.cache.count())
	assert.Eventually(t, func() bool { return len(f.events.snapshot()) == 1 }, time.Second, 10*time.Millisecond)
	ev := f.events.snapshot()[0]
	assert.Equal(t, queue.ActionAccountCreated, ev.Action)
	assert.Equal(t, doc.Data.ID, ev.ResourceID)
	assert.Equal(t, "admin-1", ev.ActorID)
	assert.Equal(t, "admin", ev.ActorRole)
}

func TestAccounts_CreateRequiresName(t *testing.T) {
	f := newAccountFixture(t)

	for _, body := range []string{`{}`, `{"name":"   "}`} {
		rec := do(f.e, http.MethodPost, "/api/accounts", body, f.admin)
		requireErrorDoc(t, rec, http.StatusBadRequest, "name is required")
	}
	rec := do(f.e, http.MethodPost, "/api/accounts", `{"name":`, f.admin)
	requireErrorDoc(t, rec, http.StatusBadRequest, "Invalid request body")
	assert.Zero(t, f.cache.count())
}

func TestAccounts_GetUnknown(t *testing.T) {
	f := newAccountFixture(t)

	rec := do(f.e, http.MethodGet, "/api/accounts/nope", "", f.admin)
	requireErrorDoc(t, rec, http.StatusNotFound, "Account not found")
}

func TestAccounts_Update(t *testing.T) {
	f := newAccountFixture(t)
	a, err := f.store.Create(context.Background(), "Old")
	require.NoError(t, err)

	rec := do(f.e, http.MethodPut, "/api/accounts/"+a.ID, `{"name":"New"}`, f.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Account updated"}`, rec.Body.String())

	got, err := f.store.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)
}

func TestAccounts_UpdateUnknownStillSucceeds(t *testing.T) {
	f := newAccountFixture(t)

	rec := do(f.e, http.MethodPut, "/api/accounts/ghost", `{"name":"New"}`, f.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Account updated"}`, rec.Body.String())

	assert.Eventually(t, func() bool { return len(f.events.snapshot()) == 1 }, time.Second, 10*time.Millisecond)
	ev := f.events.snapshot()[0]
	require.NotNil(t, ev.Found)
	assert.False(t, *ev.Found)
}

func TestAccounts_DeleteIsIdempotent(t *testing.T) {
	f := newAccountFixture(t)
	a, err := f.store.Create(context.Background(), "Gone")
	require.NoError(t, err)

	first := do(f.e, http.MethodDelete, "/api/accounts/"+a.ID, "", f.admin)
	second := do(f.e, http.MethodDelete, "/api/accounts/"+a.ID, "", f.admin)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.JSONEq(t, `{"message":"Successfully deleted"}`, second.Body.String())

	rec := do(f.e, http.MethodGet, "/api/accounts/"+a.ID, "", f.admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAccounts_StoreFailure(t *testing.T) {
	f := newAccountFixture(t)
	f.store.err = errStoreDown

	rec := do(f.e, http.MethodGet, "/api/accounts", "", f.admin)
	requireErrorDoc(t, rec, http.StatusInternalServerError, "Database error")
	assert.NotContains(t, rec.Body.String(), errStoreDown.Error())

	rec = do(f.e, http.MethodPost, "/api/accounts", `{"name":"x"}`, f.admin)
	requireErrorDoc(t, rec, http.StatusInternalServerError, "Database error")
}

func TestNewAccountHandler_NilStorePanics(t *testing.T) {
	assert.Panics(t, func() { NewAccountHandler(nil, nil, nil, zap.NewNop()) })
}

func TestAccounts_NameLength(t *testing.T) {
	f := newAccountFixture(t)
	a, err := f.store.Create(context.Background(), "Old")
	require.NoError(t, err)

	// multi-byte runes: the limit counts characters, not bytes
	fits := strings.Repeat("é", maxNameLen)
	tooLong := fits + "é"

	rec := do(f.e, http.MethodPost, "/api/accounts", `{"name":"`+tooLong+`"}`, f.admin)
	requireErrorDoc(t, rec, http.StatusBadRequest, "name must be at most 255 characters")
	rec = do(f.e, http.MethodPut, "/api/accounts/"+a.ID, `{"name":"`+tooLong+`"}`, f.admin)
	requireErrorDoc(t, rec, http.StatusBadRequest, "name must be at most 255 characters")

	got, err := f.store.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Old", got.Name)

	rec = do(f.e, http.MethodPost, "/api/accounts", `{"name":"`+fits+`"}`, f.admin)
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec = do(f.e, http.MethodPut, "/api/accounts/"+a.ID, `{"name":"`+fits+`"}`, f.admin)
	assert.Equal(t, http.StatusOK, rec.Code)

	got, err = f.store.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, fits, got.Name)
}

func TestAccounts_RejectsInvalidUTF8(t *testing.T) {
	f := newAccountFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader("name=%FF%FE"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	req.Header.Set(echo.HeaderAuthorization, f.admin)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	requireErrorDoc(t, rec, http.StatusBadRequest, "name must be valid UTF-8")
	list, err := f.store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}
