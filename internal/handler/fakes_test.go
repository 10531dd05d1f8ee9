package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/account-service/internal/auth"
	"github.com/iliyamo/account-service/internal/model"
	"github.com/iliyamo/account-service/internal/queue"
	"github.com/iliyamo/account-service/internal/repository"
)

var errStoreDown = errors.New("store down")

// memAccounts is an in-memory AccountStore.
type memAccounts struct {
	mu    sync.Mutex
	rows  map[string]*model.Account
	order []string
	err   error
}

func newMemAccounts() *memAccounts { return &memAccounts{rows: map[string]*model.Account{}} }

func (m *memAccounts) Create(_ context.Context, name string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	a := &model.Account{ID: uuid.NewString(), Name: name, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.rows[a.ID] = a
	m.order = append(m.order, a.ID)
	return a, nil
}

func (m *memAccounts) List(context.Context) ([]*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := []*model.Account{}
	for _, id := range m.order {
		if a, ok := m.rows[id]; ok {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memAccounts) GetByID(_ context.Context, id string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAccounts) UpdateName(_ context.Context, id, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	a, ok := m.rows[id]
	if !ok {
		return false, nil
	}
	a.Name = name
	return true, nil
}

func (m *memAccounts) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.rows[id]
	delete(m.rows, id)
	return ok, nil
}

// memUsers is an in-memory UserStore.
type memUsers struct {
	mu    sync.Mutex
	rows  map[string]*model.User
	order []string
	err   error
}

func newMemUsers() *memUsers { return &memUsers{rows: map[string]*model.User{}} }

func (m *memUsers) CreateMany(_ context.Context, users []*model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, u := range users {
		if !model.ValidRole(u.Role) {
			return repository.ErrInvalidRole
		}
	}
	for _, u := range users {
		u.ID = uuid.NewString()
		cp := *u
		m.rows[u.ID] = &cp
		m.order = append(m.order, u.ID)
	}
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) List(context.Context) ([]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := []*model.User{}
	for _, id := range m.order {
		cp := *m.rows[id]
		out = append(out, &cp)
	}
	return out, nil
}

// add stores a user with a known password and returns it.
func (m *memUsers) add(t *testing.T, name, role, password string) *model.User {
	t.Helper()
	hash, err := auth.HashPassword(password, 4)
	require.NoError(t, err)
	u := &model.User{Name: name, Role: role, PasswordHash: hash}
	require.NoError(t, m.CreateMany(context.Background(), []*model.User{u}))
	return u
}

// recordingPublisher collects published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.AuditEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.AuditEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) snapshot() []queue.AuditEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.AuditEvent(nil), p.events...)
}

// countingPurger counts Purge calls.
type countingPurger struct {
	mu    sync.Mutex
	calls int
}

func (p *countingPurger) Purge(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return nil
}

func (p *countingPurger) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// ----- request helpers -----

const testSecret = "test-secret"

func newEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zap.NewNop())
	return e
}

func bearer(t *testing.T, tokens *auth.TokenService, id, role string) string {
	t.Helper()
	tok, err := tokens.Issue(auth.Identity{ID: id, Name: "Tester", Role: role})
	require.NoError(t, err)
	return "Bearer " + tok
}

func do(e *echo.Echo, method, target, body, authz string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if authz != "" {
		req.Header.Set(echo.HeaderAuthorization, authz)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// ----- response shapes -----

type resourceObject struct {
	Type       string                 `json:"type"`
	ID         string                 `json:"id"`
	Attributes map[string]interface{} `json:"attributes"`
}

type manyDoc struct {
	Data []resourceObject `json:"data"`
}

type oneDoc struct {
	Data resourceObject `json:"data"`
}

type errorDoc struct {
	Errors []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
		Status string `json:"status"`
	} `json:"errors"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func requireErrorDoc(t *testing.T, rec *httptest.ResponseRecorder, status int, detail string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	require.Equal(t, "application/vnd.api+json", rec.Header().Get(echo.HeaderContentType))
	var doc errorDoc
	decode(t, rec, &doc)
	require.Len(t, doc.Errors, 1)
	require.Equal(t, http.StatusText(status), doc.Errors[0].Title)
	require.Equal(t, detail, doc.Errors[0].Detail)
}
