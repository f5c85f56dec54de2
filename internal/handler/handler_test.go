package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teresa-solution/workspace-service/internal/auth"
	"github.com/teresa-solution/workspace-service/internal/crypto"
	"github.com/teresa-solution/workspace-service/internal/monitoring"
	"github.com/teresa-solution/workspace-service/internal/service"
	"github.com/teresa-solution/workspace-service/internal/store/storetest"
)

const testPassword = "s3cret-pass"

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type testServer struct {
	e      *echo.Echo
	mem    *storetest.Memory
	tokens *auth.TokenManager
	dbErr  error
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	tokens, err := auth.NewTokenManager("handler-secret")
	require.NoError(t, err)

	ts := &testServer{mem: storetest.NewMemory(), tokens: tokens}
	hasher := crypto.NewHasher(4)
	h := New(
		service.NewTenantService(ts.mem, hasher, tokens, nil),
		service.NewUserService(ts.mem, hasher),
		service.NewProjectService(ts.mem),
		service.NewTaskService(ts.mem),
		tokens,
		monitoring.NewHealth(pingFunc(func(context.Context) error { return ts.dbErr })),
	)
	ts.e = NewEcho(h, []string{"http://localhost:3000"})
	return ts
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

type registered struct {
	TenantID  string `json:"tenantId"`
	AdminUser struct {
		ID string `json:"id"`
	} `json:"adminUser"`
}

func (ts *testServer) register(t *testing.T, subdomain string) (registered, string) {
	t.Helper()
	rec, env := ts.do(t, http.MethodPost, "/api/tenants", "", map[string]string{
		"tenantName":    subdomain,
		"subdomain":     subdomain,
		"adminEmail":    "admin@" + subdomain + ".test",
		"adminPassword": testPassword,
		"adminFullName": "Admin",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reg := decode[registered](t, env.Data)
	return reg, ts.login(t, subdomain, "admin@"+subdomain+".test")
}

func (ts *testServer) login(t *testing.T, subdomain, email string) string {
	t.Helper()
	rec, env := ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":           email,
		"password":        testPassword,
		"tenantSubdomain": subdomain,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expiresIn"`
	}](t, env.Data).Token
}

func TestHandler_EndToEnd(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.register(t, "acme")

	rec, env := ts.do(t, http.MethodPost, "/api/projects", token, map[string]string{"name": "Launch"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, env.Success)
	project := decode[struct {
		ID string `json:"id"`
	}](t, env.Data)

	rec, _ = ts.do(t, http.MethodPost, "/api/projects/"+project.ID+"/tasks", token, map[string]string{"title": "Draft roadmap"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, env = ts.do(t, http.MethodGet, "/api/projects/"+project.ID+"/tasks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Tasks []struct {
			Title    string  `json:"title"`
			Status   string  `json:"status"`
			Priority string  `json:"priority"`
			DueDate  *string `json:"dueDate"`
		} `json:"tasks"`
		Total int `json:"total"`
	}](t, env.Data)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "Draft roadmap", list.Tasks[0].Title)
	assert.Equal(t, "todo", list.Tasks[0].Status)
	assert.Equal(t, "medium", list.Tasks[0].Priority)
	assert.Nil(t, list.Tasks[0].DueDate)
}

func TestHandler_StatusMapping(t *testing.T) {
	ts := newTestServer(t)
	reg, token := ts.register(t, "acme")
	other, otherToken := ts.register(t, "globex")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
	}{
		{"missing registration fields", http.MethodPost, "/api/auth/register-tenant", "", map[string]string{"subdomain": "x"}, http.StatusBadRequest},
		{"duplicate subdomain", http.MethodPost, "/api/tenants", "", map[string]string{
			"tenantName": "a", "subdomain": "acme", "adminEmail": "a@b.co", "adminPassword": "p", "adminFullName": "A",
		}, http.StatusConflict},
		{"unknown tenant login", http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "a@b.co", "password": "p", "tenantSubdomain": "nope",
		}, http.StatusNotFound},
		{"bad password", http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "admin@acme.test", "password": "p", "tenantSubdomain": "acme",
		}, http.StatusUnauthorized},
		{"no token", http.MethodGet, "/api/auth/me", "", nil, http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/projects", "not.a.jwt", nil, http.StatusUnauthorized},
		{"cross tenant user list", http.MethodGet, "/api/tenants/" + other.TenantID + "/users", token, nil, http.StatusForbidden},
		{"cross tenant add user", http.MethodPost, "/api/tenants/" + reg.TenantID + "/users", otherToken, map[string]string{
			"email": "x@acme.test", "password": "p", "fullName": "X",
		}, http.StatusForbidden},
		{"self delete", http.MethodDelete, "/api/users/" + reg.AdminUser.ID, token, nil, http.StatusForbidden},
		{"bad path id", http.MethodPut, "/api/projects/not-a-uuid", token, map[string]string{"name": "x"}, http.StatusBadRequest},
		{"missing project", http.MethodDelete, "/api/projects/" + other.TenantID, token, nil, http.StatusNotFound},
		{"malformed body", http.MethodPost, "/api/projects", token, "just a string", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := ts.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Message)
		})
	}
}

func TestHandler_Me(t *testing.T) {
	ts := newTestServer(t)
	reg, token := ts.register(t, "acme")

	rec, env := ts.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[map[string]any](t, env.Data)
	assert.Equal(t, reg.AdminUser.ID, me["id"])
	assert.NotContains(t, me, "passwordHash")
	tenant, ok := me["tenant"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "acme", tenant["subdomain"])
	assert.EqualValues(t, 3, tenant["maxProjects"])
}

func TestHandler_UpdateProjectMergePatch(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.register(t, "acme")

	_, env := ts.do(t, http.MethodPost, "/api/projects", token, map[string]string{"name": "Launch", "description": "Q3"})
	project := decode[struct {
		ID string `json:"id"`
	}](t, env.Data)

	rec, env := ts.do(t, http.MethodPut, "/api/projects/"+project.ID, token, map[string]any{"status": "done", "name": nil})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Status      string `json:"status"`
	}](t, env.Data)
	assert.Equal(t, "Launch", updated.Name)
	assert.Equal(t, "Q3", updated.Description)
	assert.Equal(t, "done", updated.Status)
}

func TestHandler_RequestID(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	ts.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHandler_Health(t *testing.T) {
	ts := newTestServer(t)

	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","database":"connected"}`, rec.Body.String())

	ts.dbErr = errors.New("connection refused")
	rec = httptest.NewRecorder()
	ts.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandler_InternalErrorsDoNotLeak(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.register(t, "acme")

	ts.mem.Err = errors.New("pq: relation \"projects\" does not exist")
	rec, env := ts.do(t, http.MethodGet, "/api/projects", token, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to fetch projects", env.Message)
	assert.NotContains(t, rec.Body.String(), "relation")
}

func TestHandler_CORS(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/projects", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:3000")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodGet)
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))

	req = httptest.NewRequest(http.MethodOptions, "/api/projects", nil)
	req.Header.Set(echo.HeaderOrigin, "http://evil.test")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodGet)
	rec = httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}
