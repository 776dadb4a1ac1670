package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/config"
	"storefront/internal/http/handlers"
	"storefront/internal/media"
	"storefront/internal/metrics"
	"storefront/internal/repos"
	"storefront/internal/services"
)

const (
	adminEmail = "admin@example.com"
	password   = "Passw0rd!"
)

type testApp struct {
	app   *fiber.App
	store *repos.Store
	deps  *handlers.Deps
	dir   string
}

// newTestApp wires the real router over an in-memory store. opts can tweak
// Deps before the app is built.
func newTestApp(t *testing.T, opts ...func(*handlers.Deps)) *testApp {
	t.Helper()
	st, err := repos.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cfg := config.Config{
		UploadDir:      t.TempDir(),
		CORSOrigins:    "*",
		MaxUploadBytes: 1 << 20,
		SessionTTL:     30 * time.Minute,
	}
	files, err := media.NewLocalStore(cfg.UploadDir)
	require.NoError(t, err)

	auth := services.NewAuthService(st.Users, cfg.SessionTTL)
	auth.Cost = bcrypt.MinCost
	_, err = auth.EnsureAdmin(context.Background(), adminEmail, password)
	require.NoError(t, err)

	deps := handlers.NewDeps(st, cfg, auth, files, metrics.New())
	for _, o := range opts {
		o(deps)
	}
	return &testApp{app: handlers.NewApp(deps), store: st, deps: deps, dir: cfg.UploadDir}
}

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)
	return logs
}

func (a *testApp) send(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

// do sends body as JSON (nil means no body) with an optional bearer token.
func (a *testApp) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.send(t, req)
}

func (a *testApp) login(t *testing.T, email string) string {
	t.Helper()
	resp, body := a.do(t, "POST", "/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

// customer signs up and logs in a new customer.
func (a *testApp) customer(t *testing.T, email string) string {
	t.Helper()
	resp, body := a.do(t, "POST", "/auth/signup", "", map[string]string{"email": email, "name": "Cust", "password": password})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	return a.login(t, email)
}

// product creates a product through the admin API and returns its id.
func (a *testApp) product(t *testing.T, admin, name, price string, stock int) string {
	t.Helper()
	resp, body := a.do(t, "POST", "/admin/products", admin, map[string]any{
		"name": name, "price": price, "category": "misc", "stock": stock,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var p struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &p))
	return p.ID
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func errorMessage(t *testing.T, body []byte) string {
	t.Helper()
	return decode[struct {
		Error string `json:"error"`
	}](t, body).Error
}
