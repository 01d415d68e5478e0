package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/blog-api/app"
	"github.com/upb/blog-api/config"
	"github.com/upb/blog-api/utils"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Store:       config.StoreMemory,
		Server:      config.ServerConfig{RequestTimeout: 10 * time.Second},
		Auth: config.AuthConfig{
			JWTSecret:  "routes-test-secret-routes-test-s",
			TokenTTL:   time.Hour,
			BcryptCost: 4,
		},
		HTTP: config.HTTPConfig{
			CORSAllowedOrigins: []string{"http://localhost:3000"},
			RateLimitRPS:       1000,
			RateLimitBurst:     1000,
		},
		Tasks:         config.TasksConfig{Workers: 1, QueueSize: 16},
		Observability: config.ObservabilityConfig{LogLevel: "info", MetricsEnabled: true},
	}
}

func newServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()
	deps, err := app.NewDependencies(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	srv := httptest.NewServer(SetupRoutes(deps))
	t.Cleanup(func() {
		srv.Close()
		_ = deps.Close(context.Background())
	})
	return srv
}

type client struct {
	t    *testing.T
	base string
}

func (c client) call(method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	if resp.StatusCode != http.StatusNoContent && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp, decoded
}

func (c client) register(username string) {
	c.t.Helper()
	resp, body := c.call(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	require.Equal(c.t, http.StatusCreated, resp.StatusCode, body)
}

func (c client) login(username string) string {
	c.t.Helper()
	resp, body := c.call(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": "password123",
	})
	require.Equal(c.t, http.StatusOK, resp.StatusCode, body)
	data := body["data"].(map[string]interface{})
	assert.Equal(c.t, "bearer", data["token_type"])
	assert.Equal(c.t, float64(3600), data["expires_in"])
	return data["access_token"].(string)
}

func TestRegisterLoginResolve(t *testing.T) {
	srv := newServer(t, testConfig())
	c := client{t: t, base: srv.URL}

	c.register("alice")
	token := c.login("alice")

	resp, body := c.call(http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := body["data"].(map[string]interface{})
	assert.Equal(t, "alice", me["username"])
	assert.NotContains(t, me, "password_hash")
	assert.NotEmpty(t, resp.Header.Get("X-Process-Time"))

	t.Run("wrong password", func(t *testing.T) {
		resp, body := c.call(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"username": "alice",
			"password": "not-the-password",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, utils.CodeUnauthorized, body["error"])
	})

	t.Run("unauthenticated", func(t *testing.T) {
		resp, _ := c.call(http.MethodGet, "/api/v1/posts", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
	})
}

func TestOwnershipEnforced(t *testing.T) {
	srv := newServer(t, testConfig())
	c := client{t: t, base: srv.URL}

	c.register("alice")
	c.register("bob")
	alice := c.login("alice")
	bob := c.login("bob")

	resp, body := c.call(http.MethodPost, "/api/v1/posts", alice, map[string]string{
		"title":   "Alice writes",
		"content": "Something worth reading",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, "Post created successfully", body["message"])
	postID := body["data"].(map[string]interface{})["id"].(string)

	resp, body = c.call(http.MethodPut, "/api/v1/posts/"+postID, bob, map[string]string{"title": "Bob was here"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "You can only update your own posts", body["message"])

	resp, _ = c.call(http.MethodPut, "/api/v1/posts/"+postID, alice, map[string]string{"title": "Alice edits"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = c.call(http.MethodGet, "/api/v1/admin/dashboard", alice, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newServer(t, testConfig())
	c := client{t: t, base: srv.URL}

	resp, body := c.call(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["data"].(map[string]interface{})["status"])

	resp, body = c.call(http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	checks := body["data"].(map[string]interface{})["checks"].(map[string]interface{})
	assert.Equal(t, "not_configured", checks["database"])

	metrics, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(metrics.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, metrics.StatusCode)
	assert.Contains(t, buf.String(), `http_requests_total{method="GET",path="/health",status="200"}`)
}

func TestRateLimitOnAuth(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.RateLimitRPS = 0.001
	cfg.HTTP.RateLimitBurst = 2
	srv := newServer(t, cfg)
	c := client{t: t, base: srv.URL}

	login := map[string]string{"username": "nobody", "password": "password123"}
	for i := 0; i < 2; i++ {
		resp, _ := c.call(http.MethodPost, "/api/v1/auth/login", "", login)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	resp, body := c.call(http.MethodPost, "/api/v1/auth/login", "", login)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, utils.CodeTooManyRequests, body["error"])
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	// Other routes are not limited
	resp, _ = c.call(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUnknownRoute(t *testing.T) {
	srv := newServer(t, testConfig())
	c := client{t: t, base: srv.URL}

	resp, body := c.call(http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, utils.CodeNotFound, body["error"])
}
