package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webOrigin = "http://localhost:5173"

func browserRequest(method, path string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Origin", webOrigin)
	return req
}

func TestMiddleware_FeedRateLimitKeepsCORS(t *testing.T) {
	app := newTestApp(t, "")

	for i := 0; i < 100; i++ {
		resp, err := app.Test(browserRequest(http.MethodGet, "/api/articles"), -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, "request %d", i+1)
		_ = resp.Body.Close()
	}

	resp, err := app.Test(browserRequest(http.MethodGet, "/api/articles"), -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, webOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body["error"])

	// A browser that has hit the limit can still preflight a new article.
	pre := browserRequest(http.MethodOptions, "/api/articles")
	pre.Header.Set("Access-Control-Request-Method", http.MethodPost)
	pre.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
	preResp, err := app.Test(pre, -1)
	require.NoError(t, err)
	defer func() { _ = preResp.Body.Close() }()

	assert.Equal(t, fiber.StatusNoContent, preResp.StatusCode)
	assert.Equal(t, webOrigin, preResp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, preResp.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestMiddleware_UnknownOriginGetsNoCORS(t *testing.T) {
	app := newTestApp(t, "")

	req := httptest.NewRequest(http.MethodGet, "/api/articles", nil)
	req.Header.Set("Origin", "https://evil.example")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestMiddleware_SecurityHeadersAndRequestID(t *testing.T) {
	app := newTestApp(t, "")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/live", nil), -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Frame-Options"))
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestMiddleware_UnknownRouteUsesErrorShape(t *testing.T) {
	app := newTestApp(t, "")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/nowhere", nil), -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body["error"])
}
