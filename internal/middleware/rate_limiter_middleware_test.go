package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newApp mirrors the server wiring: liveness served by the healthcheck
// middleware on /health, submissions behind the limiter.
func newApp() *fiber.App {
	app := fiber.New()
	app.Use(RateLimiter(60, 2))
	app.Use(healthcheck.New(healthcheck.Config{
		LivenessEndpoint: "/health",
	}))
	app.Post("/process", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusAccepted)
	})
	return app
}

func TestRateLimiterBurstThenReject(t *testing.T) {
	app := newApp()

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(fiber.MethodPost, "/process", nil)
		req.Header.Set("X-User-ID", "user-a")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	}

	req := httptest.NewRequest(fiber.MethodPost, "/process", nil)
	req.Header.Set("X-User-ID", "user-a")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
}

func TestRateLimiterIsolatesIdentities(t *testing.T) {
	app := newApp()

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(fiber.MethodPost, "/process", nil)
		req.Header.Set("X-User-ID", "user-a")
		_, err := app.Test(req)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(fiber.MethodPost, "/process", nil)
	req.Header.Set("X-User-ID", "user-b")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)
}

func TestRateLimiterExemptsHealth(t *testing.T) {
	app := newApp()

	for i := 0; i < 10; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}
