package controllers

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clientIPFor(t *testing.T, headers map[string]string) string {
	t.Helper()

	app := fiber.New()
	var got string
	app.Get("/", func(c *fiber.Ctx) error {
		got = GetClientIP(c)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	return got
}

func TestGetClientIPPrefersCloudflareHeader(t *testing.T) {
	got := clientIPFor(t, map[string]string{
		"CF-Connecting-IP": "203.0.113.7",
		"X-Forwarded-For":  "198.51.100.1, 10.0.0.1",
	})
	assert.Equal(t, "203.0.113.7", got)
}

func TestGetClientIPUsesFirstForwardedEntry(t *testing.T) {
	got := clientIPFor(t, map[string]string{
		"X-Forwarded-For": "198.51.100.1, 10.0.0.1",
	})
	assert.Equal(t, "198.51.100.1", got)
}

func TestGetClientIPFallsBackToRealIP(t *testing.T) {
	got := clientIPFor(t, map[string]string{
		"X-Real-IP": "192.0.2.10",
	})
	assert.Equal(t, "192.0.2.10", got)
}

func TestNormalizeVisibility(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"public", "public"},
		{"school", "school"},
		{"private", "private"},
		{"PUBLIC", "public"},
		{" school ", "school"},
		{"", "private"},
		{"friends", "private"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, normalizeVisibility(tc.in), "input %q", tc.in)
	}
}

func TestCsrfTokenMissingLocalIsEmpty(t *testing.T) {
	app := fiber.New()
	var got string
	app.Get("/", func(c *fiber.Ctx) error {
		got = csrfToken(c)
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "", got)
}
