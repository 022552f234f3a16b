package apiv1

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduprompt/eduprompt/internal/pkg/middleware"
)

func newTestApp() *fiber.App {
	app := fiber.New()
	s := NewAPIServer()
	app.Get("/ping", s.GetPing)
	app.Get("/tiers", s.GetTiers)
	app.Get("/usage", middleware.RequireAPISessionAuth, s.GetUsage)
	app.Post("/payments", s.PostPayment)
	app.Post("/payments/verify", s.PostPaymentVerify)
	return app
}

func decodeEnvelope(t *testing.T, body io.Reader) map[string]json.RawMessage {
	t.Helper()
	var out map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestGetPing(t *testing.T) {
	app := newTestApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "pong", out["ping"])
}

func TestGetTiersAnonymousReturnsCatalog(t *testing.T) {
	app := newTestApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/tiers", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	env := decodeEnvelope(t, resp.Body)
	assert.Equal(t, "null", string(env["error"]))

	var tiers []map[string]interface{}
	require.NoError(t, json.Unmarshal(env["data"], &tiers))
	require.NotEmpty(t, tiers)

	ids := make([]string, 0, len(tiers))
	for _, tier := range tiers {
		ids = append(ids, tier["id"].(string))
	}
	assert.Contains(t, ids, "free")
	assert.Contains(t, ids, "pro")
	assert.Contains(t, ids, "premium")
	assert.Contains(t, ids, "school")
}

func TestGetUsageWithoutSessionReturnsUnauthorized(t *testing.T) {
	app := newTestApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/usage", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "unauthorized", out["error"])
}

func TestPostPaymentRequiresLogin(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest("POST", "/payments", strings.NewReader(`{"subscriptionTierId":"pro"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	env := decodeEnvelope(t, resp.Body)
	assert.Equal(t, "null", string(env["data"]))
	assert.Contains(t, string(env["error"]), "Login required")
}

func TestPostPaymentVerifyRejectsMissingID(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest("POST", "/payments/verify", strings.NewReader(`{"paymentId":"  "}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	env := decodeEnvelope(t, resp.Body)
	assert.Contains(t, string(env["error"]), "paymentId is required")
}

func TestPostPaymentVerifyRejectsMalformedBody(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest("POST", "/payments/verify", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
