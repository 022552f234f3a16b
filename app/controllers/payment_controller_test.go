package controllers

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderPaymentResult(t *testing.T, success bool) string {
	t.Helper()

	app := fiber.New(fiber.Config{
		Views: html.New("../../views", ".html"),
	})
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Render("payment/result", fiber.Map{
			"Success":       success,
			"Message":       "message",
			"TransactionID": "PF-1",
			"BackLink":      "/user/settings/subscription",
		})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestPaymentResultErrorShowsSupportContact(t *testing.T) {
	body := renderPaymentResult(t, false)
	assert.Contains(t, body, "Payment not completed")
	assert.Contains(t, body, "support@eduprompt.io")
	assert.Contains(t, body, "/user/settings/subscription")
}

func TestPaymentResultSuccessOmitsSupportContact(t *testing.T) {
	body := renderPaymentResult(t, true)
	assert.Contains(t, body, "Payment successful")
	assert.NotContains(t, body, "support@eduprompt.io")
}
