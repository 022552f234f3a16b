package apiv1

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/eduprompt/eduprompt/app/models"
	"github.com/eduprompt/eduprompt/internal/pkg/database"
	"github.com/eduprompt/eduprompt/internal/pkg/entitlements"
	"github.com/eduprompt/eduprompt/internal/pkg/payment"
	"github.com/eduprompt/eduprompt/internal/pkg/usercontext"
)

// APIServer implements the JSON API handlers.
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// Envelope is the uniform response shape: exactly one of Data and Error is
// set.
type Envelope struct {
	Data  interface{} `json:"data"`
	Error *APIError   `json:"error"`
}

// APIError carries one or more user-facing messages.
type APIError struct {
	Messages []string `json:"messages"`
}

func dataResponse(c *fiber.Ctx, data interface{}) error {
	return c.JSON(Envelope{Data: data})
}

func errorResponse(c *fiber.Ctx, status int, messages ...string) error {
	return c.Status(status).JSON(Envelope{Error: &APIError{Messages: messages}})
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ping": "pong"})
}

// GetTiers returns the subscription tier catalog resolved for the caller.
func (s *APIServer) GetTiers(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	tiers := entitlements.Catalog(entitlements.Entitlement{
		Plan:                  entitlements.NormalizePlan(userCtx.Plan),
		HasSchoolSubscription: userCtx.HasSchoolSubscription,
	})

	return dataResponse(c, tiers)
}

// UsageResponse reports the caller's plan, consumed counters and the quotas
// they count against.
type UsageResponse struct {
	Plan           string              `json:"plan"`
	TokensUsed     int64               `json:"tokens_used"`
	UnlocksUsed    int64               `json:"unlocks_used"`
	ExecutionsUsed int64               `json:"executions_used"`
	Limits         entitlements.Limits `json:"limits"`
}

// GetUsage returns quota usage for the logged-in session user.
func (s *APIServer) GetUsage(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	settings, err := models.GetOrCreateUserSettings(database.GetDB(), userCtx.UserID)
	if err != nil {
		return errorResponse(c, fiber.StatusInternalServerError, "Usage could not be loaded")
	}

	plan := entitlements.NormalizePlan(userCtx.Plan)
	return dataResponse(c, UsageResponse{
		Plan:           string(plan),
		TokensUsed:     settings.TokensUsed,
		UnlocksUsed:    settings.UnlocksUsed,
		ExecutionsUsed: settings.ExecutionsUsed,
		Limits:         entitlements.PlanLimits(plan),
	})
}

// CreatePaymentRequest is the checkout submission body.
type CreatePaymentRequest struct {
	Amount           int64  `json:"amount"`
	TierID           string `json:"subscriptionTierId"`
	OrderDescription string `json:"orderDescription"`
}

// PostPayment starts a checkout and returns the gateway redirect URL.
func (s *APIServer) PostPayment(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return errorResponse(c, fiber.StatusUnauthorized, "Login required")
	}

	var req CreatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	svc := payment.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(c.Context(), 15*time.Second)
	defer cancel()

	redirectURL, err := svc.InitiateCheckout(ctx, payment.CheckoutInput{
		UserID:             userCtx.UserID,
		TierID:             strings.TrimSpace(req.TierID),
		SubmittedAmountVND: req.Amount,
		OrderDescription:   strings.TrimSpace(req.OrderDescription),
		ClientIP:           c.IP(),
	})
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrUnknownTier):
			return errorResponse(c, fiber.StatusBadRequest, "Unknown subscription tier")
		case errors.Is(err, payment.ErrTierNotSellable):
			return errorResponse(c, fiber.StatusBadRequest, "This tier has no online checkout")
		case errors.Is(err, payment.ErrAmountMismatch):
			return errorResponse(c, fiber.StatusBadRequest, "Submitted amount does not match the tier price")
		}
		return errorResponse(c, fiber.StatusInternalServerError, "Checkout could not be started")
	}

	return dataResponse(c, redirectURL)
}

// VerifyPaymentRequest names the payment to verify.
type VerifyPaymentRequest struct {
	PaymentID string `json:"paymentId"`
}

// PostPaymentVerify runs the authoritative verification for one payment id.
func (s *APIServer) PostPaymentVerify(c *fiber.Ctx) error {
	var req VerifyPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.PaymentID) == "" {
		return errorResponse(c, fiber.StatusBadRequest, "paymentId is required")
	}

	svc := payment.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(c.Context(), 15*time.Second)
	defer cancel()

	result, err := svc.VerifyPayment(ctx, strings.TrimSpace(req.PaymentID))
	if err != nil {
		var verifyErr *payment.VerifyError
		if errors.As(err, &verifyErr) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(Envelope{Error: &APIError{Messages: verifyErr.Messages}})
		}
		return errorResponse(c, fiber.StatusInternalServerError, "Payment verification failed")
	}

	return dataResponse(c, result)
}
