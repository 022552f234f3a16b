package controllers

import (
	"context"
	"errors"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/eduprompt/eduprompt/app/repository"
	"github.com/eduprompt/eduprompt/internal/pkg/constants"
	"github.com/eduprompt/eduprompt/internal/pkg/database"
	"github.com/eduprompt/eduprompt/internal/pkg/entitlements"
	"github.com/eduprompt/eduprompt/internal/pkg/mail"
	"github.com/eduprompt/eduprompt/internal/pkg/payment"
	"github.com/eduprompt/eduprompt/internal/pkg/session"
	"github.com/eduprompt/eduprompt/internal/pkg/usercontext"
)

// HandlePaymentCheckout turns a tier selection from the pricing page into a
// gateway redirect.
func HandlePaymentCheckout(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	tierID := strings.TrimSpace(c.FormValue("tier"))
	var amountVND int64
	if raw := strings.TrimSpace(c.FormValue("amount")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return flash.WithError(c, fiber.Map{"type": "error", "message": "Invalid amount"}).Redirect(constants.PricingRoute)
		}
		amountVND = parsed
	}

	svc := payment.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(c.Context(), 15*time.Second)
	defer cancel()

	redirectURL, err := svc.InitiateCheckout(ctx, payment.CheckoutInput{
		UserID:             userCtx.UserID,
		TierID:             tierID,
		SubmittedAmountVND: amountVND,
		OrderDescription:   strings.TrimSpace(c.FormValue("orderDescription")),
		ClientIP:           GetClientIP(c),
	})
	if err != nil {
		msg := "Checkout could not be started"
		switch {
		case errors.Is(err, payment.ErrUnknownTier):
			msg = "Unknown subscription tier"
		case errors.Is(err, payment.ErrTierNotSellable):
			msg = "This tier has no online checkout. Please contact sales."
		case errors.Is(err, payment.ErrAmountMismatch):
			msg = "The displayed price is outdated. Please reload the page and try again."
		}
		return flash.WithError(c, fiber.Map{"type": "error", "message": msg}).Redirect(constants.PricingRoute)
	}

	return c.Redirect(redirectURL, fiber.StatusSeeOther)
}

// HandleVNPayReturn lands the browser redirect coming back from the gateway,
// verifies the payment against our own records and renders the result page.
func HandleVNPayReturn(c *fiber.Ctx) error {
	query := queryValues(c)

	svc := payment.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(c.Context(), 20*time.Second)
	defer cancel()

	outcome := svc.ProcessReturn(ctx, payment.ParseReturnParams(query))

	// Refresh the session-cached plan after a successful upgrade so the
	// navbar reflects it immediately.
	userCtx := usercontext.GetUserContext(c)
	if outcome.Status == payment.StatusSuccess && userCtx.IsLoggedIn {
		if plan, err := svc.ReconcileUserPlan(ctx, userCtx.UserID); err == nil && plan != "" {
			_ = session.SetSessionValue(c, "user_plan", plan)
		}
	}

	if outcome.Status == payment.StatusSuccess {
		sendReceiptMail(svc, outcome.TransactionID)
	}

	return c.Render("payment/result", fiber.Map{
		"Title":         "Payment result",
		"Success":       outcome.Status == payment.StatusSuccess,
		"Message":       outcome.Message,
		"TransactionID": outcome.TransactionID,
		"BackLink":      constants.SubscriptionRoute,
	}, "layouts/main")
}

// HandlePricing renders the tier comparison table for the viewer's
// entitlement.
func HandlePricing(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	tiers := entitlements.Catalog(entitlements.Entitlement{
		Plan:                  entitlements.NormalizePlan(userCtx.Plan),
		HasSchoolSubscription: userCtx.HasSchoolSubscription,
	})

	return c.Render("pricing", fiber.Map{
		"Title":      "Pricing",
		"Flash":      flash.Get(c),
		"CsrfToken":  csrfToken(c),
		"IsLoggedIn": userCtx.IsLoggedIn,
		"Tiers":      tiers,
	}, "layouts/main")
}

// sendReceiptMail mails a receipt for a verified payment. Best effort: a
// mail failure never affects the rendered result.
func sendReceiptMail(svc *payment.Service, publicID string) {
	p, err := svc.PaymentByPublicID(publicID)
	if err != nil {
		log.Printf("receipt mail: payment %s not loadable: %v", publicID, err)
		return
	}

	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(p.UserID)
	if err != nil {
		log.Printf("receipt mail: user %d not loadable: %v", p.UserID, err)
		return
	}

	tierName := p.TierID
	if tier, ok := entitlements.FindTier(p.TierID); ok {
		tierName = tier.Name
	}

	if err := mail.SendPaymentReceiptMail(user.Email, user.Name, tierName, entitlements.FormatVND(p.AmountVND), p.PublicID); err != nil {
		log.Printf("receipt mail to %s failed: %v", user.Email, err)
	}
}

func queryValues(c *fiber.Ctx) url.Values {
	values := url.Values{}
	c.Request().URI().QueryArgs().VisitAll(func(key, value []byte) {
		values.Add(string(key), string(value))
	})
	return values
}
