package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/eduprompt/eduprompt/app/models"
	"github.com/eduprompt/eduprompt/app/repository"
	"github.com/eduprompt/eduprompt/internal/pkg/constants"
	"github.com/eduprompt/eduprompt/internal/pkg/database"
	"github.com/eduprompt/eduprompt/internal/pkg/entitlements"
	"github.com/eduprompt/eduprompt/internal/pkg/payment"
	"github.com/eduprompt/eduprompt/internal/pkg/session"
	"github.com/eduprompt/eduprompt/internal/pkg/usercontext"
)

func HandleUserProfile(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var user models.User
	if err := database.GetDB().First(&user, userCtx.UserID).Error; err != nil {
		flash.WithError(c, fiber.Map{"message": "User not found"})
		return c.Redirect("/")
	}

	stats, err := repository.GetGlobalFactory().GetUserRepository().GetStatsByUserID(userCtx.UserID)
	if err != nil {
		stats = &repository.UserStats{}
	}

	return c.Render("user/profile", fiber.Map{
		"Title":           "Profile",
		"Flash":           flash.Get(c),
		"CsrfToken":       csrfToken(c),
		"User":            user,
		"Plan":            userCtx.Plan,
		"PromptCount":     stats.PromptCount,
		"CollectionCount": stats.CollectionCount,
	}, "layouts/main")
}

func HandleUserSettings(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	settings, err := models.GetOrCreateUserSettings(database.GetDB(), userCtx.UserID)
	if err != nil {
		flash.WithError(c, fiber.Map{"message": "Settings could not be loaded"})
		return c.Redirect("/")
	}

	limits := entitlements.PlanLimits(entitlements.NormalizePlan(settings.Plan))

	return c.Render("user/settings", fiber.Map{
		"Title":        "Settings",
		"Flash":        flash.Get(c),
		"CsrfToken":    csrfToken(c),
		"Settings":     settings,
		"Limits":       limits,
		"HasAPIKey":    settings.HasActiveAPIKey(),
		"APIKeyPrefix": settings.APIKeyPrefix,
	}, "layouts/main")
}

// HandleUserSubscription shows the current plan, past payments and
// subscription periods.
func HandleUserSubscription(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	repo := repository.GetGlobalFactory().GetPaymentRepository()
	payments, err := repo.GetByUserID(userCtx.UserID, 0, 50)
	if err != nil {
		payments = nil
	}
	subs, err := repo.ListSubscriptionsByUser(userCtx.UserID)
	if err != nil {
		subs = nil
	}

	type paymentRow struct {
		TierID        string
		AmountDisplay string
		Status        string
		CreatedAt     string
	}
	rows := make([]paymentRow, 0, len(payments))
	for _, p := range payments {
		rows = append(rows, paymentRow{
			TierID:        p.TierID,
			AmountDisplay: entitlements.FormatVND(p.AmountVND),
			Status:        p.Status,
			CreatedAt:     p.CreatedAt.Format("02.01.2006 15:04"),
		})
	}

	return c.Render("user/subscription", fiber.Map{
		"Title":                 "Subscription",
		"Flash":                 flash.Get(c),
		"CsrfToken":             csrfToken(c),
		"Plan":                  userCtx.Plan,
		"HasSchoolSubscription": userCtx.HasSchoolSubscription,
		"Payments":              rows,
		"Subscriptions":         subs,
		"PricingLink":           constants.PricingRoute,
	}, "layouts/main")
}

// HandleUserPlanResync recomputes the effective plan from stored
// subscriptions and school membership.
func HandleUserPlanResync(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	svc := payment.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	effectivePlan, err := svc.ReconcileUserPlan(ctx, userCtx.UserID)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Plan re-sync failed"}).Redirect(constants.SubscriptionRoute)
	}

	_ = session.SetSessionValue(c, "user_plan", effectivePlan)
	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Plan recalculated. Active plan: " + effectivePlan}).Redirect(constants.SubscriptionRoute)
}

// HandleUserAPIKeyGenerate issues a fresh API key and shows it exactly once.
func HandleUserAPIKeyGenerate(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	db := database.GetDB()
	settings, err := models.GetOrCreateUserSettings(db, userCtx.UserID)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Settings could not be loaded"}).Redirect("/user/settings")
	}

	rawKey, err := settings.IssueAPIKey()
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "API key generation failed"}).Redirect("/user/settings")
	}
	if err := db.Save(settings).Error; err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "API key could not be saved"}).Redirect("/user/settings")
	}

	// The raw key is only rendered on this response and never stored.
	return c.Render("user/api_key", fiber.Map{
		"Title":  "Your new API key",
		"RawKey": rawKey,
	}, "layouts/main")
}

// HandleUserAPIKeyRevoke removes the active API key.
func HandleUserAPIKeyRevoke(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	db := database.GetDB()
	settings, err := models.GetOrCreateUserSettings(db, userCtx.UserID)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Settings could not be loaded"}).Redirect("/user/settings")
	}

	settings.RevokeAPIKey()
	if err := db.Save(settings).Error; err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "API key could not be revoked"}).Redirect("/user/settings")
	}

	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "API key revoked"}).Redirect("/user/settings")
}
