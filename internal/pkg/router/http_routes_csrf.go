package router

import (
	"strings"
	"time"

	"github.com/eduprompt/eduprompt/app/controllers"
	"github.com/eduprompt/eduprompt/internal/pkg/constants"
	"github.com/eduprompt/eduprompt/internal/pkg/env"
	"github.com/eduprompt/eduprompt/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
)

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/")
		},
	}

	group := app.Group("", cors.New(), csrf.New(csrfConf))
	group.Get("/", loggedInMiddleware, controllers.HandleStart)
	group.Get("/login", loggedInMiddleware, controllers.HandleAuthLogin)
	group.Post("/login", loggedInMiddleware, controllers.HandleAuthLogin)
	group.Get("/register", loggedInMiddleware, controllers.HandleAuthRegister)
	group.Post("/register", loggedInMiddleware, controllers.HandleAuthRegister)
	group.Get("/activate", loggedInMiddleware, controllers.HandleAuthActivate)
	group.Post("/activate", loggedInMiddleware, controllers.HandleAuthActivate)

	// User account
	group.Get("/user/profile", middleware.RequireAuth, controllers.HandleUserProfile)
	group.Get("/user/settings", middleware.RequireAuth, controllers.HandleUserSettings)
	group.Post("/user/settings/api-key", middleware.RequireAuth, controllers.HandleUserAPIKeyGenerate)
	group.Post("/user/settings/api-key/revoke", middleware.RequireAuth, controllers.HandleUserAPIKeyRevoke)
	group.Get(constants.SubscriptionRoute, middleware.RequireAuth, controllers.HandleUserSubscription)
	group.Post(constants.SubscriptionRoute+"/resync", middleware.RequireAuth, controllers.HandleUserPlanResync)

	// Checkout
	group.Post(constants.CheckoutRoute, middleware.RequireAuth, controllers.HandlePaymentCheckout)

	// Prompts
	group.Get("/prompts", middleware.RequireAuth, controllers.HandleUserPrompts)
	group.Get("/prompts/new", middleware.RequireAuth, controllers.HandlePromptNew)
	group.Post("/prompts/new", middleware.RequireAuth, controllers.HandlePromptNew)
	group.Get("/prompt/:uuid", loggedInMiddleware, controllers.HandlePromptView)
	group.Get("/prompt/:uuid/edit", middleware.RequireAuth, controllers.HandlePromptEdit)
	group.Post("/prompt/:uuid/edit", middleware.RequireAuth, controllers.HandlePromptEdit)
	group.Post("/prompt/:uuid/delete", middleware.RequireAuth, controllers.HandlePromptDelete)
	group.Post("/prompt/:uuid/execute", middleware.RequireAuth, controllers.HandlePromptExecute)
	group.Post("/prompt/:uuid/unlock", middleware.RequireAuth, controllers.HandlePromptUnlock)
	group.Get("/school/library", middleware.RequireAuth, controllers.HandleSchoolLibrary)

	// Collections
	group.Get("/collections", middleware.RequireAuth, controllers.HandleUserCollections)
	group.Get("/collections/new", middleware.RequireAuth, controllers.HandleCollectionNew)
	group.Post("/collections/new", middleware.RequireAuth, controllers.HandleCollectionNew)
	group.Get("/collections/:id", loggedInMiddleware, controllers.HandleCollectionView)
	group.Post("/collections/:id/toggle-public", middleware.RequireAuth, controllers.HandleCollectionTogglePublic)
	group.Post("/collections/:id/delete", middleware.RequireAuth, controllers.HandleCollectionDelete)

	// Study groups
	group.Get("/groups", middleware.RequireAuth, controllers.HandleUserGroups)
	group.Get("/groups/new", middleware.RequireAuth, controllers.HandleGroupNew)
	group.Post("/groups/new", middleware.RequireAuth, controllers.HandleGroupNew)
	group.Get("/groups/join", middleware.RequireAuth, controllers.HandleGroupJoin)
	group.Get("/group/:id", middleware.RequireAuth, controllers.HandleGroupView)
	group.Post("/group/:id/leave", middleware.RequireAuth, controllers.HandleGroupLeave)
	group.Post("/group/:id/delete", middleware.RequireAuth, controllers.HandleGroupDelete)

	// School admin
	group.Get("/school", middleware.RequireSchoolAdmin, controllers.HandleSchoolDashboard)
	group.Post("/school/members", middleware.RequireSchoolAdmin, controllers.HandleSchoolMemberAdd)
	group.Post("/school/members/remove/:id", middleware.RequireSchoolAdmin, controllers.HandleSchoolMemberRemove)
	group.Post("/school/billing/export", middleware.RequireSchoolAdmin, controllers.HandleSchoolBillingExport)
}
