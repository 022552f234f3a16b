package router

import (
	"github.com/eduprompt/eduprompt/app/controllers"
	"github.com/eduprompt/eduprompt/internal/pkg/constants"
	"github.com/eduprompt/eduprompt/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Static pages
	app.Get("/about", loggedInMiddleware, controllers.HandleAbout)
	app.Get("/contact", loggedInMiddleware, controllers.HandleContact)
	app.Get(constants.PricingRoute, loggedInMiddleware, controllers.HandlePricing)

	// Short prompt share URLs
	app.Get("/p/:sharelink", loggedInMiddleware, controllers.HandlePromptShareLink)

	// Public explore feed
	app.Get("/explore", loggedInMiddleware, controllers.HandleExplore)

	// Auth
	app.Post("/logout", middleware.RequireAuth, controllers.HandleAuthLogout)

	// Social OAuth
	app.Get("/auth/:provider", gothfiber.BeginAuthHandler)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)

	// Payment gateway return URL (no CSRF, signature-verified in controller)
	app.Get(constants.VNPayReturnRoute, controllers.HandleVNPayReturn)
}
