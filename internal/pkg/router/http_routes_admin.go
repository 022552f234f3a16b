package router

import (
	"github.com/eduprompt/eduprompt/app/controllers"
	"github.com/eduprompt/eduprompt/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
)

func (h HttpRouter) registerAdminRoutes(app *fiber.App) {
	adminGroup := app.Group("/admin", middleware.RequireAdmin)
	adminGroup.Get("/", controllers.HandleAdminDashboard)

	// User management
	adminGroup.Get("/users", controllers.HandleAdminUsers)
	adminGroup.Post("/users/disable/:id", controllers.HandleAdminUserDisable)

	// Payments + revenue export
	adminGroup.Get("/payments", controllers.HandleAdminPayments)
	adminGroup.Post("/payments/export", controllers.HandleAdminPaymentExport)

	// School tenants
	adminGroup.Get("/schools", controllers.HandleAdminSchools)
	adminGroup.Post("/schools", controllers.HandleAdminSchools)
	adminGroup.Post("/schools/:id/subscription", controllers.HandleAdminSchoolSubscription)

	// Cache monitor
	adminGroup.Get("/queues", controllers.HandleAdminQueues)
	adminGroup.Post("/queues/purge", controllers.HandleAdminQueuePurge)
}
