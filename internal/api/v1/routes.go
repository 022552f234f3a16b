package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/eduprompt/eduprompt/internal/pkg/middleware"
)

// RegisterHandlers wires all v1 endpoints onto the given router group.
func RegisterHandlers(router fiber.Router, s *APIServer) {
	router.Get("/ping", s.GetPing)
	router.Get("/tiers", s.GetTiers)
	router.Get("/usage", middleware.RequireAPISessionAuth, s.GetUsage)

	payments := router.Group("/payments", middleware.APIKeyAuthMiddleware())
	payments.Post("/", s.PostPayment)
	payments.Post("/verify", s.PostPaymentVerify)
}
