package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/railbill/railbill/internal/orchestrator"
)

// RegisterDashboardRoutes wires the consolidated read-model endpoint.
func RegisterDashboardRoutes(r fiber.Router, h *orchestrator.Handler) {
	r.Get("/dashboard", h.Dashboard)
}
