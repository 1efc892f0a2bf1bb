package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/railbill/railbill/internal/orchestrator"
)

// RegisterSessionRoutes wires session start/end endpoints.
func RegisterSessionRoutes(r fiber.Router, h *orchestrator.Handler) {
	r.Post("/session", h.StartSession)
	r.Delete("/session", h.EndSession)
}
