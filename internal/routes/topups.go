package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/railbill/railbill/internal/orchestrator"
)

// RegisterTopUpRoutes wires funding endpoints for both rails.
func RegisterTopUpRoutes(r fiber.Router, h *orchestrator.Handler) {
	r.Get("/topups", h.ListTopUps)
	r.Post("/topups/bank", h.BankTransfer)
	r.Post("/topups/card", h.CardFunding)
}
