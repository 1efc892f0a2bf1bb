package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/railbill/railbill/internal/orchestrator"
)

// RegisterBillRoutes wires catalog listing and settlement endpoints.
func RegisterBillRoutes(r fiber.Router, h *orchestrator.Handler, payLimiter fiber.Handler) {
	r.Get("/bills", h.ListBills)
	r.Post("/bills/:billId/pay", payLimiter, h.PayBill)
}
