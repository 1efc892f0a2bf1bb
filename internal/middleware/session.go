package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/railbill/railbill/internal/orchestrator"
	"github.com/railbill/railbill/internal/session"
)

// WalletAddressLocal is the fiber.Ctx locals key for the verified wallet address.
const WalletAddressLocal = "wallet_address"

// SessionAuth validates identity-provider session tokens and requires the
// bound wallet address to match the orchestrator's active session.
func SessionAuth(verifier *session.Verifier, orch *orchestrator.Orchestrator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])

		address, err := verifier.WalletAddress(tokenStr)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		active, err := orch.Address()
		if err != nil || !strings.EqualFold(active, address) {
			return fiber.NewError(http.StatusUnauthorized, "no active session for wallet")
		}

		c.Locals(WalletAddressLocal, address)
		return c.Next()
	}
}
