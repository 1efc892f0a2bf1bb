package orchestrator

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/railbill/railbill/internal/bills"
	"github.com/railbill/railbill/internal/session"
	"github.com/railbill/railbill/internal/topup"
)

// Handler exposes the orchestrator over HTTP.
type Handler struct {
	orch     *Orchestrator
	verifier *session.Verifier
}

// NewHandler constructs the HTTP handler.
func NewHandler(orch *Orchestrator, verifier *session.Verifier) *Handler {
	return &Handler{orch: orch, verifier: verifier}
}

type sessionRequest struct {
	Token string `json:"token"`
}

type amountRequest struct {
	Amount string `json:"amount"`
}

// StartSession exchanges an identity-provider token for an active session.
func (h *Handler) StartSession(c *fiber.Ctx) error {
	var req sessionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	address, err := h.verifier.WalletAddress(req.Token)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, "invalid session token")
	}

	if err := h.orch.OnAuthenticated(c.UserContext(), address); err != nil {
		return fiber.NewError(http.StatusServiceUnavailable, "session could not be started")
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"address": address})
}

// EndSession tears the active session down.
func (h *Handler) EndSession(c *fiber.Ctx) error {
	h.orch.OnDeauthenticated()
	return c.SendStatus(http.StatusNoContent)
}

// Dashboard returns the consistent read model.
func (h *Handler) Dashboard(c *fiber.Ctx) error {
	model, err := h.orch.Snapshot()
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	}
	return c.Status(http.StatusOK).JSON(model)
}

// ListTopUps returns the funding history, newest first.
func (h *Handler) ListTopUps(c *fiber.Ctx) error {
	history, err := h.orch.TopUps()
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"top_ups": history})
}

// BankTransfer submits a bank-rail top-up.
func (h *Handler) BankTransfer(c *fiber.Ctx) error {
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	record, err := h.orch.SubmitBankTransfer(c.UserContext(), req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoSession):
			return fiber.NewError(http.StatusUnauthorized, err.Error())
		case errors.Is(err, topup.ErrInvalidAmount), errors.Is(err, topup.ErrNoAddress):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, topup.ErrIntentRejected):
			return fiber.NewError(http.StatusBadGateway, err.Error())
		default:
			return fiber.NewError(http.StatusBadGateway, err.Error())
		}
	}

	return c.Status(http.StatusCreated).JSON(record)
}

// CardFunding records an optimistic top-up and hands off to the card flow.
func (h *Handler) CardFunding(c *fiber.Ctx) error {
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	record, err := h.orch.SubmitCardFunding(c.UserContext(), req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoSession):
			return fiber.NewError(http.StatusUnauthorized, err.Error())
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}

	return c.Status(http.StatusAccepted).JSON(record)
}

// ListBills returns the catalog with session-local transitions applied.
func (h *Handler) ListBills(c *fiber.Ctx) error {
	catalog, err := h.orch.Bills()
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"bills": catalog})
}

// PayBill submits a settlement for one bill.
func (h *Handler) PayBill(c *fiber.Ctx) error {
	billID := c.Params("billId")

	ref, err := h.orch.PayBill(c.UserContext(), billID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoSession):
			return fiber.NewError(http.StatusUnauthorized, err.Error())
		case errors.Is(err, bills.ErrUnknownBill):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, bills.ErrAlreadyPaid), errors.Is(err, bills.ErrPaymentInFlight):
			return fiber.NewError(http.StatusConflict, err.Error())
		default:
			return fiber.NewError(http.StatusBadGateway, err.Error())
		}
	}

	return c.Status(http.StatusAccepted).JSON(fiber.Map{"bill_id": billID, "reference": ref})
}
