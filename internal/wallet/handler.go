package wallet

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ripple-mobile/ripple_mobile/internal/httpx"
	"github.com/ripple-mobile/ripple_mobile/internal/identity"
	"github.com/ripple-mobile/ripple_mobile/internal/ledger"
)

// Handler exposes wallet query endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type credentialsRequest struct {
	Phone string `json:"phone" validate:"required"`
	PIN   string `json:"pin" validate:"required"`
}

// Balance returns the validated balance and texts it to the caller.
func (h *Handler) Balance(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	report, err := h.service.Balance(c.UserContext(), req.Phone, req.PIN)
	if err != nil {
		return queryError(err)
	}
	return c.JSON(fiber.Map{
		"message":     report.Message,
		"balance":     ledger.FormatXRP(report.Balance),
		"undelivered": report.Undelivered,
	})
}

// Info returns the account root fields.
func (h *Handler) Info(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	report, err := h.service.Info(c.UserContext(), req.Phone, req.PIN)
	if err != nil {
		return queryError(err)
	}
	return c.JSON(fiber.Map{
		"message":  report.Message,
		"address":  report.Address,
		"balance":  ledger.FormatXRP(report.Balance),
		"sequence": report.Sequence,
		"index":    report.Index,
	})
}

// History texts a transaction summary to the caller.
func (h *Handler) History(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	report, err := h.service.History(c.UserContext(), req.Phone, req.PIN)
	if err != nil {
		return queryError(err)
	}
	return c.JSON(fiber.Map{
		"message":     report.Message,
		"count":       len(report.Records),
		"undelivered": report.Undelivered,
	})
}

func queryError(err error) error {
	switch {
	case errors.Is(err, identity.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, identity.MessageNotFound)
	case errors.Is(err, identity.ErrUnauthorized):
		return fiber.NewError(http.StatusUnauthorized, identity.MessageUnauthorized)
	case ledger.IsKind(err, ledger.KindTransient):
		return fiber.NewError(http.StatusServiceUnavailable, MessageFailure)
	case ledger.IsKind(err, ledger.KindNotFound), ledger.IsKind(err, ledger.KindRejected):
		return fiber.NewError(http.StatusUnprocessableEntity, MessageFailure)
	case ledger.IsKind(err, ledger.KindDecode):
		return fiber.NewError(http.StatusBadGateway, MessageFailure)
	default:
		return fiber.NewError(http.StatusInternalServerError, MessageFailure)
	}
}
