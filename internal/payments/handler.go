package payments

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/ripple-mobile/ripple_mobile/internal/httpx"
	"github.com/ripple-mobile/ripple_mobile/internal/identity"
	"github.com/ripple-mobile/ripple_mobile/internal/ledger"
)

// Handler exposes payment endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a payment handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type transferRequest struct {
	SenderPhone    string          `json:"sender_phone" validate:"required"`
	RecipientPhone string          `json:"recipient_phone" validate:"required"`
	PIN            string          `json:"pin" validate:"required"`
	Amount         decimal.Decimal `json:"amount"`
}

type transferResponse struct {
	Status           Status `json:"status"`
	Reason           Reason `json:"reason,omitempty"`
	Message          string `json:"message"`
	Hash             string `json:"hash,omitempty"`
	Amount           string `json:"amount,omitempty"`
	SenderBalance    string `json:"sender_balance,omitempty"`
	RecipientBalance string `json:"recipient_balance,omitempty"`
	Confirmed        bool   `json:"confirmed"`
	Undelivered      int    `json:"undelivered_notifications,omitempty"`
}

// Transfer sends XRP from one registered phone to another.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}

	res := h.service.Send(c.UserContext(), TransferRequest{
		SenderPhone:    req.SenderPhone,
		RecipientPhone: req.RecipientPhone,
		PIN:            req.PIN,
		Amount:         req.Amount,
	})

	switch res.Reason {
	case ReasonUserNotFound, ReasonRecipientNotFound:
		return fiber.NewError(http.StatusNotFound, res.Message())
	case ReasonUnauthorized:
		return fiber.NewError(http.StatusUnauthorized, res.Message())
	case ReasonInvalidAmount:
		return fiber.NewError(http.StatusBadRequest, res.Err.Error())
	}

	body := transferResponse{
		Status:      res.Status,
		Reason:      res.Reason,
		Message:     res.Message(),
		Hash:        res.Hash,
		Confirmed:   res.Confirmed,
		Undelivered: len(res.Undelivered),
	}
	if res.Amount > 0 {
		body.Amount = ledger.FormatXRP(res.Amount)
	}
	if res.Status == StatusSuccess {
		body.SenderBalance = ledger.FormatXRP(res.SenderBalance)
		body.RecipientBalance = ledger.FormatXRP(res.RecipientBalance)
	}
	return c.Status(statusCode(res)).JSON(body)
}

func statusCode(res TransferResult) int {
	switch res.Status {
	case StatusSuccess:
		return http.StatusCreated
	case StatusUnknown:
		return http.StatusAccepted
	}
	if errors.Is(res.Err, identity.ErrLockUnavailable) {
		return http.StatusServiceUnavailable
	}
	switch ledger.KindOf(res.Err) {
	case ledger.KindTransient:
		return http.StatusServiceUnavailable
	case ledger.KindRejected, ledger.KindNotFound:
		return http.StatusUnprocessableEntity
	case ledger.KindDecode:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type entryResponse struct {
	Hash           string `json:"hash"`
	Status         Status `json:"status"`
	Result         string `json:"result,omitempty"`
	SenderPhone    string `json:"sender_phone,omitempty"`
	RecipientPhone string `json:"recipient_phone,omitempty"`
	Amount         string `json:"amount,omitempty"`
}

type statusRequest struct {
	Phone string `json:"phone" validate:"required"`
	PIN   string `json:"pin" validate:"required"`
}

// Status reconciles and returns one transfer by hash to its sender or recipient.
func (h *Handler) Status(c *fiber.Ctx) error {
	var req statusRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}

	entry, err := h.service.Status(c.UserContext(), req.Phone, req.PIN, c.Params("hash"))
	switch {
	case errors.Is(err, identity.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, identity.MessageNotFound)
	case errors.Is(err, identity.ErrUnauthorized):
		return fiber.NewError(http.StatusUnauthorized, identity.MessageUnauthorized)
	case errors.Is(err, ErrEntryNotFound):
		return fiber.NewError(http.StatusNotFound, "transfer not found")
	case ledger.IsKind(err, ledger.KindTransient):
		return fiber.NewError(http.StatusServiceUnavailable, "ledger unavailable, try again later")
	case err != nil:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	body := entryResponse{
		Hash:           entry.Hash,
		Status:         entry.Status,
		Result:         entry.Result,
		SenderPhone:    entry.SenderPhone,
		RecipientPhone: entry.RecipientPhone,
	}
	if entry.Amount > 0 {
		body.Amount = ledger.FormatXRP(entry.Amount)
	}
	return c.JSON(body)
}
