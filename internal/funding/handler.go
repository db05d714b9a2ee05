package funding

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ripple-mobile/ripple_mobile/internal/httpx"
	"github.com/ripple-mobile/ripple_mobile/internal/identity"
	"github.com/ripple-mobile/ripple_mobile/internal/ledger"
)

// Handler exposes account registration.
type Handler struct {
	service *Service
}

// NewHandler constructs a registration handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	Name        string `json:"name" validate:"max=120"`
	Phone       string `json:"phone" validate:"required,max=20"`
	PIN         string `json:"pin" validate:"required,numeric,min=4"`
	AccountType string `json:"account_type"`
}

type registerResponse struct {
	ID          string `json:"id"`
	Phone       string `json:"phone"`
	AccountType string `json:"account_type"`
	Address     string `json:"address"`
	Message     string `json:"message"`
}

// Register opens a funded account for a phone number.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := httpx.Bind(c, &req); err != nil {
		return err
	}
	account, err := h.service.Register(c.UserContext(), RegisterInput{
		Name:        req.Name,
		Phone:       req.Phone,
		PIN:         req.PIN,
		AccountType: req.AccountType,
	})
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrExists):
			return fiber.NewError(http.StatusConflict, "phone number already registered")
		case errors.Is(err, ErrPhoneRequired), errors.Is(err, identity.ErrInvalidPIN), errors.Is(err, identity.ErrInvalidAccountType):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case ledger.IsKind(err, ledger.KindTransient):
			return fiber.NewError(http.StatusServiceUnavailable, MessageFailure)
		default:
			return fiber.NewError(http.StatusInternalServerError, MessageFailure)
		}
	}
	return c.Status(http.StatusCreated).JSON(registerResponse{
		ID:          account.ID,
		Phone:       account.Phone,
		AccountType: string(account.Type),
		Address:     account.Address,
		Message:     WelcomeMessage(account.Type, account.Phone),
	})
}
