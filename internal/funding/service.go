package funding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ripple-mobile/ripple_mobile/internal/identity"
	"github.com/ripple-mobile/ripple_mobile/internal/logging"
	"github.com/ripple-mobile/ripple_mobile/internal/notification"
)

// MessageFailure is texted when registration does not complete.
const MessageFailure = "Something went wrong, try again later"

// ErrPhoneRequired rejects registrations without a phone number.
var ErrPhoneRequired = errors.New("phone is required")

// Service registers phone numbers against freshly funded ledger accounts.
type Service struct {
	identity *identity.Service
	faucet   Faucet
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService prepares a registration service.
func NewService(ids *identity.Service, faucet Faucet, notifier notification.Notifier, logger *slog.Logger) (*Service, error) {
	if ids == nil {
		return nil, fmt.Errorf("identity service is required")
	}
	if faucet == nil {
		return nil, fmt.Errorf("faucet is required")
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{identity: ids, faucet: faucet, notifier: notifier, logger: logger.With(slog.String("component", "funding"))}, nil
}

// RegisterInput captures the data needed to open an account.
type RegisterInput struct {
	Name        string
	Phone       string
	PIN         string
	AccountType string
}

// Register funds a new ledger account and binds it to the phone number.
// The caller is texted a welcome message, or the generic failure text.
func (s *Service) Register(ctx context.Context, in RegisterInput) (identity.Account, error) {
	phone := strings.TrimSpace(in.Phone)
	account, err := s.register(ctx, phone, in)
	if err != nil {
		s.logger.Warn("registration failed", logging.Phone(phone), slog.Any("error", err))
		s.notify(ctx, notification.Message{Kind: notification.KindRegistrationFailed, Destination: phone, Body: MessageFailure})
		return identity.Account{}, err
	}
	s.logger.Info("account registered", logging.Phone(phone), slog.String("address", account.Address), slog.String("type", string(account.Type)))
	s.notify(ctx, notification.Message{Kind: notification.KindWelcome, Destination: phone, Body: WelcomeMessage(account.Type, phone)})
	return account, nil
}

func (s *Service) register(ctx context.Context, phone string, in RegisterInput) (identity.Account, error) {
	if phone == "" {
		return identity.Account{}, ErrPhoneRequired
	}
	if err := identity.ValidatePIN(in.PIN); err != nil {
		return identity.Account{}, err
	}
	accountType, err := identity.ParseAccountType(in.AccountType)
	if err != nil {
		return identity.Account{}, err
	}
	_, err = s.identity.Resolve(ctx, phone)
	switch {
	case err == nil:
		return identity.Account{}, identity.ErrExists
	case !errors.Is(err, identity.ErrNotFound):
		return identity.Account{}, err
	}

	wallet, err := s.faucet.Fund(ctx)
	if err != nil {
		return identity.Account{}, fmt.Errorf("fund wallet: %w", err)
	}
	account, err := s.identity.Create(ctx, identity.NewAccount{
		Name:    in.Name,
		Phone:   phone,
		PIN:     in.PIN,
		Type:    accountType,
		Address: wallet.Address,
		Seed:    wallet.Seed,
	})
	if err != nil {
		s.logger.Error("funded wallet not stored", logging.Phone(phone), slog.String("address", wallet.Address), slog.Any("error", err))
		return identity.Account{}, err
	}
	return account, nil
}

// WelcomeMessage is the text sent after a successful registration.
func WelcomeMessage(accountType identity.AccountType, phone string) string {
	return fmt.Sprintf("Welcome to Ripple Mobile! \nYour %s account was successfully created for phone number, %s. \nDial *920*106# to start using Ripple Mobile.",
		strings.ToLower(string(accountType)), phone)
}

func (s *Service) notify(ctx context.Context, msg notification.Message) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Warn("notification not delivered", slog.String("kind", msg.Kind), logging.Phone(msg.Destination), slog.Any("error", err))
	}
}
