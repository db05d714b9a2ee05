package identity

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when no account is registered for a phone number.
	ErrNotFound = errors.New("account not found")
	// ErrUnauthorized is returned when the supplied PIN does not match.
	ErrUnauthorized = errors.New("incorrect pin")
	// ErrExists is returned when a phone number is already registered.
	ErrExists = errors.New("account already exists")
	// ErrInvalidPIN rejects PINs that are not at least four digits.
	ErrInvalidPIN = errors.New("PIN must be at least 4 digits")
	// ErrInvalidAccountType rejects unknown account types.
	ErrInvalidAccountType = errors.New("account type must be personal or business")
)

// User-facing texts for the two authorization failures.
const (
	MessageNotFound     = "User not found."
	MessageUnauthorized = "Incorrect PIN."
)

// AccountType distinguishes personal and business wallets.
type AccountType string

const (
	AccountPersonal AccountType = "personal"
	AccountBusiness AccountType = "business"
)

// ParseAccountType normalizes s, defaulting to personal when empty.
func ParseAccountType(s string) (AccountType, error) {
	switch AccountType(strings.ToLower(strings.TrimSpace(s))) {
	case "", AccountPersonal:
		return AccountPersonal, nil
	case AccountBusiness:
		return AccountBusiness, nil
	default:
		return "", ErrInvalidAccountType
	}
}

// Account binds a phone number to a ledger address. Address never changes
// once the account is created.
type Account struct {
	ID        string
	Name      string
	Phone     string
	Type      AccountType
	PINHash   []byte
	Address   string
	Seed      string
	CreatedAt time.Time
}

// ValidatePIN checks the PIN format accepted at registration.
func ValidatePIN(pin string) error {
	if len(pin) < 4 {
		return ErrInvalidPIN
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return ErrInvalidPIN
		}
	}
	return nil
}
