package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service resolves phone numbers to accounts and gates access by PIN.
type Service struct {
	repo    Repository
	encoder PINEncoder
}

// NewService creates a new identity service.
func NewService(repo Repository, encoder PINEncoder) *Service {
	return &Service{repo: repo, encoder: encoder}
}

// Resolve looks up the account registered for phone. It has no side effects.
func (s *Service) Resolve(ctx context.Context, phone string) (Account, error) {
	account, err := s.repo.FindByPhone(ctx, strings.TrimSpace(phone))
	if errors.Is(err, ErrNotFound) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("resolve account: %w", err)
	}
	return account, nil
}

// Authorize resolves phone and checks pin against the stored hash.
// A missing account is ErrNotFound and a wrong PIN is ErrUnauthorized; the
// two never collapse into each other.
func (s *Service) Authorize(ctx context.Context, phone, pin string) (Account, error) {
	account, err := s.Resolve(ctx, phone)
	if err != nil {
		return Account{}, err
	}
	if err := s.encoder.Verify(account.PINHash, pin); err != nil {
		return Account{}, err
	}
	return account, nil
}

// NewAccount carries the fields needed to persist a funded wallet.
type NewAccount struct {
	Name    string
	Phone   string
	PIN     string
	Type    AccountType
	Address string
	Seed    string
}

// Create hashes the PIN and stores the account.
func (s *Service) Create(ctx context.Context, in NewAccount) (Account, error) {
	if err := ValidatePIN(in.PIN); err != nil {
		return Account{}, err
	}
	if in.Address == "" || in.Seed == "" {
		return Account{}, errors.New("account address and seed are required")
	}
	hash, err := s.encoder.Encode(in.PIN)
	if err != nil {
		return Account{}, err
	}

	account := Account{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(in.Name),
		Phone:     strings.TrimSpace(in.Phone),
		Type:      in.Type,
		PINHash:   hash,
		Address:   in.Address,
		Seed:      in.Seed,
		CreatedAt: time.Now().UTC(),
	}
	if account.Type == "" {
		account.Type = AccountPersonal
	}
	if err := s.repo.Create(ctx, account); err != nil {
		return Account{}, err
	}
	return account, nil
}
