package identity

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PINEncoder hashes PINs for storage and checks candidates against a hash.
type PINEncoder interface {
	Encode(pin string) ([]byte, error)
	Verify(hash []byte, pin string) error
}

// BcryptEncoder stores PINs as bcrypt hashes.
type BcryptEncoder struct {
	Cost int
}

// NewBcryptEncoder returns an encoder using bcrypt.DefaultCost.
func NewBcryptEncoder() BcryptEncoder {
	return BcryptEncoder{Cost: bcrypt.DefaultCost}
}

func (e BcryptEncoder) Encode(pin string) ([]byte, error) {
	cost := e.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), cost)
	if err != nil {
		return nil, fmt.Errorf("hash pin: %w", err)
	}
	return hash, nil
}

// Verify returns ErrUnauthorized on mismatch.
func (e BcryptEncoder) Verify(hash []byte, pin string) error {
	err := bcrypt.CompareHashAndPassword(hash, []byte(pin))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrUnauthorized
	}
	if err != nil {
		return fmt.Errorf("verify pin: %w", err)
	}
	return nil
}
