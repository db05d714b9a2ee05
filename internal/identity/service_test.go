package identity

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(NewMemoryRepository(), BcryptEncoder{Cost: bcrypt.MinCost})
	_, err := svc.Create(context.Background(), NewAccount{
		Name:    "Ama",
		Phone:   "+233200000001",
		PIN:     "1234",
		Type:    AccountPersonal,
		Address: "rSender",
		Seed:    "sEdSender",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return svc
}

func TestResolveAndAuthorize(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	account, err := svc.Resolve(ctx, " +233200000001 ")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if account.Address != "rSender" {
		t.Fatalf("expected rSender, got %s", account.Address)
	}
	if string(account.PINHash) == "1234" {
		t.Fatalf("pin stored in clear")
	}

	if _, err := svc.Authorize(ctx, "+233200000001", "1234"); err != nil {
		t.Fatalf("authorize: %v", err)
	}
}

func TestAuthorizeDistinguishesFailures(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Authorize(ctx, "+233200000009", "1234"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Authorize(ctx, "+233200000001", "9999"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestCreateRejectsDuplicatesAndBadPIN(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, NewAccount{Phone: "+233200000001", PIN: "1234", Address: "rOther", Seed: "sOther"})
	if !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	for _, pin := range []string{"12", "12ab", ""} {
		if _, err := svc.Create(ctx, NewAccount{Phone: "+233200000002", PIN: pin, Address: "r2", Seed: "s2"}); !errors.Is(err, ErrInvalidPIN) {
			t.Fatalf("pin %q: expected ErrInvalidPIN, got %v", pin, err)
		}
	}
}

func TestParseAccountType(t *testing.T) {
	cases := map[string]AccountType{"": AccountPersonal, "Personal": AccountPersonal, " business ": AccountBusiness}
	for in, want := range cases {
		got, err := ParseAccountType(in)
		if err != nil || got != want {
			t.Fatalf("ParseAccountType(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseAccountType("savings"); !errors.Is(err, ErrInvalidAccountType) {
		t.Fatalf("expected ErrInvalidAccountType, got %v", err)
	}
}
