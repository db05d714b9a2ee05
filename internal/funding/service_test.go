package funding

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ripple-mobile/ripple_mobile/internal/identity"
	"github.com/ripple-mobile/ripple_mobile/internal/ledger"
	"github.com/ripple-mobile/ripple_mobile/internal/logging"
	"github.com/ripple-mobile/ripple_mobile/internal/notification"
)

type failingFaucet struct{ err error }

func (f failingFaucet) Fund(context.Context) (FundedWallet, error) { return FundedWallet{}, f.err }

type countingFaucet struct {
	next  Faucet
	calls int
}

func (f *countingFaucet) Fund(ctx context.Context) (FundedWallet, error) {
	f.calls++
	return f.next.Fund(ctx)
}

func newTestService(t *testing.T, faucet Faucet) (*Service, *identity.Service, *notification.Recorder) {
	t.Helper()
	ids := identity.NewService(identity.NewMemoryRepository(), identity.BcryptEncoder{Cost: bcrypt.MinCost})
	notes := notification.NewRecorder()
	svc, err := NewService(ids, faucet, notes, logging.Discard())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, ids, notes
}

func TestRegisterFundsAndWelcomes(t *testing.T) {
	led := ledger.NewInMemory()
	svc, ids, notes := newTestService(t, MemoryFaucet{Ledger: led, Drops: 10 * ledger.DropsPerXRP})
	ctx := context.Background()

	account, err := svc.Register(ctx, RegisterInput{Name: "Ama", Phone: "+233200000001", PIN: "1234", AccountType: "Business"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if account.Type != identity.AccountBusiness {
		t.Fatalf("expected business account, got %s", account.Type)
	}
	if _, err := ids.Authorize(ctx, "+233200000001", "1234"); err != nil {
		t.Fatalf("registered account should authorize: %v", err)
	}
	snap, err := led.AccountInfo(ctx, account.Address)
	if err != nil || snap.Balance != 10*ledger.DropsPerXRP {
		t.Fatalf("expected funded ledger account, got %+v, %v", snap, err)
	}

	want := "Welcome to Ripple Mobile! \nYour business account was successfully created for phone number, +233200000001. \nDial *920*106# to start using Ripple Mobile."
	msgs := notes.To("+233200000001")
	if len(msgs) != 1 || msgs[0].Body != want {
		t.Fatalf("unexpected welcome %+v", msgs)
	}
}

func TestRegisterFailureTextsGenericMessage(t *testing.T) {
	svc, ids, notes := newTestService(t, failingFaucet{err: &ledger.Error{Kind: ledger.KindTransient, Op: "faucet"}})

	_, err := svc.Register(context.Background(), RegisterInput{Phone: "+233200000001", PIN: "1234"})
	if !ledger.IsKind(err, ledger.KindTransient) {
		t.Fatalf("expected transient faucet error, got %v", err)
	}
	if _, err := ids.Resolve(context.Background(), "+233200000001"); !errors.Is(err, identity.ErrNotFound) {
		t.Fatalf("failed registration must not store an account")
	}
	msgs := notes.To("+233200000001")
	if len(msgs) != 1 || msgs[0].Body != MessageFailure {
		t.Fatalf("expected failure sms, got %+v", msgs)
	}
}

func TestRegisterRejectsDuplicatesBeforeFunding(t *testing.T) {
	faucet := &countingFaucet{next: MemoryFaucet{Ledger: ledger.NewInMemory()}}
	svc, _, _ := newTestService(t, faucet)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Phone: "+233200000001", PIN: "1234"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{Phone: "+233200000001", PIN: "1234"}); !errors.Is(err, identity.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{Phone: "+233200000002", PIN: "12"}); !errors.Is(err, identity.ErrInvalidPIN) {
		t.Fatalf("expected ErrInvalidPIN, got %v", err)
	}
	if faucet.calls != 1 {
		t.Fatalf("rejected registrations must not fund wallets")
	}
}

func TestHTTPFaucetDecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"account":{"xAddress":"T7x","classicAddress":"rFaucetFunded","address":"rFaucetFunded"},"amount":10,"seed":"sEdFaucetSeed"}`))
	}))
	defer srv.Close()

	wallet, err := NewHTTPFaucet(srv.URL, time.Second).Fund(context.Background())
	if err != nil {
		t.Fatalf("fund: %v", err)
	}
	if wallet.Address != "rFaucetFunded" || wallet.Seed != "sEdFaucetSeed" || wallet.Balance != 10*ledger.DropsPerXRP {
		t.Fatalf("unexpected wallet %+v", wallet)
	}
}

func TestHTTPFaucetErrors(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
		kind   ledger.Kind
	}{
		"overloaded":   {http.StatusServiceUnavailable, "busy", ledger.KindTransient},
		"bad request":  {http.StatusBadRequest, "nope", ledger.KindRejected},
		"missing seed": {http.StatusOK, `{"account":{"classicAddress":"rX"}}`, ledger.KindDecode},
		"not json":     {http.StatusOK, `<html>`, ledger.KindDecode},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewHTTPFaucet(srv.URL, time.Second).Fund(context.Background())
			if ledger.KindOf(err) != tc.kind {
				t.Fatalf("expected %s, got %v", tc.kind, err)
			}
		})
	}
}
