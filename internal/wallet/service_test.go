package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ripple-mobile/ripple_mobile/internal/identity"
	"github.com/ripple-mobile/ripple_mobile/internal/ledger"
	"github.com/ripple-mobile/ripple_mobile/internal/logging"
	"github.com/ripple-mobile/ripple_mobile/internal/notification"
)

const (
	phone = "+233200000001"
	pin   = "1234"
)

func newIdentity(t *testing.T) *identity.Service {
	t.Helper()
	ids := identity.NewService(identity.NewMemoryRepository(), identity.BcryptEncoder{Cost: bcrypt.MinCost})
	_, err := ids.Create(context.Background(), identity.NewAccount{Name: "Ama", Phone: phone, PIN: pin, Address: "rOwner", Seed: "sOwner"})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return ids
}

func newTestService(t *testing.T) (*Service, *ledger.InMemory, *notification.Recorder) {
	t.Helper()
	led := ledger.NewInMemory()
	ledger.SeedAccount(led, "rOwner", 25_500_000)
	notes := notification.NewRecorder()
	return NewService(newIdentity(t), led, notes, 3, logging.Discard()), led, notes
}

func TestBalanceMessageMatchesSMS(t *testing.T) {
	svc, _, notes := newTestService(t)

	report, err := svc.Balance(context.Background(), phone, pin)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if report.Message != "Current balance is 25.5 XRP" {
		t.Fatalf("unexpected message %q", report.Message)
	}
	msgs := notes.To(phone)
	if len(msgs) != 1 || msgs[0].Body != report.Message {
		t.Fatalf("sms must equal returned message, got %+v", msgs)
	}
}

func TestQueriesRejectBeforeLedger(t *testing.T) {
	svc, led, notes := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Balance(ctx, "+233209999999", pin); !errors.Is(err, identity.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.Info(ctx, phone, "0000"); !errors.Is(err, identity.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := svc.History(ctx, phone, "0000"); !errors.Is(err, identity.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if led.Calls() != 0 || len(notes.Messages()) != 0 {
		t.Fatalf("rejected queries must not reach the ledger or notifier")
	}
}

func TestInfoFormat(t *testing.T) {
	svc, _, notes := newTestService(t)

	report, err := svc.Info(context.Background(), phone, pin)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	want := "Address: rOwner \nBalance: 25.5 XRP \nSequence: 1 \nIndex: " + report.Index
	if report.Message != want {
		t.Fatalf("unexpected info %q", report.Message)
	}
	if report.Index == "" {
		t.Fatalf("expected ledger index")
	}
	if len(notes.Messages()) != 0 {
		t.Fatalf("info must not send SMS")
	}
}

func TestHistorySendsSummary(t *testing.T) {
	svc, led, notes := newTestService(t)
	ledger.SeedAccount(led, "rFriend", 0)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		p, _ := led.Autofill(ctx, ledger.Payment{Account: "rOwner", Destination: "rFriend", Amount: 1_000_000})
		sp, _ := led.Sign(ctx, p, "sOwner")
		if _, err := led.SubmitAndWait(ctx, sp); err != nil {
			t.Fatalf("seed payment: %v", err)
		}
	}

	report, err := svc.History(ctx, phone, pin)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if report.Message != "Transaction history has been sent to +233200000001 via SMS" {
		t.Fatalf("unexpected message %q", report.Message)
	}
	if len(report.Records) != 3 {
		t.Fatalf("expected history capped at 3, got %d", len(report.Records))
	}
	msgs := notes.To(phone)
	if len(msgs) != 1 || !strings.HasPrefix(msgs[0].Body, "Transaction History Summary: \n1. Sent 1 XRP to rFriend") {
		t.Fatalf("unexpected history sms %+v", msgs)
	}
}

func TestBalanceLedgerFailure(t *testing.T) {
	svc, led, notes := newTestService(t)
	led.FailReads("rOwner", &ledger.Error{Kind: ledger.KindTransient, Op: "account_info"})

	_, err := svc.Balance(context.Background(), phone, pin)
	if !ledger.IsKind(err, ledger.KindTransient) {
		t.Fatalf("expected transient ledger error, got %v", err)
	}
	if len(notes.Messages()) != 0 {
		t.Fatalf("no balance sms on failure")
	}
}

func TestBalanceReportsValidatedLedgerOnly(t *testing.T) {
	var requested []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Params []map[string]any `json:"params"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		ledgerIndex, _ := req.Params[0]["ledger_index"].(string)
		requested = append(requested, ledgerIndex)

		balance, validated := "999000000", false
		if ledgerIndex == "validated" {
			balance, validated = "7000000", true
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{
			"account_data": map[string]any{"Account": "rOwner", "Balance": balance, "Sequence": 4, "index": "ABCD"},
			"validated":    validated,
			"status":       "success",
		}})
	}))
	defer srv.Close()

	client, err := ledger.NewRPCClient(ledger.RPCConfig{URL: srv.URL, RequestTimeout: time.Second}, logging.Discard())
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	svc := NewService(newIdentity(t), client, notification.NewRecorder(), 0, logging.Discard())

	report, err := svc.Balance(context.Background(), phone, pin)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if report.Balance != 7_000_000 || report.Message != "Current balance is 7 XRP" {
		t.Fatalf("expected validated balance, got %+v", report)
	}
	if len(requested) != 1 || requested[0] != "validated" {
		t.Fatalf("expected one validated read, got %v", requested)
	}
}

func TestFormatHistory(t *testing.T) {
	date := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	records := []ledger.TransactionRecord{
		{Type: ledger.TypePayment, Account: "rFriend", Destination: "rOwner", Amount: 2_500_000, Result: ledger.ResultSuccess, Date: date},
		{Type: ledger.TypePayment, Account: "rOwner", Destination: "rFriend", IssuedAmount: "3 USD", Result: "tecPATH_DRY"},
		{Type: "TrustSet", Account: "rOwner", Result: ledger.ResultSuccess},
	}
	want := "1. Received 2.5 XRP from rFriend on 2024-03-01 09:30\n2. Sent 3 USD to rFriend (tecPATH_DRY)\n3. TrustSet"
	if got := FormatHistory("rOwner", records); got != want {
		t.Fatalf("unexpected format:\n%s", got)
	}
	if FormatHistory("rOwner", nil) != "No transactions found." {
		t.Fatalf("unexpected empty format")
	}
}
