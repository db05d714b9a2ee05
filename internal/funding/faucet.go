package funding

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ripple-mobile/ripple_mobile/internal/ledger"
)

// FundedWallet is a new ledger account created and funded by a faucet.
type FundedWallet struct {
	Address string
	Seed    string
	// Balance is the initial funding in drops, when the faucet reports it.
	Balance int64
}

// Faucet creates funded ledger accounts.
type Faucet interface {
	Fund(ctx context.Context) (FundedWallet, error)
}

// HTTPFaucet calls the XRPL test network faucet API.
type HTTPFaucet struct {
	url    string
	client *http.Client
}

// NewHTTPFaucet builds a faucet client for url.
func NewHTTPFaucet(url string, timeout time.Duration) *HTTPFaucet {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFaucet{url: url, client: &http.Client{Timeout: timeout}}
}

type faucetResponse struct {
	Account struct {
		ClassicAddress string `json:"classicAddress"`
		Address        string `json:"address"`
		Secret         string `json:"secret"`
	} `json:"account"`
	Seed    string          `json:"seed"`
	Balance json.RawMessage `json:"balance"`
	Amount  json.RawMessage `json:"amount"`
}

// Fund asks the faucet for a new account.
func (f *HTTPFaucet) Fund(ctx context.Context) (FundedWallet, error) {
	body, _ := json.Marshal(map[string]any{"userAgent": "ripple-mobile"})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return FundedWallet{}, fmt.Errorf("build faucet request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return FundedWallet{}, &ledger.Error{Kind: ledger.KindTransient, Op: "faucet", Err: err}
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return FundedWallet{}, &ledger.Error{Kind: ledger.KindTransient, Op: "faucet", Message: "read response", Err: err}
	}
	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return FundedWallet{}, &ledger.Error{Kind: ledger.KindTransient, Op: "faucet", Code: fmt.Sprint(resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return FundedWallet{}, &ledger.Error{Kind: ledger.KindRejected, Op: "faucet", Code: fmt.Sprint(resp.StatusCode), Message: strings.TrimSpace(string(payload))}
	}

	var out faucetResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return FundedWallet{}, &ledger.Error{Kind: ledger.KindDecode, Op: "faucet", Message: "malformed response", Err: err}
	}
	wallet := FundedWallet{Address: out.Account.ClassicAddress, Seed: out.Seed}
	if wallet.Address == "" {
		wallet.Address = out.Account.Address
	}
	if wallet.Seed == "" {
		wallet.Seed = out.Account.Secret
	}
	if wallet.Address == "" || wallet.Seed == "" {
		return FundedWallet{}, &ledger.Error{Kind: ledger.KindDecode, Op: "faucet", Message: "response missing address or seed"}
	}
	raw := out.Balance
	if len(raw) == 0 {
		raw = out.Amount
	}
	if len(raw) > 0 {
		if xrp, err := ledger.ParseXRP(strings.Trim(string(raw), `"`)); err == nil {
			if drops, err := ledger.ToDrops(xrp); err == nil {
				wallet.Balance = drops
			}
		}
	}
	return wallet, nil
}

// MemoryFaucet funds random accounts on an in-memory ledger. It backs
// local development without a network.
type MemoryFaucet struct {
	Ledger *ledger.InMemory
	Drops  int64
}

func (f MemoryFaucet) Fund(context.Context) (FundedWallet, error) {
	addr, err := randomHex(16)
	if err != nil {
		return FundedWallet{}, err
	}
	seed, err := randomHex(14)
	if err != nil {
		return FundedWallet{}, err
	}
	drops := f.Drops
	if drops <= 0 {
		drops = 100 * ledger.DropsPerXRP
	}
	w := FundedWallet{Address: "r" + addr, Seed: "s" + seed, Balance: drops}
	ledger.SeedAccount(f.Ledger, w.Address, drops)
	return w, nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate wallet: %w", err)
	}
	return hex.EncodeToString(b), nil
}
