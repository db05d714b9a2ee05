package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// Transactions expire this many ledgers after the current one.
	ledgerOffset = 20
	// rippleEpoch is 2000-01-01T00:00:00Z in Unix seconds.
	rippleEpoch = 946684800
)

// RPCConfig parameterizes the JSON-RPC client.
type RPCConfig struct {
	URL            string
	RequestTimeout time.Duration
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
	MaxFeeDrops    int64
}

// RPCClient talks to a rippled JSON-RPC endpoint.
type RPCClient struct {
	cfg    RPCConfig
	http   *http.Client
	logger *slog.Logger
}

// NewRPCClient builds a client. Signing uses the node's sign method, so
// the endpoint must be a node with signing support enabled.
func NewRPCClient(cfg RPCConfig, logger *slog.Logger) (*RPCClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("json-rpc url is required")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = 30 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.MaxFeeDrops <= 0 {
		cfg.MaxFeeDrops = 2 * DropsPerXRP
	}
	return &RPCClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.RequestTimeout},
		logger: logger.With(slog.String("component", "ledger-rpc")),
	}, nil
}

type rpcRequest struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
}

type rpcEnvelope struct {
	Result json.RawMessage `json:"result"`
}

type rpcStatus struct {
	Status       string `json:"status"`
	Error        string `json:"error"`
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// AccountInfo reads the account from the last validated ledger.
func (c *RPCClient) AccountInfo(ctx context.Context, address string) (AccountSnapshot, error) {
	return c.accountInfo(ctx, address, "validated")
}

type accountInfoResult struct {
	AccountData struct {
		Account  string  `json:"Account"`
		Balance  string  `json:"Balance"`
		Sequence *uint32 `json:"Sequence"`
		Index    string  `json:"index"`
	} `json:"account_data"`
	LedgerIndex        uint32 `json:"ledger_index"`
	LedgerCurrentIndex uint32 `json:"ledger_current_index"`
	Validated          bool   `json:"validated"`
}

func (c *RPCClient) accountInfo(ctx context.Context, address, ledgerIndex string) (AccountSnapshot, error) {
	const op = "account_info"
	params := map[string]any{
		"account":      address,
		"ledger_index": ledgerIndex,
		"strict":       true,
	}
	var res accountInfoResult
	if err := c.call(ctx, op, params, &res); err != nil {
		return AccountSnapshot{}, err
	}

	data := res.AccountData
	if data.Account == "" || data.Balance == "" || data.Sequence == nil {
		return AccountSnapshot{}, &Error{Kind: KindDecode, Op: op, Message: "account_data missing Account, Balance or Sequence"}
	}
	if data.Account != address {
		return AccountSnapshot{}, &Error{Kind: KindDecode, Op: op, Message: fmt.Sprintf("account_data for %s, requested %s", data.Account, address)}
	}
	balance, err := strconv.ParseInt(data.Balance, 10, 64)
	if err != nil || balance < 0 {
		return AccountSnapshot{}, &Error{Kind: KindDecode, Op: op, Message: fmt.Sprintf("malformed Balance %q", data.Balance), Err: err}
	}

	snap := AccountSnapshot{
		Address:     data.Account,
		Balance:     balance,
		Sequence:    *data.Sequence,
		Index:       data.Index,
		LedgerIndex: res.LedgerIndex,
		Validated:   res.Validated,
	}
	if ledgerIndex == "validated" {
		if !res.Validated || data.Index == "" {
			return AccountSnapshot{}, &Error{Kind: KindDecode, Op: op, Message: "validated read returned unvalidated data"}
		}
	} else {
		snap.LedgerIndex = res.LedgerCurrentIndex
	}
	return snap, nil
}

type accountTxResult struct {
	Transactions []struct {
		Tx struct {
			Hash            string          `json:"hash"`
			TransactionType string          `json:"TransactionType"`
			Account         string          `json:"Account"`
			Destination     string          `json:"Destination"`
			Amount          json.RawMessage `json:"Amount"`
			Fee             string          `json:"Fee"`
			LedgerIndex     uint32          `json:"ledger_index"`
			Date            int64           `json:"date"`
		} `json:"tx"`
		Meta struct {
			TransactionResult string          `json:"TransactionResult"`
			DeliveredAmount   json.RawMessage `json:"delivered_amount"`
		} `json:"meta"`
		Validated bool `json:"validated"`
	} `json:"transactions"`
}

// TransactionHistory returns up to limit transactions in the order the network returns them.
func (c *RPCClient) TransactionHistory(ctx context.Context, address string, limit int) ([]TransactionRecord, error) {
	const op = "account_tx"
	params := map[string]any{
		"account":          address,
		"ledger_index_min": -1,
		"ledger_index_max": -1,
	}
	if limit > 0 {
		params["limit"] = limit
	}
	var res accountTxResult
	if err := c.call(ctx, op, params, &res); err != nil {
		return nil, err
	}
	if res.Transactions == nil {
		return nil, &Error{Kind: KindDecode, Op: op, Message: "result missing transactions"}
	}

	records := make([]TransactionRecord, 0, len(res.Transactions))
	for _, entry := range res.Transactions {
		tx := entry.Tx
		if tx.Hash == "" || tx.TransactionType == "" {
			return nil, &Error{Kind: KindDecode, Op: op, Message: "transaction missing hash or TransactionType"}
		}
		rec := TransactionRecord{
			Hash:        tx.Hash,
			Type:        tx.TransactionType,
			Account:     tx.Account,
			Destination: tx.Destination,
			Result:      entry.Meta.TransactionResult,
			LedgerIndex: tx.LedgerIndex,
			Validated:   entry.Validated,
		}
		if tx.Date > 0 {
			rec.Date = time.Unix(tx.Date+rippleEpoch, 0).UTC()
		}
		if tx.Fee != "" {
			fee, err := strconv.ParseInt(tx.Fee, 10, 64)
			if err != nil {
				return nil, &Error{Kind: KindDecode, Op: op, Message: fmt.Sprintf("malformed Fee %q", tx.Fee), Err: err}
			}
			rec.Fee = fee
		}
		amount := entry.Meta.DeliveredAmount
		if len(amount) == 0 || string(amount) == `"unavailable"` {
			amount = tx.Amount
		}
		if err := decodeAmount(amount, &rec); err != nil {
			return nil, &Error{Kind: KindDecode, Op: op, Message: "malformed Amount", Err: err}
		}
		records = append(records, rec)
	}
	return records, nil
}

// decodeAmount handles both XRP (string drops) and issued-currency (object) amounts.
func decodeAmount(raw json.RawMessage, rec *TransactionRecord) error {
	if len(raw) == 0 {
		return nil
	}
	var drops string
	if err := json.Unmarshal(raw, &drops); err == nil {
		v, err := strconv.ParseInt(drops, 10, 64)
		if err != nil {
			return err
		}
		rec.Amount = v
		return nil
	}
	var issued struct {
		Currency string `json:"currency"`
		Value    string `json:"value"`
	}
	if err := json.Unmarshal(raw, &issued); err != nil {
		return err
	}
	rec.IssuedAmount = issued.Value + " " + issued.Currency
	return nil
}

type feeResult struct {
	Drops struct {
		BaseFee       string `json:"base_fee"`
		OpenLedgerFee string `json:"open_ledger_fee"`
	} `json:"drops"`
}

type ledgerCurrentResult struct {
	LedgerCurrentIndex uint32 `json:"ledger_current_index"`
}

// Autofill fetches a fresh sequence from the current ledger, the open
// ledger fee and an expiry window.
func (c *RPCClient) Autofill(ctx context.Context, p Payment) (Payment, error) {
	snap, err := c.accountInfo(ctx, p.Account, "current")
	if err != nil {
		return Payment{}, err
	}
	p.Sequence = snap.Sequence

	var fee feeResult
	if err := c.call(ctx, "fee", map[string]any{}, &fee); err != nil {
		return Payment{}, err
	}
	base, errBase := strconv.ParseInt(fee.Drops.BaseFee, 10, 64)
	open, errOpen := strconv.ParseInt(fee.Drops.OpenLedgerFee, 10, 64)
	if errBase != nil || errOpen != nil {
		return Payment{}, &Error{Kind: KindDecode, Op: "fee", Message: "malformed fee drops"}
	}
	p.Fee = max(base, open)
	if p.Fee > c.cfg.MaxFeeDrops {
		p.Fee = c.cfg.MaxFeeDrops
	}

	var cur ledgerCurrentResult
	if err := c.call(ctx, "ledger_current", map[string]any{}, &cur); err != nil {
		return Payment{}, err
	}
	if cur.LedgerCurrentIndex == 0 {
		return Payment{}, &Error{Kind: KindDecode, Op: "ledger_current", Message: "missing ledger_current_index"}
	}
	p.LastLedgerSequence = cur.LedgerCurrentIndex + ledgerOffset
	return p, nil
}

type signResult struct {
	TxBlob string `json:"tx_blob"`
	TxJSON struct {
		Hash string `json:"hash"`
	} `json:"tx_json"`
}

// Sign signs an autofilled payment with the account seed.
func (c *RPCClient) Sign(ctx context.Context, p Payment, seed string) (SignedPayment, error) {
	const op = "sign"
	if p.Sequence == 0 || p.Fee == 0 || p.LastLedgerSequence == 0 {
		return SignedPayment{}, &Error{Kind: KindRejected, Op: op, Message: "payment is not autofilled"}
	}
	params := map[string]any{
		"tx_json": map[string]any{
			"TransactionType":    TypePayment,
			"Account":            p.Account,
			"Destination":        p.Destination,
			"Amount":             strconv.FormatInt(p.Amount, 10),
			"Fee":                strconv.FormatInt(p.Fee, 10),
			"Sequence":           p.Sequence,
			"LastLedgerSequence": p.LastLedgerSequence,
		},
		"secret":  seed,
		"offline": true,
	}
	var res signResult
	if err := c.call(ctx, op, params, &res); err != nil {
		return SignedPayment{}, err
	}
	if res.TxBlob == "" || res.TxJSON.Hash == "" {
		return SignedPayment{}, &Error{Kind: KindDecode, Op: op, Message: "missing tx_blob or hash"}
	}
	return SignedPayment{Payment: p, Blob: res.TxBlob, Hash: res.TxJSON.Hash}, nil
}

type submitResult struct {
	EngineResult        string `json:"engine_result"`
	EngineResultMessage string `json:"engine_result_message"`
	TxJSON              struct {
		Hash string `json:"hash"`
	} `json:"tx_json"`
}

type txResult struct {
	Hash        string `json:"hash"`
	LedgerIndex uint32 `json:"ledger_index"`
	Validated   bool   `json:"validated"`
	Meta        struct {
		TransactionResult string `json:"TransactionResult"`
	} `json:"meta"`
}

type validatedLedgerResult struct {
	LedgerIndex uint32 `json:"ledger_index"`
}

// SubmitAndWait submits the blob exactly once, then polls until the
// transaction is validated, expires, or ConfirmTimeout elapses.
func (c *RPCClient) SubmitAndWait(ctx context.Context, sp SignedPayment) (Confirmation, error) {
	const op = "submit"
	var sub submitResult
	if err := c.call(ctx, op, map[string]any{"tx_blob": sp.Blob}, &sub); err != nil {
		// The blob may have been forwarded before the failure.
		if (IsKind(err, KindTransient) || IsKind(err, KindDecode)) && !submitNotDelivered(err) {
			return Confirmation{}, &Error{Kind: KindUnknownOutcome, Op: op, Hash: sp.Hash, Err: err}
		}
		return Confirmation{}, err
	}
	if sub.EngineResult == "" {
		return Confirmation{}, &Error{Kind: KindUnknownOutcome, Op: op, Hash: sp.Hash, Message: "missing engine_result"}
	}

	switch classifyEngineResult(sub.EngineResult) {
	case KindRejected:
		return Confirmation{}, &Error{Kind: KindRejected, Op: op, Code: sub.EngineResult, Message: sub.EngineResultMessage, Hash: sp.Hash}
	case KindTransient:
		return Confirmation{}, &Error{Kind: KindTransient, Op: op, Code: sub.EngineResult, Message: sub.EngineResultMessage, Hash: sp.Hash}
	}

	c.logger.Debug("payment submitted", slog.String("hash", sp.Hash), slog.String("engine_result", sub.EngineResult))
	return c.waitForValidation(ctx, sp)
}

func (c *RPCClient) waitForValidation(ctx context.Context, sp SignedPayment) (Confirmation, error) {
	const op = "submit_and_wait"
	waitCtx, cancel := context.WithTimeout(ctx, c.cfg.ConfirmTimeout)
	defer cancel()

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		select {
		case <-waitCtx.Done():
			return Confirmation{}, &Error{Kind: KindUnknownOutcome, Op: op, Hash: sp.Hash, Message: "confirmation deadline exceeded", Err: lastErr}
		case <-ticker.C:
		}

		conf, err := c.TransactionStatus(waitCtx, sp.Hash)
		switch {
		case err == nil && conf.Validated:
			if conf.Result != ResultSuccess {
				return conf, &Error{Kind: KindRejected, Op: op, Code: conf.Result, Hash: sp.Hash, Message: "validated with failure result"}
			}
			return conf, nil
		case err == nil, IsKind(err, KindNotFound):
			// Not yet in a validated ledger; check whether it can still get in.
			index, lerr := c.ValidatedLedgerIndex(waitCtx)
			if lerr != nil || index <= sp.Payment.LastLedgerSequence {
				continue
			}
			// It may have been validated between the two reads.
			conf, err = c.TransactionStatus(waitCtx, sp.Hash)
			if err == nil && conf.Validated {
				if conf.Result != ResultSuccess {
					return conf, &Error{Kind: KindRejected, Op: op, Code: conf.Result, Hash: sp.Hash, Message: "validated with failure result"}
				}
				return conf, nil
			}
			if err == nil || IsKind(err, KindNotFound) {
				return Confirmation{}, &Error{Kind: KindTransient, Op: op, Code: "expired", Hash: sp.Hash, Message: "LastLedgerSequence passed without validation"}
			}
			lastErr = err
		default:
			lastErr = err
			c.logger.Warn("confirmation poll failed", slog.String("hash", sp.Hash), slog.Any("error", err))
		}
	}
}

// TransactionStatus looks up a transaction by hash.
func (c *RPCClient) TransactionStatus(ctx context.Context, hash string) (Confirmation, error) {
	var res txResult
	if err := c.call(ctx, "tx", map[string]any{"transaction": hash, "binary": false}, &res); err != nil {
		return Confirmation{}, err
	}
	conf := Confirmation{Hash: hash, Result: res.Meta.TransactionResult, LedgerIndex: res.LedgerIndex, Validated: res.Validated}
	if conf.Validated && conf.Result == "" {
		return Confirmation{}, &Error{Kind: KindDecode, Op: "tx", Message: "validated transaction missing TransactionResult"}
	}
	return conf, nil
}

// ValidatedLedgerIndex returns the index of the latest validated ledger.
func (c *RPCClient) ValidatedLedgerIndex(ctx context.Context) (uint32, error) {
	var vl validatedLedgerResult
	if err := c.call(ctx, "ledger", map[string]any{"ledger_index": "validated"}, &vl); err != nil {
		return 0, err
	}
	if vl.LedgerIndex == 0 {
		return 0, &Error{Kind: KindDecode, Op: "ledger", Message: "missing ledger_index"}
	}
	return vl.LedgerIndex, nil
}

func (c *RPCClient) call(ctx context.Context, method string, params any, out any) error {
	body, err := json.Marshal(rpcRequest{Method: method, Params: []any{params}})
	if err != nil {
		return &Error{Kind: KindRejected, Op: method, Message: "encode request", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return &Error{Kind: KindRejected, Op: method, Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindTransient, Op: method, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return &Error{Kind: KindTransient, Op: method, Message: "read response", Err: err}
	}
	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return &Error{Kind: KindTransient, Op: method, Code: strconv.Itoa(resp.StatusCode), Message: http.StatusText(resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return &Error{Kind: KindRejected, Op: method, Code: strconv.Itoa(resp.StatusCode), Message: http.StatusText(resp.StatusCode)}
	}

	var env rpcEnvelope
	if err := json.Unmarshal(payload, &env); err != nil || len(env.Result) == 0 {
		return &Error{Kind: KindDecode, Op: method, Message: "response missing result", Err: err}
	}
	var status rpcStatus
	if err := json.Unmarshal(env.Result, &status); err != nil {
		return &Error{Kind: KindDecode, Op: method, Message: "malformed result", Err: err}
	}
	if status.Status == "error" || status.Error != "" {
		return &Error{Kind: classifyRPCError(status.Error), Op: method, Code: status.Error, Message: status.ErrorMessage, answered: true}
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return &Error{Kind: KindDecode, Op: method, Message: "malformed result", Err: err}
	}
	return nil
}

func classifyRPCError(code string) Kind {
	switch code {
	case "actNotFound", "txnNotFound", "lgrNotFound":
		return KindNotFound
	case "tooBusy", "noNetwork", "noCurrent", "noClosed", "slowDown", "amendmentBlocked", "notSynced", "internal":
		return KindTransient
	default:
		return KindRejected
	}
}

// classifyEngineResult maps a preliminary submit result to the action
// taken: "" means wait for validation.
func classifyEngineResult(code string) Kind {
	switch {
	case strings.HasPrefix(code, "tem"), strings.HasPrefix(code, "tef"):
		return KindRejected
	case strings.HasPrefix(code, "tel"):
		return KindTransient
	default:
		// tes, tec and ter results may still reach a validated ledger.
		return ""
	}
}

// submitNotDelivered reports whether a failed submit call certainly did not
// reach the node: the node answered with an RPC error, or the connection was
// never made. HTTP errors from proxies and broken bodies do not qualify.
func submitNotDelivered(err error) bool {
	var lerr *Error
	if !errors.As(err, &lerr) {
		return false
	}
	if lerr.answered {
		return true
	}
	if lerr.Err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(lerr.Err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(lerr.Err, &dnsErr)
}
