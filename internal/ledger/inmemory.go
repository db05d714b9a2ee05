package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"
)

// InMemoryFee is the fee Autofill assigns on the in-memory ledger.
const InMemoryFee = 12

type memAccount struct {
	validated int64
	sequence  uint32
	index     string
}

// InMemory is a concurrency-safe ledger double. Every submitted payment is
// validated immediately; failures are injected through the Fail* methods.
type InMemory struct {
	mu          sync.Mutex
	accounts    map[string]*memAccount
	history     map[string][]TransactionRecord
	submitted   []SignedPayment
	ledgerIndex uint32
	calls       int

	submitErr      error
	failAfterApply error
	readErr        map[string]error
}

// NewInMemory creates an empty ledger.
func NewInMemory() *InMemory {
	return &InMemory{
		accounts:    make(map[string]*memAccount),
		history:     make(map[string][]TransactionRecord),
		readErr:     make(map[string]error),
		ledgerIndex: 1000,
	}
}

func (l *InMemory) account(address string) (*memAccount, error) {
	acct, ok := l.accounts[address]
	if !ok {
		return nil, &Error{Kind: KindNotFound, Op: "account_info", Code: "actNotFound", Message: "Account not found."}
	}
	return acct, nil
}

func (l *InMemory) AccountInfo(_ context.Context, address string) (AccountSnapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++

	if err := l.readErr[address]; err != nil {
		return AccountSnapshot{}, err
	}
	acct, err := l.account(address)
	if err != nil {
		return AccountSnapshot{}, err
	}
	return AccountSnapshot{
		Address:     address,
		Balance:     acct.validated,
		Sequence:    acct.sequence,
		Index:       acct.index,
		LedgerIndex: l.ledgerIndex,
		Validated:   true,
	}, nil
}

func (l *InMemory) TransactionHistory(_ context.Context, address string, limit int) ([]TransactionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++

	if err := l.readErr[address]; err != nil {
		return nil, err
	}
	if _, err := l.account(address); err != nil {
		return nil, err
	}
	records := l.history[address]
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return append([]TransactionRecord(nil), records...), nil
}

func (l *InMemory) Autofill(_ context.Context, p Payment) (Payment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++

	acct, err := l.account(p.Account)
	if err != nil {
		return Payment{}, err
	}
	p.Sequence = acct.sequence
	p.Fee = InMemoryFee
	p.LastLedgerSequence = l.ledgerIndex + ledgerOffset
	return p, nil
}

func (l *InMemory) Sign(_ context.Context, p Payment, seed string) (SignedPayment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++

	if seed == "" {
		return SignedPayment{}, &Error{Kind: KindRejected, Op: "sign", Code: "badSecret", Message: "Secret does not match account."}
	}
	blob := fmt.Sprintf("%s|%s|%d|%d|%d", p.Account, p.Destination, p.Amount, p.Sequence, p.Fee)
	sum := sha256.Sum256([]byte(blob))
	return SignedPayment{Payment: p, Blob: hex.EncodeToString([]byte(blob)), Hash: strings.ToUpper(hex.EncodeToString(sum[:]))}, nil
}

func (l *InMemory) SubmitAndWait(_ context.Context, sp SignedPayment) (Confirmation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++

	if l.submitErr != nil {
		return Confirmation{}, l.submitErr
	}
	p := sp.Payment
	from, err := l.account(p.Account)
	if err != nil {
		return Confirmation{}, err
	}
	if p.Sequence != from.sequence {
		code := "tefPAST_SEQ"
		if p.Sequence > from.sequence {
			code = "terPRE_SEQ"
		}
		return Confirmation{}, &Error{Kind: KindRejected, Op: "submit", Code: code, Hash: sp.Hash}
	}
	l.submitted = append(l.submitted, sp)
	l.ledgerIndex++

	to, ok := l.accounts[p.Destination]
	result := ResultSuccess
	switch {
	case !ok:
		result = "tecNO_DST"
	case from.validated < p.Amount+p.Fee:
		result = "tecUNFUNDED_PAYMENT"
	}

	from.sequence++
	from.validated -= p.Fee
	if result == ResultSuccess {
		from.validated -= p.Amount
		to.validated += p.Amount
	}

	rec := TransactionRecord{
		Hash:        sp.Hash,
		Type:        TypePayment,
		Account:     p.Account,
		Destination: p.Destination,
		Amount:      p.Amount,
		Fee:         p.Fee,
		Result:      result,
		LedgerIndex: l.ledgerIndex,
		Date:        time.Now().UTC().Truncate(time.Second),
		Validated:   true,
	}
	l.history[p.Account] = append([]TransactionRecord{rec}, l.history[p.Account]...)
	if ok {
		l.history[p.Destination] = append([]TransactionRecord{rec}, l.history[p.Destination]...)
	}

	conf := Confirmation{Hash: sp.Hash, Result: result, LedgerIndex: l.ledgerIndex, Validated: true}
	if l.failAfterApply != nil {
		return Confirmation{}, l.failAfterApply
	}
	if result != ResultSuccess {
		return conf, &Error{Kind: KindRejected, Op: "submit_and_wait", Code: result, Hash: sp.Hash}
	}
	return conf, nil
}

func (l *InMemory) TransactionStatus(_ context.Context, hash string) (Confirmation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++

	for _, records := range l.history {
		for _, rec := range records {
			if rec.Hash == hash {
				return Confirmation{Hash: hash, Result: rec.Result, LedgerIndex: rec.LedgerIndex, Validated: true}, nil
			}
		}
	}
	return Confirmation{}, &Error{Kind: KindNotFound, Op: "tx", Code: "txnNotFound"}
}

func (l *InMemory) ValidatedLedgerIndex(_ context.Context) (uint32, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	return l.ledgerIndex, nil
}

// FailSubmit makes SubmitAndWait return err without applying anything.
func (l *InMemory) FailSubmit(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.submitErr = err
}

// FailAfterApply makes SubmitAndWait apply the payment and then return err,
// the way a confirmation timeout hides a transfer that did happen.
func (l *InMemory) FailAfterApply(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failAfterApply = err
}

// FailReads makes reads of address return err.
func (l *InMemory) FailReads(address string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err == nil {
		delete(l.readErr, address)
		return
	}
	l.readErr[address] = err
}

// Reset clears injected failures.
func (l *InMemory) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.submitErr = nil
	l.failAfterApply = nil
	l.readErr = make(map[string]error)
}

// Submitted returns every payment accepted by SubmitAndWait.
func (l *InMemory) Submitted() []SignedPayment {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]SignedPayment(nil), l.submitted...)
}

// Calls returns the number of gateway calls served.
func (l *InMemory) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}
