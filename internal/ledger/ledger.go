package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// DropsPerXRP is the scale factor between the ledger's minor unit and XRP.
	DropsPerXRP = 1_000_000

	// ResultSuccess is the engine result of a transaction that applied cleanly.
	ResultSuccess = "tesSUCCESS"

	// TypePayment is the transaction type used for value transfers.
	TypePayment = "Payment"
)

// ErrInvalidAmount indicates an amount that cannot be represented exactly in drops.
var ErrInvalidAmount = errors.New("invalid amount")

// Kind classifies ledger failures so callers can branch without parsing messages.
type Kind string

const (
	// KindTransient covers network failures, overloaded servers, local
	// (tel) rejections and expired submissions. Retrying is safe.
	KindTransient Kind = "transient"
	// KindRejected is a permanent rejection: malformed (tem), failed
	// (tef) or claimed-fee (tec) results and invalid requests.
	KindRejected Kind = "rejected"
	// KindNotFound is returned for unknown accounts or transactions.
	KindNotFound Kind = "not_found"
	// KindDecode means the network answered with a shape we do not understand.
	KindDecode Kind = "decode"
	// KindUnknownOutcome means a payment was submitted but its final
	// state was not observed before the confirmation deadline.
	KindUnknownOutcome Kind = "unknown_outcome"
)

// Error is the single error type surfaced by gateway implementations.
type Error struct {
	Kind    Kind
	Op      string
	Code    string
	Message string
	Hash    string
	Err     error

	// answered is set when the node itself replied with an RPC error.
	answered bool
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("ledger %s: %s", e.Op, e.Kind)
	if e.Code != "" {
		msg += " (" + e.Code + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether resubmitting the same request cannot double-apply it.
func (e *Error) Retryable() bool { return e.Kind == KindTransient }

// KindOf extracts the Kind of a ledger error, or "" if err is not one.
func KindOf(err error) Kind {
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr.Kind
	}
	return ""
}

// IsKind reports whether err is a ledger error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// AccountSnapshot is a decoded account_info result. It is never cached.
type AccountSnapshot struct {
	Address     string
	Balance     int64
	Sequence    uint32
	Index       string
	LedgerIndex uint32
	Validated   bool
}

// Payment is an XRP transfer between two classic addresses. Sequence, Fee
// and LastLedgerSequence are set by Autofill.
type Payment struct {
	Account            string
	Destination        string
	Amount             int64
	Sequence           uint32
	Fee                int64
	LastLedgerSequence uint32
}

// SignedPayment is a payment ready for submission.
type SignedPayment struct {
	Payment Payment
	Blob    string
	Hash    string
}

// Confirmation describes the ledger state of a submitted transaction.
type Confirmation struct {
	Hash        string
	Result      string
	LedgerIndex uint32
	Validated   bool
}

// TransactionRecord is one entry of an account's transaction history.
type TransactionRecord struct {
	Hash         string
	Type         string
	Account      string
	Destination  string
	Amount       int64
	IssuedAmount string
	Fee          int64
	Result       string
	LedgerIndex  uint32
	Date         time.Time
	Validated    bool
}

// Reader performs validated-ledger reads.
type Reader interface {
	AccountInfo(ctx context.Context, address string) (AccountSnapshot, error)
	TransactionHistory(ctx context.Context, address string, limit int) ([]TransactionRecord, error)
}

// Submitter builds, signs and submits payments.
type Submitter interface {
	// Autofill returns p with a fresh Sequence, Fee and LastLedgerSequence.
	Autofill(ctx context.Context, p Payment) (Payment, error)
	Sign(ctx context.Context, p Payment, seed string) (SignedPayment, error)
	// SubmitAndWait submits once and blocks until the transaction is in a
	// validated ledger, is known to have failed, or the deadline passes.
	SubmitAndWait(ctx context.Context, sp SignedPayment) (Confirmation, error)
	TransactionStatus(ctx context.Context, hash string) (Confirmation, error)
	// ValidatedLedgerIndex returns the index of the latest validated ledger.
	ValidatedLedgerIndex(ctx context.Context) (uint32, error)
}

// Gateway is the full adapter to the ledger network.
type Gateway interface {
	Reader
	Submitter
}
