package payments

import (
	"github.com/shopspring/decimal"

	"github.com/ripple-mobile/ripple_mobile/internal/identity"
	"github.com/ripple-mobile/ripple_mobile/internal/notification"
)

// Status is the outcome class of a transfer.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	// StatusUnknown means the payment was submitted but its validation was
	// not observed in time. It may still succeed.
	StatusUnknown Status = "unknown"
	// StatusPending is only used in the journal, between signing and the outcome.
	StatusPending Status = "pending"
)

// ResultExpired is journaled for payments whose LastLedgerSequence passed
// without them reaching a validated ledger.
const ResultExpired = "expired"


// Reason explains a failed transfer.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonUserNotFound      Reason = "user_not_found"
	ReasonRecipientNotFound Reason = "recipient_not_found"
	ReasonUnauthorized      Reason = "unauthorized"
	ReasonInvalidAmount     Reason = "invalid_amount"
	ReasonLedgerError       Reason = "ledger_error"
	// ReasonInternal covers account store, lock and journal failures.
	ReasonInternal Reason = "internal"
)

// User-facing transfer texts.
const (
	MessageFailure           = "Something went wrong, try again later"
	MessageRecipientNotFound = "Recipient not found."
)

// TransferRequest asks to move Amount XRP between two registered phones.
type TransferRequest struct {
	SenderPhone    string
	RecipientPhone string
	PIN            string
	Amount         decimal.Decimal
}

// TransferResult reports what happened to a transfer. Balances are in drops.
type TransferResult struct {
	Status Status
	Reason Reason
	// Hash is set once the payment was signed.
	Hash             string
	Amount           int64
	SenderBalance    int64
	RecipientBalance int64
	// Confirmed is true when the payment reached a validated ledger with
	// tesSUCCESS, even if a later step failed.
	Confirmed bool
	Err       error
	// Undelivered lists notifications the sink refused.
	Undelivered []notification.Message

	senderMessage string
}

// Message is the text returned to the caller.
func (r TransferResult) Message() string {
	switch {
	case r.Status == StatusSuccess, r.Status == StatusUnknown:
		return r.senderMessage
	case r.Reason == ReasonUserNotFound:
		return identity.MessageNotFound
	case r.Reason == ReasonUnauthorized:
		return identity.MessageUnauthorized
	case r.Reason == ReasonRecipientNotFound:
		return MessageRecipientNotFound
	default:
		return MessageFailure
	}
}
