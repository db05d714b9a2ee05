package wallet

import "github.com/ripple-mobile/ripple_mobile/internal/ledger"

// MessageFailure is returned when the ledger cannot answer a query.
const MessageFailure = "Something went wrong, try again later"

// BalanceReport is the outcome of a balance query. Message is also the SMS text.
type BalanceReport struct {
	Message string
	// Balance is the validated balance in drops.
	Balance     int64
	Undelivered bool
}

// InfoReport describes the ledger root of an account.
type InfoReport struct {
	Message  string
	Address  string
	Balance  int64
	Sequence uint32
	Index    string
}

// HistoryReport carries the records summarized in the history SMS.
type HistoryReport struct {
	Message     string
	Records     []ledger.TransactionRecord
	Undelivered bool
}
