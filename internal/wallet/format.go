package wallet

import (
	"fmt"
	"strings"

	"github.com/ripple-mobile/ripple_mobile/internal/ledger"
)

const dateLayout = "2006-01-02 15:04"

// FormatHistory renders one line per record, in the order given, from the
// point of view of owner.
func FormatHistory(owner string, records []ledger.TransactionRecord) string {
	if len(records) == 0 {
		return "No transactions found."
	}
	var b strings.Builder
	for i, rec := range records {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s", i+1, describe(owner, rec))
		if !rec.Date.IsZero() {
			b.WriteString(" on " + rec.Date.UTC().Format(dateLayout))
		}
		if rec.Result != "" && rec.Result != ledger.ResultSuccess {
			b.WriteString(" (" + rec.Result + ")")
		}
	}
	return b.String()
}

func describe(owner string, rec ledger.TransactionRecord) string {
	if rec.Type != ledger.TypePayment {
		return rec.Type
	}
	amount := rec.IssuedAmount
	if amount == "" {
		amount = ledger.FormatXRP(rec.Amount) + " XRP"
	}
	if rec.Account == owner {
		return fmt.Sprintf("Sent %s to %s", amount, rec.Destination)
	}
	return fmt.Sprintf("Received %s from %s", amount, rec.Account)
}
