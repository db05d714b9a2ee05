package payments

import (
	"fmt"

	"github.com/ripple-mobile/ripple_mobile/internal/ledger"
)

func sentMessage(amount int64, recipientPhone string, balance int64) string {
	return fmt.Sprintf("Transaction successful, you sent %s XRP to %s, your Current Balance is %s XRP",
		ledger.FormatXRP(amount), recipientPhone, ledger.FormatXRP(balance))
}

func receivedMessage(amount int64, senderPhone string, balance int64) string {
	return fmt.Sprintf("You have received %s XRP from %s, your Current Balance is %s XRP",
		ledger.FormatXRP(amount), senderPhone, ledger.FormatXRP(balance))
}

func pendingMessage(amount int64, recipientPhone, hash string) string {
	return fmt.Sprintf("Your transfer of %s XRP to %s is still being confirmed. Reference: %s",
		ledger.FormatXRP(amount), recipientPhone, hash)
}
