package wallet

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ripple-mobile/ripple_mobile/internal/identity"
	"github.com/ripple-mobile/ripple_mobile/internal/ledger"
	"github.com/ripple-mobile/ripple_mobile/internal/logging"
	"github.com/ripple-mobile/ripple_mobile/internal/notification"
)

const defaultHistoryLimit = 10

// Service answers balance, info and history queries from validated ledger state.
type Service struct {
	identity     *identity.Service
	reader       ledger.Reader
	notifier     notification.Notifier
	historyLimit int
	logger       *slog.Logger
}

// NewService builds a wallet query service.
func NewService(ids *identity.Service, reader ledger.Reader, notifier notification.Notifier, historyLimit int, logger *slog.Logger) *Service {
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		identity:     ids,
		reader:       reader,
		notifier:     notifier,
		historyLimit: historyLimit,
		logger:       logger.With(slog.String("component", "wallet")),
	}
}

// Balance reads the validated balance and sends it by SMS. The returned
// message and the SMS body are the same string.
func (s *Service) Balance(ctx context.Context, phone, pin string) (BalanceReport, error) {
	account, err := s.identity.Authorize(ctx, phone, pin)
	if err != nil {
		return BalanceReport{}, err
	}
	snap, err := s.reader.AccountInfo(ctx, account.Address)
	if err != nil {
		return BalanceReport{}, fmt.Errorf("read balance: %w", err)
	}

	report := BalanceReport{
		Message: fmt.Sprintf("Current balance is %s XRP", ledger.FormatXRP(snap.Balance)),
		Balance: snap.Balance,
	}
	report.Undelivered = !s.notify(ctx, notification.Message{
		Kind:        notification.KindBalance,
		Destination: account.Phone,
		Body:        report.Message,
	})
	return report, nil
}

// Info returns the account root fields. No SMS is sent.
func (s *Service) Info(ctx context.Context, phone, pin string) (InfoReport, error) {
	account, err := s.identity.Authorize(ctx, phone, pin)
	if err != nil {
		return InfoReport{}, err
	}
	snap, err := s.reader.AccountInfo(ctx, account.Address)
	if err != nil {
		return InfoReport{}, fmt.Errorf("read account info: %w", err)
	}
	return InfoReport{
		Message: fmt.Sprintf("Address: %s \nBalance: %s XRP \nSequence: %d \nIndex: %s",
			snap.Address, ledger.FormatXRP(snap.Balance), snap.Sequence, snap.Index),
		Address:  snap.Address,
		Balance:  snap.Balance,
		Sequence: snap.Sequence,
		Index:    snap.Index,
	}, nil
}

// History sends a summary of recent transactions by SMS.
func (s *Service) History(ctx context.Context, phone, pin string) (HistoryReport, error) {
	account, err := s.identity.Authorize(ctx, phone, pin)
	if err != nil {
		return HistoryReport{}, err
	}
	records, err := s.reader.TransactionHistory(ctx, account.Address, s.historyLimit)
	if err != nil {
		return HistoryReport{}, fmt.Errorf("read history: %w", err)
	}
	if len(records) > s.historyLimit {
		records = records[:s.historyLimit]
	}

	report := HistoryReport{
		Message: fmt.Sprintf("Transaction history has been sent to %s via SMS", account.Phone),
		Records: records,
	}
	report.Undelivered = !s.notify(ctx, notification.Message{
		Kind:        notification.KindHistory,
		Destination: account.Phone,
		Body:        "Transaction History Summary: \n" + FormatHistory(account.Address, records),
	})
	return report, nil
}

func (s *Service) notify(ctx context.Context, msg notification.Message) bool {
	if s.notifier == nil {
		return true
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Warn("notification not delivered", slog.String("kind", msg.Kind), logging.Phone(msg.Destination), slog.Any("error", err))
		return false
	}
	return true
}
