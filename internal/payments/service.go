package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ripple-mobile/ripple_mobile/internal/identity"
	"github.com/ripple-mobile/ripple_mobile/internal/ledger"
	"github.com/ripple-mobile/ripple_mobile/internal/logging"
	"github.com/ripple-mobile/ripple_mobile/internal/notification"
)

// Deps are the collaborators of the transfer orchestrator.
type Deps struct {
	Identity *identity.Service
	Gateway  ledger.Gateway
	Locker   identity.SequenceLocker
	Notifier notification.Notifier
	// Journal is optional.
	Journal Journal
	Logger  *slog.Logger
}

// Service orchestrates phone-to-phone XRP transfers.
type Service struct {
	identity *identity.Service
	gateway  ledger.Gateway
	locker   identity.SequenceLocker
	notifier notification.Notifier
	journal  Journal
	logger   *slog.Logger
}

// NewService constructs a payment service.
func NewService(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		identity: deps.Identity,
		gateway:  deps.Gateway,
		locker:   deps.Locker,
		notifier: deps.Notifier,
		journal:  deps.Journal,
		logger:   logger.With(slog.String("component", "payments")),
	}
}

// Send resolves both parties, submits one signed payment and reports the
// post-transfer balances. It never retries: a failed or unknown result may
// still hide a payment that reached the ledger, so resubmitting can pay twice.
func (s *Service) Send(ctx context.Context, req TransferRequest) TransferResult {
	logger := s.logger.With(logging.Phone(req.SenderPhone))

	sender, err := s.identity.Authorize(ctx, req.SenderPhone, req.PIN)
	switch {
	case errors.Is(err, identity.ErrNotFound):
		return TransferResult{Status: StatusFailed, Reason: ReasonUserNotFound, Err: err}
	case errors.Is(err, identity.ErrUnauthorized):
		return TransferResult{Status: StatusFailed, Reason: ReasonUnauthorized, Err: err}
	case err != nil:
		return TransferResult{Status: StatusFailed, Reason: ReasonInternal, Err: err}
	}
	recipient, err := s.identity.Resolve(ctx, req.RecipientPhone)
	switch {
	case errors.Is(err, identity.ErrNotFound):
		return TransferResult{Status: StatusFailed, Reason: ReasonRecipientNotFound, Err: err}
	case err != nil:
		return TransferResult{Status: StatusFailed, Reason: ReasonInternal, Err: err}
	}

	drops, err := ledger.ToDrops(req.Amount)
	if err != nil {
		return s.fail(ctx, sender, TransferResult{Reason: ReasonInvalidAmount, Err: err})
	}
	res := TransferResult{Amount: drops}

	unlock, err := s.locker.Lock(ctx, sender.Phone)
	if err != nil {
		res.Reason, res.Err = ReasonInternal, err
		return s.fail(ctx, sender, res)
	}
	var releaseOnce sync.Once
	release := func() {
		releaseOnce.Do(func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("release sequence lock", slog.Any("error", err))
			}
		})
	}
	defer release()

	payment, err := s.gateway.Autofill(ctx, ledger.Payment{
		Account:     sender.Address,
		Destination: recipient.Address,
		Amount:      drops,
	})
	if err != nil {
		res.Reason, res.Err = ReasonLedgerError, err
		return s.fail(ctx, sender, res)
	}
	signed, err := s.gateway.Sign(ctx, payment, sender.Seed)
	if err != nil {
		res.Reason, res.Err = ReasonLedgerError, err
		return s.fail(ctx, sender, res)
	}
	res.Hash = signed.Hash

	if s.journal != nil {
		err := s.journal.Record(ctx, Entry{
			Hash:               signed.Hash,
			SenderPhone:        sender.Phone,
			RecipientPhone:     recipient.Phone,
			Amount:             drops,
			Sequence:           payment.Sequence,
			LastLedgerSequence: payment.LastLedgerSequence,
			Status:             StatusPending,
		})
		if err != nil {
			res.Reason, res.Err = ReasonInternal, fmt.Errorf("journal transfer: %w", err)
			return s.fail(ctx, sender, res)
		}
	}

	// Submission runs to completion regardless of the caller.
	ctx = context.WithoutCancel(ctx)
	logger = logger.With(slog.String("hash", signed.Hash))

	conf, err := s.gateway.SubmitAndWait(ctx, signed)
	release()
	if err != nil {
		result := conf.Result
		var lerr *ledger.Error
		if result == "" && errors.As(err, &lerr) {
			result = lerr.Code
		}
		if ledger.IsKind(err, ledger.KindUnknownOutcome) {
			s.settle(ctx, signed.Hash, StatusUnknown, result)
			logger.Warn("transfer outcome unknown", slog.Any("error", err))
			res.Status, res.Err = StatusUnknown, err
			res.senderMessage = pendingMessage(drops, recipient.Phone, signed.Hash)
			s.notify(ctx, &res, notification.Message{
				Kind:        notification.KindTransferPending,
				Destination: sender.Phone,
				Body:        res.senderMessage,
			})
			return res
		}
		s.settle(ctx, signed.Hash, StatusFailed, result)
		res.Reason, res.Err = ReasonLedgerError, err
		return s.fail(ctx, sender, res)
	}
	res.Confirmed = true
	s.settle(ctx, signed.Hash, StatusSuccess, conf.Result)

	senderSnap, err := s.gateway.AccountInfo(ctx, sender.Address)
	if err != nil {
		logger.Warn("transfer confirmed but sender balance unreadable", slog.Any("error", err))
		res.Reason, res.Err = ReasonLedgerError, err
		return s.fail(ctx, sender, res)
	}
	recipientSnap, err := s.gateway.AccountInfo(ctx, recipient.Address)
	if err != nil {
		logger.Warn("transfer confirmed but recipient balance unreadable", slog.Any("error", err))
		res.Reason, res.Err = ReasonLedgerError, err
		return s.fail(ctx, sender, res)
	}

	res.Status = StatusSuccess
	res.SenderBalance = senderSnap.Balance
	res.RecipientBalance = recipientSnap.Balance
	res.senderMessage = sentMessage(drops, recipient.Phone, senderSnap.Balance)
	s.notify(ctx, &res, notification.Message{
		Kind:        notification.KindTransferSent,
		Destination: sender.Phone,
		Body:        res.senderMessage,
	})
	s.notify(ctx, &res, notification.Message{
		Kind:        notification.KindTransferReceived,
		Destination: recipient.Phone,
		Body:        receivedMessage(drops, sender.Phone, recipientSnap.Balance),
	})
	logger.Info("transfer confirmed", slog.Int64("drops", drops), slog.Uint64("ledger_index", uint64(conf.LedgerIndex)))
	return res
}

// fail marks res failed and tells the sender, and only the sender.
func (s *Service) fail(ctx context.Context, sender identity.Account, res TransferResult) TransferResult {
	res.Status = StatusFailed
	s.logger.Warn("transfer failed",
		logging.Phone(sender.Phone),
		slog.String("reason", string(res.Reason)),
		slog.String("hash", res.Hash),
		slog.Any("error", res.Err),
	)
	s.notify(ctx, &res, notification.Message{
		Kind:        notification.KindTransferFailed,
		Destination: sender.Phone,
		Body:        MessageFailure,
	})
	return res
}

func (s *Service) notify(ctx context.Context, res *TransferResult, msg notification.Message) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Warn("notification not delivered",
			slog.String("kind", msg.Kind), logging.Phone(msg.Destination), slog.Any("error", err))
		res.Undelivered = append(res.Undelivered, msg)
	}
}

func (s *Service) settle(ctx context.Context, hash string, status Status, result string) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Update(ctx, hash, status, result); err != nil {
		s.logger.Warn("journal update failed", slog.String("hash", hash), slog.Any("error", err))
	}
}

// Status returns the journal entry for hash to one of its two parties,
// settling pending and unknown entries against the validated ledger first.
// Entries belonging to someone else are reported as not found. Without a
// journal only the ledger view is returned.
func (s *Service) Status(ctx context.Context, phone, pin, hash string) (Entry, error) {
	caller, err := s.identity.Authorize(ctx, phone, pin)
	if err != nil {
		return Entry{}, err
	}

	if s.journal == nil {
		conf, err := s.gateway.TransactionStatus(ctx, hash)
		if ledger.IsKind(err, ledger.KindNotFound) {
			return Entry{}, ErrEntryNotFound
		}
		if err != nil {
			return Entry{}, err
		}
		return Entry{Hash: hash, Status: statusOf(conf), Result: conf.Result}, nil
	}

	entry, err := s.journal.Find(ctx, hash)
	if err != nil {
		return Entry{}, err
	}
	if caller.Phone != entry.SenderPhone && caller.Phone != entry.RecipientPhone {
		return Entry{}, ErrEntryNotFound
	}
	if entry.Status != StatusPending && entry.Status != StatusUnknown {
		return entry, nil
	}
	return s.reconcile(ctx, entry)
}

func (s *Service) reconcile(ctx context.Context, entry Entry) (Entry, error) {
	conf, err := s.gateway.TransactionStatus(ctx, entry.Hash)
	switch {
	case err == nil && conf.Validated:
		return s.resolve(ctx, entry, statusOf(conf), conf.Result)
	case err != nil && !ledger.IsKind(err, ledger.KindNotFound):
		return Entry{}, err
	}

	// Not validated yet; it never can be once LastLedgerSequence has passed.
	if entry.LastLedgerSequence == 0 {
		return entry, nil
	}
	index, err := s.gateway.ValidatedLedgerIndex(ctx)
	if err != nil {
		return Entry{}, err
	}
	if index <= entry.LastLedgerSequence {
		return entry, nil
	}
	// It may have been validated between the two reads.
	conf, err = s.gateway.TransactionStatus(ctx, entry.Hash)
	switch {
	case err == nil && conf.Validated:
		return s.resolve(ctx, entry, statusOf(conf), conf.Result)
	case err != nil && !ledger.IsKind(err, ledger.KindNotFound):
		return Entry{}, err
	}
	return s.resolve(ctx, entry, StatusFailed, ResultExpired)
}

func (s *Service) resolve(ctx context.Context, entry Entry, status Status, result string) (Entry, error) {
	entry.Status, entry.Result = status, result
	if err := s.journal.Update(ctx, entry.Hash, status, result); err != nil {
		return Entry{}, err
	}
	s.logger.Info("transfer reconciled", slog.String("hash", entry.Hash), slog.String("status", string(status)), slog.String("result", result))
	return entry, nil
}

func statusOf(conf ledger.Confirmation) Status {
	switch {
	case !conf.Validated:
		return StatusPending
	case conf.Result == ledger.ResultSuccess:
		return StatusSuccess
	default:
		return StatusFailed
	}
}
