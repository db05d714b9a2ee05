package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerConfig holds circuit breaker thresholds for the ledger endpoint.
type BreakerConfig struct {
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
	MaxHalfOpenRequests uint32
}

// Breaker fails fast while the ledger endpoint is unhealthy. Only
// transient failures count against it; rejections and unknown outcomes
// are answers from a live network.
type Breaker struct {
	next    Gateway
	breaker *gobreaker.CircuitBreaker
}

// NewBreaker wraps next with a circuit breaker.
func NewBreaker(next Gateway, cfg BreakerConfig, logger *slog.Logger) *Breaker {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.MaxHalfOpenRequests == 0 {
		cfg.MaxHalfOpenRequests = 1
	}
	settings := gobreaker.Settings{
		Name:        "ledger",
		MaxRequests: cfg.MaxHalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !IsKind(err, KindTransient)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("ledger circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	}
	return &Breaker{next: next, breaker: gobreaker.NewCircuitBreaker(settings)}
}

// State returns the breaker state name: closed, half-open or open.
func (b *Breaker) State() string {
	return b.breaker.State().String()
}

func (b *Breaker) AccountInfo(ctx context.Context, address string) (AccountSnapshot, error) {
	return execute(b, "account_info", func() (AccountSnapshot, error) {
		return b.next.AccountInfo(ctx, address)
	})
}

func (b *Breaker) TransactionHistory(ctx context.Context, address string, limit int) ([]TransactionRecord, error) {
	return execute(b, "account_tx", func() ([]TransactionRecord, error) {
		return b.next.TransactionHistory(ctx, address, limit)
	})
}

func (b *Breaker) Autofill(ctx context.Context, p Payment) (Payment, error) {
	return execute(b, "autofill", func() (Payment, error) {
		return b.next.Autofill(ctx, p)
	})
}

func (b *Breaker) Sign(ctx context.Context, p Payment, seed string) (SignedPayment, error) {
	return execute(b, "sign", func() (SignedPayment, error) {
		return b.next.Sign(ctx, p, seed)
	})
}

func (b *Breaker) SubmitAndWait(ctx context.Context, sp SignedPayment) (Confirmation, error) {
	return execute(b, "submit", func() (Confirmation, error) {
		return b.next.SubmitAndWait(ctx, sp)
	})
}

func (b *Breaker) TransactionStatus(ctx context.Context, hash string) (Confirmation, error) {
	return execute(b, "tx", func() (Confirmation, error) {
		return b.next.TransactionStatus(ctx, hash)
	})
}

func (b *Breaker) ValidatedLedgerIndex(ctx context.Context) (uint32, error) {
	return execute(b, "ledger", func() (uint32, error) {
		return b.next.ValidatedLedgerIndex(ctx)
	})
}

func execute[T any](b *Breaker, op string, fn func() (T, error)) (T, error) {
	var out T
	res, err := b.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return out, &Error{Kind: KindTransient, Op: op, Code: "circuit_open", Err: err}
	}
	if v, ok := res.(T); ok {
		out = v
	}
	return out, err
}
