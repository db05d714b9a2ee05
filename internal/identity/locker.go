package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

const sequenceLockPrefix = "lock:sequence:"

var (
	// ErrLockUnavailable is returned when the sequence lock cannot be taken before the deadline.
	ErrLockUnavailable = errors.New("sequence lock unavailable")
	// ErrLockLost is returned when a lock expired before it was released.
	ErrLockLost = errors.New("sequence lock lost")
)

// Unlock releases a held sequence lock.
type Unlock func(ctx context.Context) error

// SequenceLocker serializes sequence acquisition per sender so that no two
// signed payments of one account carry the same sequence number.
type SequenceLocker interface {
	Lock(ctx context.Context, phone string) (Unlock, error)
}

// MemoryLocker is a process-local SequenceLocker for development and tests.
// It keeps one slot per phone ever locked and never prunes them.
type MemoryLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewMemoryLocker creates an empty process-local locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{slots: make(map[string]chan struct{})}
}

func (l *MemoryLocker) slot(phone string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[phone]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[phone] = ch
	}
	return ch
}

// Lock blocks until the phone's slot is free or ctx is done.
func (l *MemoryLocker) Lock(ctx context.Context, phone string) (Unlock, error) {
	ch := l.slot(phone)
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrLockUnavailable, ctx.Err())
	}
	var once sync.Once
	return func(context.Context) error {
		once.Do(func() { <-ch })
		return nil
	}, nil
}

// LockerConfig bounds Redis lock lifetime and acquisition wait.
type LockerConfig struct {
	// Expiry should outlast a full autofill, sign and confirmation cycle.
	// Held locks are extended every Refresh, so Expiry only bounds how long
	// a crashed holder blocks its phone.
	Expiry     time.Duration
	Refresh    time.Duration
	Wait       time.Duration
	RetryDelay time.Duration
}

// LockExpiry sizes the sequence lock for one transfer: three autofill
// reads, sign, submit and the journal write, each bounded by request, plus
// the confirmation wait and one request of headroom.
func LockExpiry(request, confirm time.Duration) time.Duration {
	return confirm + 7*request
}

// RedisSequenceLocker holds sequence locks in Redis through redsync so that
// several gateway replicas share them.
type RedisSequenceLocker struct {
	rs  *redsync.Redsync
	cfg LockerConfig
}

// NewRedisSequenceLocker builds a redsync-backed locker over client.
func NewRedisSequenceLocker(client redis.UniversalClient, cfg LockerConfig) *RedisSequenceLocker {
	if cfg.Expiry <= 0 {
		cfg.Expiry = time.Minute
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 100 * time.Millisecond
	}
	if cfg.Wait <= 0 {
		cfg.Wait = 10 * time.Second
	}
	if cfg.Refresh <= 0 || cfg.Refresh >= cfg.Expiry {
		cfg.Refresh = cfg.Expiry / 3
	}
	return &RedisSequenceLocker{rs: redsync.New(goredis.NewPool(client)), cfg: cfg}
}

func (l *RedisSequenceLocker) Lock(ctx context.Context, phone string) (Unlock, error) {
	tries := int(l.cfg.Wait/l.cfg.RetryDelay) + 1
	mutex := l.rs.NewMutex(
		sequenceLockPrefix+phone,
		redsync.WithExpiry(l.cfg.Expiry),
		redsync.WithTries(tries),
		redsync.WithRetryDelay(l.cfg.RetryDelay),
	)
	if err := mutex.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLockUnavailable, err)
	}

	stop, done := make(chan struct{}), make(chan struct{})
	go l.keepAlive(mutex, stop, done)

	var (
		once      sync.Once
		unlockErr error
	)
	return func(ctx context.Context) error {
		once.Do(func() {
			close(stop)
			<-done
			ok, err := mutex.UnlockContext(ctx)
			switch {
			case err != nil:
				unlockErr = fmt.Errorf("release sequence lock: %w", err)
			case !ok:
				unlockErr = ErrLockLost
			}
		})
		return unlockErr
	}, nil
}

// keepAlive extends mutex until stop is closed or an extension fails.
func (l *RedisSequenceLocker) keepAlive(mutex *redsync.Mutex, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.cfg.Refresh)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		ctx, cancel := context.WithTimeout(context.Background(), l.cfg.Refresh)
		ok, err := mutex.ExtendContext(ctx)
		cancel()
		if err != nil || !ok {
			return
		}
	}
}
