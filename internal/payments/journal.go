package payments

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrEntryNotFound is returned for hashes the journal has never seen.
var ErrEntryNotFound = errors.New("transfer not found")

// Entry is the journal record of one signed payment.
type Entry struct {
	Hash               string
	SenderPhone        string
	RecipientPhone     string
	Amount             int64
	Sequence           uint32
	LastLedgerSequence uint32
	Status             Status
	Result             string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Journal records signed payments so unknown outcomes can be reconciled later.
type Journal interface {
	Record(ctx context.Context, entry Entry) error
	Update(ctx context.Context, hash string, status Status, result string) error
	Find(ctx context.Context, hash string) (Entry, error)
}

// PostgresJournal implements Journal using PostgreSQL.
type PostgresJournal struct {
	db *pgxpool.Pool
}

// NewPostgresJournal builds a Postgres-backed journal.
func NewPostgresJournal(db *pgxpool.Pool) *PostgresJournal {
	return &PostgresJournal{db: db}
}

func (j *PostgresJournal) Record(ctx context.Context, e Entry) error {
	now := time.Now().UTC()
	_, err := j.db.Exec(ctx, `INSERT INTO transfers (hash, sender_phone, recipient_phone, amount_drops, sequence, last_ledger_sequence, status, result, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		e.Hash, e.SenderPhone, e.RecipientPhone, e.Amount, int64(e.Sequence), int64(e.LastLedgerSequence), string(e.Status), e.Result, now)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

func (j *PostgresJournal) Update(ctx context.Context, hash string, status Status, result string) error {
	cmd, err := j.db.Exec(ctx, `UPDATE transfers SET status = $1, result = $2, updated_at = $3 WHERE hash = $4`,
		string(status), result, time.Now().UTC(), hash)
	if err != nil {
		return fmt.Errorf("update transfer: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (j *PostgresJournal) Find(ctx context.Context, hash string) (Entry, error) {
	row := j.db.QueryRow(ctx, `SELECT hash, sender_phone, recipient_phone, amount_drops, sequence, last_ledger_sequence, status, result, created_at, updated_at
        FROM transfers WHERE hash = $1`, hash)
	var (
		e            Entry
		seq, lastSeq int64
		status       string
	)
	err := row.Scan(&e.Hash, &e.SenderPhone, &e.RecipientPhone, &e.Amount, &seq, &lastSeq, &status, &e.Result, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrEntryNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("select transfer: %w", err)
	}
	e.Sequence = uint32(seq)
	e.LastLedgerSequence = uint32(lastSeq)
	e.Status = Status(status)
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return e, nil
}

type memoryJournal struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryJournal builds an in-memory journal for development and tests.
func NewMemoryJournal() Journal {
	return &memoryJournal{entries: make(map[string]Entry)}
}

func (j *memoryJournal) Record(_ context.Context, e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now
	j.entries[e.Hash] = e
	return nil
}

func (j *memoryJournal) Update(_ context.Context, hash string, status Status, result string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	e, ok := j.entries[hash]
	if !ok {
		return ErrEntryNotFound
	}
	e.Status, e.Result, e.UpdatedAt = status, result, time.Now().UTC()
	j.entries[hash] = e
	return nil
}

func (j *memoryJournal) Find(_ context.Context, hash string) (Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	e, ok := j.entries[hash]
	if !ok {
		return Entry{}, ErrEntryNotFound
	}
	return e, nil
}
