package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Repository persists accounts. The gateway only creates and reads them.
type Repository interface {
	Create(ctx context.Context, account Account) error
	FindByPhone(ctx context.Context, phone string) (Account, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed account repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new account.
func (r *PostgresRepository) Create(ctx context.Context, account Account) error {
	id, err := uuid.Parse(account.ID)
	if err != nil {
		return fmt.Errorf("parse account id: %w", err)
	}
	_, err = r.db.Exec(ctx, `INSERT INTO accounts (id, name, phone, account_type, pin_hash, address, seed, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, account.Name, account.Phone, string(account.Type), account.PINHash, account.Address, account.Seed, account.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrExists
	}
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// FindByPhone fetches an account by phone number.
func (r *PostgresRepository) FindByPhone(ctx context.Context, phone string) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, phone, account_type, pin_hash, address, seed, created_at
        FROM accounts WHERE phone = $1`, phone)
	var (
		id          uuid.UUID
		accountType string
		createdAt   time.Time
		account     Account
	)
	err := row.Scan(&id, &account.Name, &account.Phone, &accountType, &account.PINHash, &account.Address, &account.Seed, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("select account: %w", err)
	}
	account.ID = id.String()
	account.Type = AccountType(accountType)
	account.CreatedAt = createdAt.UTC()
	return account, nil
}
