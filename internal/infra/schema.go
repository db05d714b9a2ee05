package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id           UUID PRIMARY KEY,
		name         TEXT NOT NULL DEFAULT '',
		phone        TEXT NOT NULL UNIQUE,
		account_type TEXT NOT NULL,
		pin_hash     BYTEA NOT NULL,
		address      TEXT NOT NULL,
		seed         TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS transfers (
		hash                 TEXT PRIMARY KEY,
		sender_phone         TEXT NOT NULL,
		recipient_phone      TEXT NOT NULL,
		amount_drops         BIGINT NOT NULL,
		sequence             BIGINT NOT NULL,
		last_ledger_sequence BIGINT NOT NULL,
		status               TEXT NOT NULL,
		result               TEXT NOT NULL DEFAULT '',
		created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS transfers_sender_phone_idx ON transfers (sender_phone, created_at DESC)`,
}

// Migrate creates the account and transfer tables when missing.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
