package db

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx pool and verifies connectivity.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	log.Println("Connected to Postgres successfully")
	return pool, nil
}

// EnsureSchema creates or upgrades the tables the ledger depends on.
// Every statement is idempotent so it is safe to run at every boot.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if err := ensureUsersTable(ctx, pool); err != nil {
		return err
	}
	if err := ensurePayoutRequestsTable(ctx, pool); err != nil {
		return err
	}
	ensureReviewColumns(ctx, pool)
	return nil
}

func ensureUsersTable(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS users (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            username TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            tokens BIGINT NOT NULL DEFAULT 0 CHECK (tokens >= 0),
            is_pep BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        )`)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}

func ensurePayoutRequestsTable(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS payout_requests (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            user_id UUID NOT NULL REFERENCES users(id),
            amount BIGINT NOT NULL CHECK (amount > 0),
            method TEXT NOT NULL,
            account_details JSONB NOT NULL DEFAULT '{}'::jsonb,
            status TEXT NOT NULL DEFAULT 'pending'
                CHECK (status IN ('pending', 'completed', 'failed')),
            transaction_id TEXT NULL,
            failure_reason TEXT NULL,
            needs_review BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            processed_at TIMESTAMP WITH TIME ZONE NULL
        );
        CREATE INDEX IF NOT EXISTS idx_payout_requests_user_created
            ON payout_requests(user_id, created_at DESC);
        CREATE INDEX IF NOT EXISTS idx_payout_requests_review
            ON payout_requests(needs_review) WHERE needs_review;
    `)
	if err != nil {
		return fmt.Errorf("failed to create payout_requests table: %w", err)
	}
	return nil
}

// ensureReviewColumns backfills columns added after the first release.
func ensureReviewColumns(ctx context.Context, pool *pgxpool.Pool) {
	var exists bool
	err := pool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM information_schema.columns
            WHERE table_schema = 'public' AND table_name = 'payout_requests' AND column_name = 'needs_review'
        )`).Scan(&exists)
	if err != nil {
		log.Printf("schema check failed: %v", err)
		return
	}
	if exists {
		return
	}
	if _, err := pool.Exec(ctx, `ALTER TABLE payout_requests ADD COLUMN IF NOT EXISTS needs_review BOOLEAN NOT NULL DEFAULT FALSE`); err != nil {
		log.Printf("failed to add needs_review column: %v", err)
		return
	}
	if _, err := pool.Exec(ctx, `ALTER TABLE payout_requests ADD COLUMN IF NOT EXISTS failure_reason TEXT NULL`); err != nil {
		log.Printf("failed to add failure_reason column: %v", err)
	}
}
