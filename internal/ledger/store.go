package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store owns all persisted state: user token balances and payout requests.
// It is safe for concurrent use; the database is the sole synchronization
// point for balance mutations.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const requestColumns = `id::text, user_id::text, amount, method, account_details,
    status, COALESCE(transaction_id, ''), COALESCE(failure_reason, ''),
    needs_review, created_at, processed_at`

func (s *Store) CreateUser(ctx context.Context, username, email string, tokens int64) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx, `
        INSERT INTO users (username, email, tokens)
        VALUES ($1, $2, $3)
        RETURNING id::text, username, email, tokens, created_at
    `, username, email, tokens).Scan(&u.ID, &u.Username, &u.Email, &u.Tokens, &u.CreatedAt)
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx, `
        SELECT id::text, username, email, tokens, is_pep, created_at
        FROM users WHERE id = $1
    `, userID).Scan(&u.ID, &u.Username, &u.Email, &u.Tokens, &u.IsPEP, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// AdjustTokens applies delta to the user's balance in a single conditional
// update. The non-negative guard lives here, not in any earlier read: a
// stale balance check can never drive tokens below zero.
func (s *Store) AdjustTokens(ctx context.Context, userID string, delta int64) error {
	tag, err := s.pool.Exec(ctx, `
        UPDATE users SET tokens = tokens + $1
        WHERE id = $2 AND tokens + $1 >= 0
    `, delta, userID)
	if err != nil {
		return fmt.Errorf("adjust tokens: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return fmt.Errorf("adjust tokens: %w", err)
	}
	if !exists {
		return ErrUserNotFound
	}
	return ErrInsufficientTokens
}

func (s *Store) CreatePayoutRequest(ctx context.Context, params CreatePayoutParams) (PayoutRequest, error) {
	details, err := json.Marshal(params.AccountDetails)
	if err != nil {
		return PayoutRequest{}, fmt.Errorf("encode account details: %w", err)
	}
	row := s.pool.QueryRow(ctx, `
        INSERT INTO payout_requests (user_id, amount, method, account_details, status)
        VALUES ($1, $2, $3, $4, 'pending')
        RETURNING `+requestColumns,
		params.UserID, params.Amount, params.Method, details)
	req, err := scanRequest(row)
	if err != nil {
		return PayoutRequest{}, fmt.Errorf("create payout request: %w", err)
	}
	return req, nil
}

func (s *Store) GetPayoutRequest(ctx context.Context, requestID string) (PayoutRequest, error) {
	row := s.pool.QueryRow(ctx, `
        SELECT `+requestColumns+` FROM payout_requests WHERE id = $1
    `, requestID)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PayoutRequest{}, ErrRequestNotFound
		}
		return PayoutRequest{}, fmt.Errorf("get payout request: %w", err)
	}
	return req, nil
}

// SetTerminalStatus moves a pending request to completed or failed. The
// status predicate is part of the update itself, so a request can only ever
// leave pending once.
func (s *Store) SetTerminalStatus(ctx context.Context, requestID, status, transactionID, failureReason string) (PayoutRequest, error) {
	if status != StatusCompleted && status != StatusFailed {
		return PayoutRequest{}, fmt.Errorf("status %q is not terminal", status)
	}
	row := s.pool.QueryRow(ctx, `
        UPDATE payout_requests
        SET status = $2, transaction_id = NULLIF($3, ''), failure_reason = NULLIF($4, ''), processed_at = NOW()
        WHERE id = $1 AND status = 'pending'
        RETURNING `+requestColumns,
		requestID, status, transactionID, failureReason)
	req, err := scanRequest(row)
	if err == nil {
		return req, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return PayoutRequest{}, fmt.Errorf("set terminal status: %w", err)
	}
	var exists bool
	if qerr := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM payout_requests WHERE id = $1)`, requestID).Scan(&exists); qerr != nil {
		return PayoutRequest{}, fmt.Errorf("set terminal status: %w", qerr)
	}
	if !exists {
		return PayoutRequest{}, ErrRequestNotFound
	}
	return PayoutRequest{}, ErrInvalidTransition
}

// FlagForReview marks a request for manual reconciliation. It works on
// terminal requests; the flag is the only mutable field after a request
// leaves pending.
func (s *Store) FlagForReview(ctx context.Context, requestID string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE payout_requests SET needs_review = TRUE WHERE id = $1`, requestID)
	if err != nil {
		return fmt.Errorf("flag for review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRequestNotFound
	}
	return nil
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]PayoutRequest, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT `+requestColumns+`
        FROM payout_requests
        WHERE user_id = $1
        ORDER BY created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("list payout requests: %w", err)
	}
	defer rows.Close()

	var requests []PayoutRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payout request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func (s *Store) ListAll(ctx context.Context) ([]PayoutRequestDetail, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT pr.id::text, pr.user_id::text, pr.amount, pr.method, pr.account_details,
               pr.status, COALESCE(pr.transaction_id, ''), COALESCE(pr.failure_reason, ''),
               pr.needs_review, pr.created_at, pr.processed_at,
               u.username, u.email
        FROM payout_requests pr
        JOIN users u ON pr.user_id = u.id
        ORDER BY pr.created_at DESC
    `)
	if err != nil {
		return nil, fmt.Errorf("list all payout requests: %w", err)
	}
	defer rows.Close()

	var details []PayoutRequestDetail
	for rows.Next() {
		var d PayoutRequestDetail
		var rawDetails []byte
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.Amount, &d.Method, &rawDetails,
			&d.Status, &d.TransactionID, &d.FailureReason,
			&d.NeedsReview, &d.CreatedAt, &d.ProcessedAt,
			&d.Username, &d.Email,
		); err != nil {
			return nil, fmt.Errorf("scan payout request: %w", err)
		}
		if err := json.Unmarshal(rawDetails, &d.AccountDetails); err != nil {
			return nil, fmt.Errorf("decode account details: %w", err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (PayoutRequest, error) {
	var req PayoutRequest
	var rawDetails []byte
	err := row.Scan(
		&req.ID, &req.UserID, &req.Amount, &req.Method, &rawDetails,
		&req.Status, &req.TransactionID, &req.FailureReason,
		&req.NeedsReview, &req.CreatedAt, &req.ProcessedAt,
	)
	if err != nil {
		return PayoutRequest{}, err
	}
	if err := json.Unmarshal(rawDetails, &req.AccountDetails); err != nil {
		return PayoutRequest{}, err
	}
	return req, nil
}
