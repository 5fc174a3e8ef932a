package ledger

import "time"

// Status of a payout request. Transitions are one-way:
// pending -> completed or pending -> failed.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Tokens    int64     `json:"tokens"`
	IsPEP     bool      `json:"is_pep,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type PayoutRequest struct {
	ID             string            `json:"id"`
	UserID         string            `json:"user_id"`
	Amount         int64             `json:"amount"`
	Method         string            `json:"method"`
	AccountDetails map[string]string `json:"account_details"`
	Status         string            `json:"status"`
	TransactionID  string            `json:"transaction_id,omitempty"`
	FailureReason  string            `json:"failure_reason,omitempty"`
	NeedsReview    bool              `json:"needs_review,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	ProcessedAt    *time.Time        `json:"processed_at,omitempty"`
}

// PayoutRequestDetail joins the owning user onto a request for the
// administrative listing.
type PayoutRequestDetail struct {
	PayoutRequest
	Username string `json:"username"`
	Email    string `json:"email"`
}

type CreatePayoutParams struct {
	UserID         string
	Amount         int64
	Method         string
	AccountDetails map[string]string
}
