package ledger

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrRequestNotFound    = errors.New("payout request not found")
	ErrInvalidTransition  = errors.New("payout request is not pending")
	ErrInsufficientTokens = errors.New("insufficient tokens")
)
