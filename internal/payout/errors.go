package payout

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrUnsupportedMethod = errors.New("unsupported payout method")
)

// ReconciliationError marks the one failure mode that must reach an
// operator: the provider confirmed the payout but the local ledger could not
// be updated to match. The request is flagged for manual review and the
// money has already left the system.
type ReconciliationError struct {
	RequestID     string
	TransactionID string
	Err           error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("payout %s completed externally (tx %s) but ledger update failed: %v", e.RequestID, e.TransactionID, e.Err)
}

func (e *ReconciliationError) Unwrap() error {
	return e.Err
}
