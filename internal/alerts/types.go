package alerts

import "time"

// Task type constants
const (
	TaskReconciliationAlert = "alert:reconciliation"
	TaskComplianceAlert     = "alert:compliance"
)

// Common envelope for email-like notifications
type EmailEnvelope struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Reconciliation alert payload: money left the system but the ledger could
// not be debited. Always critical.
type ReconciliationAlertPayload struct {
	RequestID     string        `json:"request_id"`
	UserID        string        `json:"user_id"`
	Amount        int64         `json:"amount"`
	Method        string        `json:"method"`
	TransactionID string        `json:"transaction_id"`
	Detail        string        `json:"detail"`
	Envelope      EmailEnvelope `json:"envelope"`
	SentAt        time.Time     `json:"sent_at"`
}

// Compliance alert payload for screening restrictions
type ComplianceAlertPayload struct {
	UserID       string        `json:"user_id"`
	RequestID    string        `json:"request_id"`
	Warnings     []string      `json:"warnings"`
	Restrictions []string      `json:"restrictions"`
	Envelope     EmailEnvelope `json:"envelope"`
	SentAt       time.Time     `json:"sent_at"`
}
