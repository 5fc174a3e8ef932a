package alerts

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hibiken/asynq"
)

// Client enqueues operator alerts onto the shared Redis queue. The worker
// binary drains them; see RunWorker.
type Client struct {
	client *asynq.Client
}

func NewClient(redisAddr string) *Client {
	return &Client{client: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func operatorAddress() string {
	if to := os.Getenv("ALERTS_TO"); to != "" {
		return to
	}
	return "ops@synthsquad.local"
}

// EnqueueReconciliationAlert raises the critical "paid out but not debited"
// alert. These must never be dropped silently, so enqueue failures bubble up
// to the caller for logging.
func (c *Client) EnqueueReconciliationAlert(p ReconciliationAlertPayload) error {
	p.Envelope = EmailEnvelope{
		To:      operatorAddress(),
		Subject: fmt.Sprintf("[CRITICAL] Payout %s needs manual reconciliation", p.RequestID),
		Body: fmt.Sprintf(
			"Payout request %s (user %s, %d tokens via %s) completed externally as %s but the ledger debit failed: %s\n\nThe request is flagged for manual review.",
			p.RequestID, p.UserID, p.Amount, p.Method, p.TransactionID, p.Detail,
		),
	}
	p.SentAt = time.Now()
	b, _ := json.Marshal(p)
	task := asynq.NewTask(TaskReconciliationAlert, b)
	_, err := c.client.Enqueue(task, asynq.Queue("alerts"), asynq.MaxRetry(10))
	return err
}

// EnqueueComplianceAlert notifies operators of a screening restriction.
func (c *Client) EnqueueComplianceAlert(p ComplianceAlertPayload) error {
	p.Envelope = EmailEnvelope{
		To:      operatorAddress(),
		Subject: fmt.Sprintf("Compliance review needed for payout %s", p.RequestID),
		Body: fmt.Sprintf(
			"Payout request %s by user %s was flagged.\n\nWarnings:\n%s\n\nRestrictions:\n%s",
			p.RequestID, p.UserID, bulletList(p.Warnings), bulletList(p.Restrictions),
		),
	}
	p.SentAt = time.Now()
	b, _ := json.Marshal(p)
	task := asynq.NewTask(TaskComplianceAlert, b)
	_, err := c.client.Enqueue(task, asynq.Queue("alerts"))
	return err
}

func bulletList(items []string) string {
	if len(items) == 0 {
		return "- none"
	}
	return "- " + strings.Join(items, "\n- ")
}
