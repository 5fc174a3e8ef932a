package alerts

import (
	"context"
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"
)

// RunWorker blocks processing the alert queues until the server is stopped.
func RunWorker(redisAddr string) error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskReconciliationAlert, handleReconciliationAlert)
	mux.HandleFunc(TaskComplianceAlert, handleComplianceAlert)

	server := asynq.NewServer(asynq.RedisClientOpt{Addr: redisAddr}, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			"alerts": 10,
		},
	})
	return server.Run(mux)
}

func handleReconciliationAlert(ctx context.Context, t *asynq.Task) error {
	var p ReconciliationAlertPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	log.Printf("RECONCILIATION ALERT request=%s user=%s amount=%d method=%s tx=%s", p.RequestID, p.UserID, p.Amount, p.Method, p.TransactionID)
	return SendEmail(p.Envelope.To, p.Envelope.Subject, p.Envelope.Body)
}

func handleComplianceAlert(ctx context.Context, t *asynq.Task) error {
	var p ComplianceAlertPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	log.Printf("compliance alert request=%s user=%s restrictions=%d", p.RequestID, p.UserID, len(p.Restrictions))
	return SendEmail(p.Envelope.To, p.Envelope.Subject, p.Envelope.Body)
}
