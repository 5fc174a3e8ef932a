package payout

import (
	"context"
	"log"
	"time"

	"github.com/synth-squad/payout-engine/internal/alerts"
	"github.com/synth-squad/payout-engine/internal/compliance"
	"github.com/synth-squad/payout-engine/internal/ledger"
	"github.com/synth-squad/payout-engine/internal/provider"
)

// Ledger is the slice of the store the orchestrator needs. The store is the
// sole synchronization point; the orchestrator does no locking of its own.
type Ledger interface {
	GetUser(ctx context.Context, userID string) (ledger.User, error)
	CreatePayoutRequest(ctx context.Context, params ledger.CreatePayoutParams) (ledger.PayoutRequest, error)
	SetTerminalStatus(ctx context.Context, requestID, status, transactionID, failureReason string) (ledger.PayoutRequest, error)
	FlagForReview(ctx context.Context, requestID string) error
	AdjustTokens(ctx context.Context, userID string, delta int64) error
	ListByUser(ctx context.Context, userID string) ([]ledger.PayoutRequest, error)
	ListAll(ctx context.Context) ([]ledger.PayoutRequestDetail, error)
}

// Resolver maps a payout method to its provider.
type Resolver interface {
	Resolve(method string) (provider.Provider, bool)
}

// Notifier raises operator alerts. *alerts.Client satisfies it.
type Notifier interface {
	EnqueueReconciliationAlert(alerts.ReconciliationAlertPayload) error
	EnqueueComplianceAlert(alerts.ComplianceAlertPayload) error
}

// Service coordinates the payout lifecycle: validate, persist a pending
// request, dispatch to the provider, reconcile the outcome. It holds no
// durable state of its own.
type Service struct {
	ledger   Ledger
	registry Resolver
	screener *compliance.Screener
	notifier Notifier
	timeout  time.Duration
}

func NewService(l Ledger, r Resolver, screener *compliance.Screener, notifier Notifier, providerTimeout time.Duration) *Service {
	if providerTimeout <= 0 {
		providerTimeout = 30 * time.Second
	}
	return &Service{
		ledger:   l,
		registry: r,
		screener: screener,
		notifier: notifier,
		timeout:  providerTimeout,
	}
}

// RequestPayout runs one payout to a terminal state.
//
// The pending record is committed before the provider call so that a crash
// mid-dispatch leaves an auditable trace instead of a lost request. The
// balance check before dispatch is advisory only; the authoritative
// non-negative guard is inside AdjustTokens.
func (s *Service) RequestPayout(ctx context.Context, userID string, amount int64, method string, details map[string]string) (ledger.PayoutRequest, error) {
	if amount <= 0 {
		return ledger.PayoutRequest{}, ErrInvalidAmount
	}

	user, err := s.ledger.GetUser(ctx, userID)
	if err != nil {
		return ledger.PayoutRequest{}, err
	}
	if user.Tokens < amount {
		return ledger.PayoutRequest{}, ledger.ErrInsufficientTokens
	}

	prov, ok := s.registry.Resolve(method)
	if !ok {
		return ledger.PayoutRequest{}, ErrUnsupportedMethod
	}

	req, err := s.ledger.CreatePayoutRequest(ctx, ledger.CreatePayoutParams{
		UserID:         userID,
		Amount:         amount,
		Method:         method,
		AccountDetails: details,
	})
	if err != nil {
		return ledger.PayoutRequest{}, err
	}

	s.screen(ctx, user, req)

	outcome := s.dispatch(ctx, prov, amount, details)

	if !outcome.Success {
		failed, err := s.ledger.SetTerminalStatus(ctx, req.ID, ledger.StatusFailed, "", outcome.Reason)
		if err != nil {
			return ledger.PayoutRequest{}, err
		}
		return failed, nil
	}

	completed, err := s.ledger.SetTerminalStatus(ctx, req.ID, ledger.StatusCompleted, outcome.TransactionID, "")
	if err != nil {
		// The provider has already paid; failing to record it is a
		// reconciliation anomaly, not a failed payout.
		return req, s.reconciliationFailure(ctx, req, outcome.TransactionID, err)
	}
	if err := s.ledger.AdjustTokens(ctx, userID, -amount); err != nil {
		return completed, s.reconciliationFailure(ctx, completed, outcome.TransactionID, err)
	}
	return completed, nil
}

// dispatch invokes the provider under the configured timeout. A provider
// that outlives the deadline is abandoned and its (possible) late success
// becomes a manual reconciliation concern.
func (s *Service) dispatch(ctx context.Context, prov provider.Provider, amount int64, details map[string]string) provider.Outcome {
	dctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	outcomeCh := make(chan provider.Outcome, 1)
	go func() {
		outcomeCh <- prov.Payout(dctx, amount, details)
	}()
	select {
	case outcome := <-outcomeCh:
		return outcome
	case <-dctx.Done():
		return provider.Failed("timeout")
	}
}

func (s *Service) reconciliationFailure(ctx context.Context, req ledger.PayoutRequest, transactionID string, cause error) error {
	if err := s.ledger.FlagForReview(ctx, req.ID); err != nil {
		log.Printf("failed to flag payout %s for review: %v", req.ID, err)
	}
	if s.notifier != nil {
		alert := alerts.ReconciliationAlertPayload{
			RequestID:     req.ID,
			UserID:        req.UserID,
			Amount:        req.Amount,
			Method:        req.Method,
			TransactionID: transactionID,
			Detail:        cause.Error(),
		}
		if err := s.notifier.EnqueueReconciliationAlert(alert); err != nil {
			log.Printf("RECONCILIATION ALERT DELIVERY FAILED request=%s: %v", req.ID, err)
		}
	}
	return &ReconciliationError{RequestID: req.ID, TransactionID: transactionID, Err: cause}
}

// screen runs advisory compliance checks. Restrictions alert an operator;
// nothing here blocks the payout.
func (s *Service) screen(ctx context.Context, user ledger.User, req ledger.PayoutRequest) {
	if s.screener == nil {
		return
	}
	recent := 1
	if history, err := s.ledger.ListByUser(ctx, user.ID); err == nil {
		recent = 0
		cutoff := time.Now().Add(-time.Hour)
		for _, r := range history {
			if r.CreatedAt.After(cutoff) {
				recent++
			}
		}
	}
	res := s.screener.Check(
		compliance.Subject{UserID: user.ID, IsPEP: user.IsPEP},
		compliance.Transaction{
			AmountZAR:   provider.TokensToZAR(req.Amount),
			RecentCount: recent,
			At:          req.CreatedAt,
		},
	)
	if res.Compliant {
		return
	}
	for _, w := range res.Warnings {
		log.Printf("compliance warning request=%s user=%s: %s", req.ID, user.ID, w)
	}
	if len(res.Restrictions) > 0 && s.notifier != nil {
		err := s.notifier.EnqueueComplianceAlert(alerts.ComplianceAlertPayload{
			UserID:       user.ID,
			RequestID:    req.ID,
			Warnings:     res.Warnings,
			Restrictions: res.Restrictions,
		})
		if err != nil {
			log.Printf("compliance alert delivery failed request=%s: %v", req.ID, err)
		}
	}
}

// GetPayoutHistory returns the user's requests, newest first.
func (s *Service) GetPayoutHistory(ctx context.Context, userID string) ([]ledger.PayoutRequest, error) {
	return s.ledger.ListByUser(ctx, userID)
}

// GetAllPayouts returns every request with its owner, newest first.
func (s *Service) GetAllPayouts(ctx context.Context) ([]ledger.PayoutRequestDetail, error) {
	return s.ledger.ListAll(ctx)
}
