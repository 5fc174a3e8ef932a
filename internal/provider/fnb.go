package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/synth-squad/payout-engine/internal/config"
)

// FNB pays into First National Bank accounts. Requests ride on a
// client-credentials token that is cached until shortly before expiry.
type FNB struct {
	cfg    config.FNBConfig
	client *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewFNB(cfg config.FNBConfig) *FNB {
	return &FNB{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (f *FNB) Payout(ctx context.Context, amount int64, details map[string]string) Outcome {
	accountNumber := details["accountNumber"]
	accountHolder := details["accountHolder"]
	if accountNumber == "" || accountHolder == "" {
		return Failed("missing beneficiary account details")
	}

	token, err := f.ensureAuthenticated(ctx)
	if err != nil {
		return Failed(fmt.Sprintf("fnb authentication failed: %v", err))
	}

	payload := map[string]any{
		"amount":             TokensToZAR(amount),
		"currency":           "ZAR",
		"beneficiaryAccount": accountNumber,
		"beneficiaryName":    accountHolder,
		"merchantId":         f.cfg.MerchantID,
		"reference":          fmt.Sprintf("Synth Squad Payout %d", time.Now().UnixMilli()),
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.cfg.BaseURL+"/transfers", bytes.NewReader(body))
	if err != nil {
		return Failed(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := f.client.Do(req)
	if err != nil {
		return Failed(err.Error())
	}
	defer resp.Body.Close()

	var result struct {
		TransactionID string `json:"transactionId"`
		Message       string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Failed(fmt.Sprintf("fnb returned unreadable response: %v", err))
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		reason := result.Message
		if reason == "" {
			reason = fmt.Sprintf("fnb transfer rejected with status %d", resp.StatusCode)
		}
		return Failed(reason)
	}
	if result.TransactionID == "" {
		return Failed("fnb transfer accepted without a transaction id")
	}
	return Succeeded(result.TransactionID)
}

func (f *FNB) ensureAuthenticated(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.accessToken != "" && time.Now().Before(f.tokenExpiry) {
		return f.accessToken, nil
	}

	body, _ := json.Marshal(map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     f.cfg.ClientID,
		"client_secret": f.cfg.ClientSecret,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.cfg.BaseURL+"/auth/token", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned no access token")
	}
	f.accessToken = tok.AccessToken
	// Renew a minute early so in-flight transfers never carry a stale token.
	f.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	return f.accessToken, nil
}
