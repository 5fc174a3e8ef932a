package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/synth-squad/payout-engine/internal/config"
)

// PayPal sends payouts-batch transfers to a receiver email. Tokens settle
// in US dollars.
type PayPal struct {
	cfg    config.PayPalConfig
	client *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewPayPal(cfg config.PayPalConfig) *PayPal {
	return &PayPal{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *PayPal) Payout(ctx context.Context, amount int64, details map[string]string) Outcome {
	receiver := details["email"]
	if receiver == "" {
		return Failed("missing receiver email")
	}

	token, err := p.ensureAuthenticated(ctx)
	if err != nil {
		return Failed(fmt.Sprintf("paypal authentication failed: %v", err))
	}

	payload := map[string]any{
		"sender_batch_header": map[string]string{
			"sender_batch_id": uuid.NewString(),
			"email_subject":   "Synth Squad Payout",
		},
		"items": []map[string]any{
			{
				"recipient_type": "EMAIL",
				"amount": map[string]string{
					"value":    TokensToUSD(amount).StringFixed(2),
					"currency": "USD",
				},
				"receiver":       receiver,
				"note":           "Thank you for playing Synth Squad!",
				"sender_item_id": fmt.Sprintf("payout_%d", time.Now().UnixMilli()),
			},
		},
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/v1/payments/payouts", bytes.NewReader(body))
	if err != nil {
		return Failed(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.client.Do(req)
	if err != nil {
		return Failed(err.Error())
	}
	defer resp.Body.Close()

	var result struct {
		BatchHeader struct {
			PayoutBatchID string `json:"payout_batch_id"`
		} `json:"batch_header"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Failed(fmt.Sprintf("paypal returned unreadable response: %v", err))
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		reason := result.Message
		if reason == "" {
			reason = fmt.Sprintf("paypal payout rejected with status %d", resp.StatusCode)
		}
		return Failed(reason)
	}
	if result.BatchHeader.PayoutBatchID == "" {
		return Failed("paypal payout accepted without a batch id")
	}
	return Succeeded(result.BatchHeader.PayoutBatchID)
}

func (p *PayPal) ensureAuthenticated(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.accessToken != "" && time.Now().Before(p.tokenExpiry) {
		return p.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(p.cfg.ClientID, p.cfg.ClientSecret)

	resp, err := p.client.Do(req)
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
	p.accessToken = tok.AccessToken
	p.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	return p.accessToken, nil
}
