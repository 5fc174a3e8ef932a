package provider

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/synth-squad/payout-engine/internal/config"
)

// PayFast disburses rand through the PayFast merchant API. Parameters are
// signed with the merchant passphrase using PayFast's MD5 scheme.
type PayFast struct {
	cfg    config.PayFastConfig
	client *http.Client
}

func NewPayFast(cfg config.PayFastConfig) *PayFast {
	return &PayFast{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *PayFast) Payout(ctx context.Context, amount int64, details map[string]string) Outcome {
	recipient := details["email"]
	if recipient == "" {
		recipient = details["cell_number"]
	}
	if recipient == "" {
		return Failed("missing recipient email or cell number")
	}

	params := map[string]string{
		"merchant_id":  p.cfg.MerchantID,
		"merchant_key": p.cfg.MerchantKey,
		"amount":       TokensToZAR(amount).StringFixed(2),
		"recipient":    recipient,
		"item_name":    "Synth Squad Payout",
		"m_payment_id": fmt.Sprintf("synth_squad_%d", time.Now().UnixMilli()),
	}
	params["signature"] = SignPayFast(params, p.cfg.Passphrase)

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/eng/process/payouts", strings.NewReader(form.Encode()))
	if err != nil {
		return Failed(err.Error())
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return Failed(err.Error())
	}
	defer resp.Body.Close()

	var result struct {
		PaymentID string `json:"pf_payment_id"`
		Message   string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Failed(fmt.Sprintf("payfast returned unreadable response: %v", err))
	}
	if resp.StatusCode != http.StatusOK {
		reason := result.Message
		if reason == "" {
			reason = fmt.Sprintf("payfast payout rejected with status %d", resp.StatusCode)
		}
		return Failed(reason)
	}
	if result.PaymentID == "" {
		return Failed("payfast payout accepted without a payment id")
	}
	return Succeeded(result.PaymentID)
}

// SignPayFast computes the PayFast parameter signature: keys sorted
// alphabetically, values urlencoded with spaces as '+', passphrase appended,
// MD5 over the whole string. Empty values and any existing signature are
// skipped.
func SignPayFast(data map[string]string, passphrase string) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		if k == "signature" || data[k] == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(encodePayFast(data[k]))
	}
	if passphrase != "" {
		b.WriteString("&passphrase=")
		b.WriteString(encodePayFast(passphrase))
	}

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// encodePayFast urlencodes a value the way PayFast verifies it, with
// spaces as '+'.
func encodePayFast(v string) string {
	return url.QueryEscape(v)
}
