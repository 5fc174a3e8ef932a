package provider

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/synth-squad/payout-engine/internal/config"
)

const valrPayoutPath = "/v1/payments/payout"

// VALR pays a rand amount to a pre-registered beneficiary on the VALR
// exchange. Every request is signed with HMAC-SHA512 over
// timestamp + verb + path + body.
type VALR struct {
	cfg    config.VALRConfig
	client *http.Client
	now    func() time.Time
}

func NewVALR(cfg config.VALRConfig) *VALR {
	return &VALR{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		now:    time.Now,
	}
}

func (v *VALR) Payout(ctx context.Context, amount int64, details map[string]string) Outcome {
	beneficiaryID := details["beneficiaryId"]
	if beneficiaryID == "" {
		return Failed("missing beneficiary id")
	}

	payload := map[string]any{
		"currency":      "ZAR",
		"amount":        TokensToZAR(amount),
		"beneficiaryId": beneficiaryID,
		"externalId":    fmt.Sprintf("synth_squad_%d", v.now().UnixMilli()),
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.cfg.BaseURL+valrPayoutPath, bytes.NewReader(body))
	if err != nil {
		return Failed(err.Error())
	}
	timestamp := strconv.FormatInt(v.now().UnixMilli(), 10)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-VALR-API-KEY", v.cfg.APIKey)
	req.Header.Set("X-VALR-TIMESTAMP", timestamp)
	req.Header.Set("X-VALR-SIGNATURE", signVALR(v.cfg.APISecret, timestamp, http.MethodPost, valrPayoutPath, body))

	resp, err := v.client.Do(req)
	if err != nil {
		return Failed(err.Error())
	}
	defer resp.Body.Close()

	var result struct {
		PayoutID string `json:"payoutId"`
		Message  string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Failed(fmt.Sprintf("valr returned unreadable response: %v", err))
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		reason := result.Message
		if reason == "" {
			reason = fmt.Sprintf("valr payout rejected with status %d", resp.StatusCode)
		}
		return Failed(reason)
	}
	if result.PayoutID == "" {
		return Failed("valr payout accepted without a payout id")
	}
	return Succeeded(result.PayoutID)
}

// signVALR builds the request signature VALR expects.
func signVALR(secret, timestamp, verb, path string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte(verb))
	mac.Write([]byte(path))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
