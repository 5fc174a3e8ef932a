package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/synth-squad/payout-engine/internal/currency"
)

// SABank is the shared adapter for the remaining South African banks
// (ABSA, Standard Bank, Nedbank, Capitec). They expose the same EFT
// transfer shape behind different hosts and API keys.
type SABank struct {
	Name    string
	BaseURL string
	APIKey  string

	rates  *currency.Service
	client *http.Client
}

func NewSABank(name, baseURL, apiKey string, rates *currency.Service) *SABank {
	return &SABank{
		Name:    name,
		BaseURL: baseURL,
		APIKey:  apiKey,
		rates:   rates,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (b *SABank) Payout(ctx context.Context, amount int64, details map[string]string) Outcome {
	accountNumber := details["accountNumber"]
	accountHolder := details["accountHolder"]
	if accountNumber == "" || accountHolder == "" {
		return Failed("missing beneficiary account details")
	}

	// Settlement is rand by default; a beneficiary currency rides on the
	// cached exchange rates.
	zar := TokensToZAR(amount)
	settleAmount := zar
	settleCurrency := "ZAR"
	if cur := strings.ToUpper(details["currency"]); cur != "" && cur != "ZAR" {
		converted, err := b.rates.ConvertFromZAR(zar, cur)
		if err != nil {
			return Failed(err.Error())
		}
		settleAmount = converted.Round(2)
		settleCurrency = cur
	}

	payload := map[string]any{
		"amount":            settleAmount,
		"currency":          settleCurrency,
		"accountNumber":     accountNumber,
		"accountHolderName": accountHolder,
		"branchCode":        details["branchCode"],
		"reference":         fmt.Sprintf("Synth Squad Payout %d", time.Now().UnixMilli()),
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL+"/payments/eft", bytes.NewReader(body))
	if err != nil {
		return Failed(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.APIKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return Failed(err.Error())
	}
	defer resp.Body.Close()

	var result struct {
		TransactionID string `json:"transactionId"`
		Message       string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Failed(fmt.Sprintf("%s returned unreadable response: %v", b.Name, err))
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		reason := result.Message
		if reason == "" {
			reason = fmt.Sprintf("%s transfer rejected with status %d", b.Name, resp.StatusCode)
		}
		return Failed(reason)
	}
	if result.TransactionID == "" {
		return Failed(fmt.Sprintf("%s transfer accepted without a transaction id", b.Name))
	}
	return Succeeded(result.TransactionID)
}
