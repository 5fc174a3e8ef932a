package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synth-squad/payout-engine/internal/config"
)

var payfastParams = map[string]string{
	"merchant_id":  "10000100",
	"merchant_key": "46f0cd694581a",
	"amount":       "75.00",
	"recipient":    "player@synthsquad.test",
	"item_name":    "Synth Squad Payout",
	"m_payment_id": "synth_squad_1",
}

func TestSignPayFast(t *testing.T) {
	got := SignPayFast(payfastParams, "jt7NOE43FZPn")
	assert.Equal(t, "e9dd06c1ace8649a938af810ef0b57d6", got)
}

func TestSignPayFastWithoutPassphrase(t *testing.T) {
	got := SignPayFast(payfastParams, "")
	assert.Equal(t, "a25c00e66f81a4d6ea870b6d33576692", got)
}

func TestSignPayFastSkipsEmptyAndSignature(t *testing.T) {
	params := map[string]string{}
	for k, v := range payfastParams {
		params[k] = v
	}
	params["signature"] = "deadbeef"
	params["custom_str1"] = ""
	assert.Equal(t, SignPayFast(payfastParams, "jt7NOE43FZPn"), SignPayFast(params, "jt7NOE43FZPn"))
}

func TestPayFastPayout(t *testing.T) {
	var gotForm map[string][]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		_ = json.NewEncoder(w).Encode(map[string]string{"pf_payment_id": "PF-99"})
	}))
	defer ts.Close()

	pf := NewPayFast(config.PayFastConfig{
		BaseURL:     ts.URL,
		MerchantID:  "10000100",
		MerchantKey: "46f0cd694581a",
		Passphrase:  "jt7NOE43FZPn",
	})
	out := pf.Payout(context.Background(), 500, map[string]string{"email": "player@synthsquad.test"})
	require.True(t, out.Success, "reason: %s", out.Reason)
	assert.Equal(t, "PF-99", out.TransactionID)

	// 500 tokens at R0.15 settle as R75.00.
	assert.Equal(t, "75.00", gotForm["amount"][0])
	assert.NotEmpty(t, gotForm["signature"][0])
}

func TestPayFastPayoutRejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "unknown merchant"})
	}))
	defer ts.Close()

	pf := NewPayFast(config.PayFastConfig{BaseURL: ts.URL, MerchantID: "x", MerchantKey: "y"})
	out := pf.Payout(context.Background(), 500, map[string]string{"email": "player@synthsquad.test"})
	assert.False(t, out.Success)
	assert.Equal(t, "unknown merchant", out.Reason)
}

func TestPayFastMissingRecipient(t *testing.T) {
	pf := NewPayFast(config.PayFastConfig{BaseURL: "http://unused.invalid"})
	out := pf.Payout(context.Background(), 500, map[string]string{})
	assert.False(t, out.Success)
}
