package provider

import (
	"context"
	"crypto/hmac"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synth-squad/payout-engine/internal/config"
)

func TestVALRPayoutSignsRequest(t *testing.T) {
	const secret = "valr-secret"

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		assert.Equal(t, "api-key", r.Header.Get("X-VALR-API-KEY"))
		timestamp := r.Header.Get("X-VALR-TIMESTAMP")
		require.NotEmpty(t, timestamp)

		want := signVALR(secret, timestamp, http.MethodPost, valrPayoutPath, body)
		got := r.Header.Get("X-VALR-SIGNATURE")
		assert.True(t, hmac.Equal([]byte(want), []byte(got)), "signature mismatch")

		var payload map[string]any
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "ZAR", payload["currency"])
		assert.Equal(t, "bene-7", payload["beneficiaryId"])

		_ = json.NewEncoder(w).Encode(map[string]string{"payoutId": "VALR-7"})
	}))
	defer ts.Close()

	v := NewVALR(config.VALRConfig{BaseURL: ts.URL, APIKey: "api-key", APISecret: secret})
	out := v.Payout(context.Background(), 1000, map[string]string{"beneficiaryId": "bene-7"})
	require.True(t, out.Success, "reason: %s", out.Reason)
	assert.Equal(t, "VALR-7", out.TransactionID)
}

func TestVALRPayoutRejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "beneficiary not verified"})
	}))
	defer ts.Close()

	v := NewVALR(config.VALRConfig{BaseURL: ts.URL, APIKey: "k", APISecret: "s"})
	out := v.Payout(context.Background(), 1000, map[string]string{"beneficiaryId": "bene-7"})
	assert.False(t, out.Success)
	assert.Equal(t, "beneficiary not verified", out.Reason)
}

func TestVALRPayoutMissingBeneficiary(t *testing.T) {
	v := NewVALR(config.VALRConfig{BaseURL: "http://unused.invalid"})
	out := v.Payout(context.Background(), 1000, map[string]string{})
	assert.False(t, out.Success)
}
