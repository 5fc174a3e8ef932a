package payout

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synth-squad/payout-engine/internal/provider"
)

func newTestContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandlerRequestPayoutOK(t *testing.T) {
	l := newFakeLedger()
	userID := l.addUser(500, false)
	h := NewHandler(newTestService(l, &fakeProvider{outcome: provider.Succeeded("TX1")}, &fakeNotifier{}))

	body := `{"amount":200,"method":"fnb","account_details":{"accountNumber":"62001234567","accountHolder":"T Mokoena"}}`
	c, rec := newTestContext(t, http.MethodPost, "/payout", body)
	c.Set("user_id", userID)

	require.NoError(t, h.RequestPayout(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody(t, rec)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "TX1", resp["transaction_id"])
	assert.Equal(t, int64(300), l.tokens(userID))
}

func TestHandlerRequestPayoutProviderFailure(t *testing.T) {
	l := newFakeLedger()
	userID := l.addUser(500, false)
	h := NewHandler(newTestService(l, &fakeProvider{outcome: provider.Failed("account closed")}, &fakeNotifier{}))

	body := `{"amount":200,"method":"fnb","account_details":{"accountNumber":"62001234567","accountHolder":"T Mokoena"}}`
	c, rec := newTestContext(t, http.MethodPost, "/payout", body)
	c.Set("user_id", userID)

	require.NoError(t, h.RequestPayout(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeBody(t, rec)
	assert.Equal(t, "payout failed", resp["error"])
	assert.Equal(t, "account closed", resp["details"])
	assert.Equal(t, int64(500), l.tokens(userID))
}

func TestHandlerRequestPayoutRejectsBadDestination(t *testing.T) {
	l := newFakeLedger()
	userID := l.addUser(500, false)
	h := NewHandler(newTestService(l, &fakeProvider{outcome: provider.Succeeded("TX1")}, &fakeNotifier{}))

	cases := []struct {
		name string
		body string
		want string
	}{
		{
			"short account number",
			`{"amount":200,"method":"fnb","account_details":{"accountNumber":"123","accountHolder":"T Mokoena"}}`,
			"invalid bank account number",
		},
		{
			"missing holder",
			`{"amount":200,"method":"fnb","account_details":{"accountNumber":"62001234567"}}`,
			"missing account holder name",
		},
		{
			"bad id number",
			`{"amount":200,"method":"fnb","account_details":{"accountNumber":"62001234567","accountHolder":"T Mokoena","idNumber":"1234"}}`,
			"invalid ID number",
		},
		{
			"bad mobile",
			`{"amount":200,"method":"fnb","account_details":{"accountNumber":"62001234567","accountHolder":"T Mokoena","cell_number":"12345"}}`,
			"invalid mobile number",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestContext(t, http.MethodPost, "/payout", tc.body)
			c.Set("user_id", userID)

			require.NoError(t, h.RequestPayout(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.want, decodeBody(t, rec)["error"])
		})
	}
	// Rejected destinations never reach the ledger.
	assert.Equal(t, 0, l.requestCount())
}

func TestHandlerRequestPayoutErrorMapping(t *testing.T) {
	l := newFakeLedger()
	richID := l.addUser(500, false)
	poorID := l.addUser(10, false)
	h := NewHandler(newTestService(l, &fakeProvider{outcome: provider.Succeeded("TX1")}, &fakeNotifier{}))

	cases := []struct {
		name     string
		userID   string
		body     string
		wantCode int
		wantErr  string
	}{
		{"zero amount", richID, `{"amount":0,"method":"fnb","account_details":{"accountNumber":"62001234567","accountHolder":"T"}}`, http.StatusBadRequest, "invalid amount"},
		{"insufficient tokens", poorID, `{"amount":200,"method":"fnb","account_details":{"accountNumber":"62001234567","accountHolder":"T"}}`, http.StatusBadRequest, "insufficient tokens"},
		{"unsupported method", richID, `{"amount":200,"method":"hawala"}`, http.StatusBadRequest, "unsupported payout method"},
		{"unknown user", "a2b8e7a0-0000-0000-0000-000000000000", `{"amount":200,"method":"fnb","account_details":{"accountNumber":"62001234567","accountHolder":"T"}}`, http.StatusNotFound, "user not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestContext(t, http.MethodPost, "/payout", tc.body)
			c.Set("user_id", tc.userID)

			require.NoError(t, h.RequestPayout(c))
			assert.Equal(t, tc.wantCode, rec.Code)
			assert.Equal(t, tc.wantErr, decodeBody(t, rec)["error"])
		})
	}
}

func TestHandlerRequestPayoutReconciliation(t *testing.T) {
	l := newFakeLedger()
	userID := l.addUser(500, false)
	l.failAdjust = true
	h := NewHandler(newTestService(l, &fakeProvider{outcome: provider.Succeeded("TX1")}, &fakeNotifier{}))

	body := `{"amount":200,"method":"fnb","account_details":{"accountNumber":"62001234567","accountHolder":"T Mokoena"}}`
	c, rec := newTestContext(t, http.MethodPost, "/payout", body)
	c.Set("user_id", userID)

	require.NoError(t, h.RequestPayout(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	resp := decodeBody(t, rec)
	assert.Equal(t, "payout requires manual reconciliation", resp["error"])
	assert.NotEmpty(t, resp["payout_id"])
}

func TestHandlerRequestPayoutUnauthorized(t *testing.T) {
	h := NewHandler(newTestService(newFakeLedger(), nil, &fakeNotifier{}))

	c, rec := newTestContext(t, http.MethodPost, "/payout", `{"amount":200,"method":"fnb"}`)

	require.NoError(t, h.RequestPayout(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlerGetPayoutHistory(t *testing.T) {
	l := newFakeLedger()
	userID := l.addUser(500, false)
	svc := newTestService(l, &fakeProvider{outcome: provider.Succeeded("TX1")}, &fakeNotifier{})
	h := NewHandler(svc)

	c, rec := newTestContext(t, http.MethodGet, "/payout/history", "")
	c.Set("user_id", userID)
	require.NoError(t, h.GetPayoutHistory(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, decodeBody(t, rec)["payouts"])

	_, err := svc.RequestPayout(c.Request().Context(), userID, 100, "fnb", nil)
	require.NoError(t, err)

	c, rec = newTestContext(t, http.MethodGet, "/payout/history", "")
	c.Set("user_id", userID)
	require.NoError(t, h.GetPayoutHistory(c))

	payouts, ok := decodeBody(t, rec)["payouts"].([]any)
	require.True(t, ok)
	require.Len(t, payouts, 1)
	entry := payouts[0].(map[string]any)
	assert.Equal(t, "completed", entry["status"])
	assert.Equal(t, "TX1", entry["transaction_id"])
}

func TestHandlerGetAllPayouts(t *testing.T) {
	l := newFakeLedger()
	userID := l.addUser(500, false)
	svc := newTestService(l, &fakeProvider{outcome: provider.Succeeded("TX1")}, &fakeNotifier{})
	h := NewHandler(svc)

	c, rec := newTestContext(t, http.MethodGet, "/payout/all", "")
	require.NoError(t, h.GetAllPayouts(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, decodeBody(t, rec)["payouts"])

	_, err := svc.RequestPayout(c.Request().Context(), userID, 100, "fnb", nil)
	require.NoError(t, err)

	c, rec = newTestContext(t, http.MethodGet, "/payout/all", "")
	require.NoError(t, h.GetAllPayouts(c))

	payouts := decodeBody(t, rec)["payouts"].([]any)
	require.Len(t, payouts, 1)
	entry := payouts[0].(map[string]any)
	assert.Equal(t, "player", entry["username"])
	assert.Equal(t, "completed", entry["status"])
}
