package currency

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshFromEndpoint(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"rates": {"USD": 19.05, "EUR": 20.80, "GBP": 23.95}}`))
	}))
	defer ts.Close()

	svc := New(ts.URL)
	require.NoError(t, svc.Refresh(context.Background()))
	assert.False(t, svc.LastUpdated().IsZero())

	zar, err := svc.ConvertToZAR(decimal.NewFromInt(10), "USD")
	require.NoError(t, err)
	assert.True(t, zar.Equal(decimal.RequireFromString("190.5")), "got %s", zar)
}

func TestRefreshFallsBackOnError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	svc := New(ts.URL)
	err := svc.Refresh(context.Background())
	assert.Error(t, err)

	// Fallback rates stay usable.
	zar, err := svc.ConvertToZAR(decimal.NewFromInt(2), "EUR")
	require.NoError(t, err)
	assert.True(t, zar.Equal(decimal.RequireFromString("40.5")), "got %s", zar)
	assert.True(t, svc.LastUpdated().IsZero())
}

func TestConvertFromZAR(t *testing.T) {
	svc := New("http://unused.invalid")

	usd, err := svc.ConvertFromZAR(decimal.RequireFromString("185"), "USD")
	require.NoError(t, err)
	assert.True(t, usd.Equal(decimal.NewFromInt(10)), "got %s", usd)

	_, err = svc.ConvertFromZAR(decimal.NewFromInt(100), "BTC")
	assert.Error(t, err)
}

func TestRefreshContextCancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer ts.Close()

	svc := New(ts.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, svc.Refresh(ctx))
}

func TestFormatZAR(t *testing.T) {
	assert.Equal(t, "R1 234.56", FormatZAR(decimal.RequireFromString("1234.56")))
	assert.Equal(t, "R75.00", FormatZAR(decimal.NewFromInt(75)))
	assert.Equal(t, "R12 345 678.90", FormatZAR(decimal.RequireFromString("12345678.9")))
	assert.Equal(t, "-R250.00", FormatZAR(decimal.NewFromInt(-250)))
}
