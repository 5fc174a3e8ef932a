package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Service caches ZAR-base exchange rates. Rates are fetched from the reserve
// bank endpoint and refreshed on an interval; a fetch failure falls back to
// fixed rates so conversions keep working offline.
type Service struct {
	url    string
	client *http.Client

	mu          sync.RWMutex
	rates       map[string]decimal.Decimal
	lastUpdated time.Time
}

var fallbackRates = map[string]decimal.Decimal{
	"USD": decimal.RequireFromString("18.50"),
	"EUR": decimal.RequireFromString("20.25"),
	"GBP": decimal.RequireFromString("23.10"),
	"ZAR": decimal.NewFromInt(1),
}

func New(url string) *Service {
	return &Service{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		rates:  fallbackRates,
	}
}

type ratesResponse struct {
	Rates map[string]json.Number `json:"rates"`
}

// Refresh fetches the latest rates. On any failure the fixed fallback rates
// are installed and the error is returned for logging.
func (s *Service) Refresh(ctx context.Context) error {
	rates, err := s.fetch(ctx)
	if err != nil {
		s.mu.Lock()
		s.rates = fallbackRates
		s.mu.Unlock()
		return err
	}
	rates["ZAR"] = decimal.NewFromInt(1)
	s.mu.Lock()
	s.rates = rates
	s.lastUpdated = time.Now()
	s.mu.Unlock()
	return nil
}

func (s *Service) fetch(ctx context.Context) (map[string]decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rates endpoint returned %d", resp.StatusCode)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	rates := make(map[string]decimal.Decimal, len(body.Rates))
	for code, raw := range body.Rates {
		rate, err := decimal.NewFromString(raw.String())
		if err != nil {
			return nil, fmt.Errorf("bad rate for %s: %w", code, err)
		}
		rates[strings.ToUpper(code)] = rate
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("rates endpoint returned no rates")
	}
	return rates, nil
}

// Start refreshes once, then keeps the cache warm until ctx is cancelled.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	if err := s.Refresh(ctx); err != nil {
		log.Printf("Failed to update exchange rates: %v (using fallback rates)", err)
	} else {
		log.Println("Exchange rates updated successfully")
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Refresh(ctx); err != nil {
					log.Printf("Failed to update exchange rates: %v", err)
				}
			}
		}
	}()
}

func (s *Service) rate(code string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rate, ok := s.rates[strings.ToUpper(code)]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("unsupported currency: %s", code)
	}
	return rate, nil
}

// ConvertToZAR converts an amount in the given currency to rand.
func (s *Service) ConvertToZAR(amount decimal.Decimal, from string) (decimal.Decimal, error) {
	rate, err := s.rate(from)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return amount.Mul(rate), nil
}

// ConvertFromZAR converts a rand amount into the given currency.
func (s *Service) ConvertFromZAR(amount decimal.Decimal, to string) (decimal.Decimal, error) {
	rate, err := s.rate(to)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return amount.DivRound(rate, 8), nil
}

// LastUpdated reports when live rates were last fetched; zero while running
// on fallback rates.
func (s *Service) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}

// FormatZAR renders a rand amount the way statements show it, e.g. "R1 234.56".
func FormatZAR(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)
	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	parts := strings.SplitN(fixed, ".", 2)
	whole := parts[0]
	var grouped []string
	for len(whole) > 3 {
		grouped = append([]string{whole[len(whole)-3:]}, grouped...)
		whole = whole[:len(whole)-3]
	}
	grouped = append([]string{whole}, grouped...)

	out := "R" + strings.Join(grouped, " ") + "." + parts[1]
	if neg {
		out = "-" + out
	}
	return out
}
