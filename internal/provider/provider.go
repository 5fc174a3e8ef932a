package provider

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// Outcome is the result of a dispatch to an external payment provider.
// Provider failures are data, not errors: transport problems, declined
// transfers and vendor rejections all land here as a failed Outcome.
type Outcome struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

func Succeeded(transactionID string) Outcome {
	return Outcome{Success: true, TransactionID: transactionID}
}

func Failed(reason string) Outcome {
	return Outcome{Reason: reason}
}

// Provider pays out a token amount to the account described by details.
// Each implementation owns its own currency conversion and authentication;
// callers bound the call with a context deadline.
type Provider interface {
	Payout(ctx context.Context, amount int64, details map[string]string) Outcome
}

// Registry maps payout method names to providers. It is populated once at
// startup and read-only afterwards.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

func (r *Registry) Register(method string, p Provider) {
	r.providers[method] = p
}

func (r *Registry) Resolve(method string) (Provider, bool) {
	p, ok := r.providers[method]
	return p, ok
}

// Methods lists the registered payout methods, sorted for stable output.
func (r *Registry) Methods() []string {
	methods := make([]string, 0, len(r.providers))
	for m := range r.providers {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return methods
}

// Token conversion rates. Tokens are the in-game unit; each provider pays
// out in its own settlement currency.
var (
	tokenRateZAR = decimal.RequireFromString("0.15")
	tokenRateUSD = decimal.RequireFromString("0.01")
	tokenRateETH = decimal.RequireFromString("0.0001")
)

// TokensToZAR converts a token amount to rand at the fixed payout rate.
func TokensToZAR(tokens int64) decimal.Decimal {
	return decimal.NewFromInt(tokens).Mul(tokenRateZAR).Round(2)
}

// TokensToUSD converts a token amount to US dollars at the fixed payout rate.
func TokensToUSD(tokens int64) decimal.Decimal {
	return decimal.NewFromInt(tokens).Mul(tokenRateUSD).Round(2)
}

// TokensToETH converts a token amount to ether at the fixed payout rate.
func TokensToETH(tokens int64) decimal.Decimal {
	return decimal.NewFromInt(tokens).Mul(tokenRateETH)
}
