package compliance

import (
	"time"

	"github.com/shopspring/decimal"
)

// FICA cash threshold: transactions at or above R25,000 need additional
// verification, and amounts placed just under it look like structuring.
var (
	ficaThreshold    = decimal.NewFromInt(25000)
	structuringFloor = decimal.NewFromInt(24000)
)

// Subject is what the screener knows about the payout requester.
type Subject struct {
	UserID string
	IsPEP  bool
}

// Transaction describes the payout under review, in rand.
type Transaction struct {
	AmountZAR decimal.Decimal
	// Requests by the same user inside the last hour, this one included.
	RecentCount int
	At          time.Time
}

// Result is advisory: warnings are logged, restrictions alert an operator.
// The screener never blocks a payout on its own.
type Result struct {
	Compliant    bool     `json:"compliant"`
	Warnings     []string `json:"warnings"`
	Restrictions []string `json:"restrictions"`
}

type Screener struct{}

func NewScreener() *Screener {
	return &Screener{}
}

// Check runs the FICA rule set against a payout.
func (s *Screener) Check(subject Subject, tx Transaction) Result {
	res := Result{Compliant: true}

	if tx.AmountZAR.GreaterThan(ficaThreshold) {
		res.Warnings = append(res.Warnings, "Large transaction amount requires additional verification")
	}

	if subject.IsPEP {
		res.Warnings = append(res.Warnings, "User is a Politically Exposed Person (PEP)")
		res.Restrictions = append(res.Restrictions, "Enhanced due diligence required")
	}

	if suspiciousPattern(tx) {
		res.Warnings = append(res.Warnings, "Suspicious transaction pattern detected")
		res.Restrictions = append(res.Restrictions, "Transaction pending review")
	}

	if len(res.Warnings) > 0 || len(res.Restrictions) > 0 {
		res.Compliant = false
	}
	return res
}

func suspiciousPattern(tx Transaction) bool {
	// Rapid-fire requests.
	if tx.RecentCount > 10 {
		return true
	}
	// Amounts parked just below the reporting threshold.
	if tx.AmountZAR.GreaterThan(structuringFloor) && tx.AmountZAR.LessThan(ficaThreshold) {
		return true
	}
	// Activity during unusual hours.
	hour := tx.At.Hour()
	return hour < 6 || hour > 22
}
