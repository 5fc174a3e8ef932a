package compliance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func noon() time.Time {
	return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
}

func TestCheckCleanTransaction(t *testing.T) {
	s := NewScreener()
	res := s.Check(Subject{UserID: "u1"}, Transaction{
		AmountZAR:   decimal.NewFromInt(500),
		RecentCount: 1,
		At:          noon(),
	})
	assert.True(t, res.Compliant)
	assert.Empty(t, res.Warnings)
	assert.Empty(t, res.Restrictions)
}

func TestCheckLargeAmount(t *testing.T) {
	s := NewScreener()
	res := s.Check(Subject{UserID: "u1"}, Transaction{
		AmountZAR:   decimal.NewFromInt(30000),
		RecentCount: 1,
		At:          noon(),
	})
	assert.False(t, res.Compliant)
	assert.Contains(t, res.Warnings, "Large transaction amount requires additional verification")
	assert.Empty(t, res.Restrictions)
}

func TestCheckStructuringPattern(t *testing.T) {
	s := NewScreener()
	res := s.Check(Subject{UserID: "u1"}, Transaction{
		AmountZAR:   decimal.RequireFromString("24500"),
		RecentCount: 1,
		At:          noon(),
	})
	assert.False(t, res.Compliant)
	assert.Contains(t, res.Restrictions, "Transaction pending review")
}

func TestCheckPEP(t *testing.T) {
	s := NewScreener()
	res := s.Check(Subject{UserID: "u1", IsPEP: true}, Transaction{
		AmountZAR:   decimal.NewFromInt(100),
		RecentCount: 1,
		At:          noon(),
	})
	assert.False(t, res.Compliant)
	assert.Contains(t, res.Restrictions, "Enhanced due diligence required")
}

func TestCheckOddHours(t *testing.T) {
	s := NewScreener()
	late := time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC)
	res := s.Check(Subject{UserID: "u1"}, Transaction{
		AmountZAR:   decimal.NewFromInt(100),
		RecentCount: 1,
		At:          late,
	})
	assert.False(t, res.Compliant)
	assert.Contains(t, res.Warnings, "Suspicious transaction pattern detected")
}

func TestCheckRapidRequests(t *testing.T) {
	s := NewScreener()
	res := s.Check(Subject{UserID: "u1"}, Transaction{
		AmountZAR:   decimal.NewFromInt(100),
		RecentCount: 11,
		At:          noon(),
	})
	assert.False(t, res.Compliant)
}
