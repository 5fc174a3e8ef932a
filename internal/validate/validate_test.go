package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDNumber(t *testing.T) {
	assert.True(t, IDNumber("8801015009080"))
	assert.True(t, IDNumber("9002294008088"))

	// Wrong check digit.
	assert.False(t, IDNumber("8801015009081"))
	// Impossible month.
	assert.False(t, IDNumber("8813015009080"))
	// Wrong length and non-digits.
	assert.False(t, IDNumber("880101500908"))
	assert.False(t, IDNumber("880101500908a"))
	assert.False(t, IDNumber(""))
}

func TestBankAccount(t *testing.T) {
	assert.True(t, BankAccount("fnb", "6200123456"))
	assert.True(t, BankAccount("fnb", "62001234567"))
	assert.True(t, BankAccount("FNB", "62 0012 3456"))
	assert.True(t, BankAccount("nedbank", "123456789"))
	assert.True(t, BankAccount("capitec", "1234567890"))
	assert.True(t, BankAccount("standard", "1234567890"))

	assert.False(t, BankAccount("absa", "123456789"))
	assert.False(t, BankAccount("capitec", "12345678x0"))
	assert.False(t, BankAccount("bank-of-nowhere", "1234567890"))
}

func TestMobileNumber(t *testing.T) {
	assert.True(t, MobileNumber("+27821234567"))
	assert.True(t, MobileNumber("0821234567"))
	assert.True(t, MobileNumber("082 123 4567"))

	assert.False(t, MobileNumber("+27521234567"))
	assert.False(t, MobileNumber("082123456"))
	assert.False(t, MobileNumber("+1821234567"))
}
