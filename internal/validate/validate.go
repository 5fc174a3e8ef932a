// Package validate holds South African account and identity checks used to
// vet payout destinations before dispatch.
package validate

import (
	"regexp"
	"strings"
)

var mobilePattern = regexp.MustCompile(`^(\+27|0)[6-8][0-9]{8}$`)

// IDNumber reports whether the value is a plausible South African ID
// number: 13 digits, a valid date prefix and a Luhn check digit.
func IDNumber(id string) bool {
	if len(id) != 13 || !isDigits(id) {
		return false
	}
	month := int(id[2]-'0')*10 + int(id[3]-'0')
	day := int(id[4]-'0')*10 + int(id[5]-'0')
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return false
	}
	return luhn(id)
}

func luhn(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		digit := int(number[i] - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}
	return sum%10 == 0
}

// Expected account number lengths per bank.
var bankAccountLengths = map[string][]int{
	"fnb":          {10, 11},
	"absa":         {10},
	"standardbank": {10, 11},
	"standard":     {10, 11},
	"nedbank":      {9, 10},
	"capitec":      {10},
}

// BankAccount reports whether the account number has a valid length for the
// named bank. Unknown banks fail closed.
func BankAccount(bank, accountNumber string) bool {
	lengths, ok := bankAccountLengths[strings.ToLower(bank)]
	if !ok {
		return false
	}
	num := strings.ReplaceAll(accountNumber, " ", "")
	if !isDigits(num) {
		return false
	}
	for _, l := range lengths {
		if len(num) == l {
			return true
		}
	}
	return false
}

// MobileNumber reports whether the value is a South African mobile number
// (+27 or 0 prefix followed by 6, 7 or 8).
func MobileNumber(phone string) bool {
	return mobilePattern.MatchString(strings.ReplaceAll(phone, " ", ""))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
