// Package validate normalizes and validates the contact fields of a lead.
package validate

import (
	"regexp"
	"strings"
)

// countryCode is the US dialing prefix used by normalized numbers.
const countryCode = "+1"

var (
	nonDigitRe = regexp.MustCompile(`\D`)

	// Accepts (123) 456-7890, 123-456-7890, 1234567890 and +1 123-456-7890.
	usPhoneRe = regexp.MustCompile(`^(?:\+1[\s.-]?)?(?:\(\d{3}\)|\d{3})[\s.-]?\d{3}[\s.-]?\d{4}$`)
)

// NormalizeUSPhone reduces a US phone number in any common notation to
// +1XXXXXXXXXX. It reports false when the input does not carry exactly ten
// subscriber digits (optionally preceded by the country code 1).
func NormalizeUSPhone(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}

	digits := nonDigitRe.ReplaceAllString(raw, "")
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return "", false
	}

	formatted := countryCode + digits
	if !IsValidUSPhone(formatted) {
		return "", false
	}
	return formatted, true
}

// IsValidUSPhone reports whether value is either a normalized +1XXXXXXXXXX
// number or one of the accepted display formats.
func IsValidUSPhone(value string) bool {
	if value == "" {
		return false
	}
	if strings.HasPrefix(value, countryCode) && len(value) == 12 && allDigits(value[2:]) {
		return true
	}
	return usPhoneRe.MatchString(strings.TrimSpace(value))
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
