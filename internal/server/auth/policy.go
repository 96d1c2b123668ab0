package auth

import (
	"unicode"

	"github.com/dmitrijs2005/calckeeper/internal/common"
)

const (
	MinPasswordLength = 8
	// bcrypt ignores everything past 72 bytes.
	MaxPasswordLength = 72
)

// ValidatePassword enforces length and the four character classes. Every
// violated rule is reported under the "password" field.
func ValidatePassword(p string) error {
	ve := &common.ValidationError{}

	if len(p) < MinPasswordLength {
		ve.Add("password", "must be at least 8 characters")
	}
	if len(p) > MaxPasswordLength {
		ve.Add("password", "must be at most 72 bytes")
	}

	var upper, lower, digit, symbol bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	if !upper {
		ve.Add("password", "must contain an uppercase letter")
	}
	if !lower {
		ve.Add("password", "must contain a lowercase letter")
	}
	if !digit {
		ve.Add("password", "must contain a digit")
	}
	if !symbol {
		ve.Add("password", "must contain a special character")
	}

	if ve.Empty() {
		return nil
	}
	return ve
}
