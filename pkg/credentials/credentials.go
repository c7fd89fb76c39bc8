// Package credentials validates sign-up email addresses and passwords.
//
// The rules are checked locally before any provider call is made, so a
// rejected pair never produces network traffic.
package credentials

import (
	"regexp"
	"strings"
)

const passwordSpecialRunes = "@$!%*?&"

const minimumPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,6}$`)

// MessageInvalidEmail is surfaced when the email shape check fails.
const MessageInvalidEmail = "Invalid email format"

// MessageInvalidPassword is surfaced when the password strength check fails.
const MessageInvalidPassword = "Password must be at least 8 characters long and include uppercase," +
	" lowercase letters, a number, and a special character."

// IsValidEmail reports whether the address matches the local@domain.tld shape
// with a 2-6 character TLD.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// IsValidPassword reports whether the password is at least eight characters
// long, contains a lowercase letter, an uppercase letter, a digit, and one of
// @$!%*?&, and uses no characters outside those classes.
func IsValidPassword(password string) bool {
	if len(password) < minimumPasswordLength {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, current := range password {
		switch {
		case current >= 'a' && current <= 'z':
			hasLower = true
		case current >= 'A' && current <= 'Z':
			hasUpper = true
		case current >= '0' && current <= '9':
			hasDigit = true
		case strings.ContainsRune(passwordSpecialRunes, current):
			hasSpecial = true
		default:
			return false
		}
	}
	return hasLower && hasUpper && hasDigit && hasSpecial
}
