// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

var (
	upperRegex   = regexp.MustCompile(`[A-Z]`)
	lowerRegex   = regexp.MustCompile(`[a-z]`)
	digitRegex   = regexp.MustCompile(`[0-9]`)
	specialRegex = regexp.MustCompile(`[!@#$%^&*]`)
)

// Strength grades a password for the registration form meter.
type Strength string

const (
	StrengthWeak   Strength = "weak"
	StrengthMedium Strength = "medium"
	StrengthStrong Strength = "strong"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

// IsValidPassword reports whether password has at least 8 characters with
// an uppercase letter, a lowercase letter and a digit.
func IsValidPassword(password string) bool {
	return ValidatePassword(password) == nil
}

// ValidatePassword checks if a password meets security requirements
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	}
	if !upperRegex.MatchString(password) {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !lowerRegex.MatchString(password) {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !digitRegex.MatchString(password) {
		return fmt.Errorf("password must contain at least one digit")
	}
	return nil
}

// PasswordStrength counts the character classes present in password.
// Anything shorter than six characters is weak.
func PasswordStrength(password string) Strength {
	if utf8.RuneCountInString(password) < 6 {
		return StrengthWeak
	}

	classes := 0
	for _, re := range []*regexp.Regexp{upperRegex, lowerRegex, digitRegex, specialRegex} {
		if re.MatchString(password) {
			classes++
		}
	}

	switch {
	case classes <= 2:
		return StrengthWeak
	case classes == 3:
		return StrengthMedium
	default:
		return StrengthStrong
	}
}
