package security

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// helper that compares a bcrypt hash with a plaintext password.

func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

const minOwnerPasswordLen = 6

// PolicyViolations checks the owner password rules: minimum length 6, at
// least one lowercase letter, one uppercase letter, one digit and one special
// character. It returns every violated rule, not just the first.
func PolicyViolations(plain string) []string {
	var (
		hasLower   bool
		hasUpper   bool
		hasDigit   bool
		hasSpecial bool
	)

	for _, r := range plain {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	var violations []string

	if len(plain) < minOwnerPasswordLen {
		violations = append(violations, "must be at least 6 characters")
	}
	if !hasLower {
		violations = append(violations, "must contain a lowercase letter")
	}
	if !hasUpper {
		violations = append(violations, "must contain an uppercase letter")
	}
	if !hasDigit {
		violations = append(violations, "must contain a digit")
	}
	if !hasSpecial {
		violations = append(violations, "must contain a special character")
	}

	return violations
}

// PolicyMessage folds all violations into the single combined message the
// init endpoint reports.
func PolicyMessage(violations []string) string {
	if len(violations) == 0 {
		return ""
	}

	return "password - " + strings.Join(violations, ", ")
}
