package utils

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// PasswordSpecials lists the symbols that satisfy the special-character
// rule of ValidatePasswordStrength.
const PasswordSpecials = "@$!%*?&"

// MinPasswordLen is the shortest acceptable password.
const MinPasswordLen = 8

// ErrWeakPassword is returned by ValidatePasswordStrength.
var ErrWeakPassword = errors.New("password must be at least 8 characters and contain upper and lower case letters, a digit and one of @$!%*?&")

// ValidatePasswordStrength checks length and character classes.
func ValidatePasswordStrength(plain string) error {
	if len(plain) < MinPasswordLen {
		return ErrWeakPassword
	}
	var upper, lower, digit, special bool
	for _, r := range plain {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(PasswordSpecials, r):
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return ErrWeakPassword
	}
	return nil
}

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
