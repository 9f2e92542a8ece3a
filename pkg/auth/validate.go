package auth

import (
	"errors"
	"regexp"
)

// Credential shape limits
const (
	MinUsernameLength = 3
	MaxUsernameLength = 50
	MinPasswordLength = 8
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	hasLower = regexp.MustCompile(`[a-z]`)
	hasUpper = regexp.MustCompile(`[A-Z]`)
	hasDigit = regexp.MustCompile(`[0-9]`)
)

// PolicyError is a credential policy violation. It names exactly the first
// rule that failed; rules are never aggregated.
type PolicyError struct {
	Reason string
}

func (e *PolicyError) Error() string {
	return e.Reason
}

// IsPolicyError reports whether err is a credential policy violation
func IsPolicyError(err error) bool {
	var pe *PolicyError
	return errors.As(err, &pe)
}

// ValidateCredentials checks registration input against the credential
// policy. Rules are checked in a fixed order and the first failure wins.
// Pure and deterministic; performs no I/O.
func ValidateCredentials(username, password, email string) error {
	if len(username) < MinUsernameLength {
		return &PolicyError{Reason: "username must be at least 3 characters"}
	}
	if len(username) > MaxUsernameLength {
		return &PolicyError{Reason: "username must be at most 50 characters"}
	}
	if !usernamePattern.MatchString(username) {
		return &PolicyError{Reason: "username may only contain letters, digits and underscores"}
	}
	if email == "" || !emailPattern.MatchString(email) {
		return &PolicyError{Reason: "a valid email address is required"}
	}
	if len(password) < MinPasswordLength {
		return &PolicyError{Reason: "password must be at least 8 characters"}
	}
	if !hasLower.MatchString(password) {
		return &PolicyError{Reason: "password must contain a lowercase letter"}
	}
	if !hasUpper.MatchString(password) {
		return &PolicyError{Reason: "password must contain an uppercase letter"}
	}
	if !hasDigit.MatchString(password) {
		return &PolicyError{Reason: "password must contain a digit"}
	}
	return nil
}
