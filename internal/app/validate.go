package app

import (
	"regexp"
	"strings"

	"github.com/and161185/guidecode/internal/errs"
)

// MinPasswordLen is the shortest password accepted at sign-up.
const MinPasswordLen = 6

var emailPattern = regexp.MustCompile(`^(([^<>()\[\]\\.,;:\s@"]+(\.[^<>()\[\]\\.,;:\s@"]+)*)|(".+"))@((\[[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\])|(([a-zA-Z\-0-9]+\.)+[a-zA-Z]{2,}))$`)

// ValidationError is a form error shown to the user as is.
type ValidationError struct {
	Err error
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return e.Err }

// ValidEmail reports whether email looks like an address.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(strings.ToLower(email))
}

// SignUpForm is the input of a sign-up.
type SignUpForm struct {
	Email    string
	Password string
	Confirm  string
	Name     string
}

// Validate checks the form in the order the user fills it in.
func (f SignUpForm) Validate() error {
	if !ValidEmail(f.Email) {
		return &ValidationError{Err: errs.ErrInvalidEmail, Msg: "Please enter a valid email address."}
	}
	if strings.TrimSpace(f.Name) == "" {
		return &ValidationError{Err: errs.ErrMissingName, Msg: "Please enter your name."}
	}
	if len(f.Password) < MinPasswordLen {
		return &ValidationError{Err: errs.ErrWeakPassword, Msg: "Password must be at least 6 characters."}
	}
	if f.Password != f.Confirm {
		return &ValidationError{Err: errs.ErrPasswordMismatch, Msg: "Passwords do not match."}
	}
	return nil
}

func validateSignIn(email string) error {
	if !ValidEmail(email) {
		return &ValidationError{Err: errs.ErrInvalidEmail, Msg: "Please enter a valid email address."}
	}
	return nil
}
