// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Identity sentinels.
var (
	// ErrDuplicateAccount indicates the normalized email is already registered.
	ErrDuplicateAccount = errors.New("email already in use")

	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidEmail indicates a malformed email address.
	ErrInvalidEmail = errors.New("invalid email")

	// ErrWeakPassword indicates a password shorter than the minimum length.
	ErrWeakPassword = errors.New("weak password")

	// ErrMissingName indicates an empty display name on sign-up.
	ErrMissingName = errors.New("missing display name")

	// ErrPasswordMismatch indicates the confirmation differs from the password.
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// Session store sentinels.
var (
	// ErrNotFound indicates the requested session does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoActiveUser indicates an operation that needs a signed-in user.
	ErrNoActiveUser = errors.New("no active user")

	// ErrSessionHydration indicates corrupt persisted session data.
	ErrSessionHydration = errors.New("session hydration failed")

	// ErrInvalidBackupFormat indicates an import payload that is not a backup.
	ErrInvalidBackupFormat = errors.New("invalid backup format")

	// ErrSendInFlight indicates a message is already being answered for the session.
	ErrSendInFlight = errors.New("send already in flight")

	// ErrEmptyInput indicates a blank message or code snippet.
	ErrEmptyInput = errors.New("empty input")
)

// ErrGenerationFailure wraps any transport or parse error of the generation API.
var ErrGenerationFailure = errors.New("generation failure")

// Auth error codes, kept compatible with the identity provider the store emulates.
const (
	CodeInvalidEmail      = "auth/invalid-email"
	CodeUserNotFound      = "auth/user-not-found"
	CodeWrongPassword     = "auth/wrong-password"
	CodeInvalidCredential = "auth/invalid-credential"
	CodeEmailAlreadyInUse = "auth/email-already-in-use"
	CodeWeakPassword      = "auth/weak-password"
)

// Code returns the auth error code for err, or "" if err carries none.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateAccount):
		return CodeEmailAlreadyInUse
	case errors.Is(err, ErrInvalidCredentials):
		return CodeInvalidCredential
	case errors.Is(err, ErrInvalidEmail):
		return CodeInvalidEmail
	case errors.Is(err, ErrWeakPassword):
		return CodeWeakPassword
	default:
		return ""
	}
}
