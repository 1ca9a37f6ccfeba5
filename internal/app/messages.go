package app

import (
	"errors"

	"github.com/and161185/guidecode/internal/errs"
)

// User-facing notices.
const (
	GenericFailure   = "An unexpected error occurred. Please try again."
	ImportFailure    = "Error: Invalid GuideCode backup file."
	ImportSuccess    = "Database successfully restored!"
	GenerationFailed = "I had a bit of trouble thinking. Please try again."
	ReviewFailed     = "Something went wrong with the review. Check your API key."
	SignOutFailed    = "Failed to sign out. Please try again."
)

var authMessages = map[string]string{
	errs.CodeInvalidEmail:      "The email address format is invalid. Please double-check it.",
	errs.CodeUserNotFound:      "No account found with this email. Please sign up instead.",
	errs.CodeWrongPassword:     "Incorrect password. Please try again.",
	errs.CodeInvalidCredential: "Invalid login credentials. Please check your email and password.",
	errs.CodeEmailAlreadyInUse: "An account already exists with this email. Try logging in instead.",
	errs.CodeWeakPassword:      "Your password is too weak. Please use at least 6 characters.",
}

// FriendlyAuthMessage maps an auth error code to its message.
func FriendlyAuthMessage(code string) string {
	if msg, ok := authMessages[code]; ok {
		return msg
	}
	return GenericFailure
}

// FriendlyMessage turns any controller error into text for the user.
func FriendlyMessage(err error) string {
	var ve *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return ve.Msg
	case errs.Code(err) != "":
		return FriendlyAuthMessage(errs.Code(err))
	case errors.Is(err, errs.ErrInvalidBackupFormat):
		return ImportFailure
	case errors.Is(err, errs.ErrGenerationFailure):
		return GenerationFailed
	case errors.Is(err, errs.ErrSendInFlight):
		return "Still thinking about your last message. Please wait."
	case errors.Is(err, errs.ErrNoActiveUser):
		return "Please sign in first."
	case errors.Is(err, errs.ErrNotFound):
		return "That discussion no longer exists."
	case errors.Is(err, errs.ErrEmptyInput):
		return "Nothing to send."
	default:
		return GenericFailure
	}
}
