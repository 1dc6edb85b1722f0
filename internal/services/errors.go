package services

import "errors"

// Workflow failure kinds. They are recovered by the handlers and shown as notices.
var (
	ErrValidation           = errors.New("validation failed")
	ErrDuplicateUsername    = errors.New("duplicate username")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrConfirmationMismatch = errors.New("confirmation mismatch")
	ErrPasswordTooWeak      = errors.New("password too weak")
)

// User-facing notices.
const (
	NoticeRegisterFieldsRequired = "Username and password are required"
	NoticeUsernameExists         = "Username already exists"
	NoticeInvalidLogin           = "Invalid username or password"
	NoticeUsernameRequired       = "Username is required"
	NoticePasswordFieldsRequired = "All password fields are required"
	NoticeCurrentPasswordWrong   = "Current password is incorrect"
	NoticePasswordsDoNotMatch    = "New passwords do not match"
	NoticePasswordTooShort       = "Password must be at least 6 characters"
	NoticeUnknownAction          = "Unknown settings action"
)

// AccountError is a recoverable workflow failure: a kind plus the notice shown to the user.
type AccountError struct {
	Kind   error
	Notice string
}

func (e *AccountError) Error() string {
	return e.Kind.Error() + ": " + e.Notice
}

func (e *AccountError) Unwrap() error {
	return e.Kind
}

func newAccountError(kind error, notice string) *AccountError {
	return &AccountError{Kind: kind, Notice: notice}
}

// KindLabel returns a short stable label for err, used in metrics and logs.
func KindLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrDuplicateUsername):
		return "duplicate_username"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrConfirmationMismatch):
		return "confirmation_mismatch"
	case errors.Is(err, ErrPasswordTooWeak):
		return "password_too_weak"
	default:
		return "error"
	}
}
