package usecase

import (
	"errors"

	"github.com/xavierca1/visa-crm/internal/entity"
)

const (
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidState       = "INVALID_STATE"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeValidation         = "VALIDATION_ERROR"
	CodeConflict           = "CONFLICT"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"

	CodeDatabase = "DATABASE_ERROR"
	CodeToken    = "TOKEN_ERROR"
	CodePassword = "PASSWORD_ERROR"
	CodeSession  = "SESSION_ERROR"
)

type DomainError struct {
	Code    string
	Message string
	// Fields maps a request field to its validation messages.
	Fields map[string][]string
	Err    error
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

// ErrorCode returns the code carried by a DomainError or TechnicalError, or
// an empty string.
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	var te *TechnicalError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

func newValidationError(errs []ValidationError) *DomainError {
	fields := make(map[string][]string, len(errs))
	for _, e := range errs {
		fields[e.Field] = append(fields[e.Field], e.Message)
	}
	return &DomainError{
		Code:    CodeValidation,
		Message: "The given data was invalid.",
		Fields:  fields,
	}
}

// translateLeadError converts entity sentinels into domain errors.
// invalidStateMsg is the message used for a rejected transition.
func translateLeadError(err error, invalidStateMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, entity.ErrLeadNotFound):
		return &DomainError{Code: CodeNotFound, Message: "Lead not found", Err: err}
	case errors.Is(err, entity.ErrOnboardingTokenNotFound):
		return &DomainError{Code: CodeNotFound, Message: "Invalid token", Err: err}
	case errors.Is(err, entity.ErrOnboardingExpired):
		return &DomainError{Code: CodeTokenExpired, Message: "Token has expired", Err: err}
	case errors.Is(err, entity.ErrInvalidTransition):
		return &DomainError{Code: CodeInvalidState, Message: invalidStateMsg, Err: err}
	case errors.Is(err, entity.ErrEmailAlreadyExists):
		return &DomainError{Code: CodeConflict, Message: "An account with this email already exists", Err: err}
	default:
		return &TechnicalError{Code: CodeDatabase, Message: "failed to persist lead", Err: err}
	}
}
