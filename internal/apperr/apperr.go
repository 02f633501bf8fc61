// Package apperr defines the error taxonomy shared by services and handlers.
// Every domain failure is an *Error tagged with a Kind; the HTTP boundary maps
// the kind to a status code and a JSON body.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an application error.
type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindDuplicateEmail
	KindNotFound
	KindInvalidOTP
	KindInvalidCredentials
	KindVerificationRequired
	KindRegistrationExpired
	KindUnauthorized
	KindForbidden
)

var kindNames = map[Kind]string{
	KindInternal:             "internal",
	KindValidation:           "validation",
	KindDuplicateEmail:       "duplicate_email",
	KindNotFound:             "not_found",
	KindInvalidOTP:           "invalid_otp",
	KindInvalidCredentials:   "invalid_credentials",
	KindVerificationRequired: "verification_required",
	KindRegistrationExpired:  "registration_expired",
	KindUnauthorized:         "unauthorized",
	KindForbidden:            "forbidden",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindDuplicateEmail, KindInvalidOTP, KindInvalidCredentials,
		KindVerificationRequired, KindRegistrationExpired:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified application error. Fields carries extra response
// attributes, e.g. the email on a verification-required failure. A non-zero
// HTTPStatus replaces the status of the kind.
type Error struct {
	Kind       Kind
	Message    string
	Fields     map[string]any
	HTTPStatus int
	Err        error
}

// Sentinels for errors.Is; they match any *Error of the same kind.
var (
	ErrInternal             = &Error{Kind: KindInternal}
	ErrValidation           = &Error{Kind: KindValidation}
	ErrDuplicateEmail       = &Error{Kind: KindDuplicateEmail}
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrInvalidOTP           = &Error{Kind: KindInvalidOTP}
	ErrInvalidCredentials   = &Error{Kind: KindInvalidCredentials}
	ErrVerificationRequired = &Error{Kind: KindVerificationRequired}
	ErrRegistrationExpired  = &Error{Kind: KindRegistrationExpired}
	ErrUnauthorized         = &Error{Kind: KindUnauthorized}
	ErrForbidden            = &Error{Kind: KindForbidden}
)

// New builds an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an error of the given kind around a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation is shorthand for New(KindValidation, message).
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// Internal wraps an unexpected store or collaborator failure.
func Internal(err error) *Error {
	return Wrap(KindInternal, "", err)
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels by kind so callers can test errors.Is(err, ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Fields == nil && t.HTTPStatus == 0 && t.Err == nil
}

// Status returns the HTTP status to answer e with.
func (e *Error) Status() int {
	if e.HTTPStatus != 0 {
		return e.HTTPStatus
	}
	return e.Kind.Status()
}

// WithStatus returns a copy of e answered with status instead of the status
// of its kind.
func (e *Error) WithStatus(status int) *Error {
	out := *e
	out.HTTPStatus = status
	return &out
}

// With returns a copy of e carrying an extra response field.
func (e *Error) With(key string, value any) *Error {
	fields := make(map[string]any, len(e.Fields)+1)
	for k, v := range e.Fields {
		fields[k] = v
	}
	fields[key] = value
	out := *e
	out.Fields = fields
	return &out
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
