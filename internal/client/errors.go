package client

import (
	"errors"
	"fmt"
)

// APIError is a non-2xx response decoded from the {message, ...} body.
type APIError struct {
	Status              int
	Message             string
	NeedsVerification   bool
	Email               string
	RegistrationExpired bool
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// NeedsVerification reports whether err asks the caller to resume OTP entry,
// and for which email.
func NeedsVerification(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.NeedsVerification {
		return apiErr.Email, true
	}
	return "", false
}

// RegistrationExpired reports whether err asks the caller to sign up again.
func RegistrationExpired(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.RegistrationExpired
}

// StatusOf returns the HTTP status of an APIError, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
