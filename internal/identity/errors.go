package identity

import (
	"net/http"

	"github.com/todo-team/todolist/internal/apperr"
)

const (
	msgFillAllFields       = "Please fill in all fields"
	msgNameTooShort        = "Your name must be at least 3 letters long"
	msgPasswordMismatch    = "Password did not match"
	msgInvalidEmail        = "Invalid emails"
	msgWeakPassword        = "Password should be 6 to 20 characters long with a numeric, 1 lowercase and 1 uppercase letters"
	msgEmailRegistered     = "This email is already registered"
	msgEmailExists         = "Email already exists"
	msgAdminRequiredFields = "Required fields: personal_id, name, email, password"
	msgInvalidRole         = "Role must be either user or admin"
	msgUnknownEmail        = "Invalid email"
	msgInvalidOTP          = "Invalid or expired OTP"
	msgUserNotFound        = "User not found"
	msgInvalidCredentials  = "Invalid Credentials"
	msgVerifyFirst         = "Please verify your email first. Check your inbox for the OTP."
	msgRegistrationExpired = "Your registration has expired. Please sign up again."
)

var (
	errStoreNotFound  = apperr.New(apperr.KindNotFound, "user not found")
	errStoreDuplicate = apperr.New(apperr.KindDuplicateEmail, msgEmailRegistered)
)

func verificationRequired(email string) error {
	return apperr.New(apperr.KindVerificationRequired, msgVerifyFirst).
		With("needsVerification", true).
		With("email", email)
}

func registrationExpired() error {
	return apperr.New(apperr.KindRegistrationExpired, msgRegistrationExpired).
		With("registrationExpired", true)
}

// unknownEmail is the not-found answer of the OTP endpoints, which report it
// as a bad request.
func unknownEmail(message string) error {
	return apperr.New(apperr.KindNotFound, message).WithStatus(http.StatusBadRequest)
}
