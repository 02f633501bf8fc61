package identity

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/todo-team/todolist/internal/apperr"
)

var (
	hasDigit = regexp.MustCompile(`\d`)
	hasLower = regexp.MustCompile(`[a-z]`)
	hasUpper = regexp.MustCompile(`[A-Z]`)
)

func emailRules() []validation.Rule {
	return []validation.Rule{is.Email.Error(msgInvalidEmail)}
}

// passwordRules: 6 to 20 characters with at least one digit, one lowercase
// and one uppercase letter.
func passwordRules() []validation.Rule {
	return []validation.Rule{
		validation.RuneLength(6, 20).Error(msgWeakPassword),
		validation.Match(hasDigit).Error(msgWeakPassword),
		validation.Match(hasLower).Error(msgWeakPassword),
		validation.Match(hasUpper).Error(msgWeakPassword),
	}
}

func equals(other, message string) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, _ := value.(string)
		if s != other {
			return errors.New(message)
		}
		return nil
	})
}

// validateRegistration applies the sign-up checks in order and reports the
// first failure.
func validateRegistration(in RegisterInput) error {
	if blank(in.PersonalID, in.Name, in.Email, in.Password, in.ConfirmPassword) {
		return apperr.Validation(msgFillAllFields)
	}
	checks := []struct {
		value string
		rules []validation.Rule
	}{
		{in.Name, []validation.Rule{validation.RuneLength(3, 0).Error(msgNameTooShort)}},
		{in.ConfirmPassword, []validation.Rule{equals(in.Password, msgPasswordMismatch)}},
		{in.Email, emailRules()},
		{in.Password, passwordRules()},
	}
	for _, check := range checks {
		if err := validation.Validate(check.value, check.rules...); err != nil {
			return apperr.Validation(err.Error())
		}
	}
	return nil
}

func validateNewUser(in NewUserInput) error {
	if blank(in.PersonalID, in.Name, in.Email, in.Password) {
		return apperr.Validation(msgAdminRequiredFields)
	}
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	return validateRole(in.Role)
}

func validateEmail(email string) error {
	err := validation.Validate(email, validation.Required.Error(msgInvalidEmail), is.Email.Error(msgInvalidEmail))
	if err != nil {
		return apperr.Validation(err.Error())
	}
	return nil
}

func validateRole(role string) error {
	err := validation.Validate(strings.TrimSpace(role),
		validation.In(string(RoleUser), string(RoleAdmin)).Error(msgInvalidRole),
	)
	if err != nil {
		return apperr.Validation(err.Error())
	}
	return nil
}

func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}
