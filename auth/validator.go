package auth

import (
	goerrors "errors"
	"fmt"
	"unicode"

	"concord/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type RegisterRequest struct {
	Username    string `validate:"required,alphanum,min=3,max=32"`
	Password    string `validate:"required,min=8,max=72"`
	DisplayName string `validate:"max=64"`
}

// ValidateRegister checks the registration fields and reports the first
// failure under the sentinel for the offending field, so callers and
// clients can tell a bad username from a weak password.
func ValidateRegister(req RegisterRequest) error {
	if err := validate.Struct(req); err != nil {
		var fieldErrors validator.ValidationErrors
		if goerrors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
			return fmt.Errorf("%w: %s", fieldSentinel(fieldErrors[0].Field()), fieldErrors[0].Tag())
		}
		return err
	}

	if !isPasswordComplex(req.Password) {
		return errors.ErrInvalidPassword
	}
	return nil
}

func fieldSentinel(field string) error {
	switch field {
	case "Password":
		return errors.ErrInvalidPassword
	case "DisplayName":
		return errors.ErrInvalidDisplayName
	default:
		return errors.ErrInvalidUsername
	}
}

// isPasswordComplex requires at least one letter and one digit. Chat
// accounts are low-stakes; the strictness lives in the minimum length.
func isPasswordComplex(s string) bool {
	var hasLetter, hasNumber bool
	for _, char := range s {
		switch {
		case unicode.IsLetter(char):
			hasLetter = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}
	return hasLetter && hasNumber
}
