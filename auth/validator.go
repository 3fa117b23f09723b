package auth

import (
	"fmt"
	"social-chat/errors"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type RegisterRequest struct {
	Username string `validate:"required,alphanum,min=3,max=30"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=12,max=72"`
}

// ValidateRegister checks identity fields first so that a bad username or
// email is reported as such, then the password rules.
func ValidateRegister(req RegisterRequest) error {
	if err := validate.Var(req.Username, "required,alphanum,min=3,max=30"); err != nil {
		return fmt.Errorf("%w: username %v", errors.ErrInvalidUsername, err)
	}
	if err := validate.Var(req.Email, "required,email"); err != nil {
		return fmt.Errorf("%w: email %v", errors.ErrInvalidUsername, err)
	}
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}
	if !isPasswordComplex(req.Password) {
		return errors.ErrInvalidPassword
	}
	return nil
}

func isPasswordComplex(s string) bool {
	var (
		hasUpper   = false
		hasLower   = false
		hasNumber  = false
		hasSpecial = false
	)
	for _, char := range s {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}
	return hasUpper && hasLower && hasNumber && hasSpecial
}
