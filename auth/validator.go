package auth

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type SignupRequest struct {
	Email    string `validate:"required,email"`
	FullName string `validate:"required,min=2,max=64"`
	Password string `validate:"required,min=8,max=72"`
}

func ValidateSignup(req SignupRequest) error {
	return validate.Struct(req)
}
