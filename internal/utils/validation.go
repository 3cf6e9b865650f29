package utils

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	otpCodeRegex = regexp.MustCompile(`^[0-9]{6}$`)
	// Recovery codes are 10 hex characters, optionally grouped with a
	// single dash (XXXXX-XXXXX).
	recoveryCodeRegex = regexp.MustCompile(`^[0-9a-fA-F]{5}-?[0-9a-fA-F]{5}$`)
)

func init() {
	validate = validator.New()

	// A second-factor code is either a 6-digit TOTP code or a recovery
	// code; both arrive through the same field.
	validate.RegisterValidation("authcode", func(fl validator.FieldLevel) bool {
		code := strings.TrimSpace(fl.Field().String())
		return otpCodeRegex.MatchString(code) || recoveryCodeRegex.MatchString(code)
	})
}

// Validate validates a struct using the validator
func Validate(s any) error {
	return validate.Struct(s)
}

// FormatValidationErrors formats validation errors for API response
func FormatValidationErrors(err error) map[string]string {
	errors := make(map[string]string)

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			field := strings.ToLower(e.Field())
			switch e.Tag() {
			case "required":
				errors[field] = "This field is required"
			case "email":
				errors[field] = "Invalid email format"
			case "min":
				errors[field] = "Value is too short"
			case "max":
				errors[field] = "Value is too long"
			case "authcode":
				errors[field] = "Code must be a 6-digit code or a recovery code"
			default:
				errors[field] = "Invalid value"
			}
		}
	}

	return errors
}
