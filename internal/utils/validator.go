// internal/utils/validator.go
package utils

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var addressPattern = regexp.MustCompile(`^[a-zA-Z0-9._:-]+$`)

func init() {
	validate = validator.New()
	validate.RegisterValidation("party_address", validatePartyAddress)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// Party addresses are opaque identities but must be printable and bounded so
// they can key purchase records and appear in URLs.
func validatePartyAddress(fl validator.FieldLevel) bool {
	address := fl.Field().String()

	if len(address) < 3 || len(address) > 128 {
		return false
	}

	return addressPattern.MatchString(address)
}

type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []FieldError {
	var fieldErrors []FieldError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			fieldErrors = append(fieldErrors, FieldError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return fieldErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param() + " characters"
	case "max":
		return e.Field() + " must be at most " + e.Param() + " characters"
	case "party_address":
		return "Address must be 3-128 characters of letters, digits, dots, dashes, colons or underscores"
	default:
		return e.Field() + " is invalid"
	}
}
