package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a struct validator that reports JSON field names and knows the
// `notblank` and `password` rules used by the auth payloads.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return PasswordPolicy(fl.Field().String()) == ""
	})
	return v
}

// PasswordPolicy returns the first unmet password rule, or an empty string.
func PasswordPolicy(pw string) string {
	p := strings.TrimSpace(pw)
	if p == "" {
		return "New password is required."
	}
	if len(p) < 8 {
		return "Password must be at least 8 characters."
	}
	var letter, digit bool
	for _, r := range p {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter {
		return "Password must contain at least one letter."
	}
	if !digit {
		return "Password must contain at least one number."
	}
	return ""
}

// Message turns the first struct validation failure into a client-facing sentence.
func Message(err error, fallback string) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fallback
	}
	fe := fieldErrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		if fe.Kind() == reflect.String {
			if field == "password" || field == "newPassword" {
				return fmt.Sprintf("Password must be at least %s characters", fe.Param())
			}
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be %s", field, strings.ReplaceAll(fe.Param(), " ", " or "))
	case "password":
		return strings.TrimSuffix(PasswordPolicy(fmt.Sprint(fe.Value())), ".")
	}
	return fallback
}
