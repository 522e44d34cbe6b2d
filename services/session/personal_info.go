package session

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mirakyc/onboarding/types"
)

var validate = newValidator()

// newValidator reports fields by their JSON names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidatePersonalInfo checks the applicant details entered on the personal info step
func ValidatePersonalInfo(info types.PersonalInfo) error {
	err := validate.Struct(info)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	problems := make([]string, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		switch fieldErr.Tag() {
		case "required":
			problems = append(problems, fmt.Sprintf("%s is required", fieldErr.Field()))
		case "email":
			problems = append(problems, fmt.Sprintf("%s must be a valid email address", fieldErr.Field()))
		case "datetime":
			problems = append(problems, fmt.Sprintf("%s must use the YYYY-MM-DD format", fieldErr.Field()))
		default:
			problems = append(problems, fmt.Sprintf("%s is invalid", fieldErr.Field()))
		}
	}
	return fmt.Errorf("invalid personal info: %s", strings.Join(problems, ", "))
}
