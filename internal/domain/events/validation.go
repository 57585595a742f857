package events

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var submissionValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names so errors match what the client sent.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateSubmission checks that every required submission field is present.
// Empty strings are accepted; content is not inspected.
func ValidateSubmission(sub Submission) error {
	err := submissionValidator.Struct(sub)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		first := fieldErrs[0]
		return ValidationError{Field: first.Field(), Message: messageForTag(first.Tag())}
	}
	return ValidationError{Message: err.Error()}
}

func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "is required"
	default:
		return "failed " + tag + " validation"
	}
}
