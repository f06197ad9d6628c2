package util

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ValidateStruct runs validator tags against a request struct and returns
// a single message listing every failed field, or nil.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var sb strings.Builder
		for i, fieldErr := range validationErrors {
			if i > 0 {
				sb.WriteString("; ")
			}
			sb.WriteString(fieldErr.Field())
			sb.WriteString(" ")
			sb.WriteString(fieldErr.Tag())
		}
		return &ValidationError{Message: sb.String()}
	}
	return err
}
