package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/helpdesk-kit/tickets/pkg/util"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the shared validator. Field names in errors are taken
// from json tags so they line up with form and API field names.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// validateInput runs struct validation and converts failures into a
// VALIDATION_FAILED error whose details map field name to message.
func validateInput(input any) error {
	err := GetValidator().Struct(input)
	if err == nil {
		return nil
	}
	details := ParseErrors(err)
	if len(details) == 0 {
		return apperrors.NewInternalError(err)
	}
	return apperrors.NewValidationError("validation failed", details)
}

// ParseErrors flattens validator errors into a field -> message map. Only the
// first failure per field is kept.
func ParseErrors(err error) map[string]any {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	details := make(map[string]any, len(validationErrors))
	for _, e := range validationErrors {
		if _, seen := details[e.Field()]; seen {
			continue
		}
		details[e.Field()] = prettyError(e)
	}
	return details
}

func prettyError(e validator.FieldError) string {
	field := fieldLabel(e.Field())
	switch e.Tag() {
	case "required":
		return field + " is required."
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters long.", field, e.Param())
		}
		return fmt.Sprintf("%s must be at least %s.", field, e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters long.", field, e.Param())
		}
		return fmt.Sprintf("%s must be at most %s.", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", field, strings.ReplaceAll(e.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid.", field)
	}
}

func fieldLabel(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + strings.ReplaceAll(name[1:], "_", " ")
}
