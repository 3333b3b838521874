package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError carries one message per invalid field
type ValidationError struct {
	Errors map[string]string `json:"errors"`
}

// Error joins the field messages in field order
func (v *ValidationError) Error() string {
	fields := make([]string, 0, len(v.Errors))
	for field := range v.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	messages := make([]string, 0, len(fields))
	for _, field := range fields {
		messages = append(messages, field+": "+v.Errors[field])
	}
	return strings.Join(messages, "; ")
}

// NewValidationError converts validator failures into field messages
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	v := &ValidationError{Errors: make(map[string]string, len(errs))}
	for _, err := range errs {
		v.Errors[err.Field()] = message(err)
	}
	return v
}

func message(err validator.FieldError) string {
	field, param := err.Field(), err.Param()

	if values, ok := enums[err.Tag()]; ok {
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(values, ", "))
	}

	switch err.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "latitude":
		return field + " must be between -90 and 90"
	case "longitude":
		return field + " must be between -180 and 180"
	case "iso4217":
		return field + " must be an ISO 4217 currency code"
	default:
		return field + " is invalid"
	}
}

// AddError sets the message for field
func (v *ValidationError) AddError(field, msg string) {
	if v.Errors == nil {
		v.Errors = make(map[string]string)
	}
	v.Errors[field] = msg
}

// HasErrors reports whether any field failed
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// GetFieldError returns the message for field
func (v *ValidationError) GetFieldError(field string) (string, bool) {
	msg, ok := v.Errors[field]
	return msg, ok
}
