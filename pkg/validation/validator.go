package validation

import (
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// enums lists the accepted values of each custom enum tag, in display order
var enums = map[string][]string{
	"service_type": {"standard", "confort", "plus", "business"},
	"trip_type":    {"hourly", "daily", "airport", "airport_transfer"},
	"ride_status":  {"pending", "accepted", "waiting", "in_progress", "completed", "cancelled"},
}

// Validator returns the shared validator instance with custom tags registered
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		for tag, values := range enums {
			_ = validate.RegisterValidation(tag, enumValidator(values))
		}
	})
	return validate
}

func enumValidator(values []string) validator.Func {
	allowed := make(map[string]bool, len(values))
	for _, v := range values {
		allowed[v] = true
	}
	return func(fl validator.FieldLevel) bool {
		return allowed[fl.Field().String()]
	}
}

// ValidateStruct validates s and converts failures into a *ValidationError
func ValidateStruct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return NewValidationError(verrs)
	}
	return err
}

// ValidateLatLng checks a coordinate pair without a struct
func ValidateLatLng(lat, lng float64) error {
	v := &ValidationError{}
	if lat < -90 || lat > 90 {
		v.AddError("latitude", "latitude must be between -90 and 90")
	}
	if lng < -180 || lng > 180 {
		v.AddError("longitude", "longitude must be between -180 and 180")
	}
	if v.HasErrors() {
		return v
	}
	return nil
}
