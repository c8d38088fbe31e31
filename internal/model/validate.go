package model

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared by every request and record type in this package.
// validator.Validate caches struct metadata and is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their JSON name so clients see "service_type",
	// not "ServiceType".
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "service_type", func(fl validator.FieldLevel) bool {
		return ServiceType(fl.Field().String()).Valid()
	})
	mustRegister(v, "frequency", func(fl validator.FieldLevel) bool {
		return Frequency(fl.Field().String()).Valid()
	})
	mustRegister(v, "lead_status", func(fl validator.FieldLevel) bool {
		return Status(fl.Field().String()).Valid()
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// Allowed returns the accepted values for one of the enum tags, used to
// build "must be one of" messages.
func Allowed(tag string) []string {
	var values []string
	switch tag {
	case "service_type":
		for _, v := range ServiceTypes {
			values = append(values, string(v))
		}
	case "frequency":
		for _, v := range Frequencies {
			values = append(values, string(v))
		}
	case "lead_status":
		for _, v := range Statuses {
			values = append(values, string(v))
		}
	}
	return values
}
